package service

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"campus_hunt_backend/internal/model"
	"campus_hunt_backend/internal/util"
	"campus_hunt_backend/pkg/logger"
	"campus_hunt_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestionSource is the read side the progression engine needs from
// the question store.
type QuestionSource interface {
	FindByToken(qrToken string) (*model.Question, error)
	FindByHuntAndOrder(huntID uint, order int) (*model.Question, error)
	ListByHunt(huntID uint) ([]model.Question, error)
}

// HuntSource resolves a question's owning hunt.
type HuntSource interface {
	FindByID(id uint) (*model.Hunt, error)
}

// CompletionSink receives the permanent record when a participant
// finishes a hunt.
type CompletionSink interface {
	Create(submission *model.Submission) error
}

// CompletionObserver is notified about the outcome of writing a
// completion record. Writes are fire-and-forget: a failed write never
// fails the answer that triggered it, so the observer is the only
// place the failure surfaces.
type CompletionObserver interface {
	CompletionSaved(submission *model.Submission)
	CompletionFailed(huntID uint, studentName string, err error)
}

type loggingCompletionObserver struct{}

func (loggingCompletionObserver) CompletionSaved(submission *model.Submission) {
	monitoring.ObserveCompletion()
	logger.Log.Info("Hunt completed",
		zap.Uint("huntId", submission.HuntID),
		zap.String("studentName", submission.StudentName),
		zap.Int("totalScore", submission.TotalScore),
		zap.Int("maxScore", submission.MaxScore),
	)
}

func (loggingCompletionObserver) CompletionFailed(huntID uint, studentName string, err error) {
	logger.Log.Error("Failed to save hunt completion",
		zap.Uint("huntId", huntID),
		zap.String("studentName", studentName),
		zap.Error(err),
	)
}

// AnswerResult is the wire shape returned for every answer or photo
// submission.
type AnswerResult struct {
	Correct           bool   `json:"correct"`
	PointsEarned      int    `json:"points_earned"`
	Attempts          int    `json:"attempts"`
	TotalScore        int    `json:"total_score"`
	AlreadyCompleted  bool   `json:"already_completed,omitempty"`
	Message           string `json:"message,omitempty"`
	Hint              string `json:"hint,omitempty"`
	NextLocationHint  string `json:"next_location_hint,omitempty"`
	NextQRToken       string `json:"next_qr_token,omitempty"`
	HasNext           bool   `json:"has_next"`
	IsLastQuestion    bool   `json:"is_last_question"`
	CompletionMessage string `json:"completion_message,omitempty"`
	ImageURL          string `json:"image_url,omitempty"`
}

// ProgressionService drives a participant through a hunt: it grades
// answers, applies the attempt decay, advances the position and emits
// the completion record at the final question. It keeps no state of
// its own; callers own the HuntProgress value and persist it between
// requests.
type ProgressionService struct {
	Questions   QuestionSource
	Hunts       HuntSource
	Completions CompletionSink
	Observer    CompletionObserver
}

func NewProgressionService(questions QuestionSource, hunts HuntSource, completions CompletionSink) *ProgressionService {
	return &ProgressionService{
		Questions:   questions,
		Hunts:       hunts,
		Completions: completions,
		Observer:    loggingCompletionObserver{},
	}
}

// attemptMultiplier is the score decay per attempt number: full points
// on the first try, half on the second, a tenth on the third, nothing
// after that.
func attemptMultiplier(attempts int) float64 {
	switch attempts {
	case 1:
		return 1.0
	case 2:
		return 0.5
	case 3:
		return 0.1
	default:
		return 0.0
	}
}

// answerMatches grades a raw answer against the question. Choice and
// text questions compare case-insensitively after trimming; photo
// questions are satisfied by any submission.
func answerMatches(question *model.Question, rawAnswer string) bool {
	if question.QuestionType == model.QuestionPhoto {
		return true
	}
	submitted := strings.ToLower(strings.TrimSpace(rawAnswer))
	expected := strings.ToLower(strings.TrimSpace(question.CorrectAnswer))
	return submitted == expected
}

// ResolveStep looks up the question behind a QR token and enforces the
// shared preconditions: the token must exist and its hunt must be
// active. Submit* expect a question returned by this method.
func (s *ProgressionService) ResolveStep(qrToken string) (*model.Question, *model.Hunt, error) {
	if strings.TrimSpace(qrToken) == "" {
		return nil, nil, util.ErrMissingField
	}

	question, err := s.Questions.FindByToken(qrToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrQuestionNotFound
		}
		return nil, nil, err
	}

	hunt, err := s.Hunts.FindByID(question.HuntID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrQuestionNotFound
		}
		return nil, nil, err
	}

	if !hunt.IsActive {
		return nil, nil, util.ErrHuntNotActive
	}

	return question, hunt, nil
}

// HasNext reports whether another question follows this one in its
// hunt.
func (s *ProgressionService) HasNext(question *model.Question) (bool, error) {
	next, err := s.Questions.FindByHuntAndOrder(question.HuntID, question.QuestionOrder+1)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return next != nil, nil
}

// SubmitAnswer grades rawAnswer for the given question and mutates
// progress accordingly. Replays of an already-completed question are
// acknowledged without touching score or attempts.
func (s *ProgressionService) SubmitAnswer(progress *model.HuntProgress, question *model.Question, rawAnswer, studentName string) (*AnswerResult, error) {
	return s.submit(progress, question, answerMatches(question, rawAnswer), studentName)
}

// SubmitPhoto runs the same state machine as SubmitAnswer with the
// grading forced to correct. Storing the photo itself is the caller's
// side effect, not part of the progress state.
func (s *ProgressionService) SubmitPhoto(progress *model.HuntProgress, question *model.Question, studentName string) (*AnswerResult, error) {
	return s.submit(progress, question, true, studentName)
}

func (s *ProgressionService) submit(progress *model.HuntProgress, question *model.Question, correct bool, studentName string) (*AnswerResult, error) {
	progress.EnsureMaps()
	token := question.QRToken

	if progress.IsCompleted(token) {
		return &AnswerResult{
			Correct:          true,
			PointsEarned:     0,
			Attempts:         progress.Attempts[token],
			TotalScore:       progress.Score,
			AlreadyCompleted: true,
			Message:          "Question already completed",
		}, nil
	}

	progress.Attempts[token]++
	attempts := progress.Attempts[token]

	next, err := s.Questions.FindByHuntAndOrder(question.HuntID, question.QuestionOrder+1)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	result := &AnswerResult{
		Correct:        correct,
		Attempts:       attempts,
		TotalScore:     progress.Score,
		HasNext:        next != nil,
		IsLastQuestion: next == nil,
	}
	if next != nil {
		result.NextQRToken = next.QRToken
	}

	if !correct {
		result.Hint = question.Hint
		return result, nil
	}

	earned := int(float64(question.Points) * attemptMultiplier(attempts))
	progress.CompletedQuestions = append(progress.CompletedQuestions, token)
	progress.Score += earned
	progress.Marks[token] = earned
	progress.CurrentQuestion = question.QuestionOrder + 1

	result.PointsEarned = earned
	result.TotalScore = progress.Score
	result.NextLocationHint = question.NextLocationHint

	if next == nil {
		result.CompletionMessage = util.CompletionMessage
		s.recordCompletion(question.HuntID, progress, studentName)
	}

	return result, nil
}

// recordCompletion writes the permanent submission row. Failures are
// reported to the observer and swallowed: the participant already
// finished, and their result response must not depend on this write.
func (s *ProgressionService) recordCompletion(huntID uint, progress *model.HuntProgress, studentName string) {
	if studentName == "" {
		studentName = util.AnonymousStudentName
	}

	questions, err := s.Questions.ListByHunt(huntID)
	if err != nil {
		s.Observer.CompletionFailed(huntID, studentName, err)
		return
	}

	marks, err := json.Marshal(progress.Marks)
	if err != nil {
		s.Observer.CompletionFailed(huntID, studentName, err)
		return
	}

	submission := &model.Submission{
		HuntID:             huntID,
		StudentName:        studentName,
		TotalScore:         progress.Score,
		MaxScore:           MaxScore(questions),
		CompletedQuestions: len(progress.CompletedQuestions),
		TotalQuestions:     len(questions),
		MarksJSON:          string(marks),
		CompletedAt:        time.Now(),
	}

	if err := s.Completions.Create(submission); err != nil {
		s.Observer.CompletionFailed(huntID, studentName, err)
		return
	}

	s.Observer.CompletionSaved(submission)
}
