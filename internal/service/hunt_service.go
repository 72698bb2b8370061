package service

import (
	"encoding/json"
	"errors"
	"strings"

	"campus_hunt_backend/internal/model"
	"campus_hunt_backend/internal/repository"
	"campus_hunt_backend/internal/util"

	"gorm.io/gorm"
)

// HuntService owns the teacher-side lifecycle of hunts and their
// questions: authoring, ordering, activation and result review.
type HuntService struct {
	HuntRepo       *repository.HuntRepository
	QuestionRepo   *repository.QuestionRepository
	SubmissionRepo *repository.SubmissionRepository
	PhotoRepo      *repository.PhotoSubmissionRepository
	DB             *gorm.DB
}

func NewHuntService(
	huntRepo *repository.HuntRepository,
	questionRepo *repository.QuestionRepository,
	submissionRepo *repository.SubmissionRepository,
	photoRepo *repository.PhotoSubmissionRepository,
	db *gorm.DB,
) *HuntService {
	return &HuntService{
		HuntRepo:       huntRepo,
		QuestionRepo:   questionRepo,
		SubmissionRepo: submissionRepo,
		PhotoRepo:      photoRepo,
		DB:             db,
	}
}

type HuntCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type QuestionRequest struct {
	QuestionType     string   `json:"questionType"`
	Text             string   `json:"text"`
	Choices          []string `json:"choices"`
	CorrectAnswer    string   `json:"correctAnswer"`
	Hint             string   `json:"hint"`
	NextLocationHint string   `json:"nextLocationHint"`
	Points           int      `json:"points"`
}

type HuntWithQuestionsRequest struct {
	HuntName        string            `json:"huntName" binding:"required"`
	HuntDescription string            `json:"huntDescription"`
	Questions       []QuestionRequest `json:"questions"`
}

// encodeChoices pads multiple-choice options to the fixed slot count
// and stores them as JSON; other kinds store nothing.
func encodeChoices(questionType string, choices []string) string {
	if questionType != model.QuestionMultipleChoice {
		return ""
	}
	padded := make([]string, 0, model.ChoiceSlots)
	padded = append(padded, choices...)
	for len(padded) < model.ChoiceSlots {
		padded = append(padded, "")
	}
	raw, _ := json.Marshal(padded)
	return string(raw)
}

func buildQuestion(huntID uint, order int, req QuestionRequest) *model.Question {
	questionType := strings.TrimSpace(req.QuestionType)
	if questionType == "" {
		questionType = model.QuestionMultipleChoice
	}
	points := req.Points
	if points <= 0 {
		points = 10
	}

	return &model.Question{
		HuntID:           huntID,
		QuestionOrder:    order,
		QuestionType:     questionType,
		Text:             strings.TrimSpace(req.Text),
		Choices:          encodeChoices(questionType, req.Choices),
		CorrectAnswer:    strings.TrimSpace(req.CorrectAnswer),
		Hint:             req.Hint,
		NextLocationHint: strings.TrimSpace(req.NextLocationHint),
		QRToken:          model.NewQRToken(),
		Points:           points,
	}
}

func (s *HuntService) CreateHunt(teacherID uint, req HuntCreateRequest) (*model.Hunt, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("hunt name is required")
	}

	hunt := &model.Hunt{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		TeacherID:   teacherID,
		IsActive:    false,
	}
	if err := s.HuntRepo.Create(hunt); err != nil {
		return nil, err
	}
	return hunt, nil
}

// CreateHuntWithQuestions creates a hunt and its question trail in one
// transaction. Entries without text or answer are dropped; the kept
// ones get dense 1-based orders and fresh QR tokens.
func (s *HuntService) CreateHuntWithQuestions(teacherID uint, req HuntWithQuestionsRequest) (*model.Hunt, error) {
	if strings.TrimSpace(req.HuntName) == "" {
		return nil, errors.New("hunt name is required")
	}

	var created *model.Hunt
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		hunt := &model.Hunt{
			Name:        strings.TrimSpace(req.HuntName),
			Description: strings.TrimSpace(req.HuntDescription),
			TeacherID:   teacherID,
			IsActive:    false,
		}
		if err := tx.Create(hunt).Error; err != nil {
			return err
		}

		order := 0
		for _, q := range req.Questions {
			if strings.TrimSpace(q.Text) == "" {
				continue
			}
			if q.QuestionType != model.QuestionPhoto && strings.TrimSpace(q.CorrectAnswer) == "" {
				continue
			}
			order++
			question := buildQuestion(hunt.ID, order, q)
			if err := tx.Create(question).Error; err != nil {
				return err
			}
		}

		created = hunt
		return nil
	})

	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetOwnedHunt loads a hunt and enforces that it belongs to the acting
// teacher.
func (s *HuntService) GetOwnedHunt(teacherID, huntID uint) (*model.Hunt, error) {
	hunt, err := s.HuntRepo.FindByID(huntID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrHuntNotFound
		}
		return nil, err
	}
	if hunt.TeacherID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return hunt, nil
}

func (s *HuntService) GetOwnedHuntWithQuestions(teacherID, huntID uint) (*model.Hunt, error) {
	hunt, err := s.HuntRepo.FindByIDWithQuestions(huntID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrHuntNotFound
		}
		return nil, err
	}
	if hunt.TeacherID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return hunt, nil
}

func (s *HuntService) ListByTeacher(teacherID uint) ([]model.Hunt, error) {
	return s.HuntRepo.ListByTeacher(teacherID)
}

func (s *HuntService) UpdateHunt(teacherID, huntID uint, req HuntCreateRequest) (*model.Hunt, error) {
	hunt, err := s.GetOwnedHunt(teacherID, huntID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("hunt name is required")
	}

	hunt.Name = strings.TrimSpace(req.Name)
	hunt.Description = strings.TrimSpace(req.Description)
	if err := s.HuntRepo.Update(hunt); err != nil {
		return nil, err
	}
	return hunt, nil
}

// ToggleActive flips whether students may enter the hunt and returns
// the new state.
func (s *HuntService) ToggleActive(teacherID, huntID uint) (bool, error) {
	hunt, err := s.GetOwnedHunt(teacherID, huntID)
	if err != nil {
		return false, err
	}

	hunt.IsActive = !hunt.IsActive
	if err := s.HuntRepo.Update(hunt); err != nil {
		return false, err
	}
	return hunt.IsActive, nil
}

// DeleteHunt removes the hunt with its questions and their photo
// submissions in one transaction. Completion records are kept for the
// teacher's archives.
func (s *HuntService) DeleteHunt(teacherID, huntID uint) error {
	hunt, err := s.GetOwnedHunt(teacherID, huntID)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&model.Question{}).
			Where("hunt_id = ?", hunt.ID).
			Pluck("id", &questionIDs).Error; err != nil {
			return err
		}

		if err := s.PhotoRepo.DeleteByQuestionIDs(tx, questionIDs); err != nil {
			return err
		}
		if err := tx.Where("hunt_id = ?", hunt.ID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(hunt).Error
	})
}

// AddQuestion appends a question at the end of the trail.
func (s *HuntService) AddQuestion(teacherID, huntID uint, req QuestionRequest) (*model.Question, error) {
	hunt, err := s.GetOwnedHunt(teacherID, huntID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, util.ErrMissingField
	}
	questionType := strings.TrimSpace(req.QuestionType)
	if questionType != model.QuestionPhoto && strings.TrimSpace(req.CorrectAnswer) == "" {
		return nil, util.ErrMissingField
	}

	maxOrder, err := s.QuestionRepo.MaxOrder(hunt.ID)
	if err != nil {
		return nil, err
	}

	question := buildQuestion(hunt.ID, maxOrder+1, req)
	if err := s.QuestionRepo.Create(question); err != nil {
		return nil, err
	}
	return question, nil
}

// GetOwnedQuestion loads a question and enforces ownership through its
// hunt.
func (s *HuntService) GetOwnedQuestion(teacherID, questionID uint) (*model.Question, error) {
	question, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if _, err := s.GetOwnedHunt(teacherID, question.HuntID); err != nil {
		return nil, err
	}
	return question, nil
}

// UpdateQuestion rewrites a question's content in place. Order and QR
// token never change here, so printed codes stay valid.
func (s *HuntService) UpdateQuestion(teacherID, questionID uint, req QuestionRequest) (*model.Question, error) {
	question, err := s.GetOwnedQuestion(teacherID, questionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, util.ErrMissingField
	}

	questionType := strings.TrimSpace(req.QuestionType)
	if questionType == "" {
		questionType = question.QuestionType
	}
	points := req.Points
	if points <= 0 {
		points = 10
	}

	question.QuestionType = questionType
	question.Text = strings.TrimSpace(req.Text)
	question.CorrectAnswer = strings.TrimSpace(req.CorrectAnswer)
	question.Hint = req.Hint
	question.NextLocationHint = strings.TrimSpace(req.NextLocationHint)
	question.Points = points
	question.Choices = encodeChoices(questionType, req.Choices)

	if err := s.QuestionRepo.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

// DeleteQuestion removes a question and closes the gap so orders stay
// dense and 1-based.
func (s *HuntService) DeleteQuestion(teacherID, questionID uint) error {
	question, err := s.GetOwnedQuestion(teacherID, questionID)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.PhotoRepo.DeleteByQuestionIDs(tx, []uint{question.ID}); err != nil {
			return err
		}
		if err := tx.Delete(question).Error; err != nil {
			return err
		}
		return tx.Model(&model.Question{}).
			Where("hunt_id = ? AND question_order > ?", question.HuntID, question.QuestionOrder).
			Update("question_order", gorm.Expr("question_order - 1")).Error
	})
}

func (s *HuntService) HuntResults(teacherID, huntID uint) (*model.Hunt, []model.Submission, error) {
	hunt, err := s.GetOwnedHunt(teacherID, huntID)
	if err != nil {
		return nil, nil, err
	}

	submissions, err := s.SubmissionRepo.ListByHunt(hunt.ID)
	if err != nil {
		return nil, nil, err
	}
	return hunt, submissions, nil
}

func (s *HuntService) HuntPhotos(teacherID, huntID uint) ([]model.PhotoSubmission, error) {
	hunt, err := s.GetOwnedHunt(teacherID, huntID)
	if err != nil {
		return nil, err
	}
	return s.PhotoRepo.ListByHunt(hunt.ID)
}

// MaxScore is the sum of all question points in a hunt.
func MaxScore(questions []model.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Points
	}
	return total
}
