package service

import (
	"context"
	"errors"

	"campus_hunt_backend/internal/model"
	"campus_hunt_backend/internal/repository"
	"campus_hunt_backend/internal/util"

	"gorm.io/gorm"
)

// StudentService assembles the participant-facing views: the dashboard
// of hunts, entering a hunt, and the per-hunt progress summary.
type StudentService struct {
	HuntRepo     *repository.HuntRepository
	QuestionRepo *repository.QuestionRepository
	PhotoRepo    *repository.PhotoSubmissionRepository
	Store        ProgressStore
}

func NewStudentService(
	huntRepo *repository.HuntRepository,
	questionRepo *repository.QuestionRepository,
	photoRepo *repository.PhotoSubmissionRepository,
	store ProgressStore,
) *StudentService {
	return &StudentService{
		HuntRepo:     huntRepo,
		QuestionRepo: questionRepo,
		PhotoRepo:    photoRepo,
		Store:        store,
	}
}

// StartedHunt summarizes a hunt the participant has progress in.
type StartedHunt struct {
	HuntID               uint   `json:"hunt_id"`
	HuntName             string `json:"hunt_name"`
	Score                int    `json:"score"`
	CompletedQuestions   int    `json:"completed_questions"`
	CurrentQuestionToken string `json:"current_question_token,omitempty"`
}

// Dashboard returns all active hunts plus the participant's started
// hunts. Started hunts whose hunt was deactivated or deleted in the
// meantime are dropped from the view but kept in the store.
func (s *StudentService) Dashboard(ctx context.Context, participantID string) ([]model.Hunt, []StartedHunt, error) {
	active, err := s.HuntRepo.ListActive()
	if err != nil {
		return nil, nil, err
	}

	progresses, err := s.Store.List(ctx, participantID)
	if err != nil {
		return nil, nil, err
	}

	started := make([]StartedHunt, 0, len(progresses))
	for _, progress := range progresses {
		hunt, err := s.HuntRepo.FindByID(progress.HuntID)
		if err != nil || !hunt.IsActive {
			continue
		}

		entry := StartedHunt{
			HuntID:             hunt.ID,
			HuntName:           hunt.Name,
			Score:              progress.Score,
			CompletedQuestions: len(progress.CompletedQuestions),
		}
		// The current token is empty once the participant is past the
		// last question.
		current, err := s.QuestionRepo.FindByHuntAndOrder(hunt.ID, progress.CurrentQuestion)
		if err == nil {
			entry.CurrentQuestionToken = current.QRToken
		}
		started = append(started, entry)
	}

	return active, started, nil
}

// StartHunt creates the participant's progress for an active hunt if
// it does not exist yet and returns the first question to visit.
func (s *StudentService) StartHunt(ctx context.Context, participantID string, huntID uint) (*model.Question, *model.HuntProgress, error) {
	hunt, err := s.HuntRepo.FindByID(huntID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrHuntNotFound
		}
		return nil, nil, err
	}
	if !hunt.IsActive {
		return nil, nil, util.ErrHuntNotFound
	}

	progress, err := s.Store.Get(ctx, participantID, huntID)
	if err != nil {
		return nil, nil, err
	}
	if progress == nil {
		progress = model.NewHuntProgress(huntID, 1)
		if err := s.Store.Save(ctx, participantID, progress); err != nil {
			return nil, nil, err
		}
	}

	first, err := s.QuestionRepo.FindByHuntAndOrder(huntID, 1)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrHuntNoQuestions
		}
		return nil, nil, err
	}

	return first, progress, nil
}

// RecordPhoto stores which photo a participant handed in for a
// question, replacing their previous upload if any. The returned
// filename is the replaced photo's, empty on a first upload, so the
// caller can remove the stale blob.
func (s *StudentService) RecordPhoto(questionID uint, participantID, studentName, filename, url string) (string, error) {
	replaced := ""
	existing, err := s.PhotoRepo.FindByQuestionAndParticipant(questionID, participantID)
	if err == nil {
		replaced = existing.Filename
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	err = s.PhotoRepo.Save(&model.PhotoSubmission{
		QuestionID:    questionID,
		ParticipantID: participantID,
		StudentName:   studentName,
		Filename:      filename,
		URL:           url,
	})
	if err != nil {
		return "", err
	}
	return replaced, nil
}

// Progress returns the hunt, the participant's progress (nil when the
// hunt was never started) and the hunt's question count.
func (s *StudentService) Progress(ctx context.Context, participantID string, huntID uint) (*model.Hunt, *model.HuntProgress, int, error) {
	hunt, err := s.HuntRepo.FindByID(huntID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, 0, util.ErrHuntNotFound
		}
		return nil, nil, 0, err
	}

	total, err := s.HuntRepo.CountQuestions(huntID)
	if err != nil {
		return nil, nil, 0, err
	}

	progress, err := s.Store.Get(ctx, participantID, huntID)
	if err != nil {
		return nil, nil, 0, err
	}

	return hunt, progress, int(total), nil
}
