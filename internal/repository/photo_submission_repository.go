package repository

import (
	"campus_hunt_backend/internal/model"
	"errors"

	"gorm.io/gorm"
)

type PhotoSubmissionRepository struct {
	DB *gorm.DB
}

func NewPhotoSubmissionRepository(db *gorm.DB) *PhotoSubmissionRepository {
	return &PhotoSubmissionRepository{DB: db}
}

// Save records the participant's photo for a question, replacing any
// earlier upload by the same participant for the same question.
func (r *PhotoSubmissionRepository) Save(photo *model.PhotoSubmission) error {
	existing, err := r.FindByQuestionAndParticipant(photo.QuestionID, photo.ParticipantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(photo).Error
	}
	if err != nil {
		return err
	}

	existing.StudentName = photo.StudentName
	existing.Filename = photo.Filename
	existing.URL = photo.URL
	if err := r.DB.Save(existing).Error; err != nil {
		return err
	}
	photo.ID = existing.ID
	return nil
}

func (r *PhotoSubmissionRepository) FindByQuestionAndParticipant(questionID uint, participantID string) (*model.PhotoSubmission, error) {
	var photo model.PhotoSubmission
	err := r.DB.Where("question_id = ? AND participant_id = ?", questionID, participantID).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *PhotoSubmissionRepository) ListByHunt(huntID uint) ([]model.PhotoSubmission, error) {
	var photos []model.PhotoSubmission
	err := r.DB.
		Joins("JOIN questions ON questions.id = photo_submissions.question_id").
		Where("questions.hunt_id = ?", huntID).
		Order("photo_submissions.created_at DESC").
		Find(&photos).Error
	return photos, err
}

func (r *PhotoSubmissionRepository) DeleteByQuestionIDs(tx *gorm.DB, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}
	return tx.Where("question_id IN ?", questionIDs).
		Delete(&model.PhotoSubmission{}).Error
}
