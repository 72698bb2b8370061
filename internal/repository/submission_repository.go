package repository

import (
	"campus_hunt_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(submission *model.Submission) error {
	return r.DB.Create(submission).Error
}

func (r *SubmissionRepository) ListByHunt(huntID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.DB.Where("hunt_id = ?", huntID).
		Order("completed_at DESC").
		Find(&submissions).Error
	return submissions, err
}
