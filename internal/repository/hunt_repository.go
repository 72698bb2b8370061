package repository

import (
	"campus_hunt_backend/internal/model"

	"gorm.io/gorm"
)

type HuntRepository struct {
	DB *gorm.DB
}

func NewHuntRepository(db *gorm.DB) *HuntRepository {
	return &HuntRepository{DB: db}
}

func (r *HuntRepository) Create(hunt *model.Hunt) error {
	return r.DB.Create(hunt).Error
}

func (r *HuntRepository) FindByID(id uint) (*model.Hunt, error) {
	var hunt model.Hunt
	err := r.DB.First(&hunt, id).Error
	if err != nil {
		return nil, err
	}
	return &hunt, nil
}

// FindByIDWithQuestions preloads the hunt's questions in play order.
func (r *HuntRepository) FindByIDWithQuestions(id uint) (*model.Hunt, error) {
	var hunt model.Hunt
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("question_order ASC")
	}).First(&hunt, id).Error
	if err != nil {
		return nil, err
	}
	return &hunt, nil
}

func (r *HuntRepository) ListByTeacher(teacherID uint) ([]model.Hunt, error) {
	var hunts []model.Hunt
	err := r.DB.Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&hunts).Error
	return hunts, err
}

func (r *HuntRepository) ListActive() ([]model.Hunt, error) {
	var hunts []model.Hunt
	err := r.DB.Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&hunts).Error
	return hunts, err
}

func (r *HuntRepository) Update(hunt *model.Hunt) error {
	return r.DB.Save(hunt).Error
}

func (r *HuntRepository) CountQuestions(huntID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).
		Where("hunt_id = ?", huntID).
		Count(&count).Error
	return count, err
}
