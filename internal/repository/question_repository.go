package repository

import (
	"campus_hunt_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	err := r.DB.First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) FindByToken(qrToken string) (*model.Question, error) {
	var question model.Question
	err := r.DB.Where("qr_token = ?", qrToken).First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) FindByHuntAndOrder(huntID uint, order int) (*model.Question, error) {
	var question model.Question
	err := r.DB.Where("hunt_id = ? AND question_order = ?", huntID, order).
		First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) ListByHunt(huntID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("hunt_id = ?", huntID).
		Order("question_order ASC").
		Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) MaxOrder(huntID uint) (int, error) {
	var max int
	err := r.DB.Model(&model.Question{}).
		Where("hunt_id = ?", huntID).
		Select("COALESCE(MAX(question_order), 0)").
		Scan(&max).Error
	return max, err
}

func (r *QuestionRepository) Update(question *model.Question) error {
	return r.DB.Save(question).Error
}
