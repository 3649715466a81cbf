package repository

import (
	"skillsprint_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) ListQuestions() ([]model.TechnicalQuestion, error) {
	var qs []model.TechnicalQuestion
	err := r.DB.Order("`order` asc, created_at asc").Find(&qs).Error
	return qs, err
}

func (r *AssessmentRepository) CreateQuestion(q *model.TechnicalQuestion) error {
	return r.DB.Create(q).Error
}

func (r *AssessmentRepository) CreateAttempt(attempt *model.TechnicalAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AssessmentRepository) CountAttempts(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TechnicalAttempt{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *AssessmentRepository) LatestAttempt(userID uint) (*model.TechnicalAttempt, error) {
	var attempt model.TechnicalAttempt
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").First(&attempt).Error
	return &attempt, err
}
