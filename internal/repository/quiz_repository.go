package repository

import (
	"skillsprint_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) ListQuestions() ([]model.QuizQuestion, error) {
	var qs []model.QuizQuestion
	err := r.DB.Order("`order` asc, created_at asc").Find(&qs).Error
	return qs, err
}

func (r *QuizRepository) CreateAttempt(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuizRepository) CountAttempts(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// LatestAttempt 用户最近一次画像测验提交
func (r *QuizRepository) LatestAttempt(userID uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").First(&attempt).Error
	return &attempt, err
}
