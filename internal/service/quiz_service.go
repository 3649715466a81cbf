package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"skillsprint_backend/internal/lifecycle"
	"skillsprint_backend/internal/model"
	"skillsprint_backend/internal/repository"
	"skillsprint_backend/internal/util"

	"gorm.io/gorm"
)

// QuizService 入门画像测验。不设通过线，提交用于个性化推荐。
type QuizService struct {
	QuizRepo *repository.QuizRepository
}

func NewQuizService(quizRepo *repository.QuizRepository) *QuizService {
	return &QuizService{QuizRepo: quizRepo}
}

func (s *QuizService) Questions() ([]model.QuizQuestion, error) {
	return s.QuizRepo.ListQuestions()
}

// Submit 校验必填题、归一化答案后落库。答案值可能是裸原始值、
// 选项对象或数组，归一化交给 lifecycle。
func (s *QuizService) Submit(userID uint, answers map[string]interface{}) (*model.AttemptResult, error) {
	questions, err := s.QuizRepo.ListQuestions()
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, q := range questions {
		if !q.Required {
			continue
		}
		if !lifecycle.IsAnswered(answers[q.Key], q.QuestionType) {
			missing = append(missing, q.Title)
		}
	}
	if len(missing) > 0 {
		return nil, util.NewValidationError("required questions are unanswered", missing...)
	}

	payload := lifecycle.BuildSubmission(answers)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	answered := 0
	var recommendations []string
	for _, q := range questions {
		if _, ok := payload[q.Key]; ok {
			answered++
		} else if !q.Required {
			recommendations = append(recommendations,
				fmt.Sprintf("Answering %q helps us tailor your sprints.", q.Title))
		}
	}
	score := 100
	if len(questions) > 0 {
		score = answered * 100 / len(questions)
	}
	if recommendations == nil {
		recommendations = []string{}
	}

	attempt := &model.QuizAttempt{
		UserID:          userID,
		Answers:         raw,
		Score:           score,
		Passed:          true,
		WeakAreas:       []string{},
		Recommendations: recommendations,
	}
	if err := s.QuizRepo.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	return &model.AttemptResult{
		AttemptID:         attempt.ID,
		Score:             score,
		Passed:            true,
		AttemptsRemaining: -1, // 画像测验不限次数
		WeakAreas:         []string{},
		Recommendations:   recommendations,
	}, nil
}

// LatestAttempt 最近一次提交，没有时返回nil
func (s *QuizService) LatestAttempt(userID uint) (*model.QuizAttempt, error) {
	attempt, err := s.QuizRepo.LatestAttempt(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return attempt, nil
}
