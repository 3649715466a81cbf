package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"skillsprint_backend/internal/config"
	"skillsprint_backend/internal/lifecycle"
	"skillsprint_backend/internal/model"
	"skillsprint_backend/internal/repository"
	"skillsprint_backend/internal/util"

	"gorm.io/gorm"
)

// AssessmentService 技术评估：有标准答案、有分数、有尝试次数上限
type AssessmentService struct {
	AssessmentRepo *repository.AssessmentRepository
	Cfg            *config.Config
}

func NewAssessmentService(assessmentRepo *repository.AssessmentRepository, cfg *config.Config) *AssessmentService {
	return &AssessmentService{
		AssessmentRepo: assessmentRepo,
		Cfg:            cfg,
	}
}

// AssessmentQuestionView 对外题目视图，不含标准答案和解析
type AssessmentQuestionView struct {
	Key          string          `json:"key"`
	QuestionType string          `json:"questionType"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	Options      json.RawMessage `json:"options,omitempty"`
	Points       int             `json:"points"`
	Required     bool            `json:"required"`
	Order        int             `json:"order"`
}

// Questions 题目列表与用户剩余尝试次数
func (s *AssessmentService) Questions(userID uint) ([]AssessmentQuestionView, int, error) {
	questions, err := s.AssessmentRepo.ListQuestions()
	if err != nil {
		return nil, 0, err
	}
	views := make([]AssessmentQuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, AssessmentQuestionView{
			Key:          q.Key,
			QuestionType: q.QuestionType,
			Title:        q.Title,
			Content:      q.Content,
			Options:      q.Options,
			Points:       q.Points,
			Required:     q.Required,
			Order:        q.Order,
		})
	}
	remaining, err := s.attemptsRemaining(userID)
	if err != nil {
		return nil, 0, err
	}
	return views, remaining, nil
}

func (s *AssessmentService) attemptsRemaining(userID uint) (int, error) {
	count, err := s.AssessmentRepo.CountAttempts(userID)
	if err != nil {
		return 0, err
	}
	remaining := s.Cfg.Quiz.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Submit 判分并落库。答案先归一化再和标准答案比对，
// 多选题答案为数组时任一元素命中即算包含，需全部命中得分。
func (s *AssessmentService) Submit(userID uint, answers map[string]interface{}) (*model.AttemptResult, error) {
	remaining, err := s.attemptsRemaining(userID)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, util.ErrNoAttemptsRemaining
	}

	questions, err := s.AssessmentRepo.ListQuestions()
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, q := range questions {
		if q.Required && !lifecycle.IsAnswered(answers[q.Key], q.QuestionType) {
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

	score, maxScore := 0, 0
	weakAreas := []string{}
	var recommendations []string
	for _, q := range questions {
		points := q.Points
		if points == 0 {
			points = 1
		}
		maxScore += points
		if s.isCorrect(&q, payload[q.Key]) {
			score += points
		} else {
			weakAreas = append(weakAreas, q.Title)
			if q.Explanation != "" {
				recommendations = append(recommendations, q.Explanation)
			}
		}
	}
	if recommendations == nil {
		recommendations = []string{}
	}

	passed := maxScore > 0 && score*100/maxScore >= s.Cfg.Quiz.PassingScore

	attempt := &model.TechnicalAttempt{
		UserID:          userID,
		Answers:         raw,
		Score:           score,
		MaxScore:        maxScore,
		Passed:          passed,
		WeakAreas:       weakAreas,
		Recommendations: recommendations,
	}
	if err := s.AssessmentRepo.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	return &model.AttemptResult{
		AttemptID:         attempt.ID,
		Score:             score,
		MaxScore:          maxScore,
		Passed:            passed,
		AttemptsRemaining: remaining - 1,
		WeakAreas:         weakAreas,
		Recommendations:   recommendations,
	}, nil
}

// isCorrect 单题判分。标准答案存为字符串，多选用逗号分隔
func (s *AssessmentService) isCorrect(q *model.TechnicalQuestion, answer interface{}) bool {
	if answer == nil || q.Answer == "" {
		return false
	}

	if q.QuestionType == "multi_select" {
		expected := strings.Split(q.Answer, ",")
		arr, ok := answer.([]interface{})
		if !ok || len(arr) != len(expected) {
			return false
		}
		for _, want := range expected {
			if !lifecycle.IsSelected(answer, strings.TrimSpace(want)) {
				return false
			}
		}
		return true
	}

	if q.QuestionType == "numeric" {
		return lifecycle.IsSelected(answer, q.Answer) ||
			fmt.Sprintf("%v", lifecycle.NormalizeAnswer(answer)) == q.Answer
	}

	norm := lifecycle.NormalizeAnswer(answer)
	if str, ok := norm.(string); ok {
		return strings.EqualFold(strings.TrimSpace(str), strings.TrimSpace(q.Answer))
	}
	return lifecycle.IsSelected(answer, q.Answer)
}

// LatestAttempt 最近一次提交，没有时返回nil
func (s *AssessmentService) LatestAttempt(userID uint) (*model.TechnicalAttempt, error) {
	attempt, err := s.AssessmentRepo.LatestAttempt(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return attempt, nil
}
