package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"skillsprint_backend/internal/config"
	"skillsprint_backend/internal/lifecycle"
	"skillsprint_backend/internal/model"
	"skillsprint_backend/internal/repository"
	"skillsprint_backend/internal/util"
	"skillsprint_backend/pkg/logger"
	"skillsprint_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SprintService 冲刺的进度跟踪与完成流程。
// 完成是事务性的增强接口：校验门禁、落库、更新技能画像、
// 在配额允许时顺带生成下一个冲刺，并用幂等键保证重试安全。
type SprintService struct {
	SprintRepo    *repository.SprintRepository
	ObjectiveRepo *repository.ObjectiveRepository
	SkillRepo     *repository.SkillRepository
	Generation    *GenerationService
	Cache         *CacheService
	Cfg           *config.Config
}

func NewSprintService(
	sprintRepo *repository.SprintRepository,
	objectiveRepo *repository.ObjectiveRepository,
	skillRepo *repository.SkillRepository,
	generation *GenerationService,
	cache *CacheService,
	cfg *config.Config,
) *SprintService {
	return &SprintService{
		SprintRepo:    sprintRepo,
		ObjectiveRepo: objectiveRepo,
		SkillRepo:     skillRepo,
		Generation:    generation,
		Cache:         cache,
		Cfg:           cfg,
	}
}

type UpdateProgressRequest struct {
	CompletedTasks int `json:"completedTasks" binding:"min=0"`
	TotalTasks     int `json:"totalTasks" binding:"min=0"`
}

type SetTaskRequest struct {
	Completed bool `json:"completed"`
}

type CompleteSprintRequest struct {
	TasksCompleted    int     `json:"tasksCompleted"`
	TotalTasks        int     `json:"totalTasks" binding:"min=0"`
	HoursSpent        float64 `json:"hoursSpent" binding:"min=0"`
	Reflection        string  `json:"reflection"`
	EvidenceSubmitted bool    `json:"evidenceSubmitted"`
}

// findOwned 加载用户目标下的冲刺，顺带返回目标本身
func (s *SprintService) findOwned(userID uint, objectiveID, sprintID string) (*model.Objective, *model.Sprint, error) {
	obj, err := s.ObjectiveRepo.FindByIDAndUserID(objectiveID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrObjectiveNotFound
		}
		return nil, nil, err
	}
	sprint, err := s.SprintRepo.FindByIDAndObjectiveID(sprintID, objectiveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrSprintNotFound
		}
		return nil, nil, err
	}
	return obj, sprint, nil
}

// Get 冲刺详情（读穿缓存）
func (s *SprintService) Get(ctx context.Context, userID uint, objectiveID, sprintID string) (*model.SprintView, error) {
	key := sprintKeyPrefix + sprintID
	var cached model.SprintView
	if s.Cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	_, sprint, err := s.findOwned(userID, objectiveID, sprintID)
	if err != nil {
		return nil, err
	}
	view := BuildSprintView(sprint)
	s.Cache.SetJSON(ctx, key, view)
	return view, nil
}

// UpdateProgress 局部更新任务进度；首次动工时把冲刺推进到in_progress
func (s *SprintService) UpdateProgress(ctx context.Context, userID uint, objectiveID, sprintID string, req *UpdateProgressRequest) (*model.SprintView, error) {
	obj, sprint, err := s.findOwned(userID, objectiveID, sprintID)
	if err != nil {
		return nil, err
	}
	if lifecycle.IsComplete(lifecycle.FromSprint(sprint)) {
		return nil, util.ErrSprintAlreadyCompleted
	}

	total := len(sprint.MicroTasks)
	completed := req.CompletedTasks
	if total > 0 && completed > total {
		completed = total
	}

	fields := map[string]interface{}{"tasks_completed": completed}
	if sprint.Status == model.SprintStatusTodo || sprint.Status == model.SprintStatusPlanned {
		fields["status"] = model.SprintStatusInProgress
	}
	if err := s.SprintRepo.UpdateFields(sprintID, fields); err != nil {
		return nil, err
	}

	s.Cache.InvalidateSprint(ctx, sprintID)
	s.Cache.InvalidateObjective(ctx, obj.ID, userID)

	sprint, err = s.SprintRepo.FindByID(sprintID)
	if err != nil {
		return nil, err
	}
	return BuildSprintView(sprint), nil
}

// SetTask 勾选/取消单个微任务，并同步冲刺级计数
func (s *SprintService) SetTask(ctx context.Context, userID uint, objectiveID, sprintID, taskID string, completed bool) (*model.SprintView, error) {
	obj, sprint, err := s.findOwned(userID, objectiveID, sprintID)
	if err != nil {
		return nil, err
	}
	if lifecycle.IsComplete(lifecycle.FromSprint(sprint)) {
		return nil, util.ErrSprintAlreadyCompleted
	}

	if err := s.SprintRepo.SetTaskCompletion(sprintID, taskID, completed); err != nil {
		return nil, err
	}
	count, err := s.SprintRepo.CountCompletedTasks(sprintID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"tasks_completed": count}
	if sprint.Status == model.SprintStatusTodo || sprint.Status == model.SprintStatusPlanned {
		fields["status"] = model.SprintStatusInProgress
	}
	if err := s.SprintRepo.UpdateFields(sprintID, fields); err != nil {
		return nil, err
	}

	s.Cache.InvalidateSprint(ctx, sprintID)
	s.Cache.InvalidateObjective(ctx, obj.ID, userID)

	sprint, err = s.SprintRepo.FindByID(sprintID)
	if err != nil {
		return nil, err
	}
	return BuildSprintView(sprint), nil
}

// Complete 完成冲刺。同一幂等键对同一冲刺的重复请求直接回放首次响应，
// 回执查询限定在归属校验通过的冲刺内，别人的键查不到。
func (s *SprintService) Complete(ctx context.Context, userID uint, objectiveID, sprintID, idempotencyKey string, req *CompleteSprintRequest) (*model.CompletionResult, error) {
	obj, sprint, err := s.findOwned(userID, objectiveID, sprintID)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		receipt, err := s.SprintRepo.FindReceipt(sprintID, idempotencyKey)
		if err == nil {
			var result model.CompletionResult
			if jsonErr := json.Unmarshal(receipt.Payload, &result); jsonErr == nil {
				logger.Log.Info("completion replayed from receipt",
					zap.String("sprintId", sprintID),
					zap.String("idempotencyKey", idempotencyKey))
				return &result, nil
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if lifecycle.IsComplete(lifecycle.FromSprint(sprint)) {
		return nil, util.ErrSprintAlreadyCompleted
	}

	// 以服务端的任务数为准，同时也不接受客户端自己声明没做完的提交
	totalTasks := len(sprint.MicroTasks)
	if req.TasksCompleted < totalTasks || req.TasksCompleted < req.TotalTasks {
		return nil, util.ErrTasksIncomplete
	}
	if strings.TrimSpace(req.Reflection) == "" {
		return nil, util.ErrReflectionRequired
	}

	now := time.Now()
	sprint.Status = model.SprintStatusReviewed
	sprint.CompletedAt = &now
	sprint.TasksCompleted = totalTasks
	sprint.HoursSpent = req.HoursSpent
	sprint.Reflection = req.Reflection
	sprint.EvidenceSubmitted = sprint.EvidenceSubmitted || req.EvidenceSubmitted
	if err := s.SprintRepo.Update(sprint); err != nil {
		return nil, err
	}

	obj.SprintsDone++
	obj.CompletedDays += sprint.LengthDays
	obj.CurrentSprintID = nil
	if obj.Status == model.ObjectiveTodo || obj.Status == model.ObjectiveActive {
		obj.Status = model.ObjectiveInProgress
	}
	objectiveDone := obj.TotalDays > 0 && obj.CompletedDays >= obj.TotalDays
	if objectiveDone {
		obj.Status = model.ObjectiveCompleted
		obj.CompletedAt = &now
	}
	if err := s.ObjectiveRepo.Update(obj); err != nil {
		return nil, err
	}

	result := &model.CompletionResult{
		SprintID:      sprint.ID,
		BrainAdaptive: s.applyBrainAdaptive(obj, sprint),
	}

	if objectiveDone {
		result.BrainAdaptive.Notifications = append(result.BrainAdaptive.Notifications,
			"Objective completed, congratulations!")
	} else if next := s.maybeGenerateNext(ctx, obj); next != nil {
		result.NextSprintGenerated = true
		result.NextSprint = BuildSprintView(next)
	}

	if idempotencyKey != "" {
		payload, jsonErr := json.Marshal(result)
		if jsonErr == nil {
			receipt := &model.CompletionReceipt{
				SprintID:       sprint.ID,
				IdempotencyKey: idempotencyKey,
				Payload:        payload,
			}
			if err := s.SprintRepo.CreateReceipt(receipt); err != nil {
				logger.Log.Warn("completion receipt not persisted",
					zap.String("idempotencyKey", idempotencyKey), zap.Error(err))
			}
		}
	}

	monitoring.SprintCompletions.Inc()
	s.Cache.InvalidateSprint(ctx, sprintID)
	s.Cache.InvalidateObjective(ctx, obj.ID, userID)
	logger.Log.Info("sprint completed",
		zap.String("sprintId", sprint.ID),
		zap.String("objectiveId", obj.ID),
		zap.Bool("nextSprintGenerated", result.NextSprintGenerated))
	return result, nil
}

// applyBrainAdaptive 冲刺完成后的技能画像更新与节奏分析
func (s *SprintService) applyBrainAdaptive(obj *model.Objective, sprint *model.Sprint) model.BrainAdaptive {
	ba := model.BrainAdaptive{
		SkillsUpdated: []model.SkillUpdate{},
		Notifications: []string{},
	}

	delta := 2.0
	switch sprint.Difficulty {
	case "easy":
		delta = 1.0
	case "hard":
		delta = 3.0
	}
	if sprint.IsReviewSprint {
		delta += 0.5
	}

	for _, name := range obj.RequiredSkills {
		prev := 0.0
		if existing, err := s.SkillRepo.FindByUserIDAndName(obj.UserID, name); err == nil {
			prev = existing.Level
		}
		newLevel := prev + delta
		if newLevel > 100 {
			newLevel = 100
		}
		skill := &model.UserSkill{
			UserID:    obj.UserID,
			Name:      name,
			Level:     newLevel,
			LastDelta: delta,
		}
		if err := s.SkillRepo.Upsert(skill); err != nil {
			logger.Log.Warn("skill not updated", zap.String("skill", name), zap.Error(err))
			continue
		}
		ba.SkillsUpdated = append(ba.SkillsUpdated, model.SkillUpdate{
			Name:     name,
			Delta:    delta,
			NewLevel: newLevel,
		})
	}

	if sprint.TotalEstimatedHours > 0 && sprint.HoursSpent > 0 {
		ratio := sprint.HoursSpent / sprint.TotalEstimatedHours
		analysis := &model.PerformanceAnalysis{RecommendedAction: "keep_pace"}
		switch {
		case ratio < 0.75:
			analysis.RecommendedAction = "speed_up"
			ba.Notifications = append(ba.Notifications,
				"You finished faster than estimated, the next sprint will push a little harder.")
		case ratio > 1.25:
			analysis.RecommendedAction = "slow_down"
			ba.Notifications = append(ba.Notifications,
				"This sprint took longer than planned, the next one will ease off.")
		}
		ba.PerformanceAnalysis = analysis
	}
	return ba
}

// maybeGenerateNext 配额允许时同步生成下一个冲刺，否则只记录原因
func (s *SprintService) maybeGenerateNext(ctx context.Context, obj *model.Objective) *model.Sprint {
	count, err := s.Cache.DailyGenerationCount(ctx, obj.UserID)
	if err != nil {
		logger.Log.Warn("daily generation count unavailable", zap.Error(err))
	}
	if s.Cfg.Generation.DailyLimit > 0 && count >= int64(s.Cfg.Generation.DailyLimit) {
		logger.Log.Info("next sprint not generated",
			zap.String("objectiveId", obj.ID),
			zap.String("reason", util.ErrDailyGenerationLimit.Error()))
		return nil
	}

	next, err := s.Generation.GenerateNext(obj)
	if err != nil {
		logger.Log.Error("next sprint generation failed",
			zap.String("objectiveId", obj.ID), zap.Error(err))
		monitoring.SprintGenerations.WithLabelValues("failed").Inc()
		return nil
	}
	if _, err := s.Cache.IncrDailyGeneration(ctx, obj.UserID); err != nil {
		logger.Log.Warn("daily generation counter not incremented", zap.Error(err))
	}
	monitoring.SprintGenerations.WithLabelValues("done").Inc()
	return next
}

// AddEvidence 登记冲刺成果物
func (s *SprintService) AddEvidence(ctx context.Context, userID uint, objectiveID, sprintID string, ev *model.SprintEvidence) error {
	obj, sprint, err := s.findOwned(userID, objectiveID, sprintID)
	if err != nil {
		return err
	}
	ev.SprintID = sprint.ID
	ev.UserID = userID
	if err := s.SprintRepo.CreateEvidence(ev); err != nil {
		return err
	}
	if !sprint.EvidenceSubmitted {
		if err := s.SprintRepo.UpdateFields(sprintID, map[string]interface{}{"evidence_submitted": true}); err != nil {
			return err
		}
	}
	s.Cache.InvalidateSprint(ctx, sprintID)
	s.Cache.InvalidateObjective(ctx, obj.ID, userID)
	return nil
}

// ListEvidence 冲刺成果物列表
func (s *SprintService) ListEvidence(userID uint, objectiveID, sprintID string) ([]model.SprintEvidence, error) {
	if _, _, err := s.findOwned(userID, objectiveID, sprintID); err != nil {
		return nil, err
	}
	return s.SprintRepo.FindEvidenceBySprintID(sprintID)
}
