package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillsprint_backend/internal/model"
	"skillsprint_backend/internal/repository"
	"skillsprint_backend/internal/util"
	"skillsprint_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ObjectiveService 学习目标的读写。详情/列表走读穿缓存，
// 任何写路径只失效缓存，由下一次读取重建。
type ObjectiveService struct {
	ObjectiveRepo *repository.ObjectiveRepository
	SprintRepo    *repository.SprintRepository
	Generation    *GenerationService
	Cache         *CacheService
}

func NewObjectiveService(
	objectiveRepo *repository.ObjectiveRepository,
	sprintRepo *repository.SprintRepository,
	generation *GenerationService,
	cache *CacheService,
) *ObjectiveService {
	return &ObjectiveService{
		ObjectiveRepo: objectiveRepo,
		SprintRepo:    sprintRepo,
		Generation:    generation,
		Cache:         cache,
	}
}

type CreateObjectiveRequest struct {
	Title           string   `json:"title" binding:"required,max=255"`
	Description     string   `json:"description"`
	Priority        int      `json:"priority" binding:"omitempty,min=1,max=5"`
	TotalDays       int      `json:"totalDays" binding:"omitempty,min=1,max=365"`
	SuccessCriteria []string `json:"successCriteria"`
	RequiredSkills  []string `json:"requiredSkills"`
}

type UpdateObjectiveRequest struct {
	Title           *string  `json:"title" binding:"omitempty,max=255"`
	Description     *string  `json:"description"`
	Priority        *int     `json:"priority" binding:"omitempty,min=1,max=5"`
	SuccessCriteria []string `json:"successCriteria"`
	RequiredSkills  []string `json:"requiredSkills"`
}

// Create 创建目标并入队第一个冲刺的生成任务
func (s *ObjectiveService) Create(ctx context.Context, userID uint, req *CreateObjectiveRequest) (*model.Objective, error) {
	obj := &model.Objective{
		UserID:          userID,
		Title:           req.Title,
		Description:     req.Description,
		Priority:        req.Priority,
		TotalDays:       req.TotalDays,
		SuccessCriteria: req.SuccessCriteria,
		RequiredSkills:  req.RequiredSkills,
		Status:          model.ObjectiveTodo,
	}
	if obj.Priority == 0 {
		obj.Priority = 3
	}
	if obj.TotalDays == 0 {
		obj.TotalDays = 30
	}
	if err := s.ObjectiveRepo.Create(obj); err != nil {
		return nil, err
	}

	job := &model.GenerationJob{
		ObjectiveID: obj.ID,
		UserID:      userID,
		Status:      model.GenerationPending,
	}
	if err := s.Generation.GenerationRepo.Create(job); err != nil {
		logger.Log.Error("initial generation job not enqueued",
			zap.String("objectiveId", obj.ID), zap.Error(err))
	}

	s.Cache.InvalidateObjective(ctx, obj.ID, userID)
	return obj, nil
}

// List 用户的目标列表（含调和后的冲刺视图）
func (s *ObjectiveService) List(ctx context.Context, userID uint) ([]model.ObjectiveView, error) {
	key := fmt.Sprintf("%s%d", objectiveListPrefix, userID)
	var cached []model.ObjectiveView
	if s.Cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	objs, err := s.ObjectiveRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	views := make([]model.ObjectiveView, 0, len(objs))
	for i := range objs {
		view, err := s.buildView(ctx, &objs[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	s.Cache.SetJSON(ctx, key, views)
	return views, nil
}

// Get 单个目标详情
func (s *ObjectiveService) Get(ctx context.Context, userID uint, id string) (*model.ObjectiveView, error) {
	key := objectiveKeyPrefix + id
	var cached model.ObjectiveView
	if s.Cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	obj, err := s.ObjectiveRepo.FindByIDAndUserID(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrObjectiveNotFound
		}
		return nil, err
	}
	view, err := s.buildView(ctx, obj)
	if err != nil {
		return nil, err
	}

	s.Cache.SetJSON(ctx, key, view)
	return view, nil
}

func (s *ObjectiveService) buildView(ctx context.Context, obj *model.Objective) (*model.ObjectiveView, error) {
	sprints, err := s.SprintRepo.FindByObjectiveID(obj.ID)
	if err != nil {
		return nil, err
	}

	limits := model.ObjectiveLimits{}
	st, err := s.Generation.statusForObjective(ctx, obj)
	if err != nil {
		logger.Log.Warn("generation gate unavailable for objective view",
			zap.String("objectiveId", obj.ID), zap.Error(err))
	} else {
		limits.CanGenerateSprint = st.CanGenerate
		limits.Reason = st.Reason
	}

	return BuildObjectiveView(obj, sprints, limits), nil
}

// Update 修改目标的可编辑字段
func (s *ObjectiveService) Update(ctx context.Context, userID uint, id string, req *UpdateObjectiveRequest) (*model.Objective, error) {
	obj, err := s.ObjectiveRepo.FindByIDAndUserID(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrObjectiveNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		obj.Title = *req.Title
	}
	if req.Description != nil {
		obj.Description = *req.Description
	}
	if req.Priority != nil {
		obj.Priority = *req.Priority
	}
	if req.SuccessCriteria != nil {
		obj.SuccessCriteria = req.SuccessCriteria
	}
	if req.RequiredSkills != nil {
		obj.RequiredSkills = req.RequiredSkills
	}
	if err := s.ObjectiveRepo.Update(obj); err != nil {
		return nil, err
	}

	s.Cache.InvalidateObjective(ctx, obj.ID, userID)
	return obj, nil
}

// Complete 显式终结目标
func (s *ObjectiveService) Complete(ctx context.Context, userID uint, id string) (*model.Objective, error) {
	obj, err := s.ObjectiveRepo.FindByIDAndUserID(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrObjectiveNotFound
		}
		return nil, err
	}
	if obj.Status == model.ObjectiveCompleted {
		return nil, util.ErrObjectiveCompleted
	}

	now := time.Now()
	obj.Status = model.ObjectiveCompleted
	obj.CompletedAt = &now
	obj.CurrentSprintID = nil
	if err := s.ObjectiveRepo.Update(obj); err != nil {
		return nil, err
	}

	s.Cache.InvalidateObjective(ctx, obj.ID, userID)
	logger.Log.Info("objective completed", zap.String("objectiveId", obj.ID), zap.Uint("userId", userID))
	return obj, nil
}

// Delete 删除目标
func (s *ObjectiveService) Delete(ctx context.Context, userID uint, id string) error {
	if _, err := s.ObjectiveRepo.FindByIDAndUserID(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrObjectiveNotFound
		}
		return err
	}
	if err := s.ObjectiveRepo.Delete(id); err != nil {
		return err
	}
	s.Cache.InvalidateObjective(ctx, id, userID)
	return nil
}
