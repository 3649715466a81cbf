package service

import (
	"context"
	"errors"
	"fmt"
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

// GenerationService 负责下一个冲刺的生成门禁与异步生成。
// 门禁结论通过 generation-status 接口暴露，生成本身由后台worker消费任务队列完成。
type GenerationService struct {
	ObjectiveRepo  *repository.ObjectiveRepository
	SprintRepo     *repository.SprintRepository
	GenerationRepo *repository.GenerationRepository
	Cache          *CacheService
	Cfg            *config.Config
}

func NewGenerationService(
	objectiveRepo *repository.ObjectiveRepository,
	sprintRepo *repository.SprintRepository,
	generationRepo *repository.GenerationRepository,
	cache *CacheService,
	cfg *config.Config,
) *GenerationService {
	return &GenerationService{
		ObjectiveRepo:  objectiveRepo,
		SprintRepo:     sprintRepo,
		GenerationRepo: generationRepo,
		Cache:          cache,
		Cfg:            cfg,
	}
}

// gateInput 门禁判定的输入快照，抽出来便于单测纯逻辑
type gateInput struct {
	ObjectiveStatus    model.ObjectiveStatus
	CompletedDays      int
	TotalDays          int
	CurrentDay         int
	CurrentSprintID    *string
	CurrentSprintState lifecycle.SprintState
	JobInFlight        bool
	DailyCount         int64
	DailyLimit         int
}

// deriveStatus 纯函数：由快照推导生成门禁。三种结论互斥：
// 目标已完成 / 可生成（带nextSprintDay）/ 被阻塞（带reason）
func deriveStatus(in gateInput) model.GenerationStatus {
	if in.ObjectiveStatus == model.ObjectiveCompleted ||
		(in.TotalDays > 0 && in.CompletedDays >= in.TotalDays) {
		return model.GenerationStatus{
			ObjectiveCompleted: true,
			CurrentSprintID:    in.CurrentSprintID,
		}
	}
	if in.CurrentSprintID != nil && in.CurrentSprintState != lifecycle.StateCompleted {
		return model.GenerationStatus{
			CurrentSprintID: in.CurrentSprintID,
			Reason:          "Complete the current sprint first",
		}
	}
	if in.JobInFlight {
		return model.GenerationStatus{
			CurrentSprintID: in.CurrentSprintID,
			Reason:          util.ErrGenerationInFlight.Error(),
		}
	}
	if in.DailyLimit > 0 && in.DailyCount >= int64(in.DailyLimit) {
		return model.GenerationStatus{
			CurrentSprintID: in.CurrentSprintID,
			Reason:          util.ErrDailyGenerationLimit.Error(),
		}
	}
	nextDay := in.CurrentDay + 1
	return model.GenerationStatus{
		CanGenerate:     true,
		NextSprintDay:   &nextDay,
		CurrentSprintID: in.CurrentSprintID,
	}
}

// Status 计算目标的生成门禁
func (s *GenerationService) Status(ctx context.Context, userID uint, objectiveID string) (*model.GenerationStatus, error) {
	obj, err := s.ObjectiveRepo.FindByIDAndUserID(objectiveID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrObjectiveNotFound
		}
		return nil, err
	}
	return s.statusForObjective(ctx, obj)
}

func (s *GenerationService) statusForObjective(ctx context.Context, obj *model.Objective) (*model.GenerationStatus, error) {
	in := gateInput{
		ObjectiveStatus: obj.Status,
		CompletedDays:   obj.CompletedDays,
		TotalDays:       obj.TotalDays,
		CurrentDay:      obj.CurrentDay,
		CurrentSprintID: obj.CurrentSprintID,
		DailyLimit:      s.Cfg.Generation.DailyLimit,
	}

	if obj.CurrentSprintID != nil {
		sprint, err := s.SprintRepo.FindByID(*obj.CurrentSprintID)
		if err == nil {
			in.CurrentSprintState = lifecycle.Classify(lifecycle.FromSprint(sprint))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		} else {
			// 指向的冲刺不存在时视为没有当前冲刺
			in.CurrentSprintID = nil
		}
	}

	if _, err := s.GenerationRepo.FindActiveByObjectiveID(obj.ID); err == nil {
		in.JobInFlight = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	count, err := s.Cache.DailyGenerationCount(ctx, obj.UserID)
	if err != nil {
		logger.Log.Warn("daily generation count unavailable", zap.Error(err))
	}
	in.DailyCount = count

	st := deriveStatus(in)
	return &st, nil
}

// Request 显式请求生成下一个冲刺：校验门禁、入队、累加当日配额
func (s *GenerationService) Request(ctx context.Context, userID uint, objectiveID string) (*model.GenerationJob, error) {
	obj, err := s.ObjectiveRepo.FindByIDAndUserID(objectiveID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrObjectiveNotFound
		}
		return nil, err
	}

	st, err := s.statusForObjective(ctx, obj)
	if err != nil {
		return nil, err
	}
	if st.ObjectiveCompleted {
		return nil, util.ErrObjectiveCompleted
	}
	if !st.CanGenerate {
		switch st.Reason {
		case util.ErrGenerationInFlight.Error():
			return nil, util.ErrGenerationInFlight
		case util.ErrDailyGenerationLimit.Error():
			return nil, util.ErrDailyGenerationLimit
		default:
			return nil, util.ErrSprintNotActive
		}
	}

	job := &model.GenerationJob{
		ObjectiveID: obj.ID,
		UserID:      userID,
		Status:      model.GenerationPending,
	}
	if err := s.GenerationRepo.Create(job); err != nil {
		return nil, err
	}
	if _, err := s.Cache.IncrDailyGeneration(ctx, userID); err != nil {
		logger.Log.Warn("daily generation counter not incremented", zap.Error(err))
	}
	s.Cache.InvalidateObjective(ctx, obj.ID, userID)
	return job, nil
}

// ProcessPending 消费一批待处理生成任务，供后台worker定时调用
func (s *GenerationService) ProcessPending(ctx context.Context) {
	jobs, err := s.GenerationRepo.FindPending(10)
	if err != nil {
		logger.Log.Error("failed to list pending generation jobs", zap.Error(err))
		return
	}
	for i := range jobs {
		job := &jobs[i]
		claimed, err := s.GenerationRepo.MarkRunning(job.ID)
		if err != nil || !claimed {
			continue
		}
		if err := s.processJob(ctx, job); err != nil {
			job.Status = model.GenerationFailed
			job.Reason = err.Error()
			s.GenerationRepo.Update(job)
			monitoring.SprintGenerations.WithLabelValues("failed").Inc()
			logger.Log.Error("sprint generation failed",
				zap.String("jobId", job.ID),
				zap.String("objectiveId", job.ObjectiveID),
				zap.Error(err))
		}
	}
}

func (s *GenerationService) processJob(ctx context.Context, job *model.GenerationJob) error {
	obj, err := s.ObjectiveRepo.FindByID(job.ObjectiveID)
	if err != nil {
		return fmt.Errorf("objective lookup: %w", err)
	}
	if obj.Status == model.ObjectiveCompleted {
		return util.ErrObjectiveCompleted
	}

	sprint, err := s.GenerateNext(obj)
	if err != nil {
		return err
	}

	job.Status = model.GenerationDone
	job.SprintID = &sprint.ID
	if err := s.GenerationRepo.Update(job); err != nil {
		return err
	}

	monitoring.SprintGenerations.WithLabelValues("done").Inc()
	s.Cache.InvalidateObjective(ctx, obj.ID, obj.UserID)
	logger.Log.Info("sprint generated",
		zap.String("objectiveId", obj.ID),
		zap.String("sprintId", sprint.ID),
		zap.Int("dayNumber", sprint.DayNumber))
	return nil
}

// GenerateNext 为目标生成下一个冲刺并推进目标游标。
// 完成冲刺接口在门禁放行时也会同步调用，让响应能直接携带新冲刺。
func (s *GenerationService) GenerateNext(obj *model.Objective) (*model.Sprint, error) {
	sprint := s.buildSprint(obj)
	if err := s.SprintRepo.Create(sprint); err != nil {
		return nil, err
	}

	obj.CurrentSprintID = &sprint.ID
	obj.CurrentDay = sprint.DayNumber
	obj.TotalSprints++
	if obj.Status == model.ObjectiveTodo {
		obj.Status = model.ObjectiveActive
	}
	if err := s.ObjectiveRepo.Update(obj); err != nil {
		return nil, err
	}
	return sprint, nil
}

// buildSprint 按目标所需技能拼装冲刺内容，每到复习间隔插入一个复习冲刺
func (s *GenerationService) buildSprint(obj *model.Objective) *model.Sprint {
	day := obj.CurrentDay + 1
	isReview := s.Cfg.Generation.ReviewInterval > 0 &&
		obj.TotalSprints > 0 &&
		(obj.TotalSprints+1)%s.Cfg.Generation.ReviewInterval == 0

	difficulty := "medium"
	switch {
	case day <= 3:
		difficulty = "easy"
	case obj.TotalDays > 0 && day > obj.TotalDays*2/3:
		difficulty = "hard"
	}

	sprint := &model.Sprint{
		ObjectiveID:    obj.ID,
		UserID:         obj.UserID,
		Status:         model.SprintStatusPlanned,
		DayNumber:      day,
		LengthDays:     1,
		Difficulty:     difficulty,
		IsReviewSprint: isReview,
	}

	if isReview {
		sprint.Title = fmt.Sprintf("Day %d · Review sprint", day)
		sprint.Description = "Consolidate what you learned in the previous sprints before moving on."
	} else {
		sprint.Title = fmt.Sprintf("Day %d · %s", day, obj.Title)
		sprint.Description = obj.Description
	}

	skills := obj.RequiredSkills
	if len(skills) == 0 {
		skills = []string{obj.Title}
	}
	if len(skills) > 4 {
		skills = skills[:4]
	}
	for i, skill := range skills {
		task := model.MicroTask{
			EstimatedMinutes: 45,
			Order:            i,
		}
		if isReview {
			task.Title = fmt.Sprintf("Review: %s", skill)
			task.Instructions = fmt.Sprintf("Revisit your notes and previous work on %s. Redo one exercise without looking at the solution.", skill)
			task.AcceptanceTest = "You can explain the concept out loud without referring to notes."
		} else {
			task.Title = fmt.Sprintf("Practice: %s", skill)
			task.Instructions = fmt.Sprintf("Work through a hands-on exercise covering %s for day %d.", skill, day)
			task.AcceptanceTest = "The exercise runs end to end and you can describe each step."
		}
		sprint.MicroTasks = append(sprint.MicroTasks, task)
	}
	sprint.TotalEstimatedHours = float64(len(sprint.MicroTasks)) * 0.75

	sprint.Quizzes = []model.SprintQuiz{
		{
			Phase:     model.QuizPreSprint,
			Title:     "Warm-up check",
			Questions: defaultQuizQuestions(skills, "warmup"),
		},
		{
			Phase:     model.QuizPostSprint,
			Title:     "Wrap-up check",
			Questions: defaultQuizQuestions(skills, "wrapup"),
		},
	}
	return sprint
}

func defaultQuizQuestions(skills []string, phase string) []byte {
	questions := "["
	for i, skill := range skills {
		if i > 0 {
			questions += ","
		}
		questions += fmt.Sprintf(
			`{"id":"%s_%d","type":"single_choice","title":"How confident are you with %s?","options":[{"id":"low","label":"Not yet"},{"id":"mid","label":"Getting there"},{"id":"high","label":"Confident"}]}`,
			phase, i, skill)
	}
	return []byte(questions + "]")
}

// RunWorker 启动后台生成worker，直到ctx取消
func (s *GenerationService) RunWorker(ctx context.Context) {
	interval := time.Duration(s.Cfg.Generation.WorkerSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Log.Info("generation worker started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("generation worker stopped")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}
