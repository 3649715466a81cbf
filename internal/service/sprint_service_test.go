package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"skillsprint_backend/internal/config"
	"skillsprint_backend/internal/model"
	"skillsprint_backend/internal/repository"
	"skillsprint_backend/internal/util"
	"skillsprint_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newSprintService 内存库上的最小服务实例。objectives和sprint_quizzes
// 带MySQL的enum列类型，sqlite不认识，手工建表代替AutoMigrate。
func newSprintService(t *testing.T) (*SprintService, *gorm.DB) {
	t.Helper()
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(`CREATE TABLE objectives (
		id varchar(36) PRIMARY KEY,
		created_at datetime, updated_at datetime, deleted_at datetime,
		user_id integer, title varchar(255), description text, status varchar(20) DEFAULT 'todo',
		priority integer DEFAULT 3, sprints_done integer DEFAULT 0, total_sprints integer DEFAULT 0,
		total_days integer DEFAULT 30, completed_days integer DEFAULT 0, current_day integer DEFAULT 0,
		current_sprint_id varchar(36), success_criteria text, required_skills text, completed_at datetime
	)`).Error; err != nil {
		t.Fatalf("create objectives: %v", err)
	}
	if err := db.Exec(`CREATE TABLE sprint_quizzes (
		id varchar(36) PRIMARY KEY,
		created_at datetime, updated_at datetime, deleted_at datetime,
		sprint_id varchar(36), phase varchar(20), title varchar(255), questions text
	)`).Error; err != nil {
		t.Fatalf("create sprint_quizzes: %v", err)
	}
	if err := db.AutoMigrate(&model.Sprint{}, &model.MicroTask{}, &model.CompletionReceipt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := NewSprintService(
		repository.NewSprintRepository(db),
		repository.NewObjectiveRepository(db),
		nil, nil,
		&CacheService{},
		&config.Config{},
	)
	return svc, db
}

func completedSprint(id, objectiveID string, userID uint, completedAt time.Time) *model.Sprint {
	return &model.Sprint{
		UUIDBase:    model.UUIDBase{ID: id},
		ObjectiveID: objectiveID,
		UserID:      userID,
		Title:       "Day sprint",
		Status:      model.SprintStatusReviewed,
		CompletedAt: &completedAt,
		DayNumber:   1,
		LengthDays:  1,
	}
}

func TestCompleteReplayScopedToOwnedSprint(t *testing.T) {
	svc, db := newSprintService(t)
	now := time.Now()

	obj := &model.Objective{
		UUIDBase:  model.UUIDBase{ID: "o1"},
		UserID:    1,
		Title:     "Learn Go",
		Status:    model.ObjectiveInProgress,
		TotalDays: 30,
	}
	if err := db.Create(obj).Error; err != nil {
		t.Fatalf("create objective: %v", err)
	}
	for _, s := range []*model.Sprint{
		completedSprint("s1", "o1", 1, now),
		completedSprint("s2", "o1", 1, now),
	} {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("create sprint: %v", err)
		}
	}

	payload, _ := json.Marshal(model.CompletionResult{
		SprintID: "s1",
		BrainAdaptive: model.BrainAdaptive{
			SkillsUpdated: []model.SkillUpdate{{Name: "Go", Delta: 2, NewLevel: 42}},
			Notifications: []string{},
		},
	})
	receipt := &model.CompletionReceipt{SprintID: "s1", IdempotencyKey: "key-1", Payload: payload}
	if err := db.Create(receipt).Error; err != nil {
		t.Fatalf("create receipt: %v", err)
	}

	ctx := context.Background()
	req := &CompleteSprintRequest{TasksCompleted: 0, Reflection: "again"}

	// 本人对同一冲刺重试：回放首次结果
	result, err := svc.Complete(ctx, 1, "o1", "s1", "key-1", req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.SprintID != "s1" || len(result.BrainAdaptive.SkillsUpdated) != 1 {
		t.Errorf("unexpected replayed result: %+v", result)
	}

	// 别人的键：归属校验在回执之前，拿不到任何回放
	if _, err := svc.Complete(ctx, 2, "o1", "s1", "key-1", req); !errors.Is(err, util.ErrObjectiveNotFound) {
		t.Errorf("foreign user err = %v, want ErrObjectiveNotFound", err)
	}

	// 同一个键换一个冲刺：回执限定在冲刺内，不会错放s1的结果
	if _, err := svc.Complete(ctx, 1, "o1", "s2", "key-1", req); !errors.Is(err, util.ErrSprintAlreadyCompleted) {
		t.Errorf("other sprint err = %v, want ErrSprintAlreadyCompleted", err)
	}
}
