package lifecycle

import (
	"testing"
	"time"

	"skillsprint_backend/internal/model"
)

func fptr(f float64) *float64     { return &f }
func tptr(t time.Time) *time.Time { return &t }

func TestClassifyPriorityOrder(t *testing.T) {
	completed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		rec  SprintRecord
		want SprintState
	}{
		{"completedAt wins over status", SprintRecord{Status: "in_progress", CompletedAt: tptr(completed)}, StateCompleted},
		{"completedAt wins over todo", SprintRecord{Status: "todo", CompletedAt: tptr(completed)}, StateCompleted},
		{"full percentage wins", SprintRecord{Status: "planned", CompletionPercentage: fptr(100)}, StateCompleted},
		{"over 100 percent", SprintRecord{Status: "todo", CompletionPercentage: fptr(120)}, StateCompleted},
		{"reviewed means completed", SprintRecord{Status: "reviewed"}, StateCompleted},
		{"completed status", SprintRecord{Status: "completed"}, StateCompleted},
		{"submitted is in progress", SprintRecord{Status: "submitted"}, StateInProgress},
		{"in_progress", SprintRecord{Status: "in_progress"}, StateInProgress},
		{"planned", SprintRecord{Status: "planned"}, StatePlanned},
		{"todo falls through", SprintRecord{Status: "todo"}, StateNotStarted},
		{"unknown status", SprintRecord{Status: "weird_value"}, StateNotStarted},
		{"empty record", SprintRecord{}, StateNotStarted},
		{"partial percentage not complete", SprintRecord{Status: "in_progress", CompletionPercentage: fptr(99.9)}, StateInProgress},
		{"zero completedAt ignored", SprintRecord{Status: "planned", CompletedAt: tptr(time.Time{})}, StatePlanned},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.rec); got != tc.want {
				t.Errorf("Classify(%+v) = %q, want %q", tc.rec, got, tc.want)
			}
		})
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	for _, status := range []string{"REVIEWED", "Reviewed", "reviewed", "  Reviewed  ", "COMPLETED"} {
		if got := Classify(SprintRecord{Status: status}); got != StateCompleted {
			t.Errorf("Classify(status=%q) = %q, want completed", status, got)
		}
	}
	for _, status := range []string{"SUBMITTED", "In_Progress"} {
		if got := Classify(SprintRecord{Status: status}); got != StateInProgress {
			t.Errorf("Classify(status=%q) = %q, want in_progress", status, got)
		}
	}
}

func TestClassifyCompletedAtAlwaysWins(t *testing.T) {
	// completed_at 存在时状态字符串取什么值都不影响结果
	completed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, status := range []string{"todo", "planned", "in_progress", "submitted", "garbage", ""} {
		rec := SprintRecord{Status: status, CompletedAt: tptr(completed)}
		if got := Classify(rec); got != StateCompleted {
			t.Errorf("Classify(status=%q, completedAt set) = %q, want completed", status, got)
		}
	}
}

func TestFromSprintComputesPercentage(t *testing.T) {
	s := &model.Sprint{
		Status:         "in_progress",
		TasksCompleted: 3,
		MicroTasks:     make([]model.MicroTask, 4),
	}
	rec := FromSprint(s)
	if rec.CompletionPercentage == nil {
		t.Fatal("expected completion percentage to be derived from tasks")
	}
	if *rec.CompletionPercentage != 75 {
		t.Errorf("completion percentage = %v, want 75", *rec.CompletionPercentage)
	}

	s.TasksCompleted = 4
	if !IsComplete(FromSprint(s)) {
		t.Error("sprint with all tasks done should classify as completed")
	}
}

func TestCompletionPercent(t *testing.T) {
	cases := []struct {
		completed, total int
		want             float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 4, 0},
		{2, 4, 50},
		{4, 4, 100},
		{6, 4, 100}, // 超出按封顶处理
	}
	for _, tc := range cases {
		if got := CompletionPercent(tc.completed, tc.total); got != tc.want {
			t.Errorf("CompletionPercent(%d, %d) = %v, want %v", tc.completed, tc.total, got, tc.want)
		}
	}
}
