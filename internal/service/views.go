package service

import (
	"skillsprint_backend/internal/lifecycle"
	"skillsprint_backend/internal/model"
)

// BuildSprintView 由存储模型构造对外视图。状态字符串按原样透出，
// 完成百分比按微任务计算，与存量行上可能缺失的状态字段互为兜底。
func BuildSprintView(s *model.Sprint) *model.SprintView {
	totalTasks := len(s.MicroTasks)
	completed := s.TasksCompleted
	if completed == 0 {
		for _, t := range s.MicroTasks {
			if t.Completed {
				completed++
			}
		}
	}
	if completed > totalTasks && totalTasks > 0 {
		completed = totalTasks
	}

	return &model.SprintView{
		ID:                  s.ID,
		ObjectiveID:         s.ObjectiveID,
		Title:               s.Title,
		Description:         s.Description,
		Status:              s.Status,
		CompletedAt:         s.CompletedAt,
		DayNumber:           s.DayNumber,
		LengthDays:          s.LengthDays,
		Difficulty:          s.Difficulty,
		TotalEstimatedHours: s.TotalEstimatedHours,
		IsReviewSprint:      s.IsReviewSprint,
		MicroTasks:          s.MicroTasks,
		Quizzes:             s.Quizzes,
		Progress: model.Progress{
			CompletedTasks:       completed,
			CompletionPercentage: lifecycle.CompletionPercent(completed, totalTasks),
		},
	}
}

// BuildObjectiveView 构造目标视图：拆分当前/历史冲刺并交由 lifecycle 调和
func BuildObjectiveView(obj *model.Objective, sprints []model.Sprint, limits model.ObjectiveLimits) *model.ObjectiveView {
	var current *model.SprintView
	past := make([]model.SprintView, 0, len(sprints))
	for i := range sprints {
		view := BuildSprintView(&sprints[i])
		if obj.CurrentSprintID != nil && sprints[i].ID == *obj.CurrentSprintID {
			current = view
		} else {
			past = append(past, *view)
		}
	}
	current, past = lifecycle.ReconcileSprints(current, past)

	pct := 0.0
	if obj.TotalSprints > 0 {
		pct = lifecycle.CompletionPercent(obj.SprintsDone, obj.TotalSprints)
	} else if obj.TotalDays > 0 {
		pct = lifecycle.CompletionPercent(obj.CompletedDays, obj.TotalDays)
	}

	return &model.ObjectiveView{
		ID:                 obj.ID,
		Title:              obj.Title,
		Description:        obj.Description,
		Status:             obj.Status,
		Priority:           obj.Priority,
		Progress:           obj.SprintsDone,
		TotalSprints:       obj.TotalSprints,
		ProgressPercentage: pct,
		CompletedDays:      obj.CompletedDays,
		CurrentDay:         obj.CurrentDay,
		CurrentSprint:      current,
		PastSprints:        past,
		SuccessCriteria:    obj.SuccessCriteria,
		RequiredSkills:     obj.RequiredSkills,
		Limits:             limits,
	}
}
