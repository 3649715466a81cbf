// Package lifecycle 收敛冲刺/目标的状态推导逻辑：
// 原始状态词汇的规范化、当前/历史冲刺列表的调和、测验答案的归一化。
// 服务端出参和 pkg/client 均只经由本包消费原始字段，原始词汇不外泄。
package lifecycle

import (
	"strings"
	"time"

	"skillsprint_backend/internal/model"
)

// SprintState 规范化后的冲刺生命周期状态
type SprintState string

const (
	StateNotStarted SprintState = "not_started"
	StatePlanned    SprintState = "planned"
	StateInProgress SprintState = "in_progress"
	StateCompleted  SprintState = "completed"
)

// SprintRecord 分类器的输入：来自服务端的冲刺原始字段。
// 任一字段缺省都合法（历史数据字段不齐）。
type SprintRecord struct {
	Status               string
	CompletedAt          *time.Time
	CompletionPercentage *float64
}

// Classify 把原始冲刺记录映射到统一生命周期状态。
// 完成与否是多信号的OR：completed_at时间戳、完成百分比、状态字符串
// 三者任一满足即视为完成（服务端历史上字段口径不一致，客户端需全部兼容）。
// 优先级自上而下，先命中先生效：
//  1. completedAt 非空 → completed
//  2. 完成百分比 >= 100 → completed
//  3. 状态(忽略大小写) ∈ {reviewed, completed} → completed
//  4. 状态 ∈ {in_progress, submitted} → in_progress
//  5. 状态 = planned → planned
//  6. 其余 → not_started
func Classify(rec SprintRecord) SprintState {
	if rec.CompletedAt != nil && !rec.CompletedAt.IsZero() {
		return StateCompleted
	}
	if rec.CompletionPercentage != nil && *rec.CompletionPercentage >= 100 {
		return StateCompleted
	}

	switch strings.ToLower(strings.TrimSpace(rec.Status)) {
	case model.SprintStatusReviewed, model.SprintStatusCompleted:
		return StateCompleted
	case model.SprintStatusInProgress, model.SprintStatusSubmitted:
		return StateInProgress
	case model.SprintStatusPlanned:
		return StatePlanned
	default:
		return StateNotStarted
	}
}

// IsComplete 判断记录是否已处于终态
func IsComplete(rec SprintRecord) bool {
	return Classify(rec) == StateCompleted
}

// FromView 从对外视图提取分类输入
func FromView(v model.SprintView) SprintRecord {
	pct := v.Progress.CompletionPercentage
	return SprintRecord{
		Status:               v.Status,
		CompletedAt:          v.CompletedAt,
		CompletionPercentage: &pct,
	}
}

// FromSprint 从存储模型提取分类输入
func FromSprint(s *model.Sprint) SprintRecord {
	rec := SprintRecord{
		Status:      s.Status,
		CompletedAt: s.CompletedAt,
	}
	if total := len(s.MicroTasks); total > 0 {
		pct := CompletionPercent(s.TasksCompleted, total)
		rec.CompletionPercentage = &pct
	}
	return rec
}

// CompletionPercent 按任务数计算完成百分比，0任务视为0%
func CompletionPercent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return float64(completed) / float64(total) * 100
}
