package model

import (
	"encoding/json"
	"time"
)

// 服务端历史上的冲刺状态词汇并不统一（旧数据有completed，新数据有reviewed，
// 另有completed_at时间戳和按任务算出的完成百分比），这里按原样存储字符串，
// 规范化统一交给 internal/lifecycle 处理。
const (
	SprintStatusTodo       = "todo"
	SprintStatusPlanned    = "planned"
	SprintStatusInProgress = "in_progress"
	SprintStatusSubmitted  = "submitted"
	SprintStatusReviewed   = "reviewed"
	SprintStatusCompleted  = "completed"
)

// Sprint 有时间盒的学习冲刺，属于一个学习目标
// swagger:model
type Sprint struct {
	UUIDBase
	ObjectiveID         string     `gorm:"index;type:varchar(36);not null" json:"objectiveId"`
	UserID              uint       `gorm:"index;type:bigint unsigned" json:"userId"`
	Title               string     `gorm:"size:255;not null" json:"title"`
	Description         string     `gorm:"type:text" json:"description"`
	Status              string     `gorm:"size:32;default:'todo'" json:"status"`
	CompletedAt         *time.Time `json:"completedAt"`
	DayNumber           int        `gorm:"default:1" json:"dayNumber"`
	LengthDays          int        `gorm:"default:1" json:"lengthDays"`
	Difficulty          string     `gorm:"size:20" json:"difficulty"`
	TotalEstimatedHours float64    `gorm:"default:0" json:"totalEstimatedHours"`
	IsReviewSprint      bool       `gorm:"default:false" json:"isReviewSprint"`
	TasksCompleted      int        `gorm:"default:0" json:"-"`
	HoursSpent          float64    `gorm:"default:0" json:"-"`
	Reflection          string     `gorm:"type:text" json:"-"`
	EvidenceSubmitted   bool       `gorm:"default:false" json:"-"`

	MicroTasks []MicroTask  `gorm:"foreignKey:SprintID" json:"microTasks,omitempty"`
	Quizzes    []SprintQuiz `gorm:"foreignKey:SprintID" json:"quizzes,omitempty"`
}

func (Sprint) TableName() string {
	return "sprints"
}

// MicroTask 冲刺内最小可跟踪的工作单元
type MicroTask struct {
	UUIDBase
	SprintID         string   `gorm:"index;type:varchar(36);not null" json:"sprintId"`
	Title            string   `gorm:"size:255;not null" json:"title"`
	Instructions     string   `gorm:"type:text" json:"instructions"`
	EstimatedMinutes int      `gorm:"default:0" json:"estimatedMinutes"`
	AcceptanceTest   string   `gorm:"type:text" json:"acceptanceTest"`
	Resources        []string `gorm:"serializer:json;type:json" json:"resources"`
	Completed        bool     `gorm:"default:false" json:"completed"`
	Order            int      `gorm:"default:0" json:"order"`
}

func (MicroTask) TableName() string {
	return "micro_tasks"
}

type SprintQuizPhase string

const (
	QuizPreSprint  SprintQuizPhase = "pre_sprint"
	QuizPostSprint SprintQuizPhase = "post_sprint"
)

// SprintQuiz 冲刺前/后测验
type SprintQuiz struct {
	UUIDBase
	SprintID  string          `gorm:"index;type:varchar(36);not null" json:"sprintId"`
	Phase     SprintQuizPhase `gorm:"type:enum('pre_sprint','post_sprint')" json:"phase"`
	Title     string          `gorm:"size:255" json:"title"`
	Questions json.RawMessage `gorm:"type:json" json:"questions"`
}

func (SprintQuiz) TableName() string {
	return "sprint_quizzes"
}

// SprintEvidence 冲刺成果物（截图、代码包、讲解视频等）
type SprintEvidence struct {
	UUIDBase
	SprintID        string  `gorm:"index;type:varchar(36);not null" json:"sprintId"`
	UserID          uint    `gorm:"index;type:bigint unsigned" json:"userId"`
	FileName        string  `gorm:"size:255" json:"fileName"`
	URL             string  `gorm:"size:512" json:"url"`
	ContentType     string  `gorm:"size:100" json:"contentType"`
	Size            int64   `gorm:"default:0" json:"size"`
	DurationSeconds float64 `gorm:"default:0" json:"durationSeconds,omitempty"` // 仅视频
}

func (SprintEvidence) TableName() string {
	return "sprint_evidences"
}

// CompletionReceipt 完成请求的幂等回执：同一幂等键的重复提交直接回放首次结果
type CompletionReceipt struct {
	UUIDBase
	SprintID       string          `gorm:"index;type:varchar(36);not null" json:"sprintId"`
	IdempotencyKey string          `gorm:"uniqueIndex;size:64;not null" json:"idempotencyKey"`
	Payload        json.RawMessage `gorm:"type:json" json:"payload"`
}

func (CompletionReceipt) TableName() string {
	return "completion_receipts"
}
