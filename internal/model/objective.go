package model

import "time"

type ObjectiveStatus string

const (
	ObjectiveTodo       ObjectiveStatus = "todo"
	ObjectiveInProgress ObjectiveStatus = "in_progress"
	ObjectiveActive     ObjectiveStatus = "active"
	ObjectiveCompleted  ObjectiveStatus = "completed"
)

// Objective 学习目标，由若干个按天推进的冲刺组成
// swagger:model
type Objective struct {
	UUIDBase
	UserID          uint            `gorm:"index;type:bigint unsigned" json:"userId"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	Status          ObjectiveStatus `gorm:"type:enum('todo','in_progress','active','completed');default:'todo'" json:"status"`
	Priority        int             `gorm:"default:3" json:"priority"` // 1-5
	SprintsDone     int             `gorm:"default:0" json:"progress"` // 已完成冲刺数
	TotalSprints    int             `gorm:"default:0" json:"totalSprints"`
	TotalDays       int             `gorm:"default:30" json:"totalDays"`
	CompletedDays   int             `gorm:"default:0" json:"completedDays"`
	CurrentDay      int             `gorm:"default:0" json:"currentDay"`
	CurrentSprintID *string         `gorm:"type:varchar(36)" json:"-"`
	SuccessCriteria []string        `gorm:"serializer:json;type:json" json:"successCriteria"`
	RequiredSkills  []string        `gorm:"serializer:json;type:json" json:"requiredSkills"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`

	Sprints []Sprint `gorm:"foreignKey:ObjectiveID" json:"-"`
}

func (Objective) TableName() string {
	return "objectives"
}
