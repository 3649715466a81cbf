package model

type GenerationJobStatus string

const (
	GenerationPending GenerationJobStatus = "pending"
	GenerationRunning GenerationJobStatus = "running"
	GenerationDone    GenerationJobStatus = "done"
	GenerationFailed  GenerationJobStatus = "failed"
)

// GenerationJob 下一个冲刺的异步生成任务，由后台worker消费，
// generation-status 接口暴露其可见结果
type GenerationJob struct {
	UUIDBase
	ObjectiveID string              `gorm:"index;type:varchar(36);not null" json:"objectiveId"`
	UserID      uint                `gorm:"index;type:bigint unsigned" json:"userId"`
	Status      GenerationJobStatus `gorm:"type:enum('pending','running','done','failed');default:'pending'" json:"status"`
	Reason      string              `gorm:"size:255" json:"reason,omitempty"`
	SprintID    *string             `gorm:"type:varchar(36)" json:"sprintId,omitempty"`
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}
