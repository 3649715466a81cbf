package model

import "encoding/json"

// TechnicalQuestion 技术评估题
type TechnicalQuestion struct {
	BaseModel
	Key          string          `gorm:"uniqueIndex;size:64;not null" json:"key"`
	QuestionType string          `gorm:"size:32;not null" json:"questionType"` // single_choice/multi_select/text/numeric
	Title        string          `gorm:"size:255" json:"title"`
	Content      string          `gorm:"type:text" json:"content"`
	Options      json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	Answer       string          `gorm:"size:255" json:"-"`
	Points       int             `gorm:"default:0" json:"points"`
	Required     bool            `gorm:"default:false" json:"required"`
	Order        int             `gorm:"default:0" json:"order"`
	Explanation  string          `gorm:"type:text" json:"-"`
}

func (TechnicalQuestion) TableName() string {
	return "technical_questions"
}

// TechnicalAttempt 技术评估提交记录，创建后不再变更（重做产生新记录）
type TechnicalAttempt struct {
	UUIDBase
	UserID          uint            `gorm:"index;type:bigint unsigned" json:"userId"`
	Answers         json.RawMessage `gorm:"type:json" json:"answers"`
	Score           int             `gorm:"default:0" json:"score"`
	MaxScore        int             `gorm:"default:0" json:"maxScore"`
	Passed          bool            `gorm:"default:false" json:"passed"`
	WeakAreas       []string        `gorm:"serializer:json;type:json" json:"weakAreas"`
	Recommendations []string        `gorm:"serializer:json;type:json" json:"recommendations"`
}

func (TechnicalAttempt) TableName() string {
	return "technical_attempts"
}
