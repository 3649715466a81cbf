package model

import "encoding/json"

// QuizQuestion 入门画像测验题（用于个性化推荐，不计分通过线）
type QuizQuestion struct {
	BaseModel
	Key          string          `gorm:"uniqueIndex;size:64;not null" json:"key"`
	QuestionType string          `gorm:"size:32;not null" json:"questionType"` // single_choice/multi_select/text/numeric
	Title        string          `gorm:"size:255" json:"title"`
	Content      string          `gorm:"type:text" json:"content"`
	Options      json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	Required     bool            `gorm:"default:false" json:"required"`
	Order        int             `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizAttempt 画像测验提交记录，创建后不再变更（重做产生新记录）
type QuizAttempt struct {
	UUIDBase
	UserID          uint            `gorm:"index;type:bigint unsigned" json:"userId"`
	Answers         json.RawMessage `gorm:"type:json" json:"answers"`
	Score           int             `gorm:"default:0" json:"score"`
	Passed          bool            `gorm:"default:false" json:"passed"`
	WeakAreas       []string        `gorm:"serializer:json;type:json" json:"weakAreas"`
	Recommendations []string        `gorm:"serializer:json;type:json" json:"recommendations"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
