package model

// UserSkill 脑适应技能画像，冲刺完成后由服务端更新
type UserSkill struct {
	BaseModel
	UserID    uint    `gorm:"index;type:bigint unsigned;uniqueIndex:idx_user_skill" json:"userId"`
	Name      string  `gorm:"size:100;uniqueIndex:idx_user_skill" json:"name"`
	Level     float64 `gorm:"default:0" json:"level"` // 0-100
	LastDelta float64 `gorm:"default:0" json:"lastDelta"`
}

func (UserSkill) TableName() string {
	return "user_skills"
}
