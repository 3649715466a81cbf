package repository

import (
	"skillsprint_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SkillRepository struct {
	DB *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: db}
}

func (r *SkillRepository) FindByUserID(userID uint) ([]model.UserSkill, error) {
	var skills []model.UserSkill
	err := r.DB.Where("user_id = ?", userID).Order("name asc").Find(&skills).Error
	return skills, err
}

func (r *SkillRepository) FindByUserIDAndName(userID uint, name string) (*model.UserSkill, error) {
	var skill model.UserSkill
	err := r.DB.Where("user_id = ? AND name = ?", userID, name).First(&skill).Error
	return &skill, err
}

// Upsert 按 (user_id, name) 写入或累加技能等级
func (r *SkillRepository) Upsert(skill *model.UserSkill) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"level":      gorm.Expr("LEAST(level + ?, 100)", skill.LastDelta),
			"last_delta": skill.LastDelta,
		}),
	}).Create(skill).Error
}
