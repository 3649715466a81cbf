package repository

import (
	"skillsprint_backend/internal/model"

	"gorm.io/gorm"
)

// ObjectiveRepository 处理学习目标的数据访问

type ObjectiveRepository struct {
	DB *gorm.DB
}

func NewObjectiveRepository(db *gorm.DB) *ObjectiveRepository {
	return &ObjectiveRepository{DB: db}
}

func (r *ObjectiveRepository) Create(obj *model.Objective) error {
	return r.DB.Create(obj).Error
}

func (r *ObjectiveRepository) Update(obj *model.Objective) error {
	return r.DB.Save(obj).Error
}

func (r *ObjectiveRepository) Delete(id string) error {
	return r.DB.Delete(&model.Objective{}, "id = ?", id).Error
}

// FindByID 根据ID查找学习目标
func (r *ObjectiveRepository) FindByID(id string) (*model.Objective, error) {
	var obj model.Objective
	err := r.DB.Where("id = ?", id).First(&obj).Error
	return &obj, err
}

// FindByIDAndUserID 根据ID和用户ID查找学习目标
func (r *ObjectiveRepository) FindByIDAndUserID(id string, userID uint) (*model.Objective, error) {
	var obj model.Objective
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&obj).Error
	return &obj, err
}

// FindByUserID 获取用户的所有学习目标，按优先级和创建时间排序
func (r *ObjectiveRepository) FindByUserID(userID uint) ([]model.Objective, error) {
	var objs []model.Objective
	err := r.DB.Where("user_id = ?", userID).
		Order("priority desc, created_at desc").Find(&objs).Error
	return objs, err
}

// UpdateFields 按字段更新学习目标
func (r *ObjectiveRepository) UpdateFields(id string, fields map[string]interface{}) error {
	return r.DB.Model(&model.Objective{}).Where("id = ?", id).Updates(fields).Error
}
