package repository

import (
	"skillsprint_backend/internal/model"

	"gorm.io/gorm"
)

// SprintRepository 处理冲刺及其微任务的数据访问

type SprintRepository struct {
	DB *gorm.DB
}

func NewSprintRepository(db *gorm.DB) *SprintRepository {
	return &SprintRepository{DB: db}
}

func (r *SprintRepository) Create(sprint *model.Sprint) error {
	return r.DB.Create(sprint).Error
}

func (r *SprintRepository) Update(sprint *model.Sprint) error {
	return r.DB.Save(sprint).Error
}

// FindByID 根据ID查找冲刺，级联加载微任务和测验
func (r *SprintRepository) FindByID(id string) (*model.Sprint, error) {
	var sprint model.Sprint
	err := r.DB.Preload("MicroTasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("micro_tasks.`order` asc")
	}).Preload("Quizzes").Where("id = ?", id).First(&sprint).Error
	return &sprint, err
}

// FindByIDAndObjectiveID 在指定目标下查找冲刺
func (r *SprintRepository) FindByIDAndObjectiveID(id, objectiveID string) (*model.Sprint, error) {
	var sprint model.Sprint
	err := r.DB.Preload("MicroTasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("micro_tasks.`order` asc")
	}).Preload("Quizzes").
		Where("id = ? AND objective_id = ?", id, objectiveID).First(&sprint).Error
	return &sprint, err
}

// FindByObjectiveID 获取目标下的所有冲刺，按天数倒序（最近的在前）
func (r *SprintRepository) FindByObjectiveID(objectiveID string) ([]model.Sprint, error) {
	var sprints []model.Sprint
	err := r.DB.Preload("MicroTasks", func(db *gorm.DB) *gorm.DB {
		return db.Order("micro_tasks.`order` asc")
	}).Where("objective_id = ?", objectiveID).
		Order("day_number desc").Find(&sprints).Error
	return sprints, err
}

// UpdateFields 按字段更新冲刺
func (r *SprintRepository) UpdateFields(id string, fields map[string]interface{}) error {
	return r.DB.Model(&model.Sprint{}).Where("id = ?", id).Updates(fields).Error
}

// SetTaskCompletion 设置单个微任务的完成状态
func (r *SprintRepository) SetTaskCompletion(sprintID, taskID string, completed bool) error {
	return r.DB.Model(&model.MicroTask{}).
		Where("id = ? AND sprint_id = ?", taskID, sprintID).
		Update("completed", completed).Error
}

// CountCompletedTasks 统计冲刺下已完成的微任务数
func (r *SprintRepository) CountCompletedTasks(sprintID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.MicroTask{}).
		Where("sprint_id = ? AND completed = ?", sprintID, true).Count(&count).Error
	return count, err
}

func (r *SprintRepository) CreateEvidence(ev *model.SprintEvidence) error {
	return r.DB.Create(ev).Error
}

func (r *SprintRepository) FindEvidenceBySprintID(sprintID string) ([]model.SprintEvidence, error) {
	var evs []model.SprintEvidence
	err := r.DB.Where("sprint_id = ?", sprintID).Order("created_at desc").Find(&evs).Error
	return evs, err
}

// FindReceipt 查询冲刺下的幂等回执，键只在所属冲刺内有效
func (r *SprintRepository) FindReceipt(sprintID, key string) (*model.CompletionReceipt, error) {
	var receipt model.CompletionReceipt
	err := r.DB.Where("sprint_id = ? AND idempotency_key = ?", sprintID, key).First(&receipt).Error
	return &receipt, err
}

func (r *SprintRepository) CreateReceipt(receipt *model.CompletionReceipt) error {
	return r.DB.Create(receipt).Error
}
