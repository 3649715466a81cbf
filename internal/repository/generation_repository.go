package repository

import (
	"skillsprint_backend/internal/model"

	"gorm.io/gorm"
)

// GenerationRepository 处理冲刺生成任务的数据访问

type GenerationRepository struct {
	DB *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{DB: db}
}

func (r *GenerationRepository) Create(job *model.GenerationJob) error {
	return r.DB.Create(job).Error
}

func (r *GenerationRepository) Update(job *model.GenerationJob) error {
	return r.DB.Save(job).Error
}

// FindPending 按创建时间取出待处理的生成任务
func (r *GenerationRepository) FindPending(limit int) ([]model.GenerationJob, error) {
	var jobs []model.GenerationJob
	err := r.DB.Where("status = ?", model.GenerationPending).
		Order("created_at asc").Limit(limit).Find(&jobs).Error
	return jobs, err
}

// FindActiveByObjectiveID 查询目标下未结束的生成任务
func (r *GenerationRepository) FindActiveByObjectiveID(objectiveID string) (*model.GenerationJob, error) {
	var job model.GenerationJob
	err := r.DB.Where("objective_id = ? AND status IN ?", objectiveID,
		[]model.GenerationJobStatus{model.GenerationPending, model.GenerationRunning}).
		Order("created_at desc").First(&job).Error
	return &job, err
}

// MarkRunning 以乐观方式认领任务，返回是否认领成功
func (r *GenerationRepository) MarkRunning(jobID string) (bool, error) {
	res := r.DB.Model(&model.GenerationJob{}).
		Where("id = ? AND status = ?", jobID, model.GenerationPending).
		Update("status", model.GenerationRunning)
	return res.RowsAffected > 0, res.Error
}
