package controller

import (
	"skillsprint_backend/internal/service"
	"skillsprint_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// SprintController 处理冲刺进度与完成的API请求

type SprintController struct {
	SprintService  *service.SprintService
	StorageService *service.StorageService
}

func NewSprintController(sprintService *service.SprintService, storageService *service.StorageService) *SprintController {
	return &SprintController{
		SprintService:  sprintService,
		StorageService: storageService,
	}
}

// @Summary 获取冲刺详情
// @Tags 冲刺
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Param sprintId path string true "冲刺ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.ErrorBody
// @Router /api/objectives/{id}/sprints/{sprintId} [get]
func (c *SprintController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.SprintService.Get(ctx, user.UserID, ctx.Param("id"), ctx.Param("sprintId"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 更新冲刺进度
// @Description 局部更新任务完成计数
// @Tags 冲刺
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Param sprintId path string true "冲刺ID"
// @Param progress body service.UpdateProgressRequest true "进度"
// @Success 200 {object} util.Response
// @Router /api/objectives/{id}/sprints/{sprintId}/progress [patch]
func (c *SprintController) UpdateProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.SprintService.UpdateProgress(ctx, user.UserID, ctx.Param("id"), ctx.Param("sprintId"), &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 勾选微任务
// @Description 设置单个微任务的完成状态
// @Tags 冲刺
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Param sprintId path string true "冲刺ID"
// @Param taskId path string true "微任务ID"
// @Param task body service.SetTaskRequest true "完成状态"
// @Success 200 {object} util.Response
// @Router /api/objectives/{id}/sprints/{sprintId}/tasks/{taskId} [patch]
func (c *SprintController) SetTask(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SetTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.SprintService.SetTask(ctx, user.UserID, ctx.Param("id"), ctx.Param("sprintId"), ctx.Param("taskId"), req.Completed)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 完成冲刺
// @Description 完成冲刺并返回技能更新与下一个冲刺。携带 Idempotency-Key 的重试回放首次结果
// @Tags 冲刺
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Param sprintId path string true "冲刺ID"
// @Param Idempotency-Key header string false "幂等键"
// @Param completion body service.CompleteSprintRequest true "完成信息"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.ErrorBody
// @Failure 422 {object} util.ErrorBody
// @Router /api/objectives/{id}/sprints/{sprintId}/complete [post]
func (c *SprintController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CompleteSprintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SprintService.Complete(ctx, user.UserID, ctx.Param("id"), ctx.Param("sprintId"),
		ctx.GetHeader("Idempotency-Key"), &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 上传冲刺成果物
// @Description 上传截图、代码包或讲解视频，视频会探测时长
// @Tags 冲刺
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Param sprintId path string true "冲刺ID"
// @Param file formData file true "成果物文件"
// @Success 201 {object} util.Response
// @Router /api/objectives/{id}/sprints/{sprintId}/evidence [post]
func (c *SprintController) UploadEvidence(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	sprintID := ctx.Param("sprintId")
	ev, err := c.StorageService.UploadEvidence(ctx, sprintID, file)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if err := c.SprintService.AddEvidence(ctx, user.UserID, ctx.Param("id"), sprintID, ev); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, ev)
}

// @Summary 冲刺成果物列表
// @Tags 冲刺
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Param sprintId path string true "冲刺ID"
// @Success 200 {object} util.Response
// @Router /api/objectives/{id}/sprints/{sprintId}/evidence [get]
func (c *SprintController) ListEvidence(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	evs, err := c.SprintService.ListEvidence(user.UserID, ctx.Param("id"), ctx.Param("sprintId"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, evs)
}
