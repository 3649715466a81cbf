package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"skillsprint_backend/internal/service"
	"skillsprint_backend/internal/util"
	"skillsprint_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ObjectiveController 处理学习目标的API请求

type ObjectiveController struct {
	ObjectiveService  *service.ObjectiveService
	GenerationService *service.GenerationService
}

func NewObjectiveController(objectiveService *service.ObjectiveService, generationService *service.GenerationService) *ObjectiveController {
	return &ObjectiveController{
		ObjectiveService:  objectiveService,
		GenerationService: generationService,
	}
}

// @Summary 创建学习目标
// @Description 创建新的学习目标并排队生成第一个冲刺
// @Tags 学习目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param objective body service.CreateObjectiveRequest true "目标信息"
// @Success 201 {object} util.Response
// @Router /api/objectives [post]
func (c *ObjectiveController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CreateObjectiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	obj, err := c.ObjectiveService.Create(ctx, user.UserID, &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, obj)
}

// @Summary 获取学习目标列表
// @Description 获取当前用户的所有学习目标（含调和后的冲刺视图）
// @Tags 学习目标
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/objectives [get]
func (c *ObjectiveController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	views, err := c.ObjectiveService.List(ctx, user.UserID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// @Summary 获取学习目标详情
// @Description 获取目标详情，currentSprint/pastSprints 已调和
// @Tags 学习目标
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.ErrorBody
// @Router /api/objectives/{id} [get]
func (c *ObjectiveController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.ObjectiveService.Get(ctx, user.UserID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 更新学习目标
// @Description 修改目标的标题、描述、优先级等可编辑字段
// @Tags 学习目标
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Param objective body service.UpdateObjectiveRequest true "更新内容"
// @Success 200 {object} util.Response
// @Router /api/objectives/{id} [put]
func (c *ObjectiveController) Update(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateObjectiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	obj, err := c.ObjectiveService.Update(ctx, user.UserID, ctx.Param("id"), &req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, obj)
}

// @Summary 完成学习目标
// @Description 显式终结目标，之后不再生成冲刺
// @Tags 学习目标
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.ErrorBody
// @Router /api/objectives/{id}/complete [post]
func (c *ObjectiveController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	obj, err := c.ObjectiveService.Complete(ctx, user.UserID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, obj)
}

// @Summary 删除学习目标
// @Tags 学习目标
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Success 200 {object} util.Response
// @Router /api/objectives/{id} [delete]
func (c *ObjectiveController) Delete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ObjectiveService.Delete(ctx, user.UserID, ctx.Param("id")); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 查询冲刺生成门禁
// @Description 下一个冲刺能否生成：已完成/可生成/被阻塞三种结论
// @Tags 学习目标
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Success 200 {object} util.Response
// @Router /api/objectives/{id}/generation-status [get]
func (c *ObjectiveController) GenerationStatus(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	st, err := c.GenerationService.Status(ctx, user.UserID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, st)
}

// @Summary 请求生成下一个冲刺
// @Description 校验门禁后入队异步生成任务
// @Tags 学习目标
// @Produce json
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Success 202 {object} util.Response
// @Failure 409 {object} util.ErrorBody
// @Failure 429 {object} util.ErrorBody
// @Router /api/objectives/{id}/sprints/generate [post]
func (c *ObjectiveController) Generate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	job, err := c.GenerationService.Request(ctx, user.UserID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, util.Response{
		Code:    http.StatusAccepted,
		Message: "accepted",
		Data:    job,
	})
}

var statusStreamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// @Summary 生成门禁推送流
// @Description WebSocket推送生成门禁变化，替代客户端轮询
// @Tags 学习目标
// @Security BearerAuth
// @Param id path string true "目标ID"
// @Router /api/objectives/{id}/generation-status/stream [get]
func (c *ObjectiveController) GenerationStatusStream(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	objectiveID := ctx.Param("id")

	conn, err := statusStreamUpgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// 门禁有变化才推送，5秒一个心跳检测
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var last []byte
	send := func() bool {
		st, err := c.GenerationService.Status(ctx.Request.Context(), user.UserID, objectiveID)
		if err != nil {
			return false
		}
		payload, err := json.Marshal(st)
		if err != nil {
			return false
		}
		if string(payload) == string(last) {
			return true
		}
		last = payload
		return conn.WriteMessage(websocket.TextMessage, payload) == nil
	}

	if !send() {
		return
	}
	for {
		select {
		case <-ctx.Request.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
