package controller

import (
	"skillsprint_backend/internal/service"
	"skillsprint_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AssessmentController 处理技术评估的API请求。
// 历史原因，这组接口返回 {success, data} 包装而不是统一的 util.Response。

type AssessmentController struct {
	AssessmentService *service.AssessmentService
}

func NewAssessmentController(assessmentService *service.AssessmentService) *AssessmentController {
	return &AssessmentController{AssessmentService: assessmentService}
}

// @Summary 获取技术评估题目
// @Description 返回题目列表与剩余尝试次数，不含标准答案
// @Tags 技术评估
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Envelope
// @Router /api/assessments/technical/questions [get]
func (c *AssessmentController) Questions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questions, remaining, err := c.AssessmentService.Questions(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.SuccessEnveloped(ctx, gin.H{
		"questions":         questions,
		"attemptsRemaining": remaining,
	})
}

// @Summary 提交技术评估
// @Description 判分并返回弱项与建议，受尝试次数上限约束
// @Tags 技术评估
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answers body SubmitAnswersRequest true "答案"
// @Success 200 {object} util.Envelope
// @Failure 422 {object} util.ErrorBody
// @Failure 429 {object} util.ErrorBody
// @Router /api/assessments/technical/submit [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AssessmentService.Submit(user.UserID, req.Answers)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.SuccessEnveloped(ctx, result)
}

// @Summary 最近一次技术评估提交
// @Tags 技术评估
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Envelope
// @Router /api/assessments/technical/latest [get]
func (c *AssessmentController) Latest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.AssessmentService.LatestAttempt(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.SuccessEnveloped(ctx, attempt)
}
