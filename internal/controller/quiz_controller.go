package controller

import (
	"skillsprint_backend/internal/service"
	"skillsprint_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuizController 处理入门画像测验的API请求

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

type SubmitAnswersRequest struct {
	Answers map[string]interface{} `json:"answers" binding:"required"`
}

// @Summary 获取画像测验题目
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/quiz [get]
func (c *QuizController) Questions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	questions, err := c.QuizService.Questions()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// @Summary 提交画像测验
// @Description 答案值可以是裸原始值、选项对象或数组，服务端会归一化
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answers body SubmitAnswersRequest true "答案"
// @Success 200 {object} util.Response
// @Failure 422 {object} util.ErrorBody
// @Router /api/quiz/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
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

	result, err := c.QuizService.Submit(user.UserID, req.Answers)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 最近一次画像测验提交
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/quiz/latest [get]
func (c *QuizController) Latest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.QuizService.LatestAttempt(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}
