package controller

import (
	"errors"
	"net/http"

	"skillsprint_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// respondServiceError 把服务层的领域错误映射到HTTP错误响应
func respondServiceError(ctx *gin.Context, err error) {
	var valErr *util.ValidationError
	if errors.As(err, &valErr) {
		util.ErrorWithDetails(ctx, http.StatusUnprocessableEntity, "validation_failed",
			valErr.Message, gin.H{"fields": valErr.Fields})
		return
	}

	switch {
	case errors.Is(err, util.ErrObjectiveNotFound), errors.Is(err, util.ErrSprintNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrObjectiveCompleted),
		errors.Is(err, util.ErrSprintAlreadyCompleted),
		errors.Is(err, util.ErrSprintNotActive),
		errors.Is(err, util.ErrGenerationInFlight):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrTasksIncomplete), errors.Is(err, util.ErrReflectionRequired):
		util.Error(ctx, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.Is(err, util.ErrDailyGenerationLimit):
		util.Error(ctx, http.StatusTooManyRequests, "daily_limit_reached", err.Error())
	case errors.Is(err, util.ErrNoAttemptsRemaining):
		util.Error(ctx, http.StatusTooManyRequests, "no_attempts_remaining", err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
