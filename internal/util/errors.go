package util

import "errors"

var (
	ErrUserNotFound           = errors.New("用户不存在")
	ErrEmailRegistered        = errors.New("该邮箱已被注册")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrObjectiveNotFound      = errors.New("objective not found")
	ErrSprintNotFound         = errors.New("sprint not found")
	ErrObjectiveCompleted     = errors.New("objective already completed")
	ErrSprintNotActive        = errors.New("sprint is not active")
	ErrSprintAlreadyCompleted = errors.New("sprint already completed")
	ErrTasksIncomplete        = errors.New("all micro-tasks must be completed before submitting the sprint")
	ErrReflectionRequired     = errors.New("a non-empty reflection is required to complete the sprint")
	ErrGenerationInFlight     = errors.New("Sprint generation already in progress")
	ErrDailyGenerationLimit   = errors.New("Daily limit reached")
	ErrNoAttemptsRemaining    = errors.New("no assessment attempts remaining")
)

// ValidationError 带字段明细的校验错误，控制器据此返回422和details
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}
