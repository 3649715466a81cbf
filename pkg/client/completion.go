package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"skillsprint_backend/internal/model"

	"github.com/google/uuid"
)

// FlowState 完成流程的客户端状态机
type FlowState string

const (
	FlowIdle       FlowState = "idle"
	FlowSubmitting FlowState = "submitting"
	FlowSucceeded  FlowState = "succeeded"
	FlowFailed     FlowState = "failed"
)

var (
	// ErrSubmitInFlight 同一流程上的并发提交被拒绝
	ErrSubmitInFlight = errors.New("a completion submission is already in flight")
	// ErrFlowFinished 流程已成功结束，不能重复提交
	ErrFlowFinished = errors.New("completion flow already finished")
	// ErrTasksIncomplete 还有任务没完成
	ErrTasksIncomplete = errors.New("all tasks must be completed before submitting")
	// ErrReflectionRequired 复盘内容为空
	ErrReflectionRequired = errors.New("reflection must not be blank")
)

// ValidateCompletion 发起网络请求前的本地校验
func ValidateCompletion(req *CompleteSprintRequest) error {
	if req.TasksCompleted < req.TotalTasks {
		return ErrTasksIncomplete
	}
	if strings.TrimSpace(req.Reflection) == "" {
		return ErrReflectionRequired
	}
	return nil
}

// CompletionOutcome 完成流程的最终产出：服务端结果、
// 重新拉取后的目标视图和拼装好的提示消息。
type CompletionOutcome struct {
	Result    *model.CompletionResult
	Objective *model.ObjectiveView
	Message   string
}

// CompletionFlow 一次冲刺完成的端到端流程。
// 每个流程实例固定一个幂等键，失败重试会带着同一个键回放，
// 服务端据此保证重复提交不会重复计数。
// 成功后重新拉取目标确认状态，而不是等一段固定时间再刷新。
type CompletionFlow struct {
	Client *Client
	Cache  *QueryCache

	// Poller 可选。设置后，完成成功会立刻触发一次生成门禁拉取
	Poller *GenerationPoller

	// OnNavigate 成功后跳转回调（通常导航到目标详情）
	OnNavigate func(objectiveID string)

	mu             sync.Mutex
	state          FlowState
	idempotencyKey string
	lastErr        error
}

func NewCompletionFlow(c *Client, cache *QueryCache) *CompletionFlow {
	return &CompletionFlow{
		Client: c,
		Cache:  cache,
		state:  FlowIdle,
	}
}

func (f *CompletionFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *CompletionFlow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Submit 提交完成请求。流程进行中或已成功时直接拒绝；
// 失败后可重复调用，沿用同一个幂等键。
func (f *CompletionFlow) Submit(ctx context.Context, objectiveID, sprintID string, req *CompleteSprintRequest) (*CompletionOutcome, error) {
	// 任务没做完或复盘为空都不发请求，流程状态不变
	if err := ValidateCompletion(req); err != nil {
		return nil, err
	}

	f.mu.Lock()
	switch f.state {
	case FlowSubmitting:
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	case FlowSucceeded:
		f.mu.Unlock()
		return nil, ErrFlowFinished
	}
	if f.idempotencyKey == "" {
		f.idempotencyKey = uuid.New().String()
	}
	key := f.idempotencyKey
	f.state = FlowSubmitting
	f.lastErr = nil
	f.mu.Unlock()

	result, err := f.Client.CompleteSprint(ctx, objectiveID, sprintID, key, req)
	if err != nil {
		f.mu.Lock()
		f.state = FlowFailed
		f.lastErr = err
		f.mu.Unlock()
		return nil, err
	}

	if f.Cache != nil {
		f.Cache.InvalidateObjective(objectiveID)
		f.Cache.Invalidate("sprint:" + sprintID)
	}
	if f.Poller != nil {
		f.Poller.Refresh(objectiveID)
	}

	// 成功后立刻重取目标确认服务端视角，拉取失败不影响完成结果
	objective, fetchErr := f.Client.GetObjective(ctx, objectiveID)
	if fetchErr != nil {
		objective = nil
	}

	f.mu.Lock()
	f.state = FlowSucceeded
	f.mu.Unlock()

	if f.OnNavigate != nil {
		f.OnNavigate(objectiveID)
	}

	return &CompletionOutcome{
		Result:    result,
		Objective: objective,
		Message:   buildSuccessMessage(result),
	}, nil
}

// buildSuccessMessage 拼装完成提示。只有下一个冲刺真的生成了
// 才提及它；技能更新和通知逐条附加。
func buildSuccessMessage(result *model.CompletionResult) string {
	var b strings.Builder
	b.WriteString("Sprint completed!")

	if result.NextSprintGenerated && result.NextSprint != nil {
		fmt.Fprintf(&b, " Next sprint is ready (Day %d).", result.NextSprint.DayNumber)
	}
	if n := len(result.BrainAdaptive.SkillsUpdated); n > 0 {
		fmt.Fprintf(&b, " %d skill(s) updated.", n)
	}
	if pa := result.BrainAdaptive.PerformanceAnalysis; pa != nil {
		switch pa.RecommendedAction {
		case "speed_up":
			b.WriteString(" Difficulty increased.")
		case "slow_down":
			b.WriteString(" Difficulty adjusted.")
		}
	}
	for _, note := range result.BrainAdaptive.Notifications {
		b.WriteString(" ")
		b.WriteString(note)
	}
	return b.String()
}
