package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"skillsprint_backend/internal/model"
)

// Client 平台API的Go客户端。所有请求携带Bearer令牌，
// 响应自动拆掉服务端的两种成功包装（{code,message,data} 和 {success,data}）。
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// APIError 服务端错误响应 {"error":{"code","message","details"}}。
// 旧接口可能只返回 {"message":...} 或纯文本，解析时逐级兜底。
type APIError struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d (%s)", e.Status, e.Code)
}

// IsAuthError 是否为令牌失效（需要重新登录）
func (e *APIError) IsAuthError() bool {
	return e.Status == http.StatusUnauthorized
}

// IsNotFound 资源不存在
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// successEnvelope 服务端的两种成功包装合并解析：
// {code,message,data} 取data；{success,data} 也取data
type successEnvelope struct {
	Code    *int            `json:"code"`
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func parseErrorBody(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Code: "unknown"}

	var wrapped struct {
		Error *struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Error != nil {
			apiErr.Code = wrapped.Error.Code
			apiErr.Message = wrapped.Error.Message
			apiErr.Details = wrapped.Error.Details
			return apiErr
		}
		if wrapped.Message != "" {
			apiErr.Message = wrapped.Message
			return apiErr
		}
	}
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

// do 发送请求并把成功响应的data解码到out。headers 允许附加请求头（幂等键等）。
func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return parseErrorBody(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	var envelope successEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil &&
		(envelope.Code != nil || envelope.Success != nil) && envelope.Data != nil {
		return json.Unmarshal(envelope.Data, out)
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, nil, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, nil, out)
}

// GetObjective 目标详情
func (c *Client) GetObjective(ctx context.Context, objectiveID string) (*model.ObjectiveView, error) {
	var view model.ObjectiveView
	if err := c.get(ctx, "/api/objectives/"+objectiveID, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListObjectives 目标列表
func (c *Client) ListObjectives(ctx context.Context) ([]model.ObjectiveView, error) {
	var views []model.ObjectiveView
	if err := c.get(ctx, "/api/objectives", &views); err != nil {
		return nil, err
	}
	return views, nil
}

// GetSprint 冲刺详情
func (c *Client) GetSprint(ctx context.Context, objectiveID, sprintID string) (*model.SprintView, error) {
	var view model.SprintView
	if err := c.get(ctx, "/api/objectives/"+objectiveID+"/sprints/"+sprintID, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetGenerationStatus 生成门禁
func (c *Client) GetGenerationStatus(ctx context.Context, objectiveID string) (*model.GenerationStatus, error) {
	var st model.GenerationStatus
	if err := c.get(ctx, "/api/objectives/"+objectiveID+"/generation-status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// UpdateSprintProgress 更新冲刺任务进度
func (c *Client) UpdateSprintProgress(ctx context.Context, objectiveID, sprintID string, completedTasks, totalTasks int) (*model.SprintView, error) {
	var view model.SprintView
	body := map[string]int{"completedTasks": completedTasks, "totalTasks": totalTasks}
	if err := c.patch(ctx, "/api/objectives/"+objectiveID+"/sprints/"+sprintID+"/progress", body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// CompleteSprintRequest 完成冲刺的提交载荷。TotalTasks 来自冲刺视图，
// 提交前的本地校验以及服务端都会拿它和已完成数比对。
type CompleteSprintRequest struct {
	TasksCompleted    int     `json:"tasksCompleted"`
	TotalTasks        int     `json:"totalTasks"`
	HoursSpent        float64 `json:"hoursSpent"`
	Reflection        string  `json:"reflection"`
	EvidenceSubmitted bool    `json:"evidenceSubmitted"`
}

// CompleteSprint 完成冲刺。idempotencyKey 为空时不带幂等头。
func (c *Client) CompleteSprint(ctx context.Context, objectiveID, sprintID, idempotencyKey string, req *CompleteSprintRequest) (*model.CompletionResult, error) {
	var result model.CompletionResult
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	err := c.do(ctx, http.MethodPost,
		"/api/objectives/"+objectiveID+"/sprints/"+sprintID+"/complete", req, headers, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RequestGeneration 请求生成下一个冲刺
func (c *Client) RequestGeneration(ctx context.Context, objectiveID string) error {
	return c.post(ctx, "/api/objectives/"+objectiveID+"/sprints/generate", nil, nil)
}

// SubmitQuiz 提交画像测验
func (c *Client) SubmitQuiz(ctx context.Context, answers map[string]interface{}) (*model.AttemptResult, error) {
	var result model.AttemptResult
	if err := c.post(ctx, "/api/quiz/submit", map[string]interface{}{"answers": answers}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitAssessment 提交技术评估
func (c *Client) SubmitAssessment(ctx context.Context, answers map[string]interface{}) (*model.AttemptResult, error) {
	var result model.AttemptResult
	if err := c.post(ctx, "/api/assessments/technical/submit", map[string]interface{}{"answers": answers}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout 登出。服务端调用只是尽力而为，无论成功与否都清掉本地令牌
func (c *Client) Logout(ctx context.Context) {
	_ = c.post(ctx, "/api/auth/logout", nil, nil)
	c.Token = ""
}

// LatestQuizAttempt 最近一次画像测验提交；从未提交过时返回nil
func (c *Client) LatestQuizAttempt(ctx context.Context) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := c.get(ctx, "/api/quiz/latest", &attempt)
	if err != nil {
		var apiErr *APIError
		// 没有历史提交按"无画像"处理，不算错误
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return nil, nil
		}
		return nil, err
	}
	if attempt.ID == "" {
		return nil, nil
	}
	return &attempt, nil
}
