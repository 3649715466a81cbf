package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"skillsprint_backend/internal/model"
)

const completionPath = "/api/objectives/o1/sprints/s1/complete"

func completionHandler(t *testing.T, keys *[]string, failures *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case completionPath:
			*keys = append(*keys, r.Header.Get("Idempotency-Key"))
			if atomic.LoadInt32(failures) > 0 {
				atomic.AddInt32(failures, -1)
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"code":"internal_error","message":"Internal server error"}}`))
				return
			}
			w.Write([]byte(`{"code":200,"message":"success","data":{
				"sprintId":"s1",
				"nextSprintGenerated":true,
				"nextSprint":{"id":"s2","dayNumber":4},
				"brainAdaptive":{
					"skillsUpdated":[{"name":"Go","delta":2,"newLevel":42}],
					"performanceAnalysis":{"recommendedAction":"keep_pace"},
					"notifications":["You finished faster than estimated, the next sprint will push a little harder."]
				}
			}}`))
		case "/api/objectives/o1":
			w.Write([]byte(`{"code":200,"message":"success","data":{"id":"o1","title":"Learn Go","progress":4}}`))
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestCompletionFlowSuccess(t *testing.T) {
	var keys []string
	var failures int32
	srv := httptest.NewServer(completionHandler(t, &keys, &failures))
	defer srv.Close()

	cache := NewQueryCache()
	cache.Set("objective:o1", "stale")
	cache.Set("objectives", "stale")
	cache.Set("sprint:s1", "stale")

	flow := NewCompletionFlow(New(srv.URL, "t"), cache)
	var navigatedTo string
	flow.OnNavigate = func(objectiveID string) { navigatedTo = objectiveID }

	outcome, err := flow.Submit(context.Background(), "o1", "s1", &CompleteSprintRequest{
		TasksCompleted: 3,
		TotalTasks:     3,
		Reflection:     "went well",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if flow.State() != FlowSucceeded {
		t.Errorf("state = %s, want succeeded", flow.State())
	}
	if navigatedTo != "o1" {
		t.Errorf("navigation target = %q", navigatedTo)
	}
	if outcome.Objective == nil || outcome.Objective.Progress != 4 {
		t.Errorf("objective not refetched: %+v", outcome.Objective)
	}
	if !strings.Contains(outcome.Message, "Sprint completed!") {
		t.Errorf("message = %q", outcome.Message)
	}
	if !strings.Contains(outcome.Message, "Next sprint is ready (Day 4).") {
		t.Errorf("next sprint missing from message: %q", outcome.Message)
	}
	if !strings.Contains(outcome.Message, "1 skill(s) updated.") {
		t.Errorf("skill update missing from message: %q", outcome.Message)
	}

	for _, key := range []string{"objective:o1", "objectives", "sprint:s1"} {
		if _, ok := cache.Get(key); ok {
			t.Errorf("cache key %q not invalidated", key)
		}
	}
}

func TestCompletionFlowRetryReusesIdempotencyKey(t *testing.T) {
	var keys []string
	failures := int32(1)
	srv := httptest.NewServer(completionHandler(t, &keys, &failures))
	defer srv.Close()

	flow := NewCompletionFlow(New(srv.URL, "t"), NewQueryCache())
	req := &CompleteSprintRequest{TasksCompleted: 3, TotalTasks: 3, Reflection: "done"}

	if _, err := flow.Submit(context.Background(), "o1", "s1", req); err == nil {
		t.Fatal("first submit should fail")
	}
	if flow.State() != FlowFailed {
		t.Errorf("state = %s, want failed", flow.State())
	}
	if flow.LastError() == nil {
		t.Error("LastError() = nil after failure")
	}

	if _, err := flow.Submit(context.Background(), "o1", "s1", req); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if len(keys) != 2 {
		t.Fatalf("completion requests = %d, want 2", len(keys))
	}
	if keys[0] == "" || keys[0] != keys[1] {
		t.Errorf("idempotency key not reused across retry: %q vs %q", keys[0], keys[1])
	}
}

func TestCompletionFlowRejectsDoubleSubmit(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == completionPath {
			<-release
		}
		w.Write([]byte(`{"code":200,"message":"success","data":{"sprintId":"s1","nextSprintGenerated":false,"brainAdaptive":{"skillsUpdated":[],"notifications":[]}}}`))
	}))
	defer srv.Close()

	flow := NewCompletionFlow(New(srv.URL, "t"), nil)
	req := &CompleteSprintRequest{TasksCompleted: 1, TotalTasks: 1, Reflection: "r"}

	done := make(chan error, 1)
	go func() {
		_, err := flow.Submit(context.Background(), "o1", "s1", req)
		done <- err
	}()

	// 等第一个提交进入in-flight
	for flow.State() != FlowSubmitting {
		time.Sleep(time.Millisecond)
	}

	if _, err := flow.Submit(context.Background(), "o1", "s1", req); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("concurrent submit error = %v, want ErrSubmitInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}

	if _, err := flow.Submit(context.Background(), "o1", "s1", req); !errors.Is(err, ErrFlowFinished) {
		t.Errorf("submit after success error = %v, want ErrFlowFinished", err)
	}
}

func TestValidateCompletion(t *testing.T) {
	cases := []struct {
		name string
		req  CompleteSprintRequest
		want error
	}{
		{"tasks incomplete", CompleteSprintRequest{TasksCompleted: 2, TotalTasks: 3, Reflection: "r"}, ErrTasksIncomplete},
		{"blank reflection", CompleteSprintRequest{TasksCompleted: 3, TotalTasks: 3, Reflection: "   "}, ErrReflectionRequired},
		{"valid", CompleteSprintRequest{TasksCompleted: 3, TotalTasks: 3, Reflection: "r"}, nil},
		{"zero tasks", CompleteSprintRequest{TasksCompleted: 0, TotalTasks: 0, Reflection: "r"}, nil},
	}
	for _, tc := range cases {
		if err := ValidateCompletion(&tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestCompletionFlowRejectsIncompleteTasksWithoutRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	flow := NewCompletionFlow(New(srv.URL, "t"), nil)
	_, err := flow.Submit(context.Background(), "o1", "s1", &CompleteSprintRequest{
		TasksCompleted: 2,
		TotalTasks:     3,
		Reflection:     "partial work",
	})
	if !errors.Is(err, ErrTasksIncomplete) {
		t.Fatalf("err = %v, want ErrTasksIncomplete", err)
	}
	if flow.State() != FlowIdle {
		t.Errorf("state = %s, want idle", flow.State())
	}
}

func TestCompletionFlowRejectsBlankReflectionWithoutRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	flow := NewCompletionFlow(New(srv.URL, "t"), nil)
	_, err := flow.Submit(context.Background(), "o1", "s1", &CompleteSprintRequest{TasksCompleted: 3, TotalTasks: 3, Reflection: " "})
	if !errors.Is(err, ErrReflectionRequired) {
		t.Fatalf("err = %v, want ErrReflectionRequired", err)
	}
	if flow.State() != FlowIdle {
		t.Errorf("state = %s, want idle", flow.State())
	}
}

func TestBuildSuccessMessageIncludesDifficultyHint(t *testing.T) {
	cases := []struct {
		action string
		want   string
	}{
		{"speed_up", "Difficulty increased."},
		{"slow_down", "Difficulty adjusted."},
	}
	for _, tc := range cases {
		result := &model.CompletionResult{
			SprintID: "s1",
			BrainAdaptive: model.BrainAdaptive{
				PerformanceAnalysis: &model.PerformanceAnalysis{RecommendedAction: tc.action},
			},
		}
		if msg := buildSuccessMessage(result); !strings.Contains(msg, tc.want) {
			t.Errorf("action %s: message = %q, want it to contain %q", tc.action, msg, tc.want)
		}
	}

	keepPace := &model.CompletionResult{
		SprintID: "s1",
		BrainAdaptive: model.BrainAdaptive{
			PerformanceAnalysis: &model.PerformanceAnalysis{RecommendedAction: "keep_pace"},
		},
	}
	if msg := buildSuccessMessage(keepPace); strings.Contains(msg, "Difficulty") {
		t.Errorf("keep_pace should not mention difficulty: %q", msg)
	}
}

func TestBuildSuccessMessageOmitsNextSprintWhenNotGenerated(t *testing.T) {
	raw := `{"sprintId":"s1","nextSprintGenerated":false,"brainAdaptive":{"skillsUpdated":[],"notifications":["Objective completed, congratulations!"]}}`
	var result model.CompletionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		t.Fatal(err)
	}
	msg := buildSuccessMessage(&result)
	if strings.Contains(msg, "Next sprint") {
		t.Errorf("message mentions next sprint without generation: %q", msg)
	}
	if !strings.Contains(msg, "Objective completed, congratulations!") {
		t.Errorf("notification missing: %q", msg)
	}
}
