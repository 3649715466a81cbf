package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoUnwrapsCodeMessageDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":200,"message":"success","data":{"id":"obj-1","title":"Learn Go"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "token-1")
	view, err := c.GetObjective(context.Background(), "obj-1")
	if err != nil {
		t.Fatalf("GetObjective: %v", err)
	}
	if view.ID != "obj-1" || view.Title != "Learn Go" {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestDoUnwrapsSuccessDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"attemptId":"att-1","score":80,"passed":true,"attemptsRemaining":2,"weakAreas":[],"recommendations":[]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	result, err := c.SubmitAssessment(context.Background(), map[string]interface{}{"q1": "a"})
	if err != nil {
		t.Fatalf("SubmitAssessment: %v", err)
	}
	if result.AttemptID != "att-1" || result.Score != 80 || !result.Passed {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestDoParsesStructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"code":"validation_failed","message":"reflection required","details":{"fields":["reflection"]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	_, err := c.GetObjective(context.Background(), "obj-1")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T, want *APIError", err)
	}
	if apiErr.Status != 422 || apiErr.Code != "validation_failed" || apiErr.Message != "reflection required" {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
	if apiErr.Details == nil {
		t.Error("details not captured")
	}
}

func TestDoFallsBackToMessageAndRawBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantMsg  string
		wantCode string
	}{
		{"legacy message field", `{"message":"token expired"}`, "token expired", "unknown"},
		{"plain text body", `gateway timeout`, "gateway timeout", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "t")
			_, err := c.GetObjective(context.Background(), "x")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type %T", err)
			}
			if apiErr.Message != tt.wantMsg || apiErr.Code != tt.wantCode {
				t.Errorf("got (%q,%q), want (%q,%q)", apiErr.Message, apiErr.Code, tt.wantMsg, tt.wantCode)
			}
		})
	}
}

func TestAuthErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"unauthorized","message":"Unauthorized"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "expired")
	_, err := c.ListObjectives(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T", err)
	}
	if !apiErr.IsAuthError() {
		t.Error("IsAuthError() = false for 401")
	}
}

func TestCompleteSprintSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["reflection"] != "done" {
			t.Errorf("reflection not forwarded: %v", body)
		}
		if body["totalTasks"] != float64(3) {
			t.Errorf("totalTasks not forwarded: %v", body)
		}
		w.Write([]byte(`{"code":200,"message":"success","data":{"sprintId":"s1","nextSprintGenerated":false,"brainAdaptive":{"skillsUpdated":[],"notifications":[]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	result, err := c.CompleteSprint(context.Background(), "o1", "s1", "key-123", &CompleteSprintRequest{
		TasksCompleted: 3,
		TotalTasks:     3,
		Reflection:     "done",
	})
	if err != nil {
		t.Fatalf("CompleteSprint: %v", err)
	}
	if gotKey != "key-123" {
		t.Errorf("Idempotency-Key = %q, want key-123", gotKey)
	}
	if result.SprintID != "s1" {
		t.Errorf("SprintID = %q", result.SprintID)
	}
}

func TestLatestQuizAttemptNotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"not_found","message":"Resource not found"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	attempt, err := c.LatestQuizAttempt(context.Background())
	if err != nil {
		t.Fatalf("LatestQuizAttempt: %v", err)
	}
	if attempt != nil {
		t.Errorf("attempt = %+v, want nil", attempt)
	}
}

func TestLogoutClearsTokenEvenOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "still-valid")
	c.Logout(context.Background())
	if c.Token != "" {
		t.Errorf("Token = %q, want cleared", c.Token)
	}
}

func TestGenerationStatusDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"message":"success","data":{"canGenerate":true,"objectiveCompleted":false,"nextSprintDay":4,"currentSprintId":null}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "t")
	st, err := c.GetGenerationStatus(context.Background(), "o1")
	if err != nil {
		t.Fatalf("GetGenerationStatus: %v", err)
	}
	if !st.CanGenerate || st.NextSprintDay == nil || *st.NextSprintDay != 4 {
		t.Errorf("unexpected status: %+v", st)
	}
}
