package lifecycle

import (
	"testing"
	"time"

	"skillsprint_backend/internal/model"
)

func view(id, status string, completedAt *time.Time) model.SprintView {
	return model.SprintView{ID: id, Status: status, CompletedAt: completedAt}
}

func TestReconcileNilCurrent(t *testing.T) {
	past := []model.SprintView{view("s1", "completed", nil)}
	cur, hist := ReconcileSprints(nil, past)
	if cur != nil {
		t.Error("expected no current sprint")
	}
	if len(hist) != 1 || hist[0].ID != "s1" {
		t.Errorf("past list should be untouched, got %v", hist)
	}
}

func TestReconcileCompletedCurrentMovesToPast(t *testing.T) {
	done := view("s2", "reviewed", nil)
	past := []model.SprintView{view("s1", "completed", nil)}

	cur, hist := ReconcileSprints(&done, past)
	if cur != nil {
		t.Error("completed current sprint must not be shown as current")
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 past sprints, got %d", len(hist))
	}
	if hist[0].ID != "s2" || hist[1].ID != "s1" {
		t.Errorf("completed current should be prepended, got order %s,%s", hist[0].ID, hist[1].ID)
	}
}

func TestReconcileDedupeByID(t *testing.T) {
	// 服务端可能已把完成的当前冲刺同时放进了历史列表
	completedAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	done := view("s1", "in_progress", &completedAt)
	past := []model.SprintView{view("s1", "completed", nil), view("s0", "completed", nil)}

	cur, hist := ReconcileSprints(&done, past)
	if cur != nil {
		t.Error("current with completedAt set must be treated as complete")
	}
	if len(hist) != 2 {
		t.Fatalf("expected deduped past list of 2, got %d", len(hist))
	}
	seen := map[string]int{}
	for _, h := range hist {
		seen[h.ID]++
	}
	if seen["s1"] != 1 {
		t.Errorf("sprint s1 appears %d times, want exactly 1", seen["s1"])
	}
}

func TestReconcileActiveCurrentStays(t *testing.T) {
	active := view("s3", "in_progress", nil)
	past := []model.SprintView{view("s3", "planned", nil), view("s1", "completed", nil)}

	cur, hist := ReconcileSprints(&active, past)
	if cur == nil || cur.ID != "s3" {
		t.Fatal("active current sprint should remain current")
	}
	if len(hist) != 1 || hist[0].ID != "s1" {
		t.Errorf("current sprint must be excluded from past, got %v", hist)
	}
}

func TestReconcileNeverDuplicatesIDs(t *testing.T) {
	cases := []struct {
		name    string
		current model.SprintView
		past    []model.SprintView
	}{
		{"completed current already in past", view("a", "reviewed", nil), []model.SprintView{view("a", "completed", nil)}},
		{"completed current not in past", view("b", "completed", nil), []model.SprintView{view("a", "completed", nil)}},
		{"active current echoed in past", view("a", "planned", nil), []model.SprintView{view("a", "planned", nil), view("b", "completed", nil)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cur, hist := ReconcileSprints(&tc.current, tc.past)
			seen := map[string]bool{}
			if cur != nil {
				seen[cur.ID] = true
			}
			for _, h := range hist {
				if seen[h.ID] {
					t.Errorf("duplicate sprint id %q across current+past", h.ID)
				}
				seen[h.ID] = true
			}
		})
	}
}

func TestReconcilePreservesServerOrder(t *testing.T) {
	done := view("s9", "reviewed", nil)
	past := []model.SprintView{view("s3", "completed", nil), view("s2", "completed", nil), view("s1", "completed", nil)}

	_, hist := ReconcileSprints(&done, past)
	want := []string{"s9", "s3", "s2", "s1"}
	for i, id := range want {
		if hist[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, hist[i].ID, id)
		}
	}
}
