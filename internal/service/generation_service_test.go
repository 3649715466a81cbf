package service

import (
	"testing"

	"skillsprint_backend/internal/lifecycle"
	"skillsprint_backend/internal/model"
)

func strPtr(s string) *string { return &s }

func TestDeriveStatus(t *testing.T) {
	sprintID := strPtr("sprint-1")

	tests := []struct {
		name          string
		in            gateInput
		wantCompleted bool
		wantCanGen    bool
		wantReason    string
		wantNextDay   int
	}{
		{
			name: "objective marked completed",
			in: gateInput{
				ObjectiveStatus: model.ObjectiveCompleted,
				CurrentSprintID: sprintID,
			},
			wantCompleted: true,
		},
		{
			name: "all days done counts as completed",
			in: gateInput{
				ObjectiveStatus: model.ObjectiveInProgress,
				CompletedDays:   30,
				TotalDays:       30,
			},
			wantCompleted: true,
		},
		{
			name: "current sprint still open blocks generation",
			in: gateInput{
				ObjectiveStatus:    model.ObjectiveInProgress,
				TotalDays:          30,
				CompletedDays:      3,
				CurrentSprintID:    sprintID,
				CurrentSprintState: lifecycle.StateInProgress,
			},
			wantReason: "Complete the current sprint first",
		},
		{
			name: "job in flight blocks generation",
			in: gateInput{
				ObjectiveStatus: model.ObjectiveInProgress,
				TotalDays:       30,
				CompletedDays:   3,
				JobInFlight:     true,
			},
			wantReason: "Sprint generation already in progress",
		},
		{
			name: "daily limit reached blocks generation",
			in: gateInput{
				ObjectiveStatus: model.ObjectiveInProgress,
				TotalDays:       30,
				CompletedDays:   3,
				DailyCount:      3,
				DailyLimit:      3,
			},
			wantReason: "Daily limit reached",
		},
		{
			name: "completed current sprint allows generation",
			in: gateInput{
				ObjectiveStatus:    model.ObjectiveInProgress,
				TotalDays:          30,
				CompletedDays:      3,
				CurrentDay:         3,
				CurrentSprintID:    sprintID,
				CurrentSprintState: lifecycle.StateCompleted,
				DailyCount:         1,
				DailyLimit:         3,
			},
			wantCanGen:  true,
			wantNextDay: 4,
		},
		{
			name: "no current sprint allows generation",
			in: gateInput{
				ObjectiveStatus: model.ObjectiveActive,
				TotalDays:       30,
				DailyLimit:      3,
			},
			wantCanGen:  true,
			wantNextDay: 1,
		},
		{
			name: "zero daily limit disables quota check",
			in: gateInput{
				ObjectiveStatus: model.ObjectiveActive,
				TotalDays:       30,
				DailyCount:      99,
				DailyLimit:      0,
			},
			wantCanGen:  true,
			wantNextDay: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveStatus(tt.in)
			if got.ObjectiveCompleted != tt.wantCompleted {
				t.Errorf("ObjectiveCompleted = %v, want %v", got.ObjectiveCompleted, tt.wantCompleted)
			}
			if got.CanGenerate != tt.wantCanGen {
				t.Errorf("CanGenerate = %v, want %v", got.CanGenerate, tt.wantCanGen)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.wantNextDay != 0 {
				if got.NextSprintDay == nil {
					t.Fatalf("NextSprintDay = nil, want %d", tt.wantNextDay)
				}
				if *got.NextSprintDay != tt.wantNextDay {
					t.Errorf("NextSprintDay = %d, want %d", *got.NextSprintDay, tt.wantNextDay)
				}
			} else if got.NextSprintDay != nil {
				t.Errorf("NextSprintDay = %d, want nil", *got.NextSprintDay)
			}
		})
	}
}

func TestDeriveStatusBlockedKeepsCurrentSprintID(t *testing.T) {
	sprintID := strPtr("sprint-9")
	got := deriveStatus(gateInput{
		ObjectiveStatus:    model.ObjectiveInProgress,
		TotalDays:          10,
		CurrentSprintID:    sprintID,
		CurrentSprintState: lifecycle.StatePlanned,
	})
	if got.CurrentSprintID == nil || *got.CurrentSprintID != "sprint-9" {
		t.Errorf("CurrentSprintID not carried through: %v", got.CurrentSprintID)
	}
	if got.CanGenerate {
		t.Error("expected generation to be blocked while current sprint is open")
	}
}
