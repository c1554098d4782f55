package journeys

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renohaus/renohaus-backend/pkg/db/models"
	"github.com/renohaus/renohaus-backend/pkg/enums"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
)

func TestStartJourney_InstantiatesTemplate(t *testing.T) {
	svc, _ := newTestService(t)

	journey := mustStartJourney(t, svc, "user-1", "kitchen_renovation")

	if journey.TemplateID != "kitchen_renovation" {
		t.Fatalf("unexpected template: %s", journey.TemplateID)
	}
	if len(journey.Steps) != 7 {
		t.Fatalf("expected 7 steps, got %d", len(journey.Steps))
	}
	if journey.Status != enums.JourneyStatusInProgress {
		t.Fatalf("expected journey in_progress, got %s", journey.Status)
	}
	if journey.ProgressPercentage != 0 {
		t.Fatalf("expected 0%% progress, got %.2f", journey.ProgressPercentage)
	}
	for i, step := range journey.Steps {
		if step.OrderIndex != i {
			t.Fatalf("step %d has order_index %d", i, step.OrderIndex)
		}
		want := enums.StepStatusPending
		if i == 0 {
			want = enums.StepStatusInProgress
		}
		if step.Status != want {
			t.Fatalf("step %d expected %s, got %s", i, want, step.Status)
		}
	}
	if journey.CurrentStep == nil || *journey.CurrentStep != journey.Steps[0].StepKey {
		t.Fatalf("expected current step %q, got %v", journey.Steps[0].StepKey, journey.CurrentStep)
	}
}

func TestStartJourney_CustomTitle(t *testing.T) {
	svc, _ := newTestService(t)

	title := "Dream Kitchen 2026"
	journey, err := svc.StartJourney(context.Background(), "user-1", StartJourneyInput{
		TemplateID: "kitchen_renovation",
		Title:      &title,
	})
	if err != nil {
		t.Fatalf("start journey: %v", err)
	}
	if journey.Title != title {
		t.Fatalf("expected title %q, got %q", title, journey.Title)
	}
}

func TestStartJourney_UnknownTemplate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.StartJourney(context.Background(), "user-1", StartJourneyInput{TemplateID: "spaceship_refit"})
	assertCode(t, err, pkgerrors.CodeUnknownTemplate)
}

func TestGetJourney_ScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	if _, err := svc.GetJourney(context.Background(), "user-1", journey.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}

	_, err := svc.GetJourney(context.Background(), "user-2", journey.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.GetJourney(context.Background(), "user-1", uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateStep_CompletionActivatesNext(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "kitchen_renovation")

	updated := mustCompleteStep(t, svc, "user-1", journey.ID, journey.Steps[0].ID)

	if updated.Steps[0].Status != enums.StepStatusCompleted {
		t.Fatalf("expected step 0 completed, got %s", updated.Steps[0].Status)
	}
	if updated.Steps[1].Status != enums.StepStatusInProgress {
		t.Fatalf("expected step 1 in_progress, got %s", updated.Steps[1].Status)
	}
	for i := 2; i < len(updated.Steps); i++ {
		if updated.Steps[i].Status != enums.StepStatusPending {
			t.Fatalf("step %d expected pending, got %s", i, updated.Steps[i].Status)
		}
	}
	if updated.ProgressPercentage != 14.29 {
		t.Fatalf("expected 14.29%% progress, got %.2f", updated.ProgressPercentage)
	}
	if updated.CurrentStep == nil || *updated.CurrentStep != updated.Steps[1].StepKey {
		t.Fatalf("expected current step %q, got %v", updated.Steps[1].StepKey, updated.CurrentStep)
	}
}

func TestUpdateStep_LastCompletionFinishesJourney(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	var updated *JourneyDTO
	for i := range journey.Steps {
		updated = mustCompleteStep(t, svc, "user-1", journey.ID, journey.Steps[i].ID)
	}

	if updated.Status != enums.JourneyStatusCompleted {
		t.Fatalf("expected journey completed, got %s", updated.Status)
	}
	if updated.ProgressPercentage != 100 {
		t.Fatalf("expected 100%% progress, got %.2f", updated.ProgressPercentage)
	}
	if updated.CurrentStep != nil {
		t.Fatalf("expected no current step, got %q", *updated.CurrentStep)
	}
	for i, step := range updated.Steps {
		if step.Status != enums.StepStatusCompleted {
			t.Fatalf("step %d expected completed, got %s", i, step.Status)
		}
	}
}

func TestUpdateStep_ProgressDoesNotComplete(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	progress := 100
	updated, err := svc.UpdateStep(context.Background(), "user-1", journey.ID, journey.Steps[0].ID, UpdateStepInput{
		Progress: &progress,
	})
	if err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if updated.Steps[0].Progress != 100 {
		t.Fatalf("expected progress 100, got %d", updated.Steps[0].Progress)
	}
	if updated.Steps[0].Status != enums.StepStatusInProgress {
		t.Fatalf("full progress must not complete the step, got %s", updated.Steps[0].Status)
	}
	if updated.Status != enums.JourneyStatusInProgress {
		t.Fatalf("journey must stay in_progress, got %s", updated.Status)
	}
}

func TestUpdateStep_StoresStepData(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	updated, err := svc.UpdateStep(context.Background(), "user-1", journey.ID, journey.Steps[0].ID, UpdateStepInput{
		Data: map[string]any{"style": "modern", "budget": float64(25000)},
	})
	if err != nil {
		t.Fatalf("update data: %v", err)
	}
	if updated.Steps[0].Data["style"] != "modern" {
		t.Fatalf("expected style to persist, got %v", updated.Steps[0].Data)
	}
	if updated.Steps[0].Data["budget"] != float64(25000) {
		t.Fatalf("expected budget to persist, got %v", updated.Steps[0].Data)
	}
}

func TestUpdateStep_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	_, err := svc.UpdateStep(context.Background(), "user-1", journey.ID, journey.Steps[0].ID, UpdateStepInput{})
	assertCode(t, err, pkgerrors.CodeValidation)

	progress := 150
	_, err = svc.UpdateStep(context.Background(), "user-1", journey.ID, journey.Steps[0].ID, UpdateStepInput{
		Progress: &progress,
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	bad := enums.StepStatus("archived")
	_, err = svc.UpdateStep(context.Background(), "user-1", journey.ID, journey.Steps[0].ID, UpdateStepInput{
		Status: &bad,
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateStep_RejectsDirectActivation(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	status := enums.StepStatusInProgress
	_, err := svc.UpdateStep(context.Background(), "user-1", journey.ID, journey.Steps[2].ID, UpdateStepInput{
		Status: &status,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateStep_RejectsPendingCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	status := enums.StepStatusCompleted
	_, err := svc.UpdateStep(context.Background(), "user-1", journey.ID, journey.Steps[3].ID, UpdateStepInput{
		Status: &status,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateStep_ConcurrentCompletionConflicts(t *testing.T) {
	svc, conn := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")
	stepID := journey.Steps[0].ID

	// A rival writer completes the step between the read and the guarded
	// update, so the status check in the WHERE clause matches no rows.
	fired := false
	err := conn.Callback().Update().Before("gorm:update").Register("rival_writer", func(tx *gorm.DB) {
		if fired {
			return
		}
		if _, ok := tx.Statement.Model.(*models.JourneyStep); !ok {
			return
		}
		fired = true
		rival := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"UPDATE journey_steps SET status = ? WHERE id = ?",
			string(enums.StepStatusCompleted), stepID)
		if rival.Error != nil {
			t.Errorf("rival update: %v", rival.Error)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	status := enums.StepStatusCompleted
	_, err = svc.UpdateStep(context.Background(), "user-1", journey.ID, stepID, UpdateStepInput{
		Status: &status,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
	if !fired {
		t.Fatal("expected the guarded update to run")
	}
}

func TestUpdateStep_RejectsInactiveJourney(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	if _, err := svc.AbandonJourney(context.Background(), "user-1", journey.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	progress := 10
	_, err := svc.UpdateStep(context.Background(), "user-1", journey.ID, journey.Steps[0].ID, UpdateStepInput{
		Progress: &progress,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateStep_UnknownStep(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	progress := 10
	_, err := svc.UpdateStep(context.Background(), "user-1", journey.ID, uuid.New(), UpdateStepInput{
		Progress: &progress,
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestAbandonJourney(t *testing.T) {
	svc, _ := newTestService(t)
	journey := mustStartJourney(t, svc, "user-1", "bathroom_refresh")

	abandoned, err := svc.AbandonJourney(context.Background(), "user-1", journey.ID)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if abandoned.Status != enums.JourneyStatusAbandoned {
		t.Fatalf("expected abandoned, got %s", abandoned.Status)
	}

	_, err = svc.AbandonJourney(context.Background(), "user-1", journey.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.AbandonJourney(context.Background(), "user-2", journey.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListUserJourneys_FiltersAndSummarizes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := mustStartJourney(t, svc, "user-1", "kitchen_renovation")
	second := mustStartJourney(t, svc, "user-1", "bathroom_refresh")
	mustStartJourney(t, svc, "user-2", "bathroom_refresh")

	if _, err := svc.AbandonJourney(ctx, "user-1", second.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	mustCompleteStep(t, svc, "user-1", first.ID, first.Steps[0].ID)

	all, err := svc.ListUserJourneys(ctx, "user-1", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 journeys for user-1, got %d", len(all))
	}

	active := enums.JourneyStatusInProgress
	inProgress, err := svc.ListUserJourneys(ctx, "user-1", &active)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].ID != first.ID {
		t.Fatalf("expected only the kitchen journey, got %+v", inProgress)
	}
	if inProgress[0].CompletedSteps != 1 || inProgress[0].TotalSteps != 7 {
		t.Fatalf("unexpected tally: %d/%d", inProgress[0].CompletedSteps, inProgress[0].TotalSteps)
	}
	if inProgress[0].ProgressPercentage != 14.29 {
		t.Fatalf("expected 14.29%%, got %.2f", inProgress[0].ProgressPercentage)
	}

	bad := enums.JourneyStatus("archived")
	_, err = svc.ListUserJourneys(ctx, "user-1", &bad)
	assertCode(t, err, pkgerrors.CodeValidation)
}
