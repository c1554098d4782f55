package journeys

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renohaus/renohaus-backend/internal/templates"
	"github.com/renohaus/renohaus-backend/pkg/db"
	"github.com/renohaus/renohaus-backend/pkg/db/models"
	"github.com/renohaus/renohaus-backend/pkg/enums"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Journey{}, &models.JourneyStep{}, &models.JourneyImage{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn), templates.NewRegistry())
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, conn
}

func mustStartJourney(t *testing.T, svc Service, userID, templateID string) *JourneyDTO {
	t.Helper()
	journey, err := svc.StartJourney(context.Background(), userID, StartJourneyInput{TemplateID: templateID})
	if err != nil {
		t.Fatalf("start journey: %v", err)
	}
	return journey
}

func mustCompleteStep(t *testing.T, svc Service, userID string, journeyID, stepID uuid.UUID) *JourneyDTO {
	t.Helper()
	status := enums.StepStatusCompleted
	journey, err := svc.UpdateStep(context.Background(), userID, journeyID, stepID, UpdateStepInput{Status: &status})
	if err != nil {
		t.Fatalf("complete step: %v", err)
	}
	return journey
}

func mustSeedJourney(t *testing.T, conn *gorm.DB, userID string, stepStatuses []enums.StepStatus) *models.Journey {
	t.Helper()
	now := time.Now().UTC()
	journey := &models.Journey{
		ID:             uuid.New(),
		UserID:         userID,
		TemplateID:     "bathroom_refresh",
		Title:          "Seeded Journey",
		Status:         enums.JourneyStatusInProgress,
		LastActivityAt: now,
		Steps:          make([]models.JourneyStep, len(stepStatuses)),
	}
	for i, status := range stepStatuses {
		journey.Steps[i] = models.JourneyStep{
			ID:         uuid.New(),
			StepKey:    fmt.Sprintf("step_%d", i),
			Name:       fmt.Sprintf("Step %d", i),
			Status:     status,
			OrderIndex: i,
		}
	}
	if err := conn.Create(journey).Error; err != nil {
		t.Fatalf("seed journey: %v", err)
	}
	return journey
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}
