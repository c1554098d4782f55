package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renohaus/renohaus-backend/pkg/config"
	"github.com/renohaus/renohaus-backend/pkg/db"
	"github.com/renohaus/renohaus-backend/pkg/db/models"
	"github.com/renohaus/renohaus-backend/pkg/enums"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
	"github.com/renohaus/renohaus-backend/pkg/logger"
	"github.com/renohaus/renohaus-backend/pkg/storage"
)

// memStore is an in-memory AssetStore used in place of disk.
type memStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	deleted    []string
	failStore  bool
	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Store(_ context.Context, r io.Reader, suggestedPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failStore {
		return "", fmt.Errorf("mem store unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[suggestedPath] = data
	return suggestedPath, nil
}

func (m *memStore) Delete(_ context.Context, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return fmt.Errorf("mem delete unavailable")
	}
	if _, ok := m.objects[reference]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, reference)
	m.deleted = append(m.deleted, reference)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

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

func newTestService(t *testing.T) (Service, *gorm.DB, *memStore) {
	t.Helper()
	conn := newTestDB(t)
	store := newMemStore()
	logg := logger.New(logger.Options{ServiceName: "images-test", Output: io.Discard})
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn), store, logg, config.UploadsConfig{
		MaxUploadMB:  20,
		MaxBatchSize: 10,
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, conn, store
}

func mustSeedStep(t *testing.T, conn *gorm.DB, userID string) (*models.Journey, *models.JourneyStep) {
	t.Helper()
	journey := &models.Journey{
		ID:             uuid.New(),
		UserID:         userID,
		TemplateID:     "bathroom_refresh",
		Title:          "Image Test Journey",
		Status:         enums.JourneyStatusInProgress,
		LastActivityAt: time.Now().UTC(),
		Steps: []models.JourneyStep{
			{
				ID:         uuid.New(),
				StepKey:    "style_discovery",
				Name:       "Style Discovery",
				Status:     enums.StepStatusInProgress,
				OrderIndex: 0,
			},
			{
				ID:         uuid.New(),
				StepKey:    "layout_design",
				Name:       "Layout Design",
				Status:     enums.StepStatusPending,
				OrderIndex: 1,
			},
		},
	}
	if err := conn.Create(journey).Error; err != nil {
		t.Fatalf("seed journey: %v", err)
	}
	return journey, &journey.Steps[0]
}

func testUpload(filename, imageType string) Upload {
	body := []byte("not really a png")
	return Upload{
		Filename:    filename,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
		ImageType:   imageType,
	}
}

func mustAddImage(t *testing.T, svc Service, userID string, journeyID, stepID uuid.UUID, upload Upload) *ImageDTO {
	t.Helper()
	dto, err := svc.AddImage(context.Background(), userID, journeyID, stepID, upload)
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	return dto
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
