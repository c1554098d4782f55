package images

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renohaus/renohaus-backend/pkg/db/models"
	dbtypes "github.com/renohaus/renohaus-backend/pkg/db/types"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
	"github.com/renohaus/renohaus-backend/pkg/pagination"
)

func TestAddImage_AssignsSequentialDisplayOrder(t *testing.T) {
	svc, conn, store := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")

	first := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("before.png", "before"))
	second := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("after.png", "after"))
	third := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("detail.png", "after"))

	if first.DisplayOrder != 1 || second.DisplayOrder != 2 || third.DisplayOrder != 3 {
		t.Fatalf("expected orders 1,2,3 got %d,%d,%d", first.DisplayOrder, second.DisplayOrder, third.DisplayOrder)
	}
	if store.count() != 3 {
		t.Fatalf("expected 3 stored objects, got %d", store.count())
	}
	if first.ContentType != "image/png" {
		t.Fatalf("unexpected content type %q", first.ContentType)
	}
}

func TestAddImage_RetriesOnDisplayOrderCollision(t *testing.T) {
	svc, conn, store := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("first.png", "before"))

	// A rival insert squats the computed display_order slot inside the
	// first attempt's transaction, so the unique index rejects the append
	// and the next attempt re-reads the max.
	attempts := 0
	err := conn.Callback().Create().Before("gorm:create").Register("rival_append", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.JourneyImage); !ok {
			return
		}
		attempts++
		if attempts > 1 {
			return
		}
		rival := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO journey_images (id, journey_id, step_id, filename, storage_key, content_type, file_size, display_order) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			uuid.New(), journey.ID, step.ID, "rival.png", "rival-key", "image/png", int64(4), 2)
		if rival.Error != nil {
			t.Errorf("rival insert: %v", rival.Error)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	dto := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("second.png", "after"))

	if attempts != 2 {
		t.Fatalf("expected the insert to run twice, got %d attempts", attempts)
	}
	if dto.DisplayOrder != 2 {
		t.Fatalf("expected display order 2 after retry, got %d", dto.DisplayOrder)
	}
	var count int64
	if err := conn.Model(&models.JourneyImage{}).Where("step_id = ?", step.ID).Count(&count).Error; err != nil {
		t.Fatalf("count images: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected the rolled-back rival to leave 2 rows, got %d", count)
	}
	if store.count() != 2 {
		t.Fatalf("expected 2 stored objects, got %d", store.count())
	}
}

func TestAddImage_RejectsBadFiles(t *testing.T) {
	svc, conn, store := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	upload := testUpload("notes.txt", "")
	upload.ContentType = "text/plain"
	_, err := svc.AddImage(ctx, "user-1", journey.ID, step.ID, upload)
	assertCode(t, err, pkgerrors.CodeInvalidFile)

	upload = testUpload("huge.png", "")
	upload.Size = 21 * 1024 * 1024
	_, err = svc.AddImage(ctx, "user-1", journey.ID, step.ID, upload)
	assertCode(t, err, pkgerrors.CodeInvalidFile)

	upload = testUpload("", "")
	_, err = svc.AddImage(ctx, "user-1", journey.ID, step.ID, upload)
	assertCode(t, err, pkgerrors.CodeInvalidFile)

	if store.count() != 0 {
		t.Fatalf("rejected files must not be stored, got %d objects", store.count())
	}
}

func TestAddImage_ScopesToOwnerAndStep(t *testing.T) {
	svc, conn, _ := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	_, err := svc.AddImage(ctx, "user-2", journey.ID, step.ID, testUpload("before.png", ""))
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.AddImage(ctx, "user-1", journey.ID, uuid.New(), testUpload("before.png", ""))
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestAddImage_StorageFailureLeavesNoRecord(t *testing.T) {
	svc, conn, store := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	store.failStore = true

	_, err := svc.AddImage(context.Background(), "user-1", journey.ID, step.ID, testUpload("before.png", ""))
	assertCode(t, err, pkgerrors.CodeDependency)

	gallery, listErr := NewRepository(conn).ListByStep(context.Background(), step.ID)
	if listErr != nil {
		t.Fatalf("list gallery: %v", listErr)
	}
	if len(gallery) != 0 {
		t.Fatalf("expected empty gallery after storage failure, got %d rows", len(gallery))
	}
}

func TestAddImagesBulk_PerItemOutcomes(t *testing.T) {
	svc, conn, store := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")

	mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("existing.png", ""))

	bad := testUpload("script.svg", "")
	bad.ContentType = "image/svg+xml"
	outcomes, err := svc.AddImagesBulk(context.Background(), "user-1", journey.ID, step.ID, []Upload{
		testUpload("one.png", "before"),
		bad,
		testUpload("two.png", "after"),
	})
	if err != nil {
		t.Fatalf("bulk add: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	if outcomes[0].Image == nil || outcomes[0].Image.DisplayOrder != 2 {
		t.Fatalf("expected first file at order 2, got %+v", outcomes[0])
	}
	if outcomes[1].Image != nil || outcomes[1].Code != string(pkgerrors.CodeInvalidFile) {
		t.Fatalf("expected invalid file outcome, got %+v", outcomes[1])
	}
	if outcomes[2].Image == nil || outcomes[2].Image.DisplayOrder != 3 {
		t.Fatalf("bad file must not consume an order slot, got %+v", outcomes[2])
	}
	if store.count() != 3 {
		t.Fatalf("expected 3 stored objects, got %d", store.count())
	}
}

func TestAddImagesBulk_BatchLimit(t *testing.T) {
	svc, conn, _ := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")

	uploads := make([]Upload, 11)
	for i := range uploads {
		uploads[i] = testUpload("img.png", "")
	}
	_, err := svc.AddImagesBulk(context.Background(), "user-1", journey.ID, step.ID, uploads)
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddImagesBulk(context.Background(), "user-1", journey.ID, step.ID, nil)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateImage_DescriptiveFieldsOnly(t *testing.T) {
	svc, conn, _ := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	img := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("before.png", "before"))

	label := "north wall"
	imageType := "inspiration"
	updated, err := svc.UpdateImage(ctx, "user-1", journey.ID, img.ID, UpdateImageInput{
		Label:     &label,
		ImageType: &imageType,
		Metadata:  dbtypes.JSONMap{"room": "kitchen"},
	})
	if err != nil {
		t.Fatalf("update image: %v", err)
	}
	if updated.Label != label || updated.ImageType != imageType {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.Metadata["room"] != "kitchen" {
		t.Fatalf("metadata not persisted: %+v", updated.Metadata)
	}
	if updated.DisplayOrder != img.DisplayOrder || updated.Filename != img.Filename {
		t.Fatalf("immutable fields changed: %+v", updated)
	}

	_, err = svc.UpdateImage(ctx, "user-1", journey.ID, img.ID, UpdateImageInput{})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.UpdateImage(ctx, "user-1", journey.ID, uuid.New(), UpdateImageInput{Label: &label})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteImage_KeepsOrderGaps(t *testing.T) {
	svc, conn, store := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	first := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("one.png", ""))
	second := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("two.png", ""))
	third := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("three.png", ""))

	if err := svc.DeleteImage(ctx, "user-1", journey.ID, second.ID, true); err != nil {
		t.Fatalf("delete image: %v", err)
	}

	gallery, err := NewRepository(conn).ListByStep(ctx, step.ID)
	if err != nil {
		t.Fatalf("list gallery: %v", err)
	}
	if len(gallery) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(gallery))
	}
	// Remaining orders keep their positions; the gap closes on next reorder.
	if gallery[0].ID != first.ID || gallery[0].DisplayOrder != 1 {
		t.Fatalf("unexpected first entry: %+v", gallery[0])
	}
	if gallery[1].ID != third.ID || gallery[1].DisplayOrder != 3 {
		t.Fatalf("unexpected second entry: %+v", gallery[1])
	}
	if store.count() != 2 {
		t.Fatalf("expected bytes deleted, %d objects left", store.count())
	}

	// The next append continues after the surviving max, not the gap.
	fourth := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("four.png", ""))
	if fourth.DisplayOrder != 4 {
		t.Fatalf("expected order 4, got %d", fourth.DisplayOrder)
	}
}

func TestDeleteImage_ByteFailureIsNonFatal(t *testing.T) {
	svc, conn, store := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	img := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("one.png", ""))
	store.failDelete = true

	if err := svc.DeleteImage(ctx, "user-1", journey.ID, img.ID, true); err != nil {
		t.Fatalf("record deletion must survive byte failure: %v", err)
	}
	if _, err := NewRepository(conn).FindByID(ctx, journey.ID, img.ID); err == nil {
		t.Fatal("expected record to be gone")
	}
}

func TestDeleteImagesBulk(t *testing.T) {
	svc, conn, _ := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	first := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("one.png", ""))
	second := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("two.png", ""))
	missing := uuid.New()

	outcomes, err := svc.DeleteImagesBulk(ctx, "user-1", journey.ID, []uuid.UUID{first.ID, missing, second.ID}, false)
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if !outcomes[0].Deleted || !outcomes[2].Deleted {
		t.Fatalf("expected both real images deleted: %+v", outcomes)
	}
	if outcomes[1].Deleted || outcomes[1].Code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found outcome for %s: %+v", missing, outcomes[1])
	}

	gallery, err := NewRepository(conn).ListByStep(ctx, step.ID)
	if err != nil {
		t.Fatalf("list gallery: %v", err)
	}
	if len(gallery) != 0 {
		t.Fatalf("expected empty gallery, got %d", len(gallery))
	}
}

func TestReorderImages(t *testing.T) {
	svc, conn, _ := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	a := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("a.png", ""))
	b := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("b.png", ""))
	c := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("c.png", ""))

	want := []uuid.UUID{c.ID, a.ID, b.ID}
	gallery, err := svc.ReorderImages(ctx, "user-1", journey.ID, step.ID, want)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	for i, img := range gallery {
		if img.ID != want[i] {
			t.Fatalf("position %d expected %s, got %s", i, want[i], img.ID)
		}
		if img.DisplayOrder != i+1 {
			t.Fatalf("position %d expected order %d, got %d", i, i+1, img.DisplayOrder)
		}
	}

	// Submitting the same order again is a no-op, not an error.
	again, err := svc.ReorderImages(ctx, "user-1", journey.ID, step.ID, want)
	if err != nil {
		t.Fatalf("repeat reorder: %v", err)
	}
	for i, img := range again {
		if img.ID != want[i] || img.DisplayOrder != i+1 {
			t.Fatalf("repeat reorder changed the gallery at %d: %+v", i, img)
		}
	}
}

func TestReorderImages_ClosesDeleteGaps(t *testing.T) {
	svc, conn, _ := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	a := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("a.png", ""))
	b := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("b.png", ""))
	c := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("c.png", ""))

	if err := svc.DeleteImage(ctx, "user-1", journey.ID, b.ID, false); err != nil {
		t.Fatalf("delete: %v", err)
	}

	gallery, err := svc.ReorderImages(ctx, "user-1", journey.ID, step.ID, []uuid.UUID{c.ID, a.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(gallery) != 2 || gallery[0].DisplayOrder != 1 || gallery[1].DisplayOrder != 2 {
		t.Fatalf("expected contiguous 1..2 after reorder, got %+v", gallery)
	}
}

func TestReorderImages_ExactSetValidation(t *testing.T) {
	svc, conn, _ := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	ctx := context.Background()

	a := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("a.png", ""))
	b := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("b.png", ""))

	// Subset.
	_, err := svc.ReorderImages(ctx, "user-1", journey.ID, step.ID, []uuid.UUID{a.ID})
	assertCode(t, err, pkgerrors.CodeInvalidReorder)

	// Foreign id.
	_, err = svc.ReorderImages(ctx, "user-1", journey.ID, step.ID, []uuid.UUID{a.ID, uuid.New()})
	assertCode(t, err, pkgerrors.CodeInvalidReorder)

	// Duplicate id.
	_, err = svc.ReorderImages(ctx, "user-1", journey.ID, step.ID, []uuid.UUID{a.ID, a.ID})
	assertCode(t, err, pkgerrors.CodeInvalidReorder)

	// Failed attempts leave the gallery untouched.
	gallery, listErr := NewRepository(conn).ListByStep(ctx, step.ID)
	if listErr != nil {
		t.Fatalf("list gallery: %v", listErr)
	}
	if gallery[0].ID != a.ID || gallery[1].ID != b.ID {
		t.Fatalf("gallery changed after rejected reorders: %+v", gallery)
	}
}

func TestGetImages_FiltersAndPaginates(t *testing.T) {
	svc, conn, _ := newTestService(t)
	journey, step := mustSeedStep(t, conn, "user-1")
	otherStep := &journey.Steps[1]
	ctx := context.Background()

	before := mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("one.png", "before"))
	mustAddImage(t, svc, "user-1", journey.ID, step.ID, testUpload("two.png", "after"))
	mustAddImage(t, svc, "user-1", journey.ID, otherStep.ID, testUpload("three.png", "before"))

	all, err := svc.GetImages(ctx, "user-1", journey.ID, ListParams{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if all.TotalCount != 3 || len(all.Items) != 3 {
		t.Fatalf("expected 3 images, got total=%d len=%d", all.TotalCount, len(all.Items))
	}
	// Ordered by step position, then display_order.
	if all.Items[0].StepID != step.ID || all.Items[2].StepID != otherStep.ID {
		t.Fatalf("unexpected ordering: %+v", all.Items)
	}

	imageType := "before"
	filtered, err := svc.GetImages(ctx, "user-1", journey.ID, ListParams{
		StepID:    &step.ID,
		ImageType: &imageType,
	})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if filtered.TotalCount != 1 || filtered.Items[0].ID != before.ID {
		t.Fatalf("conjunctive filters failed: %+v", filtered)
	}

	paged, err := svc.GetImages(ctx, "user-1", journey.ID, ListParams{
		Page: pagination.Params{Limit: 2, Offset: 2},
	})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if paged.TotalCount != 3 || len(paged.Items) != 1 {
		t.Fatalf("expected total 3 with 1 item on page 2, got total=%d len=%d", paged.TotalCount, len(paged.Items))
	}

	cutoff := time.Now().UTC().Add(time.Hour)
	future, err := svc.GetImages(ctx, "user-1", journey.ID, ListParams{CreatedAfter: &cutoff})
	if err != nil {
		t.Fatalf("list created_after: %v", err)
	}
	if future.TotalCount != 0 {
		t.Fatalf("expected no images after %v, got %d", cutoff, future.TotalCount)
	}

	_, err = svc.GetImages(ctx, "user-2", journey.ID, ListParams{})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestBuildStorageKey_SanitizesNames(t *testing.T) {
	journeyID, stepID, imageID := uuid.New(), uuid.New(), uuid.New()

	key := buildStorageKey(journeyID, stepID, imageID, "../..//e v i l.png")
	if bytes.Contains([]byte(key), []byte("..")) {
		t.Fatalf("path escape survived: %s", key)
	}
	if key != "journeys/"+journeyID.String()+"/steps/"+stepID.String()+"/"+imageID.String()+"/e-v-i-l.png" {
		t.Fatalf("unexpected key: %s", key)
	}

	key = buildStorageKey(journeyID, stepID, imageID, "...")
	if key != "journeys/"+journeyID.String()+"/steps/"+stepID.String()+"/"+imageID.String()+"/"+imageID.String() {
		t.Fatalf("empty sanitized name must fall back to the id: %s", key)
	}
}
