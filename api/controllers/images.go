package controllers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/renohaus/renohaus-backend/api/responses"
	"github.com/renohaus/renohaus-backend/api/validators"
	"github.com/renohaus/renohaus-backend/internal/images"
	"github.com/renohaus/renohaus-backend/pkg/config"
	dbtypes "github.com/renohaus/renohaus-backend/pkg/db/types"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
	"github.com/renohaus/renohaus-backend/pkg/logger"
	"github.com/renohaus/renohaus-backend/pkg/pagination"
)

// UploadStepImages accepts one or more multipart files under the "files"
// field. A single file returns the created image; several return per-file
// outcomes.
func UploadStepImages(svc images.Service, uploads config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}
		stepID, ok := pathUUID(w, r, logg, "stepId")
		if !ok {
			return
		}

		maxBody := uploads.MaxUploadBytes() * int64(uploads.MaxBatchSize)
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := r.ParseMultipartForm(uploads.MaxUploadBytes()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidFile, err, "invalid multipart payload"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			headers = r.MultipartForm.File["file"]
		}
		if len(headers) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidFile, "no files in request"))
			return
		}

		metadata, err := parseMetadataField(r.FormValue("metadata"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		imageType := validators.SanitizeString(r.FormValue("image_type"), 64)
		label := validators.SanitizeString(r.FormValue("label"), 255)
		isGenerated, _ := strconv.ParseBool(r.FormValue("is_generated"))

		batch := make([]images.Upload, 0, len(headers))
		opened := make([]multipart.File, 0, len(headers))
		defer func() {
			for _, f := range opened {
				_ = f.Close()
			}
		}()
		for _, header := range headers {
			file, openErr := header.Open()
			if openErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidFile, openErr, "open multipart file"))
				return
			}
			opened = append(opened, file)
			batch = append(batch, images.Upload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
				ImageType:   imageType,
				Label:       label,
				IsGenerated: isGenerated,
				Metadata:    metadata,
			})
		}

		if len(batch) == 1 {
			image, err := svc.AddImage(r.Context(), userID, journeyID, stepID, batch[0])
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, image)
			return
		}

		outcomes, err := svc.AddImagesBulk(r.Context(), userID, journeyID, stepID, batch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"results": outcomes})
	}
}

// ListJourneyImages returns the journey's filtered image listing.
func ListJourneyImages(svc images.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}

		params := images.ListParams{
			ImageType: validators.ParseQueryString(r, "image_type"),
		}

		stepID, err := validators.ParseQueryUUID(r, "step_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.StepID = stepID

		if params.CreatedAfter, err = validators.ParseQueryTime(r, "created_after"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.CreatedBefore, err = validators.ParseQueryTime(r, "created_before"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Page = pagination.Params{Limit: limit, Offset: offset}

		result, err := svc.GetImages(r.Context(), userID, journeyID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type updateImageRequest struct {
	Label     *string         `json:"label,omitempty" validate:"omitempty,max=255"`
	ImageType *string         `json:"image_type,omitempty" validate:"omitempty,max=64"`
	Metadata  dbtypes.JSONMap `json:"metadata,omitempty"`
}

// UpdateImage mutates an image's descriptive fields.
func UpdateImage(svc images.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}
		imageID, ok := pathUUID(w, r, logg, "imageId")
		if !ok {
			return
		}

		var payload updateImageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		image, err := svc.UpdateImage(r.Context(), userID, journeyID, imageID, images.UpdateImageInput{
			Label:     payload.Label,
			ImageType: payload.ImageType,
			Metadata:  payload.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, image)
	}
}

// DeleteImage removes one image record and, unless ?delete_bytes=false,
// releases the stored bytes as well.
func DeleteImage(svc images.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}
		imageID, ok := pathUUID(w, r, logg, "imageId")
		if !ok {
			return
		}

		deleteBytes := true
		if raw := r.URL.Query().Get("delete_bytes"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "delete_bytes must be a boolean"))
				return
			}
			deleteBytes = parsed
		}
		if err := svc.DeleteImage(r.Context(), userID, journeyID, imageID, deleteBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

type bulkDeleteRequest struct {
	ImageIDs []string `json:"image_ids" validate:"required,min=1,dive,uuid"`
	// Bytes are released by default; callers opt out explicitly.
	DeleteBytes *bool `json:"delete_bytes"`
}

// BulkDeleteImages deletes several images with per-image outcomes.
func BulkDeleteImages(svc images.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}

		var payload bulkDeleteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids, err := parseUUIDList(payload.ImageIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deleteBytes := payload.DeleteBytes == nil || *payload.DeleteBytes
		outcomes, err := svc.DeleteImagesBulk(r.Context(), userID, journeyID, ids, deleteBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"results": outcomes})
	}
}

type reorderRequest struct {
	ImageIDs []string `json:"image_ids" validate:"required,min=1,dive,uuid"`
}

// ReorderStepImages rewrites a step's gallery order.
func ReorderStepImages(svc images.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}
		stepID, ok := pathUUID(w, r, logg, "stepId")
		if !ok {
			return
		}

		var payload reorderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids, err := parseUUIDList(payload.ImageIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gallery, err := svc.ReorderImages(r.Context(), userID, journeyID, stepID, ids)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"images": gallery})
	}
}

func parseMetadataField(raw string) (dbtypes.JSONMap, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var metadata dbtypes.JSONMap
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "metadata must be a JSON object")
	}
	return metadata, nil
}
