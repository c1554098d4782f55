package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/renohaus/renohaus-backend/api/middleware"
	"github.com/renohaus/renohaus-backend/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "controllers-test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

// newRequest builds a request with a caller identity and chi path params.
func newRequest(method, target, userID string, body io.Reader, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, body)
	ctx := r.Context()
	if userID != "" {
		ctx = middleware.WithUserID(ctx, userID)
	}
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func jsonRequest(method, target, userID, body string, params map[string]string) *http.Request {
	r := newRequest(method, target, userID, strings.NewReader(body), params)
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return envelope
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	apiErr, ok := envelope["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if apiErr["code"] != code {
		t.Fatalf("expected code %s, got %v", code, apiErr["code"])
	}
}
