package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPhotoUploadWithoutStorageIsUnavailable(t *testing.T) {
	h := NewMediaHandler(nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/profile/photo", nil)
	asUser(1, h.PhotoUpload).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if code := errorCode(t, rec); code != "SERVICE_UNAVAILABLE" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestPhotoUploadRequiresIdentity(t *testing.T) {
	h := NewMediaHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.PhotoUpload(rec, httptest.NewRequest(http.MethodPost, "/v1/profile/photo", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
