package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

type stubArchives struct {
	day time.Time
	err error
}

func (s *stubArchives) ListArchives(_ context.Context, day time.Time) ([]domain.BlobInfo, error) {
	s.day = day
	if s.err != nil {
		return nil, s.err
	}
	return []domain.BlobInfo{{Path: "archive/trades/" + day.Format(time.DateOnly) + "/a.jsonl", Size: 10}}, nil
}

func TestArchiveHandler_ListArchives(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	stub := &stubArchives{}
	h := NewArchiveHandler(stub, logger)
	h.now = func() time.Time { return time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/archives", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body struct {
		Day     string            `json:"day"`
		Objects []domain.BlobInfo `json:"objects"`
		Count   int               `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Day != "2026-10-19" || body.Count != 1 {
		t.Errorf("Expected today's single archive, got %+v", body)
	}

	rec = httptest.NewRecorder()
	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/archives?day=2026-10-01", nil))
	if rec.Code != http.StatusOK || stub.day.Format(time.DateOnly) != "2026-10-01" {
		t.Errorf("Expected the requested day, got %d for %v", rec.Code, stub.day)
	}

	rec = httptest.NewRecorder()
	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/archives?day=yesterday", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad day, got %d", rec.Code)
	}

	stub.err = errors.New("bucket unreachable")
	rec = httptest.NewRecorder()
	h.ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/archives", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 when listing fails, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	NewArchiveHandler(nil, logger).ListArchives(rec, httptest.NewRequest(http.MethodGet, "/api/archives", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without archival, got %d", rec.Code)
	}
}
