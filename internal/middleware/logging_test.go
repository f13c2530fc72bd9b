package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"live-announcer/internal/logger"
)

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.LevelDebug, &buf)

	var seen string
	handler := RequestLogger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/subscribe/team/1", nil))

	if seen == "" {
		t.Fatal("expected a request id in the handler context")
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header %q does not match context id %q", rec.Header().Get(RequestIDHeader), seen)
	}
	if !strings.Contains(buf.String(), "status=202") {
		t.Errorf("expected status in log line, got %q", buf.String())
	}
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	log := logger.NewWithWriter(logger.LevelError, &bytes.Buffer{})

	var seen string
	handler := RequestLogger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "upstream-id" {
		t.Errorf("expected upstream id to be kept, got %q", seen)
	}
}

func TestRequestLogger_LogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.LevelError, &buf)

	handler := RequestLogger(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))

	if !strings.Contains(buf.String(), "ERROR: Request failed") {
		t.Errorf("expected error log, got %q", buf.String())
	}
}

func TestRecover(t *testing.T) {
	log := logger.NewWithWriter(logger.LevelError, &bytes.Buffer{})
	handler := Recover(log, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
