package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// --- Mocks ---

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

type fakeHealthChecker struct {
	err error
}

func (f *fakeHealthChecker) HealthCheck(_ context.Context) error { return f.err }

// --- Tests ---

func TestReadyz_Ready(t *testing.T) {
	a := newAPI(nil, nil, nil, &fakePinger{}, &fakeHealthChecker{})

	rec := httptest.NewRecorder()
	a.readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != "ready" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestReadyz_DatabaseDown(t *testing.T) {
	a := newAPI(nil, nil, nil, &fakePinger{err: errors.New("connection refused")}, &fakeHealthChecker{})

	rec := httptest.NewRecorder()
	a.readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "database") {
		t.Errorf("body = %s, want database reason", rec.Body.String())
	}
}

func TestReadyz_EmbeddingProviderDown(t *testing.T) {
	a := newAPI(nil, nil, nil, &fakePinger{}, &fakeHealthChecker{err: errors.New("401 unauthorized")})

	rec := httptest.NewRecorder()
	a.readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "embedding provider") {
		t.Errorf("body = %s, want embedding provider reason", rec.Body.String())
	}
}
