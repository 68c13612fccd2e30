package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestLiveness(t *testing.T) {
	mux := http.NewServeMux()
	New(nil).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	mux := http.NewServeMux()
	New(map[string]Pinger{"directory": fakePinger{}, "IND1": fakePinger{}}).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp readiness
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Stores["IND1"] != "ok" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestReadiness_DegradedStore(t *testing.T) {
	mux := http.NewServeMux()
	New(map[string]Pinger{
		"directory": fakePinger{},
		"USA1":      fakePinger{err: errors.New("connection refused")},
	}).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp readiness
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Stores["USA1"] != "connection refused" {
		t.Fatalf("resp = %+v", resp)
	}
}
