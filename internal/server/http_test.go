package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	healthhandler "talentgrid/backend/internal/health/handler"
)

func TestNew_MountsHealthRoutes(t *testing.T) {
	srv := New(Options{
		Addr:   ":0",
		Health: healthhandler.New(nil),
		Log:    slog.Default(),
	})

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", rec.Code)
	}
}

func TestNew_UnknownRouteIs404(t *testing.T) {
	srv := New(Options{Addr: ":0", Log: slog.Default()})

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestNew_Timeouts(t *testing.T) {
	srv := New(Options{Addr: ":0"})
	if srv.http.ReadTimeout <= 0 || srv.http.WriteTimeout <= 0 {
		t.Fatal("timeouts not set")
	}
}
