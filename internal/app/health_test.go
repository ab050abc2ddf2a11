package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
)

func newHealthRouter(a *App) *router.Router {
	r := router.NewRouter(router.Config{Instrument: instrument.NewNoop()})
	r.Public(http.MethodGet, "/health")
	r.GET("/health", a.health)

	return r
}

func TestApp_Health(t *testing.T) {
	t.Run("redis up", func(t *testing.T) {
		// Arrange
		s := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		h := newHealthRouter(&App{cacheConn: client})

		// Act
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var env struct {
			Data healthResponse `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Data.Status != "ok" || env.Data.Checks["redis"] != "up" {
			t.Fatalf("health = %+v", env.Data)
		}
	})

	t.Run("redis down", func(t *testing.T) {
		// Arrange
		s := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
		t.Cleanup(func() { _ = client.Close() })
		s.Close()
		h := newHealthRouter(&App{cacheConn: client})

		// Act
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		// Assert
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		// Arrange
		h := newHealthRouter(&App{})

		// Act
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
