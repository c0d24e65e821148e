package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogger(t *testing.T) {
	t.Run("passes status through", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		rr := httptest.NewRecorder()
		Logger(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status: got %d, want 503", rr.Code)
		}
	})

	t.Run("write without WriteHeader", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		rr := httptest.NewRecorder()
		Logger(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
		if rr.Body.String() != "ok" {
			t.Errorf("body: got %q, want %q", rr.Body.String(), "ok")
		}
	})
}

func TestStatusRecorder(t *testing.T) {
	t.Run("first WriteHeader wins", func(t *testing.T) {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

		rec.WriteHeader(http.StatusNotFound)
		rec.WriteHeader(http.StatusInternalServerError)

		if rec.status != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rec.status)
		}
	})

	t.Run("Write after WriteHeader keeps status", func(t *testing.T) {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

		rec.WriteHeader(http.StatusCreated)
		rec.Write([]byte("x"))

		if rec.status != http.StatusCreated {
			t.Errorf("status: got %d, want 201", rec.status)
		}
	})
}
