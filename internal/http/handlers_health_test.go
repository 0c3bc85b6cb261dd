package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		method     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no database",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy","message":"Server is running successfully"}`,
		},
		{
			name:       "database up",
			db:         pingFunc(func(context.Context) error { return nil }),
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"healthy","message":"Server is running successfully"}`,
		},
		{
			name:       "database down",
			db:         pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
			method:     http.MethodGet,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unhealthy","message":"database unavailable"}`,
		},
		{
			name:       "head",
			method:     http.MethodHead,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRouter(RouterServices{DB: tt.db})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, "/healthz", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody == "" {
				assert.Empty(t, w.Body.String())
				return
			}
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
