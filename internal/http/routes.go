package httpx

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/llmlab/internal/core"
	"github.com/target/llmlab/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Experiments *service.ExperimentService
	Catalog     core.ModelCatalog
	DB          Pinger       // Optional: database readiness for /healthz
	Logger      *slog.Logger // Optional
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	health := &HealthHandlers{DB: services.DB, Logger: services.Logger}
	registerHealthRoutes(mux, health)
	registerLLMRoutes(mux, &LLMHandlers{Svc: services.Experiments, Catalog: services.Catalog, Logger: services.Logger})
	registerExperimentRoutes(mux, &ExperimentHandlers{Svc: services.Experiments})

	return &notFoundHandler{mux: mux}
}

func registerHealthRoutes(mux *http.ServeMux, h *HealthHandlers) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("HEAD /healthz", h.Health)
	mux.HandleFunc("GET /api/health", h.Health)
}

func registerLLMRoutes(mux *http.ServeMux, h *LLMHandlers) {
	mux.HandleFunc("GET /api/llms/providers", h.Providers)
	mux.HandleFunc("POST /api/llms/generate", h.Generate)
}

func registerExperimentRoutes(mux *http.ServeMux, h *ExperimentHandlers) {
	mux.HandleFunc("POST /api/experiments", h.Create)
	mux.HandleFunc("GET /api/experiments", h.List)
	mux.HandleFunc("GET /api/experiments/{id}", h.Get)
	mux.HandleFunc("POST /api/experiments/{id}/cancel", h.Cancel)
}

// notFoundHandler renders unmatched routes as JSON errors instead of the
// mux's plain-text 404.
type notFoundHandler struct {
	mux *http.ServeMux
}

var errRouteNotFound = errors.New("route not found")

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := h.mux.Handler(r); pattern == "" {
		cw := newCaptureWriter()
		h.mux.ServeHTTP(cw, r)
		if cw.status == http.StatusNotFound {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errRouteNotFound})
			return
		}
		// 405 and redirects keep the mux's response.
		cw.flushTo(w)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		// Client went away; nothing left to do.
		return
	}
}
