package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/llmlab/internal/domain/job"
	"github.com/target/llmlab/internal/mocks"
	"github.com/target/llmlab/internal/service"
)

const testExperimentID = "8a4c2d1e-6b7f-4e90-a1b2-c3d4e5f60718"

type apiFixture struct {
	experiments *mocks.MockExperimentRepository
	responses   *mocks.MockLLMResponseRepository
	processor   *mocks.MockExperimentProcessor
	catalog     *mocks.MockModelCatalog
	registry    *job.Registry
	handler     http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &apiFixture{
		experiments: mocks.NewMockExperimentRepository(ctrl),
		responses:   mocks.NewMockLLMResponseRepository(ctrl),
		processor:   mocks.NewMockExperimentProcessor(ctrl),
		catalog:     mocks.NewMockModelCatalog(ctrl),
		registry:    job.NewRegistry(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.MustNewExperimentService(service.ExperimentServiceOptions{
		Experiments: f.experiments,
		Responses:   f.responses,
		Processor:   f.processor,
		Registry:    f.registry,
		Logger:      logger,
	})
	f.handler = NewRouter(RouterServices{Experiments: svc, Catalog: f.catalog, Logger: logger})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = f.registry.Wait(ctx)
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, path, reader)
	if reader != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}
