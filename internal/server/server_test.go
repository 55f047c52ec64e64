package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/abylay/filestore/internal/blob"
	"github.com/abylay/filestore/internal/config"
	"github.com/abylay/filestore/internal/filestore"
	"github.com/abylay/filestore/internal/metrics"
)

type unreachableBlobs struct{}

func (unreachableBlobs) Put(ctx context.Context, key string, payload []byte) error {
	return errors.New("backend down")
}
func (unreachableBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("backend down")
}
func (unreachableBlobs) Delete(ctx context.Context, key string) error {
	return errors.New("backend down")
}
func (unreachableBlobs) Exists(ctx context.Context, key string) (bool, error) {
	return false, errors.New("backend down")
}

func testDependencies(t *testing.T) Dependencies {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()

	cfg, err := config.Load()
	require.NoError(t, err)

	store := filestore.NewMemoryStore()
	blobs, err := blob.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	return Dependencies{
		Config:      cfg,
		Metadata:    store,
		Blobs:       blobs,
		FileService: filestore.NewService(store, blobs, nil),
	}
}

func TestHealthLive(t *testing.T) {
	router := NewRouter(testDependencies(t))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthReadyWithHealthyBackends(t *testing.T) {
	router := NewRouter(testDependencies(t))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthReadyDegradedWhenStorageUnreachable(t *testing.T) {
	deps := testDependencies(t)
	deps.Blobs = unreachableBlobs{}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouterMountsFileRoutes(t *testing.T) {
	router := NewRouter(testDependencies(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/files", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}
