package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FabricioMatosSIlva/awswatch-go/internal/monitoring"
	"github.com/FabricioMatosSIlva/awswatch-go/pkg/awsclient"
)

type stubWorkPoolClient struct {
	records []awsclient.WorkPoolRecord
}

func (s *stubWorkPoolClient) ScanWorkPool(ctx context.Context, table string) ([]awsclient.WorkPoolRecord, error) {
	return s.records, nil
}

func newTestRouter(t *testing.T) (*Router, *monitoring.WorkPoolMonitor) {
	t.Helper()

	queues := monitoring.NewQueueMonitor(func(ctx context.Context, src awsclient.CredentialSource, region string) (monitoring.QueueClient, error) {
		return nil, nil
	})
	workPool := monitoring.NewWorkPoolMonitor(func(ctx context.Context, src awsclient.CredentialSource, region string) (monitoring.WorkPoolClient, error) {
		return &stubWorkPoolClient{}, nil
	})

	return NewRouter(queues, workPool), workPool
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["queuesRunning"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCallerRequestIDIsPreserved(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "caller-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "caller-7", rec.Header().Get("X-Request-ID"))
}

func TestQueuesEndpointReturnsEmptySnapshotBeforeStart(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/queues", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Snapshot struct {
			Queues     []interface{} `json:"queues"`
			CapturedAt time.Time     `json:"capturedAt"`
		} `json:"snapshot"`
		Running bool   `json:"running"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Snapshot.Queues)
	assert.True(t, body.Snapshot.CapturedAt.IsZero())
	assert.False(t, body.Running)
	assert.Empty(t, body.Error)
}

func TestWorkPoolEndpointServesSnapshot(t *testing.T) {
	router, workPool := newTestRouter(t)

	require.NoError(t, workPool.AuthenticateAndStart(context.Background(), awsclient.CredentialSource{}))
	defer workPool.Stop()

	require.Eventually(t, func() bool {
		return !workPool.Snapshot().CapturedAt.IsZero()
	}, time.Second, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workpool", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Running bool `json:"running"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Running)
}

func TestEndpointsRejectNonGet(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/health", "/api/queues", "/api/workpool"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
