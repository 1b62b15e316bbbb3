package report

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refis-sim/refis-sim/jobs"
)

type recordingEnqueuer struct {
	payloads []jobs.ReportRenderPayload
}

func (r *recordingEnqueuer) EnqueueReportRender(_ context.Context, payload jobs.ReportRenderPayload) (*asynq.TaskInfo, error) {
	r.payloads = append(r.payloads, payload)
	return &asynq.TaskInfo{ID: payload.ID}, nil
}

func newReportServer(t *testing.T) (*httptest.Server, *recordingEnqueuer, *Store) {
	t.Helper()
	store := testStore(t)
	enq := &recordingEnqueuer{}
	h := NewHandler(discardLogger(), enq, store)
	r := chi.NewRouter()
	h.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, enq, store
}

func TestQueueReport(t *testing.T) {
	srv, enq, store := newReportServer(t)

	resp, err := http.Post(srv.URL+"/reports", "application/json",
		bytes.NewBufferString(`{"entity":"ACME"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var queued struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&queued))
	assert.NotEmpty(t, queued.ID)
	assert.Equal(t, StatusQueued, queued.Status)

	require.Len(t, enq.payloads, 1)
	assert.Equal(t, queued.ID, enq.payloads[0].ID)
	assert.Equal(t, "ACME", enq.payloads[0].Entity)

	status, err := store.Status(context.Background(), queued.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, status)
}

func TestQueueReportWithoutBody(t *testing.T) {
	srv, enq, _ := newReportServer(t)

	resp, err := http.Post(srv.URL+"/reports", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, enq.payloads, 1)
	assert.Empty(t, enq.payloads[0].Entity)
}

func TestFetchReportLifecycle(t *testing.T) {
	srv, _, store := newReportServer(t)
	ctx := context.Background()

	// Unknown id.
	resp, err := http.Get(srv.URL + "/reports/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Queued but not rendered yet.
	require.NoError(t, store.SetStatus(ctx, "r1", StatusQueued))
	resp, err = http.Get(srv.URL + "/reports/r1")
	require.NoError(t, err)
	var pending struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, StatusQueued, pending.Status)

	// Failed render.
	require.NoError(t, store.SetStatus(ctx, "r1", StatusFailed))
	resp, err = http.Get(srv.URL + "/reports/r1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// Rendered.
	require.NoError(t, store.SavePDF(ctx, "r1", []byte("%PDF done")))
	resp, err = http.Get(srv.URL + "/reports/r1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}
