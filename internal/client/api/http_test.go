package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eventexport/internal/client/models"
	"github.com/dmitrijs2005/eventexport/internal/common"
)

func newTestClient(srv *httptest.Server) *HTTPClient {
	c := NewHTTPClient(srv.URL, "test-api-key")
	c.http = srv.Client()
	return c
}

func TestTriggerExport_Success(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"task_uuid":"11111111-2222-3333-4444-555555555555"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	taskID, err := c.TriggerExport(context.Background(), "job-1", &TriggerRequest{
		S3:     &S3Destination{SSECustomerKey: "a2V5", SSECustomerKeyMD5: "bWQ1", SSECustomerAlgorithm: "AES256"},
		Fields: []string{"timestamp", "message"},
	})

	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", taskID)
	assert.Equal(t, "Bearer test-api-key", gotAuth)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1/sic/conf/events/search/jobs/job-1/export", gotPath)
	assert.Contains(t, gotBody, "s3")
	assert.Contains(t, gotBody, "fields")
}

func TestTriggerExport_EmptyRequestSendsNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"task_uuid":"t-1"}`))
	}))
	defer srv.Close()

	taskID, err := newTestClient(srv).TriggerExport(context.Background(), "job-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "t-1", taskID)
}

func TestTriggerExport_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).TriggerExport(context.Background(), "job-1", nil)

	var te *TriggerError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusForbidden, te.StatusCode)
	assert.Contains(t, te.Body, "invalid api key")
}

func TestTriggerExport_MissingTaskID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).TriggerExport(context.Background(), "job-1", nil)
	assert.ErrorIs(t, err, common.ErrNoTaskID)
}

func TestFetchTask_Running(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tasks/task-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"RUNNING","total":1000,"progress":250,"attributes":{"sse_c":true}}`))
	}))
	defer srv.Close()

	task, err := newTestClient(srv).FetchTask(context.Background(), "task-1")
	require.NoError(t, err)

	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, models.StatusRunning, task.Status)
	assert.Equal(t, int64(250), task.Completed)
	assert.Equal(t, int64(1000), task.Total)
	assert.True(t, task.Encrypted)
	assert.Empty(t, task.ResultLocation)
}

func TestFetchTask_FinishedCarriesResultLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FINISHED","total":10,"progress":10,"attributes":{"download_url":"https://x/obj"}}`))
	}))
	defer srv.Close()

	task, err := newTestClient(srv).FetchTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, task.Status)
	assert.Equal(t, "https://x/obj", task.ResultLocation)
}

func TestFetchTask_FailedCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FAILED","attributes":{"error":"bucket not writable"}}`))
	}))
	defer srv.Close()

	task, err := newTestClient(srv).FetchTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, task.Status)
	assert.Equal(t, "bucket not writable", task.FailureDetail)
}

func TestFetchTask_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchTask(context.Background(), "task-1")

	var sfe *StatusFetchError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, "task-1", sfe.TaskID)
	assert.Equal(t, http.StatusBadGateway, sfe.StatusCode)
}

func TestFetchTask_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before use

	_, err := NewHTTPClient(srv.URL, "k").FetchTask(context.Background(), "task-1")

	var sfe *StatusFetchError
	require.True(t, errors.As(err, &sfe))
	assert.Error(t, sfe.Err)
}
