// internal/api/client_test.go
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
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", 5*time.Second, zap.NewNop())
}

func envelope(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "OK",
		"data":    data,
	})
}

func TestRegister(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/printer-device/register", r.URL.Path)
		// Pairing runs before a token exists
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ABC123", body["pairingCode"])
		assert.Equal(t, "Kasa 1", body["deviceName"])

		envelope(w, map[string]string{
			"token":      "new-token",
			"tokenId":    "tok-1",
			"branchGuid": "branch-1",
		})
	})
	// Register must work without a credential
	client.SetToken("")

	result, err := client.Register(context.Background(), "ABC123", "Kasa 1")
	require.NoError(t, err)
	assert.Equal(t, "new-token", result.Token)
	assert.Equal(t, "branch-1", result.BranchGUID)
}

func TestClaimJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/printer-device/jobs/claim", r.URL.Path)
		assert.Equal(t, "PrinterDevice test-token", r.Header.Get("Authorization"))

		envelope(w, map[string]interface{}{
			"jobGuid":         "job-1",
			"orderGuid":       "order-1",
			"printData":       `{"items":[]}`,
			"templateContent": `{"elements":[]}`,
			"templateVersion": 2,
		})
	})

	job, err := client.ClaimJob(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.JobGUID)
	assert.Equal(t, 2, job.TemplateVersion)
}

func TestClaimJob_EmptyQueue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		envelope(w, nil)
	})

	job, err := client.ClaimJob(context.Background())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestClaimJob_TemplateDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		envelope(w, map[string]interface{}{
			"jobGuid":   "job-1",
			"printData": "{}",
		})
	})

	job, err := client.ClaimJob(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "{}", job.TemplateContent)
	assert.Equal(t, 1, job.TemplateVersion)
}

func TestBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   false,
			"message":   "Cihaz bulunamadı",
			"errorCode": "DEVICE_NOT_FOUND",
		})
	})

	_, err := client.ClaimJob(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "DEVICE_NOT_FOUND", apiErr.ErrorCode)
	assert.Contains(t, apiErr.Error(), "Cihaz bulunamadı")
}

func TestPendingJobs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/printer-device/jobs/pending", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("take"))

		envelope(w, []map[string]interface{}{
			{"jobGuid": "job-1", "orderGuid": "order-1", "priority": 1},
			{"jobGuid": "job-2", "orderGuid": "order-2", "priority": 2},
		})
	})

	jobs, err := client.PendingJobs(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[1].JobGUID)
}

func TestJobDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/printer-device/jobs/job-1", r.URL.Path)

		envelope(w, map[string]interface{}{
			"jobGuid":         "job-1",
			"orderGuid":       "order-1",
			"printData":       `{"items":[]}`,
			"templateContent": `{"elements":[]}`,
			"templateVersion": 3,
		})
	})

	job, err := client.JobDetail(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "order-1", job.OrderGUID)
	assert.Equal(t, 3, job.TemplateVersion)
}

func TestJobDetail_BackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   false,
			"message":   "İş bulunamadı",
			"errorCode": "JOB_NOT_FOUND",
		})
	})

	job, err := client.JobDetail(context.Background(), "job-9")
	require.Error(t, err)
	assert.Nil(t, job)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "JOB_NOT_FOUND", apiErr.ErrorCode)
}

func TestCompleteJob(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		envelope(w, nil)
	})

	ok := client.CompleteJob(context.Background(), "job-1")
	assert.True(t, ok)
	assert.Equal(t, "/api/printer-device/jobs/job-1/complete", path)
}

func TestCompleteJob_BackendRejects(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "already completed",
		})
	})

	assert.False(t, client.CompleteJob(context.Background(), "job-1"))
}

func TestFailJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/printer-device/jobs/job-1/fail", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "printer offline", body["errorMessage"])

		envelope(w, map[string]bool{"willRetry": true})
	})

	result, err := client.FailJob(context.Background(), "job-1", "printer offline")
	require.NoError(t, err)
	assert.True(t, result.WillRetry)
}

func TestFailJob_EmptyData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		envelope(w, nil)
	})

	result, err := client.FailJob(context.Background(), "job-1", "oops")
	require.NoError(t, err)
	assert.False(t, result.WillRetry)
}

func TestConnectionError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "token", 500*time.Millisecond, zap.NewNop())

	_, err := client.ClaimJob(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}
