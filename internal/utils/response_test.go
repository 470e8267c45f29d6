// internal/utils/response_test.go
package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHandler(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "req-1")

	handler(c)

	var response APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return recorder, response
}

func TestSuccessResponse(t *testing.T) {
	recorder, response := runHandler(t, func(c *gin.Context) {
		SuccessResponse(c, http.StatusOK, "Printers retrieved successfully", gin.H{
			"printers_found": 1,
		})
	})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, response.Success)
	assert.Equal(t, "Printers retrieved successfully", response.Message)
	assert.Equal(t, "req-1", response.RequestID)
	assert.Nil(t, response.Error)
	assert.False(t, response.Timestamp.IsZero())
}

func TestErrorResponse(t *testing.T) {
	recorder, response := runHandler(t, func(c *gin.Context) {
		ErrorResponse(c, http.StatusNotFound, "Printer not found", errors.New("printer not found: /dev/usb/lp0"))
	})

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.False(t, response.Success)
	require.NotNil(t, response.Error)
	assert.Equal(t, "NOT_FOUND", response.Error.Code)
	assert.Equal(t, "Printer not found", response.Error.Message)
	assert.Equal(t, "printer not found: /dev/usb/lp0", response.Error.Details)
	assert.Equal(t, "req-1", response.RequestID)
}

func TestErrorResponse_NilError(t *testing.T) {
	_, response := runHandler(t, func(c *gin.Context) {
		ErrorResponse(c, http.StatusServiceUnavailable, "Ledger unavailable", nil)
	})

	require.NotNil(t, response.Error)
	assert.Equal(t, "SERVICE_UNAVAILABLE", response.Error.Code)
	assert.Empty(t, response.Error.Details)
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "BAD_REQUEST"},
		{http.StatusNotFound, "NOT_FOUND"},
		{http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{http.StatusTeapot, "UNKNOWN_ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getErrorCode(tt.status))
	}
}
