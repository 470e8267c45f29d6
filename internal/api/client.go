// internal/api/client.go

// Package api implements the HTTP client for the ordering backend:
// device registration, printer enrollment and the print-job
// claim/complete/fail cycle.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"printer-agent/internal/model"
)

// APIError is a backend-reported or transport-level failure. Backend
// failures carry the errorCode from the response envelope.
type APIError struct {
	Message   string
	ErrorCode string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.ErrorCode)
	}
	return e.Message
}

// apiResponse is the backend's standard envelope.
type apiResponse struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"errorCode"`
}

// RegisterResponse is the credential set returned by pairing.
type RegisterResponse struct {
	Token      string  `json:"token"`
	TokenID    string  `json:"tokenId"`
	BranchGUID string  `json:"branchGuid"`
	DeviceName *string `json:"deviceName"`
	IssuedAt   string  `json:"issuedAt"`
	ExpiresAt  *string `json:"expiresAt"`
}

// AddPrinterRequest enrolls a locally attached printer at the backend.
type AddPrinterRequest struct {
	PrinterName    string `json:"printerName"`
	ConnectionType int    `json:"connectionType"` // 1=network, 2=usb
	DeviceAddress  string `json:"deviceAddress,omitempty"`
	PrinterModel   string `json:"printerModel,omitempty"`
	SortOrder      *int   `json:"sortOrder,omitempty"`
}

// CreatedPrinter is the backend's record of an enrolled printer.
type CreatedPrinter struct {
	BranchPrinterGUID string  `json:"branchPrinterGuid"`
	PrinterName       string  `json:"printerName"`
	DeviceAddress     *string `json:"deviceAddress"`
}

// FailResponse tells the agent whether the backend will requeue a
// failed job.
type FailResponse struct {
	WillRetry bool `json:"willRetry"`
}

// Client talks to the ordering backend. Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client. token may be empty before
// pairing; Register is the only call that works without one.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetToken installs the credential obtained from Register.
func (c *Client) SetToken(token string) {
	c.token = token
}

// request performs one backend call and unwraps the response
// envelope, returning the raw data payload.
func (c *Client) request(ctx context.Context, method, endpoint string, body interface{}, withAuth bool) (json.RawMessage, error) {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if withAuth && c.token != "" {
		req.Header.Set("Authorization", "PrinterDevice "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, &APIError{Message: fmt.Sprintf("connection error: %v", err)}
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("invalid response (%d): %v", resp.StatusCode, err)}
	}
	if !envelope.Success {
		message := envelope.Message
		if message == "" {
			message = "Unknown error"
		}
		return nil, &APIError{Message: message, ErrorCode: envelope.ErrorCode}
	}
	return envelope.Data, nil
}

// Register pairs this device with a branch using a pairing code. The
// returned token must be persisted; it is the credential for every
// other call.
func (c *Client) Register(ctx context.Context, pairingCode, deviceName string) (*RegisterResponse, error) {
	data, err := c.request(ctx, http.MethodPost, "/api/printer-device/register", map[string]string{
		"pairingCode": pairingCode,
		"deviceName":  deviceName,
	}, false)
	if err != nil {
		return nil, err
	}

	var result RegisterResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("invalid register response: %v", err)}
	}
	return &result, nil
}

// AddPrinter enrolls a printer at the backend. The backend tolerates
// re-enrolling the same device address.
func (c *Client) AddPrinter(ctx context.Context, req AddPrinterRequest) (*CreatedPrinter, error) {
	data, err := c.request(ctx, http.MethodPost, "/api/printer-device/printers", req, true)
	if err != nil {
		return nil, err
	}

	var result CreatedPrinter
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("invalid printer response: %v", err)}
	}
	return &result, nil
}

// PendingJobs lists queued jobs without claiming them.
func (c *Client) PendingJobs(ctx context.Context, take int) ([]model.PendingJob, error) {
	endpoint := "/api/printer-device/jobs/pending?take=" + strconv.Itoa(take)
	data, err := c.request(ctx, http.MethodGet, endpoint, nil, true)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var jobs []model.PendingJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("invalid pending jobs response: %v", err)}
	}
	return jobs, nil
}

// ClaimJob claims the next pending job and returns its detail, or nil
// when nothing is queued.
func (c *Client) ClaimJob(ctx context.Context) (*model.PrintJob, error) {
	data, err := c.request(ctx, http.MethodPost, "/api/printer-device/jobs/claim", nil, true)
	if err != nil {
		return nil, err
	}
	return decodeJob(data)
}

// JobDetail fetches a single job by GUID, for re-checking a job that
// was claimed but never resolved.
func (c *Client) JobDetail(ctx context.Context, jobGUID string) (*model.PrintJob, error) {
	data, err := c.request(ctx, http.MethodGet, "/api/printer-device/jobs/"+url.PathEscape(jobGUID), nil, true)
	if err != nil {
		return nil, err
	}
	return decodeJob(data)
}

// CompleteJob reports a job as printed. Idempotent at the backend; a
// repeated report for the same GUID is harmless.
func (c *Client) CompleteJob(ctx context.Context, jobGUID string) bool {
	_, err := c.request(ctx, http.MethodPost, "/api/printer-device/jobs/"+url.PathEscape(jobGUID)+"/complete", nil, true)
	if err != nil {
		c.logger.Error("failed to complete job",
			zap.String("job_guid", jobGUID),
			zap.Error(err))
		return false
	}
	return true
}

// FailJob reports a job as failed with an error message.
func (c *Client) FailJob(ctx context.Context, jobGUID, errorMessage string) (*FailResponse, error) {
	data, err := c.request(ctx, http.MethodPost, "/api/printer-device/jobs/"+url.PathEscape(jobGUID)+"/fail", map[string]string{
		"errorMessage": errorMessage,
	}, true)
	if err != nil {
		return nil, err
	}

	result := &FailResponse{}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, result); err != nil {
			return nil, &APIError{Message: fmt.Sprintf("invalid fail response: %v", err)}
		}
	}
	return result, nil
}

func decodeJob(data json.RawMessage) (*model.PrintJob, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	job := &model.PrintJob{
		TemplateContent: "{}",
		TemplateVersion: 1,
	}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, &APIError{Message: fmt.Sprintf("invalid job response: %v", err)}
	}
	if job.TemplateContent == "" {
		job.TemplateContent = "{}"
	}
	if job.TemplateVersion == 0 {
		job.TemplateVersion = 1
	}
	return job, nil
}
