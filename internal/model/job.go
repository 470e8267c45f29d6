// internal/model/job.go
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// JobStatus represents the terminal state of a processed print job as
// recorded in the local ledger.
type JobStatus string

const (
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusSkipped   JobStatus = "SKIPPED"
)

// PendingJob is a queue entry from the backend, before claiming.
type PendingJob struct {
	JobGUID   string    `json:"jobGuid"`
	OrderGUID string    `json:"orderGuid"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

// PrintJob is a claimed job with everything needed to render it.
type PrintJob struct {
	JobGUID           string `json:"jobGuid"`
	OrderGUID         string `json:"orderGuid"`
	PrintTemplateGUID string `json:"printTemplateGuid"`
	PrintData         string `json:"printData"`
	TemplateContent   string `json:"templateContent"`
	TemplateVersion   int    `json:"templateVersion"`
}

// ProcessedJob is a ledger row: one processed job GUID with its
// outcome, used for restart-safe deduplication.
type ProcessedJob struct {
	JobGUID     string    `json:"job_guid" db:"job_guid"`
	ProcessedAt time.Time `json:"processed_at" db:"processed_at"`
	Status      JobStatus `json:"status" db:"status"`
	Error       *string   `json:"error,omitempty" db:"error"`
	Reported    bool      `json:"reported" db:"reported"`
}

// JobStats summarizes the ledger for health and stats endpoints.
type JobStats struct {
	Total     int64            `json:"total"`
	ByStatus  map[string]int64 `json:"by_status"`
	OldestJob *time.Time       `json:"oldest_job,omitempty"`
}

// OrderSummary is the money view of a job's print data, extracted for
// events and stats. Amounts use decimals so per-item totals sum
// without float drift.
type OrderSummary struct {
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// SummarizeOrder walks a job's print data and totals quantity times
// unit price across the items array. Malformed entries count zero.
func SummarizeOrder(printData string) OrderSummary {
	summary := OrderSummary{Total: decimal.Zero}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(printData), &parsed); err != nil {
		return summary
	}
	items, _ := parsed["items"].([]interface{})
	for _, entry := range items {
		item, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		summary.ItemCount++

		qty := numberField(item, 1, "quantity")
		price := numberField(item, 0, "unitPrice", "price")
		line := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(qty))
		summary.Total = summary.Total.Add(line)
	}
	return summary
}

func numberField(obj map[string]interface{}, fallback float64, keys ...string) float64 {
	for _, key := range keys {
		if n, ok := obj[key].(float64); ok {
			return n
		}
	}
	return fallback
}
