// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of agent event
type EventType string

const (
	EventPrinterConnected    EventType = "printer.connected"
	EventPrinterDisconnected EventType = "printer.disconnected"
	EventPrinterError        EventType = "printer.error"
	EventJobCompleted        EventType = "job.completed"
	EventJobFailed           EventType = "job.failed"
	EventJobSkipped          EventType = "job.skipped"
	EventAgentStarted        EventType = "agent.started"
	EventAgentStopping       EventType = "agent.stopping"
)

// AgentEvent is broadcast on the internal event bus and streamed to
// websocket subscribers.
type AgentEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR
}

// NewAgentEvent builds an event with a fresh ID and timestamp.
func NewAgentEvent(eventType EventType, source, severity string, data JSONObject) AgentEvent {
	return AgentEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Severity:  severity,
	}
}

// JobEventData is the payload for job.completed / job.failed events.
type JobEventData struct {
	JobGUID      string  `json:"job_guid"`
	OrderGUID    string  `json:"order_guid"`
	Printer      string  `json:"printer,omitempty"`
	DurationMs   int64   `json:"duration_ms"`
	ItemCount    int     `json:"item_count"`
	OrderTotal   string  `json:"order_total"`
	ErrorMessage *string `json:"error_message,omitempty"`
	WillRetry    *bool   `json:"will_retry,omitempty"`
}

// PrinterEventData is the payload for printer.* events.
type PrinterEventData struct {
	Name           string         `json:"name"`
	Model          string         `json:"model,omitempty"`
	DeviceAddress  string         `json:"device_address"`
	ConnectionType ConnectionType `json:"connection_type"`
}
