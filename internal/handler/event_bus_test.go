// internal/handler/event_bus_test.go
package handler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-agent/internal/model"
)

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		pattern   string
		eventType string
		want      bool
	}{
		{"*", "job.completed", true},
		{"job.completed", "job.completed", true},
		{"job.completed", "job.failed", false},
		{"job.*", "job.completed", true},
		{"job.*", "job.failed", true},
		{"job.*", "printer.connected", false},
		{"printer.*", "printer.connected", true},
		{"", "job.completed", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesPattern(tt.pattern, tt.eventType))
		})
	}
}

func receiveEvent(t *testing.T, ch <-chan model.AgentEvent) model.AgentEvent {
	t.Helper()

	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return model.AgentEvent{}
	}
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()

	all := bus.Subscribe("*")
	jobs := bus.Subscribe("job.*")
	exact := bus.Subscribe(string(model.EventJobFailed))

	bus.Publish(model.NewAgentEvent(model.EventJobCompleted, "job-processor", "INFO", nil))

	event := receiveEvent(t, all)
	assert.Equal(t, model.EventJobCompleted, event.EventType)

	event = receiveEvent(t, jobs)
	assert.Equal(t, model.EventJobCompleted, event.EventType)

	select {
	case unexpected := <-exact:
		t.Fatalf("exact subscriber received %s", unexpected.EventType)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventBus_NonMatchingPattern(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()

	printers := bus.Subscribe("printer.*")

	bus.Publish(model.NewAgentEvent(model.EventJobCompleted, "job-processor", "INFO", nil))
	bus.Publish(model.NewAgentEvent(model.EventPrinterConnected, "printer-service", "INFO", nil))

	event := receiveEvent(t, printers)
	assert.Equal(t, model.EventPrinterConnected, event.EventType)
}

func TestEventBus_EventPayload(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()

	ch := bus.Subscribe("*")

	bus.Publish(model.NewAgentEvent(model.EventPrinterError, "printer-service", "ERROR", model.JSONObject{
		"device_address": "/dev/usb/lp0",
	}))

	event := receiveEvent(t, ch)
	require.NotNil(t, event.Data)
	assert.Equal(t, "/dev/usb/lp0", event.Data["device_address"])
	assert.Equal(t, "printer-service", event.Source)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.Timestamp.IsZero())
}
