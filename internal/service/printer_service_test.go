// internal/service/printer_service_test.go
package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-agent/internal/config"
	"printer-agent/internal/model"
)

// capturingBus records published events for assertions.
type capturingBus struct {
	events []model.AgentEvent
}

func (b *capturingBus) Publish(event model.AgentEvent) {
	b.events = append(b.events, event)
}

func (b *capturingBus) types() []model.EventType {
	types := make([]model.EventType, 0, len(b.events))
	for _, event := range b.events {
		types = append(types, event.EventType)
	}
	return types
}

// newFilePrinterService wires a service around a plain file standing
// in for the character device.
func newFilePrinterService(t *testing.T) (*PrinterService, *capturingBus, string) {
	t.Helper()

	devicePath := filepath.Join(t.TempDir(), "lp0")
	require.NoError(t, os.WriteFile(devicePath, nil, 0644))

	cfg := &config.Config{}
	cfg.Printer.DevicePath = devicePath

	bus := &capturingBus{}
	ps := NewPrinterService(nil, cfg, bus, zap.NewNop())
	t.Cleanup(ps.Close)

	return ps, bus, devicePath
}

func TestAttachConfigured(t *testing.T) {
	ps, bus, devicePath := newFilePrinterService(t)

	printer, err := ps.AttachConfigured(context.Background())
	require.NoError(t, err)
	require.NotNil(t, printer)

	assert.Equal(t, devicePath, printer.DeviceAddress)
	assert.Equal(t, model.ConnectionTypeFile, printer.ConnectionType)
	assert.Equal(t, model.PrinterStatusOnline, printer.Status)
	assert.True(t, printer.IsDefault)
	assert.True(t, ps.HasPrinter())
	assert.Contains(t, bus.types(), model.EventPrinterConnected)

	// Attaching the same path again must not duplicate it
	again, err := ps.AttachConfigured(context.Background())
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, ps.List(), 1)
}

func TestAttachConfigured_AbsentDevice(t *testing.T) {
	cfg := &config.Config{}
	cfg.Printer.DevicePath = filepath.Join(t.TempDir(), "missing")

	ps := NewPrinterService(nil, cfg, nil, zap.NewNop())

	// Absence is tolerated; hotplug may bring the device later
	printer, err := ps.AttachConfigured(context.Background())
	require.NoError(t, err)
	assert.Nil(t, printer)
	assert.False(t, ps.HasPrinter())
}

func TestPrint_WritesPayloadToDevice(t *testing.T) {
	ps, _, devicePath := newFilePrinterService(t)

	_, err := ps.AttachConfigured(context.Background())
	require.NoError(t, err)

	payload := []byte{0x1B, 0x40, 'H', 'E', 'L', 'L', 'O', 0x0A}
	result, err := ps.Print(context.Background(), "", payload)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, len(payload), result.BytesWritten)
	assert.Equal(t, devicePath, result.Printer)

	written, err := os.ReadFile(devicePath)
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestPrint_NoPrinter(t *testing.T) {
	cfg := &config.Config{}
	ps := NewPrinterService(nil, cfg, nil, zap.NewNop())

	result, err := ps.Print(context.Background(), "", []byte("data"))
	assert.ErrorIs(t, err, ErrNoPrinter)
	assert.False(t, result.Success)
}

func TestTestPrint(t *testing.T) {
	ps, _, devicePath := newFilePrinterService(t)

	_, err := ps.AttachConfigured(context.Background())
	require.NoError(t, err)

	result, err := ps.TestPrint(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, result.Success)

	written, err := os.ReadFile(devicePath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "=== TEST YAZDIRMA ===")
	assert.Contains(t, string(written), "Printer OK")
	// CP857 output ends with feed and full cut
	assert.Equal(t, []byte{0x1D, 0x56, 0x00}, written[len(written)-3:])
}

func TestDetach(t *testing.T) {
	ps, bus, devicePath := newFilePrinterService(t)

	_, err := ps.AttachConfigured(context.Background())
	require.NoError(t, err)

	ps.Detach(devicePath)

	assert.False(t, ps.HasPrinter())
	assert.Nil(t, ps.DefaultPrinter())
	assert.Contains(t, bus.types(), model.EventPrinterDisconnected)

	// Detaching twice is harmless
	ps.Detach(devicePath)
}

func TestSetDefault(t *testing.T) {
	ps, _, devicePath := newFilePrinterService(t)

	_, err := ps.AttachConfigured(context.Background())
	require.NoError(t, err)

	require.NoError(t, ps.SetDefault(devicePath))
	require.NotNil(t, ps.DefaultPrinter())
	assert.Equal(t, devicePath, ps.DefaultPrinter().DeviceAddress)

	assert.Error(t, ps.SetDefault("/dev/never/there"))
}

func TestGet(t *testing.T) {
	ps, _, devicePath := newFilePrinterService(t)

	_, err := ps.AttachConfigured(context.Background())
	require.NoError(t, err)

	printer, err := ps.Get(devicePath)
	require.NoError(t, err)
	assert.Equal(t, devicePath, printer.DeviceAddress)

	_, err = ps.Get("unknown")
	assert.Error(t, err)
}
