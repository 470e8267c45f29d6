// internal/service/printer_service.go

// Package service holds the agent's business logic: the printer
// registry, the job poll loop and printer discovery wiring.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"printer-agent/internal/api"
	"printer-agent/internal/config"
	"printer-agent/internal/model"
	"printer-agent/internal/protocol"
	"printer-agent/internal/utils"
	"printer-agent/pkg/escpos"
)

// EventPublisher is the narrow slice of the event bus the services
// need. The bus itself lives with the handlers.
type EventPublisher interface {
	Publish(event model.AgentEvent)
}

// ErrNoPrinter is returned when a print is requested and nothing is
// attached.
var ErrNoPrinter = errors.New("no printer attached")

// PrintResult describes the outcome of one write to a printer
type PrintResult struct {
	Success      bool   `json:"success"`
	Printer      string `json:"printer,omitempty"`
	BytesWritten int    `json:"bytes_written"`
	Duration     string `json:"duration"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// printerEntry pairs an attached printer with its open connection
type printerEntry struct {
	printer *model.Printer
	conn    protocol.DeviceProtocol
}

// PrinterService maintains the registry of attached printers, routes
// print payloads to them and enrolls new ones at the backend.
type PrinterService struct {
	api    *api.Client
	config *config.Config
	events EventPublisher
	logger *utils.ServiceLogger

	mutex       sync.RWMutex
	printers    map[string]*printerEntry // keyed by device address
	defaultAddr string
}

// NewPrinterService creates a new printer service instance
func NewPrinterService(apiClient *api.Client, cfg *config.Config, events EventPublisher, logger *zap.Logger) *PrinterService {
	return &PrinterService{
		api:      apiClient,
		config:   cfg,
		events:   events,
		logger:   utils.NewServiceLogger(logger, "printer-service"),
		printers: make(map[string]*printerEntry),
	}
}

// AttachDiscovered attaches a printer found by discovery: opens its
// connection, registers it locally and enrolls it at the backend.
// Re-attaching a known address refreshes its status instead of
// duplicating it.
func (ps *PrinterService) AttachDiscovered(ctx context.Context, discovered *model.DiscoveredPrinter) (*model.Printer, error) {
	ps.mutex.RLock()
	existing, known := ps.printers[discovered.DeviceAddress]
	ps.mutex.RUnlock()
	if known {
		now := time.Now().UTC()
		existing.printer.LastSeen = &now
		existing.printer.Status = model.PrinterStatusOnline
		return existing.printer, nil
	}

	printer := &model.Printer{
		ID:               uuid.New(),
		Name:             discovered.Name,
		Model:            discovered.Model,
		DeviceAddress:    discovered.DeviceAddress,
		ConnectionType:   discovered.ConnectionType,
		ConnectionConfig: discovered.Config,
		Status:           model.PrinterStatusConnecting,
		AttachedAt:       time.Now().UTC(),
	}

	return ps.attach(ctx, printer)
}

// AttachConfigured attaches the character device from the printer
// config, the classic /dev/usb/lp0 path on a Raspberry Pi. Absence is
// not an error; the device may appear later via hotplug.
func (ps *PrinterService) AttachConfigured(ctx context.Context) (*model.Printer, error) {
	path := ps.config.Printer.DevicePath
	if path == "" {
		return nil, nil
	}

	ps.mutex.RLock()
	_, known := ps.printers[path]
	ps.mutex.RUnlock()
	if known {
		return nil, nil
	}

	printer := &model.Printer{
		ID:               uuid.New(),
		Name:             "Line Printer " + path,
		Model:            "Generic",
		DeviceAddress:    path,
		ConnectionType:   model.ConnectionTypeFile,
		ConnectionConfig: model.JSONObject{"path": path},
		Status:           model.PrinterStatusConnecting,
		AttachedAt:       time.Now().UTC(),
	}

	attached, err := ps.attach(ctx, printer)
	if err != nil {
		if errors.Is(err, protocol.ErrDeviceAbsent) {
			ps.logger.Info("Configured device path not present", zap.String("path", path))
			return nil, nil
		}
		return nil, err
	}
	return attached, nil
}

// attach opens the connection and registers the printer
func (ps *PrinterService) attach(ctx context.Context, printer *model.Printer) (*model.Printer, error) {
	deviceLogger := utils.NewDeviceLogger(ps.logger.Logger, printer.DeviceAddress, string(printer.ConnectionType))

	conn, err := protocol.CreateProtocol(printer.ConnectionType, printer.ConnectionConfig, ps.logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	if err := conn.Open(ctx); err != nil {
		deviceLogger.LogConnection("open", false, err)
		return nil, fmt.Errorf("failed to open printer: %w", err)
	}
	deviceLogger.LogConnection("open", true, nil)

	now := time.Now().UTC()
	printer.Status = model.PrinterStatusOnline
	printer.LastSeen = &now

	ps.mutex.Lock()
	ps.printers[printer.DeviceAddress] = &printerEntry{printer: printer, conn: conn}
	if ps.defaultAddr == "" {
		ps.defaultAddr = printer.DeviceAddress
		printer.IsDefault = true
	}
	ps.mutex.Unlock()

	ps.logger.Info("Printer attached",
		zap.String("address", printer.DeviceAddress),
		zap.String("model", printer.Model),
		zap.Bool("is_default", printer.IsDefault),
	)

	ps.enroll(ctx, printer)

	ps.publish(model.EventPrinterConnected, "INFO", printer)
	return printer, nil
}

// enroll reports the printer to the backend. Best effort: the agent
// prints fine without the backend knowing the device by name.
func (ps *PrinterService) enroll(ctx context.Context, printer *model.Printer) {
	if !ps.config.IsPaired() {
		return
	}

	created, err := ps.api.AddPrinter(ctx, api.AddPrinterRequest{
		PrinterName:    printer.Name,
		ConnectionType: printer.ConnectionType.BackendConnectionType(),
		DeviceAddress:  printer.DeviceAddress,
		PrinterModel:   printer.Model,
	})
	if err != nil {
		ps.logger.Warn("Printer enrollment failed",
			zap.String("address", printer.DeviceAddress),
			zap.Error(err))
		return
	}

	ps.mutex.Lock()
	printer.BranchPrinterID = created.BranchPrinterGUID
	ps.mutex.Unlock()

	ps.logger.Info("Printer enrolled at backend",
		zap.String("address", printer.DeviceAddress),
		zap.String("branch_printer_guid", created.BranchPrinterGUID),
	)
}

// Detach removes a printer from the registry and closes its
// connection. The default is re-elected from the survivors.
func (ps *PrinterService) Detach(deviceAddress string) {
	ps.mutex.Lock()
	entry, ok := ps.printers[deviceAddress]
	if !ok {
		ps.mutex.Unlock()
		return
	}
	delete(ps.printers, deviceAddress)

	if ps.defaultAddr == deviceAddress {
		ps.defaultAddr = ""
		for address, candidate := range ps.printers {
			ps.defaultAddr = address
			candidate.printer.IsDefault = true
			break
		}
	}
	ps.mutex.Unlock()

	if err := entry.conn.Close(); err != nil {
		ps.logger.Warn("Failed to close printer connection",
			zap.String("address", deviceAddress),
			zap.Error(err))
	}
	entry.printer.Status = model.PrinterStatusOffline
	entry.printer.IsDefault = false

	ps.logger.Info("Printer detached", zap.String("address", deviceAddress))
	ps.publish(model.EventPrinterDisconnected, "WARNING", entry.printer)
}

// HasPrinter reports whether anything is attached. The poll loop skips
// claiming jobs when this is false.
func (ps *PrinterService) HasPrinter() bool {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return len(ps.printers) > 0
}

// List returns all attached printers
func (ps *PrinterService) List() []*model.Printer {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	printers := make([]*model.Printer, 0, len(ps.printers))
	for _, entry := range ps.printers {
		printers = append(printers, entry.printer)
	}
	return printers
}

// Get returns one attached printer by device address
func (ps *PrinterService) Get(deviceAddress string) (*model.Printer, error) {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	entry, ok := ps.printers[deviceAddress]
	if !ok {
		return nil, fmt.Errorf("printer not found: %s", deviceAddress)
	}
	return entry.printer, nil
}

// DefaultPrinter returns the current default, or nil
func (ps *PrinterService) DefaultPrinter() *model.Printer {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	if entry, ok := ps.printers[ps.defaultAddr]; ok {
		return entry.printer
	}
	return nil
}

// SetDefault elects a specific printer as the job target
func (ps *PrinterService) SetDefault(deviceAddress string) error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	entry, ok := ps.printers[deviceAddress]
	if !ok {
		return fmt.Errorf("printer not found: %s", deviceAddress)
	}

	if current, ok := ps.printers[ps.defaultAddr]; ok {
		current.printer.IsDefault = false
	}
	ps.defaultAddr = deviceAddress
	entry.printer.IsDefault = true

	ps.logger.Info("Default printer changed", zap.String("address", deviceAddress))
	return nil
}

// Print writes a rendered payload to a printer. An empty address
// targets the default. A write failing because the device vanished
// detaches the printer so the registry stays honest.
func (ps *PrinterService) Print(ctx context.Context, deviceAddress string, payload []byte) (*PrintResult, error) {
	ps.mutex.RLock()
	if deviceAddress == "" {
		deviceAddress = ps.defaultAddr
	}
	entry, ok := ps.printers[deviceAddress]
	ps.mutex.RUnlock()

	if !ok {
		return &PrintResult{Success: false, ErrorMessage: ErrNoPrinter.Error()}, ErrNoPrinter
	}

	deviceLogger := utils.NewDeviceLogger(ps.logger.Logger, deviceAddress, string(entry.printer.ConnectionType))

	startTime := time.Now()
	written, err := entry.conn.Write(ctx, payload)
	duration := time.Since(startTime)

	deviceLogger.LogWrite(written, duration, err)

	if err != nil {
		entry.printer.Status = model.PrinterStatusError
		ps.publish(model.EventPrinterError, "ERROR", entry.printer)

		if errors.Is(err, protocol.ErrDeviceAbsent) {
			ps.Detach(deviceAddress)
		}

		return &PrintResult{
			Success:      false,
			Printer:      deviceAddress,
			BytesWritten: written,
			Duration:     duration.String(),
			ErrorMessage: err.Error(),
		}, err
	}

	now := time.Now().UTC()
	entry.printer.LastSeen = &now
	entry.printer.Status = model.PrinterStatusOnline

	return &PrintResult{
		Success:      true,
		Printer:      deviceAddress,
		BytesWritten: written,
		Duration:     duration.String(),
	}, nil
}

// TestPrint sends a short self-test receipt with Turkish sample text
// so code page problems show up immediately.
func (ps *PrinterService) TestPrint(ctx context.Context, deviceAddress string) (*PrintResult, error) {
	sample := decimal.NewFromFloat(2.5).Mul(decimal.NewFromInt(3))

	var payload []byte
	payload = append(payload, escpos.ESC_POS_COMMANDS.INIT...)
	payload = append(payload, escpos.ESC_POS_COMMANDS.SELECT_CHARSET...)
	payload = append(payload, escpos.ESC_POS_COMMANDS.ALIGN_CENTER...)
	payload = append(payload, escpos.ESC_POS_COMMANDS.BOLD_ON...)
	payload = append(payload, escpos.Encode("=== TEST YAZDIRMA ===")...)
	payload = append(payload, escpos.ESC_POS_COMMANDS.FEED_LINE...)
	payload = append(payload, escpos.ESC_POS_COMMANDS.BOLD_OFF...)
	payload = append(payload, escpos.Encode("Türkçe: ğüşıöç ĞÜŞİÖÇ")...)
	payload = append(payload, escpos.ESC_POS_COMMANDS.FEED_LINE...)
	payload = append(payload, escpos.Encode("Örnek tutar: "+sample.StringFixed(2)+" TL")...)
	payload = append(payload, escpos.ESC_POS_COMMANDS.FEED_LINE...)
	payload = append(payload, escpos.Encode("Printer OK")...)
	payload = append(payload, escpos.ESC_POS_COMMANDS.FEED_LINE...)
	payload = append(payload, escpos.FeedLines(3)...)
	payload = append(payload, escpos.CutCommand(false)...)

	return ps.Print(ctx, deviceAddress, payload)
}

// Close closes every printer connection, for shutdown
func (ps *PrinterService) Close() {
	ps.mutex.Lock()
	entries := make([]*printerEntry, 0, len(ps.printers))
	for _, entry := range ps.printers {
		entries = append(entries, entry)
	}
	ps.printers = make(map[string]*printerEntry)
	ps.defaultAddr = ""
	ps.mutex.Unlock()

	for _, entry := range entries {
		if err := entry.conn.Close(); err != nil {
			ps.logger.Warn("Failed to close printer connection",
				zap.String("address", entry.printer.DeviceAddress),
				zap.Error(err))
		}
	}
}

// publish sends a printer event to the bus, if one is wired
func (ps *PrinterService) publish(eventType model.EventType, severity string, printer *model.Printer) {
	if ps.events == nil {
		return
	}
	ps.events.Publish(model.NewAgentEvent(eventType, "printer-service", severity, model.JSONObject{
		"name":            printer.Name,
		"model":           printer.Model,
		"device_address":  printer.DeviceAddress,
		"connection_type": string(printer.ConnectionType),
	}))
}
