// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"printer-agent/internal/config"
	"printer-agent/internal/discovery"
	"printer-agent/internal/discovery/serial"
	"printer-agent/internal/discovery/tcp"
	"printer-agent/internal/discovery/usb"
	"printer-agent/internal/model"
	"printer-agent/internal/utils"
)

// attachConfidence is the minimum discovery confidence for automatic
// attachment. Weaker matches still show up in scan results, but only
// an explicit attach request acts on them.
const attachConfidence = 0.5

// DiscoveryService runs the scanners and feeds hotplug changes into
// the printer registry.
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	monitor        *discovery.Monitor
	printers       *PrinterService
	config         *config.Config
	logger         *utils.ServiceLogger
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(printers *PrinterService, cfg *config.Config, logger *zap.Logger) *DiscoveryService {
	serviceLogger := utils.NewServiceLogger(logger, "discovery-service")
	scannerManager := discovery.NewScannerManager(logger)

	ds := &DiscoveryService{
		scannerManager: scannerManager,
		monitor:        discovery.NewMonitor(scannerManager, cfg.Discovery.ScanInterval, logger),
		printers:       printers,
		config:         cfg,
		logger:         serviceLogger,
	}

	ds.initializeScanners()
	ds.monitor.OnAttach(ds.handleAttach)
	ds.monitor.OnDetach(ds.handleDetach)

	return ds
}

// initializeScanners registers all available scanners
func (ds *DiscoveryService) initializeScanners() {
	if usbScanner := usb.NewScanner(ds.logger.Logger, &usb.Config{
		ScanTimeout: ds.config.Discovery.ScanTimeout,
	}); usbScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(usbScanner)
	}

	if serialScanner := serial.NewScanner(ds.logger.Logger, nil); serialScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(serialScanner)
	}

	if tcpScanner := tcp.NewScanner(ds.logger.Logger, &tcp.Config{
		Subnet: ds.config.Discovery.TCPSubnet,
	}); tcpScanner.IsAvailable() {
		ds.scannerManager.RegisterScanner(tcpScanner)
	}

	ds.logger.Info("Discovery scanners initialized",
		zap.Strings("available_scanners", ds.scannerManager.GetAvailableScanners()),
	)
}

// Run starts the hotplug monitor and blocks until the context is
// cancelled. The configured character device is attached first so a
// plain /dev/usb/lpN setup works without any scanner hits.
func (ds *DiscoveryService) Run(ctx context.Context) {
	if _, err := ds.printers.AttachConfigured(ctx); err != nil {
		ds.logger.Warn("Failed to attach configured device", zap.Error(err))
	}

	if !ds.config.Discovery.Enabled {
		ds.logger.Info("Discovery disabled, hotplug monitor not started")
		<-ctx.Done()
		return
	}

	ds.monitor.Run(ctx)
}

// Scan runs a one-off scan. scanType "all" runs every registered
// scanner.
func (ds *DiscoveryService) Scan(ctx context.Context, scanType string) ([]*model.DiscoveredPrinter, error) {
	ds.logger.Info("Starting printer scan", zap.String("type", scanType))

	var printers []*model.DiscoveredPrinter
	var err error

	switch scanType {
	case "all", "":
		printers, err = ds.scannerManager.ScanAll(ctx)
	case "usb", "serial", "tcp":
		printers, err = ds.scannerManager.ScanByType(ctx, scanType)
	default:
		return nil, fmt.Errorf("unsupported scan type: %s", scanType)
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	ds.logger.Info("Printer scan completed",
		zap.Int("printers_found", len(printers)),
		zap.String("scan_type", scanType),
	)
	return printers, nil
}

// Attach attaches a discovered printer on explicit request, bypassing
// the confidence threshold.
func (ds *DiscoveryService) Attach(ctx context.Context, discovered *model.DiscoveredPrinter) (*model.Printer, error) {
	return ds.printers.AttachDiscovered(ctx, discovered)
}

// AvailableScanners returns the scanner types that can run here
func (ds *DiscoveryService) AvailableScanners() []string {
	return ds.scannerManager.GetAvailableScanners()
}

// handleAttach is the hotplug callback for newly appeared printers
func (ds *DiscoveryService) handleAttach(discovered *model.DiscoveredPrinter) {
	if discovered.Confidence < attachConfidence {
		ds.logger.Info("Skipping low-confidence printer",
			zap.String("address", discovered.DeviceAddress),
			zap.Float64("confidence", discovered.Confidence),
		)
		return
	}

	if _, err := ds.printers.AttachDiscovered(context.Background(), discovered); err != nil {
		ds.logger.Warn("Failed to attach discovered printer",
			zap.String("address", discovered.DeviceAddress),
			zap.Error(err))
	}
}

// handleDetach is the hotplug callback for vanished printers
func (ds *DiscoveryService) handleDetach(discovered *model.DiscoveredPrinter) {
	ds.printers.Detach(discovered.DeviceAddress)
}
