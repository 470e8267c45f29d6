// internal/discovery/scanner.go

// Package discovery finds attached receipt printers over USB, serial
// and the local network, and watches for hotplug changes.
package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-agent/internal/model"
)

// DeviceScanner probes one transport for attached printers
type DeviceScanner interface {
	Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error)
	GetScannerType() string
	IsAvailable() bool
}

// ScannerManager runs all registered scanners
type ScannerManager struct {
	scanners map[string]DeviceScanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[string]DeviceScanner),
		logger:   logger,
	}
}

// RegisterScanner registers a device scanner
func (sm *ScannerManager) RegisterScanner(scanner DeviceScanner) {
	scannerType := scanner.GetScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll scans all registered scanner types. A failing scanner is
// logged and skipped; the others still report.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	var allPrinters []*model.DiscoveredPrinter

	for scannerType, scanner := range sm.scanners {
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", scannerType))
			continue
		}

		printers, err := scanner.Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		allPrinters = append(allPrinters, printers...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("printers_found", len(printers)),
		)
	}

	return allPrinters, nil
}

// ScanByType scans a specific scanner type
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*model.DiscoveredPrinter, error) {
	scanner, exists := sm.scanners[scannerType]
	if !exists {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}
	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}
	return scanner.Scan(ctx)
}

// GetAvailableScanners returns list of available scanner types
func (sm *ScannerManager) GetAvailableScanners() []string {
	var available []string
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	return available
}

// Monitor emulates hotplug events by re-scanning on an interval and
// diffing against the previous result. udev netlink events are not
// portable; a periodic scan over the same transports is.
type Monitor struct {
	manager  *ScannerManager
	interval time.Duration
	logger   *zap.Logger

	mutex    sync.Mutex
	known    map[string]*model.DiscoveredPrinter
	onAttach func(*model.DiscoveredPrinter)
	onDetach func(*model.DiscoveredPrinter)
}

// NewMonitor creates a hotplug monitor over the given manager
func NewMonitor(manager *ScannerManager, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		manager:  manager,
		interval: interval,
		logger:   logger,
		known:    make(map[string]*model.DiscoveredPrinter),
	}
}

// OnAttach sets the callback for newly appeared printers
func (m *Monitor) OnAttach(fn func(*model.DiscoveredPrinter)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onAttach = fn
}

// OnDetach sets the callback for disappeared printers
func (m *Monitor) OnDetach(fn func(*model.DiscoveredPrinter)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onDetach = fn
}

// Run scans immediately and then on every tick until the context is
// cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("Hotplug monitor started", zap.Duration("interval", m.interval))

	m.rescan(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Hotplug monitor stopped")
			return
		case <-ticker.C:
			m.rescan(ctx)
		}
	}
}

// rescan diffs the current scan against the known set and fires the
// attach/detach callbacks.
func (m *Monitor) rescan(ctx context.Context) {
	printers, err := m.manager.ScanAll(ctx)
	if err != nil {
		m.logger.Error("Hotplug rescan failed", zap.Error(err))
		return
	}

	current := make(map[string]*model.DiscoveredPrinter, len(printers))
	for _, printer := range printers {
		current[printer.DeviceAddress] = printer
	}

	m.mutex.Lock()
	var attached, detached []*model.DiscoveredPrinter
	for address, printer := range current {
		if _, ok := m.known[address]; !ok {
			attached = append(attached, printer)
		}
	}
	for address, printer := range m.known {
		if _, ok := current[address]; !ok {
			detached = append(detached, printer)
		}
	}
	m.known = current
	onAttach, onDetach := m.onAttach, m.onDetach
	m.mutex.Unlock()

	for _, printer := range attached {
		m.logger.Info("Printer attached",
			zap.String("address", printer.DeviceAddress),
			zap.String("model", printer.Model))
		if onAttach != nil {
			onAttach(printer)
		}
	}
	for _, printer := range detached {
		m.logger.Info("Printer detached",
			zap.String("address", printer.DeviceAddress),
			zap.String("model", printer.Model))
		if onDetach != nil {
			onDetach(printer)
		}
	}
}
