// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"printer-agent/internal/model"
)

const usbClassPrinter = 7

// Scanner implements USB printer discovery over gousb
type Scanner struct {
	logger       *zap.Logger
	knownDevices *DeviceDatabase
	timeout      time.Duration
}

// Config for USB scanner
type Config struct {
	ScanTimeout time.Duration `json:"scan_timeout"`
}

// NewScanner creates a new USB scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{ScanTimeout: 10 * time.Second}
	}
	return &Scanner{
		logger:       logger.With(zap.String("scanner", "usb")),
		knownDevices: NewDeviceDatabase(),
		timeout:      config.ScanTimeout,
	}
}

// GetScannerType returns scanner type identifier
func (s *Scanner) GetScannerType() string {
	return "usb"
}

// IsAvailable checks if USB scanning is available on this system
func (s *Scanner) IsAvailable() bool {
	testCtx := gousb.NewContext()
	defer testCtx.Close()

	_, err := testCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return false
	})
	if err != nil {
		s.logger.Debug("USB subsystem not accessible", zap.Error(err))
		return false
	}
	return true
}

// Scan enumerates USB devices and reports thermal printers: known
// vendor/product pairs with high confidence, printer-class devices
// and known-vendor unknown-product devices with less.
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	startTime := time.Now()
	s.logger.Debug("Starting USB printer scan")

	scanCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return s.shouldExamineDevice(desc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	defer s.closeAllDevices(devices)

	var discovered []*model.DiscoveredPrinter
	for _, device := range devices {
		select {
		case <-scanCtx.Done():
			return discovered, scanCtx.Err()
		default:
		}

		if printer := s.identifyPrinter(device); printer != nil {
			discovered = append(discovered, printer)
		}
	}

	discovered = dedupe(discovered)

	s.logger.Debug("USB scan completed",
		zap.Int("printers_found", len(discovered)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)

	return discovered, nil
}

// shouldExamineDevice filters for known printer vendors and the USB
// printer device class.
func (s *Scanner) shouldExamineDevice(desc *gousb.DeviceDesc) bool {
	if s.knownDevices.IsKnownVendor(desc.Vendor) {
		return true
	}
	if desc.Class == usbClassPrinter {
		return true
	}
	// Composite devices report class per interface
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == usbClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// identifyPrinter builds a discovery record for one device
func (s *Scanner) identifyPrinter(device *gousb.Device) *model.DiscoveredPrinter {
	desc := device.Desc
	if desc == nil {
		return nil
	}

	address := fmt.Sprintf("usb:%04x:%04x:bus%d-addr%d",
		uint16(desc.Vendor), uint16(desc.Product), desc.Bus, desc.Address)

	printer := &model.DiscoveredPrinter{
		DeviceAddress:  address,
		ConnectionType: model.ConnectionTypeUSB,
		Config: model.JSONObject{
			"vendor_id":  fmt.Sprintf("%04x", uint16(desc.Vendor)),
			"product_id": fmt.Sprintf("%04x", uint16(desc.Product)),
			"interface":  0,
			"endpoint":   1,
		},
		ScannerType:  "usb",
		DiscoveredAt: time.Now().UTC(),
	}

	vendorInfo := s.knownDevices.GetVendorInfo(desc.Vendor)
	switch {
	case vendorInfo != nil && vendorInfo.GetProductInfo(desc.Product) != nil:
		productInfo := vendorInfo.GetProductInfo(desc.Product)
		printer.Vendor = vendorInfo.Name
		printer.Model = productInfo.Model
		printer.Confidence = productInfo.Confidence
	case vendorInfo != nil:
		// Known printer vendor, unknown product
		printer.Vendor = vendorInfo.Name
		printer.Model = vendorInfo.GenericModel(desc.Product)
		printer.Confidence = 0.5
	default:
		// Printer class only
		printer.Vendor = s.manufacturerString(device)
		printer.Model = fmt.Sprintf("USB-%04X:%04X", uint16(desc.Vendor), uint16(desc.Product))
		printer.Confidence = 0.4
	}

	printer.Name = strings.TrimSpace(printer.Vendor + " " + printer.Model)
	return printer
}

// manufacturerString reads the manufacturer descriptor, tolerating
// devices that refuse string requests.
func (s *Scanner) manufacturerString(device *gousb.Device) string {
	manufacturer, err := device.Manufacturer()
	if err != nil || manufacturer == "" {
		return "Unknown"
	}
	return strings.TrimSpace(manufacturer)
}

// closeAllDevices safely closes all opened USB devices
func (s *Scanner) closeAllDevices(devices []*gousb.Device) {
	for i, device := range devices {
		if device != nil {
			if err := device.Close(); err != nil {
				s.logger.Warn("Failed to close USB device",
					zap.Int("device_index", i),
					zap.Error(err),
				)
			}
		}
	}
}

// dedupe removes duplicate device addresses, keeping the higher
// confidence entry first.
func dedupe(printers []*model.DiscoveredPrinter) []*model.DiscoveredPrinter {
	seen := make(map[string]bool)
	var unique []*model.DiscoveredPrinter
	for _, printer := range printers {
		if !seen[printer.DeviceAddress] {
			seen[printer.DeviceAddress] = true
			unique = append(unique, printer)
		}
	}

	for i := 0; i < len(unique)-1; i++ {
		for j := i + 1; j < len(unique); j++ {
			if unique[i].Confidence < unique[j].Confidence {
				unique[i], unique[j] = unique[j], unique[i]
			}
		}
	}
	return unique
}
