// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"printer-agent/internal/model"
)

// Scanner implements serial port printer discovery
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for serial scanner
type Config struct {
	BaudRate     int      `json:"baud_rate"`
	PortPatterns []string `json:"port_patterns"`
}

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{
			BaudRate:     9600,
			PortPatterns: defaultPortPatterns(),
		}
	}
	return &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		config: config,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan enumerates serial ports. A port that matches the printer
// patterns is reported with modest confidence; serial gives no way
// to identify the device without writing to it.
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	s.logger.Debug("Starting serial port scan")

	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}
	if len(ports) == 0 {
		return nil, nil
	}

	var discovered []*model.DiscoveredPrinter
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return discovered, ctx.Err()
		default:
		}

		if !s.matchesPattern(port) {
			continue
		}

		discovered = append(discovered, &model.DiscoveredPrinter{
			Name:           "Serial Printer " + port,
			Model:          "Serial",
			Vendor:         "Unknown",
			DeviceAddress:  port,
			ConnectionType: model.ConnectionTypeSerial,
			Config: model.JSONObject{
				"port":      port,
				"baud_rate": s.config.BaudRate,
			},
			Confidence:   0.3,
			ScannerType:  "serial",
			DiscoveredAt: time.Now().UTC(),
		})
	}

	s.logger.Debug("Serial scan completed", zap.Int("printers_found", len(discovered)))
	return discovered, nil
}

// matchesPattern filters ports by platform naming conventions
func (s *Scanner) matchesPattern(port string) bool {
	for _, pattern := range s.config.PortPatterns {
		if strings.HasPrefix(port, pattern) {
			return true
		}
	}
	return false
}

// defaultPortPatterns returns port name prefixes per platform
func defaultPortPatterns() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"COM"}
	case "darwin":
		return []string{"/dev/tty.usbserial", "/dev/cu.usbserial"}
	default:
		return []string{"/dev/ttyUSB", "/dev/ttyS", "/dev/ttyACM"}
	}
}
