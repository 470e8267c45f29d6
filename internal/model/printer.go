// internal/model/printer.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// PrinterStatus represents the current status of an attached printer
type PrinterStatus string

const (
	PrinterStatusOnline     PrinterStatus = "ONLINE"
	PrinterStatusOffline    PrinterStatus = "OFFLINE"
	PrinterStatusError      PrinterStatus = "ERROR"
	PrinterStatusConnecting PrinterStatus = "CONNECTING"
)

// ConnectionType represents how the printer is connected
type ConnectionType string

const (
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeTCP    ConnectionType = "TCP"
	ConnectionTypeFile   ConnectionType = "FILE"
)

// BackendConnectionType maps a local connection type to the numeric
// code the ordering backend expects (1=network, 2=usb).
func (c ConnectionType) BackendConnectionType() int {
	if c == ConnectionTypeTCP {
		return 1
	}
	return 2
}

// JSONObject is a loose JSON object used for connection configs and
// event payloads.
type JSONObject map[string]interface{}

// Printer represents a physical receipt printer attached to this agent
type Printer struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Model            string         `json:"model"`
	DeviceAddress    string         `json:"device_address"`
	ConnectionType   ConnectionType `json:"connection_type"`
	ConnectionConfig JSONObject     `json:"connection_config"`
	BranchPrinterID  string         `json:"branch_printer_guid,omitempty"`
	Status           PrinterStatus  `json:"status"`
	IsDefault        bool           `json:"is_default"`
	LastSeen         *time.Time     `json:"last_seen,omitempty"`
	AttachedAt       time.Time      `json:"attached_at"`
}

// IsOnline checks if the printer is currently usable
func (p *Printer) IsOnline() bool {
	return p.Status == PrinterStatusOnline
}

// Connection config structures for the protocol factory

type USBConfig struct {
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
	Interface int    `json:"interface"`
}

type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

type TCPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type FileConfig struct {
	Path string `json:"path"`
}

// DiscoveredPrinter is a scan result before the printer is attached
type DiscoveredPrinter struct {
	Name           string         `json:"name"`
	Model          string         `json:"model"`
	Vendor         string         `json:"vendor"`
	DeviceAddress  string         `json:"device_address"`
	ConnectionType ConnectionType `json:"connection_type"`
	Config         JSONObject     `json:"config"`
	Confidence     float64        `json:"confidence"`
	ScannerType    string         `json:"scanner_type"`
	DiscoveredAt   time.Time      `json:"discovered_at"`
}
