// internal/protocol/protocol.go

// Package protocol provides write sinks for physical receipt
// printers: USB, serial, raw TCP and character-device file.
package protocol

import (
	"context"
	"errors"
	"time"

	"printer-agent/internal/model"
)

// ErrDeviceAbsent marks failures caused by the device not being
// present at all (unplugged, path missing), as opposed to a present
// device refusing the write. Callers use it to decide between
// retrying the job and dropping the printer.
var ErrDeviceAbsent = errors.New("device absent")

// DeviceProtocol represents a communication channel to a printer
type DeviceProtocol interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Write sends a rendered byte stream to the device. Short writes
	// are errors; thermal printers cannot recover a truncated
	// command stream.
	Write(ctx context.Context, data []byte) (int, error)

	// Protocol information
	GetProtocolType() model.ConnectionType

	// Health check
	Ping(ctx context.Context) error
}

// ProtocolStats provides connection-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// SerialConfig configures a serial connection
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
}

// USBConfig configures a USB connection
type USBConfig struct {
	VendorID  string
	ProductID string
	Interface int
	Endpoint  int
	Timeout   time.Duration
}

// TCPConfig configures a raw TCP (JetDirect port 9100) connection
type TCPConfig struct {
	Host         string
	Port         int
	Timeout      time.Duration
	WriteTimeout time.Duration
	KeepAlive    bool
}

// FileConfig configures a character-device file connection such as
// /dev/usb/lp0
type FileConfig struct {
	Path string
}
