// internal/protocol/file_connection.go
package protocol

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-agent/internal/model"
)

// FileConnection implements DeviceProtocol over a character device
// file such as /dev/usb/lp0, the kernel usblp path. The device node
// only exists while the printer is plugged in, so each write opens
// the file, writes, syncs and closes it again.
type FileConnection struct {
	config *FileConfig
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  *ProtocolStats
}

// NewFileConnection creates a new character-device connection
func NewFileConnection(config *FileConfig, logger *zap.Logger) DeviceProtocol {
	return &FileConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "file"),
			zap.String("path", config.Path),
		),
		stats: &ProtocolStats{
			IsConnected: false,
		},
	}
}

// Open verifies the device node exists and is writable. The file
// itself is opened per write.
func (fc *FileConnection) Open(ctx context.Context) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	if fc.isOpen {
		return nil
	}

	info, err := os.Stat(fc.config.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s does not exist", ErrDeviceAbsent, fc.config.Path)
		}
		return fmt.Errorf("failed to stat %s: %w", fc.config.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a printer device", fc.config.Path)
	}

	fc.isOpen = true
	fc.stats.IsConnected = true
	fc.stats.LastActivity = time.Now()

	fc.logger.Info("Printer device available")
	return nil
}

// Close marks the connection closed. No file handle is held.
func (fc *FileConnection) Close() error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	fc.isOpen = false
	fc.stats.IsConnected = false
	return nil
}

// IsOpen returns whether the connection is open
func (fc *FileConnection) IsOpen() bool {
	fc.mutex.RLock()
	defer fc.mutex.RUnlock()
	return fc.isOpen
}

// Write opens the device node, writes the full byte stream, syncs
// and closes. Disappearance of the node between jobs is classified
// as device-absent so the caller can drop the printer.
func (fc *FileConnection) Write(ctx context.Context, data []byte) (int, error) {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	if !fc.isOpen {
		return 0, fmt.Errorf("printer device not open")
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	startTime := time.Now()
	file, err := os.OpenFile(fc.config.Path, os.O_WRONLY, 0)
	if err != nil {
		fc.stats.ErrorCount++
		if os.IsNotExist(err) {
			fc.stats.IsConnected = false
			return 0, fmt.Errorf("%w: %s disappeared", ErrDeviceAbsent, fc.config.Path)
		}
		if os.IsPermission(err) {
			return 0, fmt.Errorf("no permission to write %s (is the user in the lp group?): %w", fc.config.Path, err)
		}
		return 0, fmt.Errorf("failed to open %s: %w", fc.config.Path, err)
	}
	defer file.Close()

	n, err := file.Write(data)
	if err != nil {
		fc.stats.ErrorCount++
		fc.logger.Error("Device write failed", zap.Error(err))
		return n, fmt.Errorf("failed to write to %s: %w", fc.config.Path, err)
	}
	if n != len(data) {
		fc.stats.ErrorCount++
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	if err := file.Sync(); err != nil {
		fc.logger.Warn("Device sync failed", zap.Error(err))
	}

	duration := time.Since(startTime)
	fc.stats.BytesWritten += int64(len(data))
	fc.stats.OperationCount++
	fc.stats.LastActivity = time.Now()
	fc.updateAverageLatency(duration)

	fc.logger.Debug("Device write completed", zap.Int("bytes", len(data)))
	return n, nil
}

// GetProtocolType returns the protocol type
func (fc *FileConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeFile
}

// Ping checks the device node still exists
func (fc *FileConnection) Ping(ctx context.Context) error {
	if !fc.IsOpen() {
		return fmt.Errorf("printer device not open")
	}
	if _, err := os.Stat(fc.config.Path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDeviceAbsent, fc.config.Path)
		}
		return err
	}
	return nil
}

// updateAverageLatency updates the running average latency
func (fc *FileConnection) updateAverageLatency(newLatency time.Duration) {
	if fc.stats.AverageLatency == 0 {
		fc.stats.AverageLatency = newLatency
	} else {
		fc.stats.AverageLatency = (fc.stats.AverageLatency + newLatency) / 2
	}
}
