// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"printer-agent/internal/model"
)

// CreateProtocol creates a connection based on connection type and a
// loose config map. Numeric values arrive as float64 when the config
// came through JSON, so both shapes are accepted.
func CreateProtocol(connectionType model.ConnectionType, config map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	switch connectionType {
	case model.ConnectionTypeUSB:
		return createUSBProtocol(config, logger)
	case model.ConnectionTypeSerial:
		return createSerialProtocol(config, logger)
	case model.ConnectionTypeTCP:
		return createTCPProtocol(config, logger)
	case model.ConnectionTypeFile:
		return createFileProtocol(config, logger)
	default:
		return nil, fmt.Errorf("unsupported protocol type: %s", connectionType)
	}
}

// createUSBProtocol creates a USB connection
func createUSBProtocol(config map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	usbConfig := &USBConfig{
		Interface: 0,
		Endpoint:  1,
		Timeout:   5 * time.Second,
	}

	if vendorID, ok := config["vendor_id"].(string); ok {
		usbConfig.VendorID = vendorID
	} else {
		return nil, fmt.Errorf("USB vendor_id is required")
	}

	if productID, ok := config["product_id"].(string); ok {
		usbConfig.ProductID = productID
	} else {
		return nil, fmt.Errorf("USB product_id is required")
	}

	if intf, ok := config["interface"]; ok {
		usbConfig.Interface = asInt(intf, usbConfig.Interface)
	}
	if endpoint, ok := config["endpoint"]; ok {
		usbConfig.Endpoint = asInt(endpoint, usbConfig.Endpoint)
	}
	if timeout, ok := config["timeout"].(string); ok {
		if dur, err := time.ParseDuration(timeout); err == nil {
			usbConfig.Timeout = dur
		}
	}

	logger.Info("Creating USB protocol",
		zap.String("vendor_id", usbConfig.VendorID),
		zap.String("product_id", usbConfig.ProductID),
		zap.Int("interface", usbConfig.Interface),
	)

	return NewUSBConnection(usbConfig, logger), nil
}

// createSerialProtocol creates a serial connection
func createSerialProtocol(config map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	serialConfig := &SerialConfig{
		BaudRate: 9600,
		DataBits: 8,
		StopBits: 1,
		Parity:   "none",
		Timeout:  5 * time.Second,
	}

	if port, ok := config["port"].(string); ok {
		serialConfig.Port = port
	} else {
		return nil, fmt.Errorf("serial port is required")
	}

	if baudRate, ok := config["baud_rate"]; ok {
		serialConfig.BaudRate = asInt(baudRate, serialConfig.BaudRate)
	}
	if dataBits, ok := config["data_bits"]; ok {
		serialConfig.DataBits = asInt(dataBits, serialConfig.DataBits)
	}
	if stopBits, ok := config["stop_bits"]; ok {
		serialConfig.StopBits = asInt(stopBits, serialConfig.StopBits)
	}
	if parity, ok := config["parity"].(string); ok {
		serialConfig.Parity = parity
	}
	if timeout, ok := config["timeout"].(string); ok {
		if dur, err := time.ParseDuration(timeout); err == nil {
			serialConfig.Timeout = dur
		}
	}

	logger.Info("Creating serial protocol",
		zap.String("port", serialConfig.Port),
		zap.Int("baud_rate", serialConfig.BaudRate),
	)

	return NewSerialConnection(serialConfig, logger), nil
}

// createTCPProtocol creates a TCP connection
func createTCPProtocol(config map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	tcpConfig := &TCPConfig{
		Port:         9100,
		Timeout:      10 * time.Second,
		WriteTimeout: 30 * time.Second,
		KeepAlive:    true,
	}

	if host, ok := config["host"].(string); ok {
		tcpConfig.Host = host
	} else {
		return nil, fmt.Errorf("TCP host is required")
	}

	if port, ok := config["port"]; ok {
		tcpConfig.Port = asInt(port, tcpConfig.Port)
	}
	if keepAlive, ok := config["keep_alive"].(bool); ok {
		tcpConfig.KeepAlive = keepAlive
	}
	if timeout, ok := config["timeout"].(string); ok {
		if dur, err := time.ParseDuration(timeout); err == nil {
			tcpConfig.Timeout = dur
		}
	}
	if writeTimeout, ok := config["write_timeout"].(string); ok {
		if dur, err := time.ParseDuration(writeTimeout); err == nil {
			tcpConfig.WriteTimeout = dur
		}
	}

	logger.Info("Creating TCP protocol",
		zap.String("host", tcpConfig.Host),
		zap.Int("port", tcpConfig.Port),
	)

	return NewTCPConnection(tcpConfig, logger), nil
}

// createFileProtocol creates a character-device connection
func createFileProtocol(config map[string]interface{}, logger *zap.Logger) (DeviceProtocol, error) {
	path, ok := config["path"].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("device path is required")
	}

	logger.Info("Creating file protocol", zap.String("path", path))

	return NewFileConnection(&FileConfig{Path: path}, logger), nil
}

// ValidateConfig validates configuration for a specific protocol type
func ValidateConfig(connectionType model.ConnectionType, config map[string]interface{}) error {
	switch connectionType {
	case model.ConnectionTypeUSB:
		if _, ok := config["vendor_id"].(string); !ok {
			return fmt.Errorf("USB vendor_id is required")
		}
		if _, ok := config["product_id"].(string); !ok {
			return fmt.Errorf("USB product_id is required")
		}
		return nil
	case model.ConnectionTypeSerial:
		return validateSerialConfig(config)
	case model.ConnectionTypeTCP:
		return validateTCPConfig(config)
	case model.ConnectionTypeFile:
		if path, ok := config["path"].(string); !ok || path == "" {
			return fmt.Errorf("device path is required")
		}
		return nil
	default:
		return fmt.Errorf("unsupported connection type: %s", connectionType)
	}
}

// validateSerialConfig validates serial configuration
func validateSerialConfig(config map[string]interface{}) error {
	if _, ok := config["port"].(string); !ok {
		return fmt.Errorf("serial port is required")
	}

	if baudRate, ok := config["baud_rate"]; ok {
		rate := asInt(baudRate, -1)
		if rate < 0 {
			return fmt.Errorf("invalid baud_rate type")
		}

		validRates := []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}
		valid := false
		for _, validRate := range validRates {
			if rate == validRate {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid baud rate: %d", rate)
		}
	}

	return nil
}

// validateTCPConfig validates TCP configuration
func validateTCPConfig(config map[string]interface{}) error {
	if _, ok := config["host"].(string); !ok {
		return fmt.Errorf("TCP host is required")
	}

	if port, ok := config["port"]; ok {
		portNum := asInt(port, -1)
		if portNum < 1 || portNum > 65535 {
			return fmt.Errorf("invalid port number: %d", portNum)
		}
	}

	return nil
}

// asInt extracts an int from a loose config value
func asInt(value interface{}, fallback int) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
