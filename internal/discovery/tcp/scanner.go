// internal/discovery/tcp/scanner.go
package tcp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-agent/internal/model"
)

// jetDirectPort is the raw-socket print port nearly all network
// receipt printers listen on.
const jetDirectPort = 9100

// Scanner probes the configured subnet for printers on port 9100
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for TCP scanner
type Config struct {
	Subnet        string        `json:"subnet"` // CIDR, e.g. 192.168.1.0/24
	ConnTimeout   time.Duration `json:"connection_timeout"`
	MaxConcurrent int           `json:"max_concurrent"`
}

// NewScanner creates a new TCP scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{}
	}
	if config.ConnTimeout <= 0 {
		config.ConnTimeout = 2 * time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 32
	}
	return &Scanner{
		logger: logger.With(zap.String("scanner", "tcp")),
		config: config,
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "tcp"
}

// IsAvailable reports whether a subnet is configured. Probing a
// network nobody asked for is not a default behavior.
func (s *Scanner) IsAvailable() bool {
	return s.config.Subnet != ""
}

// Scan probes every host in the subnet on port 9100
func (s *Scanner) Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	s.logger.Debug("Starting TCP network scan", zap.String("subnet", s.config.Subnet))

	hosts, err := expandSubnet(s.config.Subnet)
	if err != nil {
		return nil, fmt.Errorf("invalid subnet %q: %w", s.config.Subnet, err)
	}

	sem := make(chan struct{}, s.config.MaxConcurrent)
	var wg sync.WaitGroup
	var mutex sync.Mutex
	var discovered []*model.DiscoveredPrinter

	for _, host := range hosts {
		select {
		case <-ctx.Done():
			return discovered, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			defer func() { <-sem }()

			if !s.probe(ctx, host) {
				return
			}
			printer := &model.DiscoveredPrinter{
				Name:           "Network Printer " + host,
				Model:          "JetDirect",
				Vendor:         "Unknown",
				DeviceAddress:  net.JoinHostPort(host, strconv.Itoa(jetDirectPort)),
				ConnectionType: model.ConnectionTypeTCP,
				Config: model.JSONObject{
					"host": host,
					"port": jetDirectPort,
				},
				Confidence:   0.6,
				ScannerType:  "tcp",
				DiscoveredAt: time.Now().UTC(),
			}

			mutex.Lock()
			discovered = append(discovered, printer)
			mutex.Unlock()
		}(host)
	}
	wg.Wait()

	s.logger.Debug("TCP scan completed", zap.Int("printers_found", len(discovered)))
	return discovered, nil
}

// probe attempts a TCP connect to the print port
func (s *Scanner) probe(ctx context.Context, host string) bool {
	dialer := &net.Dialer{Timeout: s.config.ConnTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(jetDirectPort)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// expandSubnet lists usable host addresses in a CIDR block, skipping
// the network and broadcast addresses.
func expandSubnet(cidr string) ([]string, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}

	var hosts []string
	for addr := ip.Mask(ipNet.Mask); ipNet.Contains(addr); incrementIP(addr) {
		hosts = append(hosts, addr.String())
	}
	if len(hosts) > 2 {
		hosts = hosts[1 : len(hosts)-1]
	}
	return hosts, nil
}

func incrementIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}
