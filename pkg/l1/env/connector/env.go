// Package connector sets up Connectors for scanner consumers.
package connector

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/comm/mqtt"
)

// DefaultDeviceType is the type scanners register with.
const DefaultDeviceType = "radar"

// Config selects the registry and, optionally, the scanner to attach.
type Config struct {
	Ref l1.DeviceRef

	// RegistryURL is the broker, e.g. mqtt://host:1883/radar/.
	RegistryURL string
}

var defaultConfig = Config{
	Ref:         l1.DeviceRef{Type: DefaultDeviceType},
	RegistryURL: "mqtt://localhost:1883/radar/",
}

func init() {
	if val := os.Getenv("RADAR_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("RADAR_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("RADAR_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags binds the -device-type, -device-id and -registry flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "device-type", defaultConfig.Ref.Type, "Device type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "device-id", defaultConfig.Ref.ID, "Device ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "Device registry URL.")
}

// Default is the config flags and environment write into.
func Default() *Config {
	return &defaultConfig
}

// NewConfig copies Default.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector returns the Connector for RegistryURL. MQTT is the only
// registry; ws and wss reach the broker over websockets.
func (c *Config) NewConnector() (l1.Connector, error) {
	u, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("registry %q: %w", c.RegistryURL, err)
	}
	switch u.Scheme {
	case "mqtt", "tcp", "ws", "wss":
		return mqtt.NewConnector(c.RegistryURL)
	}
	return nil, fmt.Errorf("registry %q: unsupported scheme %q", c.RegistryURL, u.Scheme)
}
