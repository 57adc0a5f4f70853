// Package hw wires the scanner to its board: GPIO lines of the
// ultrasonic module and the H-bridge, the I2C LCD and the host line.
package hw

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/radar.go/pkg/display"
	"github.com/robotalks/radar.go/pkg/link"
)

// Config names the board resources. Pin names are resolved through
// gpioreg, e.g. GPIO23.
type Config struct {
	Trigger string `yaml:"trigger"`
	Echo    string `yaml:"echo"`
	Dir1    string `yaml:"dir1"`
	Dir2    string `yaml:"dir2"`
	// Enable is optional when the H-bridge enable is hard-wired.
	Enable string `yaml:"enable"`

	// I2CBus is the bus name for i2creg, empty for the first bus.
	I2CBus  string `yaml:"i2c_bus"`
	LCDAddr uint16 `yaml:"lcd_addr"`
	LCDCols int    `yaml:"lcd_cols"`
	LCDRows int    `yaml:"lcd_rows"`

	Port link.PortOptions `yaml:"port"`

	// Sim replaces the board with the simulated platform.
	Sim bool `yaml:"sim"`
}

var (
	defaultConfig = Config{
		Trigger: "GPIO23",
		Echo:    "GPIO24",
		Dir1:    "GPIO17",
		Dir2:    "GPIO27",
		Enable:  "GPIO18",
		LCDAddr: display.DefaultLCDAddr,
		LCDCols: 16,
		LCDRows: 2,
		Port: link.PortOptions{
			Device:   "/dev/ttyS0",
			BaudRate: link.DefaultBaudRate,
		},
	}

	configFile string
)

func init() {
	if val := os.Getenv("RADAR_SERIAL_PORT"); val != "" {
		defaultConfig.Port.Device = val
	}
	if val := os.Getenv("RADAR_HW_CONFIG"); val != "" {
		configFile = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "hw-config", configFile, "Board config YAML, flags override it")
	flag.StringVar(&defaultConfig.Port.Device, "serial", defaultConfig.Port.Device, "Host line serial device, - for stdin/stdout")
	flag.IntVar(&defaultConfig.Port.BaudRate, "baud", defaultConfig.Port.BaudRate, "Host line baud rate")
	flag.StringVar(&defaultConfig.I2CBus, "i2c-bus", defaultConfig.I2CBus, "I2C bus of the LCD")
	flag.BoolVar(&defaultConfig.Sim, "sim", defaultConfig.Sim, "Run on the simulated platform")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config from the defaults, the YAML file given by
// -hw-config and then the flags explicitly set.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	if configFile == "" {
		return &conf, nil
	}
	if err := conf.LoadFile(configFile); err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "serial":
			conf.Port.Device = defaultConfig.Port.Device
		case "baud":
			conf.Port.BaudRate = defaultConfig.Port.BaudRate
		case "i2c-bus":
			conf.I2CBus = defaultConfig.I2CBus
		case "sim":
			conf.Sim = defaultConfig.Sim
		}
	})
	return &conf, nil
}

// LoadFile overlays the YAML file on c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("hw: read config: %w", err)
	}
	return c.Load(data)
}

// Load overlays the YAML document on c.
func (c *Config) Load(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("hw: parse config: %w", err)
	}
	return nil
}

// Validate checks the config can be opened.
func (c *Config) Validate() error {
	if c.Sim {
		return nil
	}
	for name, pin := range map[string]string{
		"trigger": c.Trigger,
		"echo":    c.Echo,
		"dir1":    c.Dir1,
		"dir2":    c.Dir2,
	} {
		if pin == "" {
			return fmt.Errorf("hw: %s pin required", name)
		}
	}
	if c.LCDCols <= 0 || c.LCDRows <= 0 {
		return fmt.Errorf("hw: invalid LCD geometry %dx%d", c.LCDCols, c.LCDRows)
	}
	_, err := c.Port.Normalize()
	return err
}
