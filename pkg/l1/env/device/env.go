// Package device sets up the registry environment for a scanner.
package device

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/comm"
	"github.com/robotalks/radar.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/radar.go/pkg/l1/env"
)

// Config names the scanner and the broker it registers with.
type Config struct {
	Info l1.DeviceInfo

	// MQTTBrokerURL is e.g. mqtt://host:1883/radar/. Empty runs the
	// scanner standalone.
	MQTTBrokerURL string
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/radar/",
}

func init() {
	if val, ok := os.LookupEnv("RADAR_MQTT_URL"); ok {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("RADAR_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	} else {
		defaultConfig.Info.Ref.ID = env.MachineID()
	}
}

// SetupFlags binds the -type, -id and -mqtt flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Device type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Device ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to run standalone")
}

// Default is the config flags and environment write into.
func Default() *Config {
	return &defaultConfig
}

// SetDeviceType is called from a main package init to name what it runs.
func SetDeviceType(typ string, meta l1.DeviceMeta) {
	defaultConfig.Info.Ref.Type = typ
	defaultConfig.Info.Meta = meta
}

// Env holds the registrars events are published to.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
}

// NewConfig copies Default.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewEnv creates Env from config. Without any registry the device
// still runs and its events go nowhere.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("device: invalid ref %q", c.Info.Ref.Name())
	}
	e := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("device: registrar %s: %w", c.MQTTBrokerURL, err)
		}
		e.Registrar.Add(reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	if len(e.Registrar.Registrars) == 0 {
		glog.Infof("%s runs standalone", c.Info.Ref.Name())
	}
	return e, nil
}

// MustNewEnv is NewEnv exiting the process on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		glog.Exit(err)
	}
	return e
}

// AddToLoop implements LoopAdder. Commands no controller takes are
// rejected.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar, &comm.UnsupportedCommands{})
}
