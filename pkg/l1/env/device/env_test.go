package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/radar.go/pkg/l1"
)

func TestNewEnv(t *testing.T) {
	conf := NewConfig()
	conf.Info.Ref = l1.DeviceRef{}
	_, err := conf.NewEnv()
	require.Error(t, err)

	conf.Info.Ref = l1.DeviceRef{Type: "radar", ID: "bench"}
	conf.MQTTBrokerURL = ""
	e, err := conf.NewEnv()
	require.NoError(t, err)
	require.Empty(t, e.Registrar.Registrars)
	require.Empty(t, e.RegistryURLs)

	conf.MQTTBrokerURL = "mqtt://localhost:1883/radar/"
	e, err = conf.NewEnv()
	require.NoError(t, err)
	require.Len(t, e.Registrar.Registrars, 1)
	require.Equal(t, []string{conf.MQTTBrokerURL}, e.RegistryURLs)
}
