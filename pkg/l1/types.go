// Package l1 defines how a scanner is reached by remote consumers:
// the scanner registers itself with a registry and publishes events,
// consumers discover it and send commands.
package l1

import (
	"context"

	fx "github.com/robotalks/radar.go/pkg/framework"
)

// Registrar registers a scanner to a registry. It integrates with the
// framework so commands arrive as loop messages.
type Registrar interface {
	// SendEvent publishes an event.
	SendEvent(context.Context, fx.Message) error
}

// Command represents a received command to be processed.
type Command interface {
	Msg() fx.Message
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a Message.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// DeviceRef is a reference to a registered device.
type DeviceRef struct {
	// Type is the device type, e.g. radar.
	Type string `json:"type"`
	// ID is unique ID of the device.
	ID string `json:"id"`
}

// Name retrieves the name from ref.
func (r DeviceRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates DeviceRef is valid.
func (r DeviceRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// DeviceMeta provides metadata of a device.
type DeviceMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// DeviceInfo provides information of a device.
type DeviceInfo struct {
	Ref  DeviceRef  `json:"ref"`
	Meta DeviceMeta `json:"meta"`
}

// Connector is used by consumers to connect to a device.
type Connector interface {
	// Discover enumerates registered devices.
	Discover(context.Context) ([]DeviceInfo, error)
	// Connect connects to the specified device.
	Connect(context.Context, DeviceRef) (DeviceConn, error)
}

// DeviceConn is the connection to a device.
type DeviceConn interface {
	// DoCommand executes a command.
	DoCommand(fx.Message) CommandFuture
}

// Result represents result of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture is the future of sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}
