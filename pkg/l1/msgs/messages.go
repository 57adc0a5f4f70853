package msgs

import (
	"google.golang.org/protobuf/types/known/structpb"

	fx "github.com/robotalks/radar.go/pkg/framework"
)

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupScan    uint32 = 0x00010000
	GroupSweep   uint32 = 0x00020000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID  uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID uint32 = GroupCommand | TypeIDMaskReply | 0x0001
)

func init() {
	Register(&CommandOK{}, &CommandErr{})
}

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct{}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// MarshalStruct implements SerializableMessage.
func (m *CommandOK) MarshalStruct() (*structpb.Struct, error) { return &structpb.Struct{}, nil }

// UnmarshalStruct implements SerializableMessage.
func (m *CommandOK) UnmarshalStruct(*structpb.Struct) error { return nil }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	Message string
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return NewCommandErrFromMsg(err.Error())
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{Message: message}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// MarshalStruct implements SerializableMessage.
func (m *CommandErr) MarshalStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"message": m.Message})
}

// UnmarshalStruct implements SerializableMessage.
func (m *CommandErr) UnmarshalStruct(s *structpb.Struct) error {
	m.Message = stringField(s, "message")
	return nil
}

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

func numberField(s *structpb.Struct, key string) float64 {
	return s.GetFields()[key].GetNumberValue()
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}
