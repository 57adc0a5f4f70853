package msgs

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/golang/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	fx "github.com/robotalks/radar.go/pkg/framework"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Envelope field names.
const (
	fieldTypeID   = "type_id"
	fieldSequence = "seq"
	fieldBody     = "body"
)

// Typed wraps a message body with type information.
type Typed struct {
	TypeID   uint32
	Sequence uint32
	Body     *structpb.Struct
}

// TypedMsgHandler handles a decoded message.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, fx.Message, *Typed) error
}

// HandleTypedMsgFunc is func form of TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, fx.Message, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg fx.Message, typed *Typed) error {
	return f(ctx, msg, typed)
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

var (
	// ErrNotSerializable indicates the message is not serializable.
	ErrNotSerializable = errors.New("not serializable message")
	// ErrUnsupportedCommand indicates the command is unsupported.
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrBadEnvelope indicates the packet is not a Typed envelope.
	ErrBadEnvelope = errors.New("bad envelope")
)

// SerializableMessage can be serialized over the wire.
type SerializableMessage interface {
	fx.Message
	TypeID() uint32
	// MarshalStruct converts the message into a protobuf Struct.
	MarshalStruct() (*structpb.Struct, error)
	// UnmarshalStruct fills the message from a protobuf Struct.
	UnmarshalStruct(*structpb.Struct) error
}

// MessageTypes maps type IDs to message prototypes. Packages defining
// messages register them in init.
var MessageTypes = map[uint32]SerializableMessage{}

// Register adds message prototypes to MessageTypes.
func Register(protos ...SerializableMessage) {
	for _, p := range protos {
		if _, exist := MessageTypes[p.TypeID()]; exist {
			panic(fmt.Sprintf("type %x already registered", p.TypeID()))
		}
		MessageTypes[p.TypeID()] = p
	}
}

// TypedFrom creates a Typed from a serializable message.
func TypedFrom(msg fx.Message) (*Typed, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	body, err := s.MarshalStruct()
	if err != nil {
		return nil, err
	}
	return &Typed{TypeID: s.TypeID(), Body: body}, nil
}

// Decode decodes the body into the registered message.
func (p *Typed) Decode() (fx.Message, error) {
	msgType, ok := MessageTypes[p.TypeID]
	if !ok {
		return nil, &ErrUnknownType{TypeID: p.TypeID}
	}
	msg := msgType.NewMessage()
	body := p.Body
	if body == nil {
		body = &structpb.Struct{}
	}
	if err := msg.(SerializableMessage).UnmarshalStruct(body); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Typed to bytes.
func (p *Typed) Encode() ([]byte, error) {
	env := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTypeID:   structpb.NewNumberValue(float64(p.TypeID)),
		fieldSequence: structpb.NewNumberValue(float64(p.Sequence)),
	}}
	if p.Body != nil {
		env.Fields[fieldBody] = structpb.NewStructValue(p.Body)
	}
	return proto.Marshal(env)
}

// Kind gets message kind from type ID.
func (p *Typed) Kind() uint32 {
	return p.TypeID & TypeIDMaskKind
}

// IsCommand determines if the message is a command.
func (p *Typed) IsCommand() bool {
	return p.Kind() == TypeIDKindCommand
}

// IsEvent determines if the message is an event.
func (p *Typed) IsEvent() bool {
	return p.Kind() == TypeIDKindEvent
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var env structpb.Struct
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	typeID, ok := env.Fields[fieldTypeID]
	if !ok {
		return nil, ErrBadEnvelope
	}
	typed := &Typed{
		TypeID:   uint32(typeID.GetNumberValue()),
		Sequence: uint32(env.Fields[fieldSequence].GetNumberValue()),
	}
	if body, ok := env.Fields[fieldBody]; ok {
		typed.Body = body.GetStructValue()
	}
	return typed, nil
}

// EncodeMsg is a shortcut of TypedFrom followed by Encode.
func EncodeMsg(msg fx.Message) ([]byte, error) {
	typed, err := TypedFrom(msg)
	if err != nil {
		return nil, err
	}
	return typed.Encode()
}

// Name returns the type name of a message, e.g. ScanStatus.
func Name(msg fx.Message) string {
	return reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
}
