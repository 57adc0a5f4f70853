package msgs

import (
	"google.golang.org/protobuf/types/known/structpb"

	fx "github.com/robotalks/radar.go/pkg/framework"
)

// Scan and sweep TypeIDs.
const (
	ScanStatusQueryTypeID  uint32 = GroupScan | 0x0000
	ScanStatusTypeID       uint32 = ScanStatusQueryTypeID | TypeIDMaskReply
	ScanReadingTypeID      uint32 = TypeIDKindEvent | GroupScan | 0x0001
	DirectionChangedTypeID uint32 = TypeIDKindEvent | GroupScan | 0x0002
	ScannerReadyTypeID     uint32 = TypeIDKindEvent | GroupScan | 0x0003
	SweepSnapshotTypeID    uint32 = TypeIDKindEvent | GroupSweep | 0x0000
)

func init() {
	Register(
		&ScanStatusQuery{},
		&ScanStatus{},
		&ScanReading{},
		&DirectionChanged{},
		&ScannerReady{},
		&SweepSnapshot{},
	)
}

// ScanStatusQuery command asks for ScanStatus.
type ScanStatusQuery struct{}

// NewMessage implements Message.
func (m *ScanStatusQuery) NewMessage() fx.Message { return &ScanStatusQuery{} }

// TypeID implements SerializableMessage.
func (m *ScanStatusQuery) TypeID() uint32 { return ScanStatusQueryTypeID }

// MarshalStruct implements SerializableMessage.
func (m *ScanStatusQuery) MarshalStruct() (*structpb.Struct, error) { return &structpb.Struct{}, nil }

// UnmarshalStruct implements SerializableMessage.
func (m *ScanStatusQuery) UnmarshalStruct(*structpb.Struct) error { return nil }

// ScanStatus replies ScanStatusQuery.
type ScanStatus struct {
	State        string  `json:"state"`
	Running      bool    `json:"running"`
	Direction    string  `json:"direction"`
	Counter      uint32  `json:"counter"`
	Cycles       uint64  `json:"cycles"`
	LastDistance float64 `json:"last_distance"`
}

// NewMessage implements Message.
func (m *ScanStatus) NewMessage() fx.Message { return &ScanStatus{} }

// TypeID implements SerializableMessage.
func (m *ScanStatus) TypeID() uint32 { return ScanStatusTypeID }

// MarshalStruct implements SerializableMessage.
func (m *ScanStatus) MarshalStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"state":         m.State,
		"running":       m.Running,
		"direction":     m.Direction,
		"counter":       m.Counter,
		"cycles":        m.Cycles,
		"last_distance": m.LastDistance,
	})
}

// UnmarshalStruct implements SerializableMessage.
func (m *ScanStatus) UnmarshalStruct(s *structpb.Struct) error {
	m.State = stringField(s, "state")
	m.Running = boolField(s, "running")
	m.Direction = stringField(s, "direction")
	m.Counter = uint32(numberField(s, "counter"))
	m.Cycles = uint64(numberField(s, "cycles"))
	m.LastDistance = numberField(s, "last_distance")
	return nil
}

// ScanReading event is sent after each completed cycle.
type ScanReading struct {
	Cycle     uint64  `json:"cycle"`
	Distance  float64 `json:"distance"`
	Direction string  `json:"direction"`
}

// NewMessage implements Message.
func (m *ScanReading) NewMessage() fx.Message { return &ScanReading{} }

// TypeID implements SerializableMessage.
func (m *ScanReading) TypeID() uint32 { return ScanReadingTypeID }

// MarshalStruct implements SerializableMessage.
func (m *ScanReading) MarshalStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"cycle":     m.Cycle,
		"distance":  m.Distance,
		"direction": m.Direction,
	})
}

// UnmarshalStruct implements SerializableMessage.
func (m *ScanReading) UnmarshalStruct(s *structpb.Struct) error {
	m.Cycle = uint64(numberField(s, "cycle"))
	m.Distance = numberField(s, "distance")
	m.Direction = stringField(s, "direction")
	return nil
}

// DirectionChanged event is sent when the sweep reverses.
type DirectionChanged struct {
	Cycle     uint64 `json:"cycle"`
	Direction string `json:"direction"`
}

// NewMessage implements Message.
func (m *DirectionChanged) NewMessage() fx.Message { return &DirectionChanged{} }

// TypeID implements SerializableMessage.
func (m *DirectionChanged) TypeID() uint32 { return DirectionChangedTypeID }

// MarshalStruct implements SerializableMessage.
func (m *DirectionChanged) MarshalStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"cycle":     m.Cycle,
		"direction": m.Direction,
	})
}

// UnmarshalStruct implements SerializableMessage.
func (m *DirectionChanged) UnmarshalStruct(s *structpb.Struct) error {
	m.Cycle = uint64(numberField(s, "cycle"))
	m.Direction = stringField(s, "direction")
	return nil
}

// ScannerReady event is sent once the host handshake completes.
type ScannerReady struct{}

// NewMessage implements Message.
func (m *ScannerReady) NewMessage() fx.Message { return &ScannerReady{} }

// TypeID implements SerializableMessage.
func (m *ScannerReady) TypeID() uint32 { return ScannerReadyTypeID }

// MarshalStruct implements SerializableMessage.
func (m *ScannerReady) MarshalStruct() (*structpb.Struct, error) { return &structpb.Struct{}, nil }

// UnmarshalStruct implements SerializableMessage.
func (m *ScannerReady) UnmarshalStruct(*structpb.Struct) error { return nil }

// SweepSnapshot event carries the host's view of a full sweep.
type SweepSnapshot struct {
	Step      int       `json:"step"`
	Direction int       `json:"direction"`
	StepDeg   float64   `json:"step_deg"`
	Distances []float64 `json:"distances"`
}

// NewMessage implements Message.
func (m *SweepSnapshot) NewMessage() fx.Message { return &SweepSnapshot{} }

// TypeID implements SerializableMessage.
func (m *SweepSnapshot) TypeID() uint32 { return SweepSnapshotTypeID }

// MarshalStruct implements SerializableMessage.
func (m *SweepSnapshot) MarshalStruct() (*structpb.Struct, error) {
	distances := make([]interface{}, len(m.Distances))
	for n, d := range m.Distances {
		distances[n] = d
	}
	return structpb.NewStruct(map[string]interface{}{
		"step":      m.Step,
		"direction": m.Direction,
		"step_deg":  m.StepDeg,
		"distances": distances,
	})
}

// UnmarshalStruct implements SerializableMessage.
func (m *SweepSnapshot) UnmarshalStruct(s *structpb.Struct) error {
	m.Step = int(numberField(s, "step"))
	m.Direction = int(numberField(s, "direction"))
	m.StepDeg = numberField(s, "step_deg")
	values := s.GetFields()["distances"].GetListValue().GetValues()
	m.Distances = make([]float64, len(values))
	for n, v := range values {
		m.Distances[n] = v.GetNumberValue()
	}
	return nil
}
