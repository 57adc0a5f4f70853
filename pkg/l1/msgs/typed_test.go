package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/radar.go/pkg/framework"
)

func TestTypedEncodeDecode(t *testing.T) {
	typed, err := TypedFrom(&ScanStatus{
		State:        "scanning",
		Running:      true,
		Direction:    "reverse",
		Counter:      42,
		Cycles:       1234,
		LastDistance: 17,
	})
	require.NoError(t, err)
	require.True(t, typed.IsCommand())
	typed.Sequence = 7

	data, err := typed.Encode()
	require.NoError(t, err)
	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, ScanStatusTypeID, decoded.TypeID)
	require.Equal(t, uint32(7), decoded.Sequence)

	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.Equal(t, &ScanStatus{
		State:        "scanning",
		Running:      true,
		Direction:    "reverse",
		Counter:      42,
		Cycles:       1234,
		LastDistance: 17,
	}, msg)
	require.Equal(t, "ScanStatus", Name(msg))
}

func TestTypedKinds(t *testing.T) {
	tests := []struct {
		msg   SerializableMessage
		event bool
	}{
		{&ScanStatusQuery{}, false},
		{&ScanStatus{}, false},
		{&CommandOK{}, false},
		{&CommandErr{}, false},
		{&ScanReading{}, true},
		{&DirectionChanged{}, true},
		{&ScannerReady{}, true},
		{&SweepSnapshot{}, true},
	}
	for _, tc := range tests {
		t.Run(Name(tc.msg), func(t *testing.T) {
			typed, err := TypedFrom(tc.msg)
			require.NoError(t, err)
			require.Equal(t, tc.event, typed.IsEvent())
			require.Equal(t, !tc.event, typed.IsCommand())
			require.Same(t, MessageTypes[tc.msg.TypeID()], MessageTypes[typed.TypeID])
		})
	}
}

func TestSweepSnapshotList(t *testing.T) {
	data, err := EncodeMsg(&SweepSnapshot{Step: 3, Direction: -1, StepDeg: 4, Distances: []float64{0, 12.5, 400}})
	require.NoError(t, err)
	typed, err := DecodeTyped(data)
	require.NoError(t, err)
	msg, err := typed.Decode()
	require.NoError(t, err)
	require.Equal(t, &SweepSnapshot{Step: 3, Direction: -1, StepDeg: 4, Distances: []float64{0, 12.5, 400}}, msg)
}

func TestDecodeErrors(t *testing.T) {
	_, err := TypedFrom(&fakeMsg{})
	require.ErrorIs(t, err, ErrNotSerializable)

	_, err = (&Typed{TypeID: GroupCustom | 0x42}).Decode()
	var unknown *ErrUnknownType
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, GroupCustom|0x42, unknown.TypeID)

	_, err = DecodeTyped(nil)
	require.ErrorIs(t, err, ErrBadEnvelope)

	cmdErr := NewCommandErrFromMsg("boom")
	data, err := EncodeMsg(cmdErr)
	require.NoError(t, err)
	typed, err := DecodeTyped(data)
	require.NoError(t, err)
	msg, err := typed.Decode()
	require.NoError(t, err)
	require.EqualError(t, msg.(*CommandErr), "boom")
}

type fakeMsg struct{}

func (m *fakeMsg) NewMessage() fx.Message { return &fakeMsg{} }
