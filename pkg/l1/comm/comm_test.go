package comm

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

type chanRW struct {
	in   <-chan []byte
	out  chan<- []byte
	done <-chan struct{}
}

func (c *chanRW) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.in:
		return pkt, nil
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *chanRW) WritePacket(pkt []byte) error {
	select {
	case c.out <- pkt:
		return nil
	case <-c.done:
		return io.ErrClosedPipe
	}
}

func packetPair(done <-chan struct{}) (*chanRW, *chanRW) {
	a2b, b2a := make(chan []byte, 4), make(chan []byte, 4)
	return &chanRW{in: b2a, out: a2b, done: done}, &chanRW{in: a2b, out: b2a, done: done}
}

func runLoop(ctx context.Context, loop *fx.Loop) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	return errCh
}

func TestRegistrarAndDeviceConn(t *testing.T) {
	done := make(chan struct{})
	devSide, connSide := packetPair(done)
	ctx, cancel := context.WithCancel(context.Background())

	var reg Registrar
	reg.Init(devSide)
	devLoop := &fx.Loop{Interval: 10 * time.Millisecond}
	devLoop.Add(&reg, &UnsupportedCommands{})
	devLoop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg)
			if !ok {
				return
			}
			if _, ok := cmd.Command.Msg().(*msgs.ScanStatusQuery); ok {
				mctx.MessageTaken()
				cmd.Command.Done(&msgs.ScanStatus{State: "scanning", Counter: 3})
			}
		}))
		return nil
	}))

	events := make(chan fx.Message, 1)
	var conn DeviceConn
	conn.Init(connSide)
	conn.Events = func(msg fx.Message) { events <- msg }
	connLoop := &fx.Loop{Interval: 10 * time.Millisecond}
	connLoop.Add(&conn)

	devErr, connErr := runLoop(ctx, devLoop), runLoop(ctx, connLoop)

	res := <-conn.DoCommand(&msgs.ScanStatusQuery{}).ResultChan()
	require.NoError(t, res.Err)
	require.Equal(t, &msgs.ScanStatus{State: "scanning", Counter: 3}, res.Msg)

	res = <-conn.DoCommand(&msgs.CommandOK{}).ResultChan()
	require.EqualError(t, res.Err, msgs.ErrUnsupportedCommand.Error())

	require.NoError(t, reg.SendEvent(ctx, &msgs.ScanReading{Cycle: 1, Distance: 17, Direction: "forward"}))
	select {
	case msg := <-events:
		require.Equal(t, &msgs.ScanReading{Cycle: 1, Distance: 17, Direction: "forward"}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}

	require.ErrorIs(t, reg.SendEvent(ctx, &msgs.ScanStatus{}), ErrNotEvent)

	cancel()
	close(done)
	require.ErrorIs(t, <-devErr, context.Canceled)
	require.ErrorIs(t, <-connErr, context.Canceled)
}

func TestDeviceConnExpires(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	_, connSide := packetPair(done)
	var conn DeviceConn
	conn.Init(connSide)
	conn.Expiration = time.Millisecond

	loop := fx.NewLoop()
	loop.Add(&conn)
	f := conn.DoCommand(&msgs.ScanStatusQuery{})
	loop.RunIteration(context.Background(), time.Now().Add(time.Second))
	res := <-f.ResultChan()
	require.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestRegistrarMux(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	a, aPeer := packetPair(done)
	b, bPeer := packetPair(done)
	var ra, rb Registrar
	ra.Init(a)
	rb.Init(b)
	mux := &RegistrarMux{}
	mux.Add(&ra, &rb)
	require.NoError(t, mux.SendEvent(context.Background(), &msgs.ScannerReady{}))
	for _, peer := range []*chanRW{aPeer, bPeer} {
		pkt, err := peer.ReadPacket()
		require.NoError(t, err)
		typed, err := msgs.DecodeTyped(pkt)
		require.NoError(t, err)
		require.Equal(t, msgs.ScannerReadyTypeID, typed.TypeID)
	}
}
