package comm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

var (
	// ErrNotCommand is returned when sending a non-command as command.
	ErrNotCommand = errors.New("message is not a command")
	// ErrNotEvent is returned when sending a non-event as event.
	ErrNotEvent = errors.New("message is not an event")
)

// Pipe moves Typed messages over a PacketReadWriter. Writes are
// serialized. Inbound packets are decoded and passed to Handler.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    msgs.TypedMsgHandler

	writeLock sync.Mutex
}

// SendCommandMsg sends a command, or a reply, tagged with seq.
func (p *Pipe) SendCommandMsg(msg fx.Message, seq uint32) error {
	return p.send(msg, seq, (*msgs.Typed).IsCommand, ErrNotCommand)
}

// SendEventMsg sends an event.
func (p *Pipe) SendEventMsg(msg fx.Message) error {
	return p.send(msg, 0, (*msgs.Typed).IsEvent, ErrNotEvent)
}

func (p *Pipe) send(msg fx.Message, seq uint32, kindOK func(*msgs.Typed) bool, errKind error) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !kindOK(typed) {
		return fmt.Errorf("%w: %s", errKind, msgs.Name(msg))
	}
	typed.Sequence = seq
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable. It returns when the transport fails, with
// ctx.Err() if that happened after cancellation.
func (p *Pipe) Run(ctx context.Context) error {
	defer p.closeTransport()
	for {
		pkt, err := p.ReadWriter.ReadPacket()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err = p.receive(ctx, pkt); err != nil {
			return err
		}
	}
}

// receive drops malformed packets. An undecodable command is answered
// with CommandErr.
func (p *Pipe) receive(ctx context.Context, pkt []byte) error {
	typed, err := msgs.DecodeTyped(pkt)
	if err != nil {
		glog.Warningf("pipe: bad packet dropped: %v", err)
		return nil
	}
	msg, err := typed.Decode()
	switch {
	case err == nil:
	case typed.IsCommand() && typed.TypeID&msgs.TypeIDMaskReply == 0:
		return p.SendCommandMsg(msgs.NewCommandErr(err), typed.Sequence)
	default:
		glog.V(2).Infof("pipe: ignored %08x: %v", typed.TypeID, err)
		return nil
	}
	if p.Handler == nil {
		return nil
	}
	return p.Handler.HandleTypedMsg(ctx, msg, typed)
}

func (p *Pipe) closeTransport() {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		closer.Close()
	}
}

// AddToLoop implements LoopAdder. A transport that needs running is
// added along with the Pipe.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	switch t := p.ReadWriter.(type) {
	case fx.LoopAdder:
		loop.Add(t)
	case fx.Runnable:
		loop.AddRunnable(t)
	}
	loop.AddRunnable(p)
}
