package comm

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

// DefaultCommandExpiration is how long a command waits for its reply.
const DefaultCommandExpiration = 1 * time.Second

// DeviceConn is the consumer end of a Pipe. Replies are matched to
// commands by sequence. A command without reply fails with
// context.DeadlineExceeded after Expiration.
type DeviceConn struct {
	Expiration time.Duration
	// Events, when set, receives events from the device.
	Events func(fx.Message)

	pipe    Pipe
	lock    sync.Mutex
	lastSeq uint32
	pending map[uint32]*commandFuture
}

// Init binds the DeviceConn to rw.
func (c *DeviceConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.receive)
	c.pending = make(map[uint32]*commandFuture)
}

// DoCommand implements l1.DeviceConn.
func (c *DeviceConn) DoCommand(msg fx.Message) l1.CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.lastSeq++
	if c.lastSeq == 0 {
		c.lastSeq = 1
	}
	f := newFuture(c.lastSeq, time.Now().Add(c.Expiration))
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.resolve(l1.Result{Err: err})
		return f
	}
	c.pending[f.seq] = f
	return f
}

// AddToLoop implements LoopAdder.
func (c *DeviceConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.expire))
}

func (c *DeviceConn) receive(_ context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		if c.Events != nil {
			c.Events(msg)
		}
		return nil
	}
	c.lock.Lock()
	f, ok := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.lock.Unlock()
	if !ok {
		glog.V(2).Infof("deviceconn: late reply %d dropped", typed.Sequence)
		return nil
	}
	res := l1.Result{Msg: msg}
	if cmdErr, isErr := msg.(*msgs.CommandErr); isErr {
		res.Err = cmdErr
	}
	f.resolve(res)
	return nil
}

func (c *DeviceConn) expire(cc fx.ControlContext) error {
	now := cc.Time()
	c.lock.Lock()
	defer c.lock.Unlock()
	for seq, f := range c.pending {
		if now.Before(f.deadline) {
			continue
		}
		delete(c.pending, seq)
		f.resolve(l1.Result{Err: context.DeadlineExceeded})
	}
	return nil
}

type commandFuture struct {
	seq      uint32
	deadline time.Time
	result   chan l1.Result
}

func newFuture(seq uint32, deadline time.Time) *commandFuture {
	return &commandFuture{seq: seq, deadline: deadline, result: make(chan l1.Result, 1)}
}

func (f *commandFuture) resolve(res l1.Result) {
	f.result <- res
	close(f.result)
}

// ResultChan implements l1.CommandFuture.
func (f *commandFuture) ResultChan() <-chan l1.Result {
	return f.result
}
