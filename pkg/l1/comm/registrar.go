package comm

import (
	"context"

	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

// Registrar is the device end of a Pipe. Commands are posted to the
// loop as l1.CommandMsg and answered through the same Pipe.
type Registrar struct {
	pipe Pipe
}

// Init binds the Registrar to rw.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(r.deliver)
}

func (r *Registrar) deliver(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if !typed.IsCommand() {
		glog.V(2).Infof("registrar: ignored %s", msgs.Name(msg))
		return nil
	}
	ctl := fx.LoopCtlFrom(ctx)
	ctl.PostMessage(&l1.CommandMsg{Command: &pendingCommand{
		msg:   msg,
		reply: func(res fx.Message) error { return r.pipe.SendCommandMsg(res, typed.Sequence) },
	}})
	ctl.TriggerNext()
	return nil
}

// SendEvent implements l1.Registrar.
func (r *Registrar) SendEvent(_ context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

type pendingCommand struct {
	msg   fx.Message
	reply func(fx.Message) error
}

func (c *pendingCommand) Msg() fx.Message           { return c.msg }
func (c *pendingCommand) Done(res fx.Message) error { return c.reply(res) }

// RegistrarMux publishes every event to all Registrars, e.g. one per
// registry URL. An empty mux runs the device standalone.
type RegistrarMux struct {
	Registrars []l1.Registrar
}

// Add appends registrars.
func (m *RegistrarMux) Add(regs ...l1.Registrar) {
	m.Registrars = append(m.Registrars, regs...)
}

// SendEvent implements l1.Registrar. Every registrar is tried.
func (m *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, reg := range m.Registrars {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (m *RegistrarMux) AddToLoop(loop *fx.Loop) {
	for _, reg := range m.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			loop.Add(adder)
		}
	}
}

// UnsupportedCommands runs last and rejects the commands no controller
// took in this iteration.
type UnsupportedCommands struct{}

// Control implements Controller.
func (UnsupportedCommands) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmd, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		mctx.MessageTaken()
		glog.V(1).Infof("registrar: unsupported %s", msgs.Name(cmd.Command.Msg()))
		errs.Add(cmd.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)))
	}))
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (u *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, u)
}
