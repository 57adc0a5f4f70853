package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the iteration period when nothing asks for an
// earlier wake-up.
const DefaultInterval = 100 * time.Millisecond

// Loop is a cooperative scheduler. Controllers run one iteration at a
// time on the loop goroutine, ordered by priority level, so state they
// own needs no locking.
type Loop struct {
	Interval time.Duration

	levels  [PriorityLevels]level
	runners []Runnable

	inboxLock sync.Mutex
	inbox     []Message

	wakeUpCh chan struct{}
}

// LoopAdder wires a component into a Loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type level struct {
	controllers []Controller

	hooksLock sync.Mutex
	hooks     []Controller
}

type loopCtxKeyType struct{}

var loopCtxKey loopCtxKeyType

// LoopCtlFrom returns the LoopControl of the loop running ctx.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop with DefaultInterval.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add calls AddToLoop of every adder.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at priorityLevel. A Controller
// which is also a Runnable gets started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lv := &l.levels[priorityLevel]
	lv.controllers = append(lv.controllers, ctls...)
	for _, ctl := range ctls {
		if r, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, r)
		}
	}
	return l
}

// AddRunnable adds background tasks started by Run.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. Runnables get a context carrying the
// LoopControl and are waited for before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	tasks := NewRunnerWith(context.WithValue(ctx, loopCtxKey, LoopControl(l)))
	tasks.Go(l.runners...)
	defer tasks.Wait()

	timer := time.NewTimer(l.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-l.wakeUpCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		timer.Reset(l.RunIteration(ctx, time.Now()))
	}
}

// RunIteration runs every level once at now and returns the wait
// before the next iteration.
func (l *Loop) RunIteration(ctx context.Context, now time.Time) time.Duration {
	iter := &iteration{Loop: l, time: now}
	l.inboxLock.Lock()
	iter.messages, l.inbox = l.inbox, nil
	l.inboxLock.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtxKey, ControlContext(iter))
	for n := range l.levels {
		iter.priorityLevel = n
		l.levels[n].run(iter)
	}
	if iter.wakeAfter > 0 {
		return iter.wakeAfter
	}
	return l.interval()
}

func (l *Loop) interval() time.Duration {
	if l.Interval > 0 {
		return l.Interval
	}
	return DefaultInterval
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	lv := &l.levels[priorityLevel]
	lv.hooksLock.Lock()
	lv.hooks = append(lv.hooks, hooks...)
	lv.hooksLock.Unlock()
}

// PostMessage implements LoopControl. The message is seen from the
// next iteration.
func (l *Loop) PostMessage(msg Message) {
	l.inboxLock.Lock()
	l.inbox = append(l.inbox, msg)
	l.inboxLock.Unlock()
}

// TriggerNext implements LoopControl. It is a no-op until Run starts.
func (l *Loop) TriggerNext() {
	if l.wakeUpCh == nil {
		return
	}
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (lv *level) run(iter *iteration) {
	runAll(iter, lv.controllers)
	lv.hooksLock.Lock()
	hooks := lv.hooks
	lv.hooks = nil
	lv.hooksLock.Unlock()
	runAll(iter, hooks)
}

func runAll(iter *iteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("level %d: %v", iter.priorityLevel, err)
		}
	}
}

// iteration is the ControlContext and MessageStore of one RunIteration.
type iteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	priorityLevel int
	messages      []Message
	wakeAfter     time.Duration
}

func (t *iteration) Context() context.Context { return t.ctx }
func (t *iteration) Time() time.Time          { return t.time }
func (t *iteration) PriorityLevel() int       { return t.priorityLevel }
func (t *iteration) Messages() MessageStore   { return t }

func (t *iteration) PostRun(hooks ...Controller) {
	t.PostRunAt(t.priorityLevel, hooks...)
}

func (t *iteration) WakeAfter(d time.Duration) {
	if d <= 0 {
		d = time.Millisecond
	}
	if t.wakeAfter == 0 || d < t.wakeAfter {
		t.wakeAfter = d
	}
}

func (t *iteration) AddMessages(msgs ...Message) {
	t.messages = append(t.messages, msgs...)
}

// ProcessMessages visits messages in order. Untaken messages stay, ahead
// of those added during the visit.
func (t *iteration) ProcessMessages(proc MessageProcessor) {
	pending := t.messages
	t.messages = nil
	kept := make([]Message, 0, len(pending))
	for n, msg := range pending {
		mc := &messageCursor{iter: t, msg: msg}
		proc.ProcessMessage(mc)
		if !mc.taken {
			kept = append(kept, msg)
		}
		if mc.stop {
			kept = append(kept, pending[n+1:]...)
			break
		}
	}
	t.messages = append(kept, t.messages...)
}

type messageCursor struct {
	iter  *iteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageCursor) CurrentMessage() Message     { return c.msg }
func (c *messageCursor) MessageTaken()               { c.taken = true }
func (c *messageCursor) StopProcessing()             { c.stop = true }
func (c *messageCursor) AddMessages(msgs ...Message) { c.iter.AddMessages(msgs...) }
