package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

type otherMsg struct{}

func (m *otherMsg) NewMessage() Message { return &otherMsg{} }

func TestLoopRunsControllersByPriority(t *testing.T) {
	var order []string
	loop := NewLoop()
	loop.AddController(PrLvActuate, ControlFunc(func(ControlContext) error {
		order = append(order, "actuate")
		return nil
	}))
	loop.AddController(PrLvSense, ControlFunc(func(ControlContext) error {
		order = append(order, "sense")
		return nil
	}))
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		order = append(order, "control")
		cc.PostRun(ControlFunc(func(ControlContext) error {
			order = append(order, "post")
			return nil
		}))
		return errors.New("logged only")
	}))
	loop.RunIteration(context.Background(), time.Now())
	require.Equal(t, []string{"sense", "control", "post", "actuate"}, order)

	order = nil
	loop.RunIteration(context.Background(), time.Now())
	require.Equal(t, []string{"sense", "control", "post", "actuate"}, order)
}

func TestLoopWakeAfter(t *testing.T) {
	loop := &Loop{Interval: 70 * time.Millisecond}
	require.Equal(t, 70*time.Millisecond, loop.RunIteration(context.Background(), time.Now()))

	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.WakeAfter(60 * time.Millisecond)
		cc.WakeAfter(100 * time.Millisecond)
		return nil
	}))
	require.Equal(t, 60*time.Millisecond, loop.RunIteration(context.Background(), time.Now()))

	require.Equal(t, DefaultInterval, (&Loop{}).RunIteration(context.Background(), time.Now()))
}

func TestLoopMessages(t *testing.T) {
	loop := NewLoop()
	var taken []int
	var others int
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if m, ok := mctx.CurrentMessage().(*testMsg); ok {
				mctx.MessageTaken()
				taken = append(taken, m.val)
				if m.val == 2 {
					mctx.StopProcessing()
				}
			}
		}))
		return nil
	}))
	loop.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			others++
		}))
		return nil
	}))

	loop.PostMessage(&testMsg{val: 1})
	loop.PostMessage(&otherMsg{})
	loop.PostMessage(&testMsg{val: 2})
	loop.PostMessage(&testMsg{val: 3})
	loop.RunIteration(context.Background(), time.Now())
	require.Equal(t, []int{1, 2}, taken)
	// otherMsg and the message after StopProcessing fall through.
	require.Equal(t, 2, others)

	taken, others = nil, 0
	loop.RunIteration(context.Background(), time.Now())
	require.Empty(t, taken)
	require.Zero(t, others)
}

func TestLoopRunTriggerNext(t *testing.T) {
	loop := &Loop{Interval: time.Hour}
	iterCh := make(chan time.Time, 4)
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		iterCh <- cc.Time()
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	loop.AddRunnable(RunFunc(func(ctx context.Context) error {
		lc := LoopCtlFrom(ctx)
		lc.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	select {
	case <-iterCh:
	case <-time.After(5 * time.Second):
		t.Fatal("iteration not triggered")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}
