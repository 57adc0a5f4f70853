package framework

import (
	"context"
	"time"
)

// Named is implemented by components reporting a name in logs.
type Named interface {
	Name() string
}

// Runnable is a background task owned by a Loop or a Runner.
type Runnable interface {
	Run(context.Context) error
}

// Message is anything posted into the loop: inbound commands, sensor
// readings, events waiting to be published.
type Message interface {
	NewMessage() Message
}

// Controller is one step executed on every loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc adapts a func to Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// PriorityLevels is the number of levels. Iterations run controllers
// level by level, lowest first, in the order they were added.
const PriorityLevels int = 16

const (
	// PrLvSense reads inputs such as sensors and inbound lines.
	PrLvSense int = 4
	// PrLvControl runs the state machines.
	PrLvControl int = 8
	// PrLvActuate drives outputs.
	PrLvActuate int = 12
	// PrLvPostProc publishes what the iteration produced.
	PrLvPostProc int = PriorityLevels - 2
	// PrLvIdle does housekeeping such as expiring commands.
	PrLvIdle int = PriorityLevels - 1
)

// ControlContext is what a Controller sees of the current iteration.
type ControlContext interface {
	// Time is the iteration time, fixed for all controllers.
	Time() time.Time
	Context() context.Context
	PriorityLevel() int
	// Messages holds what was posted before the iteration started.
	Messages() MessageStore
	// PostRun queues one-shot hooks after the current level. Hooks
	// queued from a hook run in the next iteration.
	PostRun(hooks ...Controller)
	// WakeAfter bounds the wait before the next iteration to d. The
	// shortest request of an iteration wins.
	WakeAfter(d time.Duration)

	LoopControl
}

// LoopControl is safe to call from any goroutine.
type LoopControl interface {
	PostRunAt(priorityLevel int, hooks ...Controller)
	PostMessage(Message)
	// TriggerNext starts the next iteration without waiting.
	TriggerNext()
}

// MessageStore is the inbox of an iteration.
type MessageStore interface {
	ProcessMessages(MessageProcessor)
	MessageAppender
}

// MessageAppender adds messages for controllers running later in the
// iteration.
type MessageAppender interface {
	AddMessages(msgs ...Message)
}

// MessageProcessor visits the messages of a store in order.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc adapts a func to MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the cursor of ProcessMessages.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the current message from the store.
	MessageTaken()
	// StopProcessing ends the visit after the current message.
	StopProcessing()

	MessageAppender
}
