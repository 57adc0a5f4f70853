// Package handshake holds the scanner until the host announces itself.
package handshake

import (
	"context"
	"strings"
	"time"

	"github.com/golang/glog"
)

// Token is the readiness line sent by the host.
const Token = "RDY"

// DefaultPollInterval is the cadence of Await.
const DefaultPollInterval = 100 * time.Millisecond

// LineSource provides complete inbound lines without blocking.
type LineSource interface {
	Poll() (string, bool)
}

// Discarder is a LineSource that can stop buffering once the gate opens.
type Discarder interface {
	Discard()
}

// Matches reports whether line, without trailing CR/LF, is exactly
// expected.
func Matches(line, expected string) bool {
	return strings.TrimRight(line, "\r\n") == expected
}

// Gate releases once a line matching Expected arrives. There is no
// timeout.
type Gate struct {
	Expected string
	Lines    LineSource
	// OnRelease is invoked exactly once, when the gate opens.
	OnRelease func()

	released bool
}

// New creates a Gate waiting for Token.
func New(lines LineSource, onRelease func()) *Gate {
	return &Gate{Expected: Token, Lines: lines, OnRelease: onRelease}
}

// Released reports whether the gate has opened.
func (g *Gate) Released() bool {
	return g.released
}

// Poll consumes at most one line and reports whether the gate is open.
func (g *Gate) Poll() bool {
	if g.released {
		return true
	}
	line, ok := g.Lines.Poll()
	if !ok {
		return false
	}
	if !Matches(line, g.Expected) {
		glog.V(2).Infof("handshake: ignored %q", line)
		return false
	}
	g.released = true
	glog.Info("handshake: host ready")
	if d, ok := g.Lines.(Discarder); ok {
		d.Discard()
	}
	if g.OnRelease != nil {
		g.OnRelease()
	}
	return true
}

// Await is the blocking form of Poll for callers outside a control
// loop. It polls every interval until the gate opens or ctx is done.
// onPoll, if not nil, runs before each poll.
func (g *Gate) Await(ctx context.Context, interval time.Duration, onPoll func()) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if onPoll != nil {
			onPoll()
		}
		if g.Poll() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
