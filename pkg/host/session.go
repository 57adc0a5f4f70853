package host

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/handshake"
	"github.com/robotalks/radar.go/pkg/link"
)

// DefaultResetDelay is the wait for the scanner to boot after the port
// opens.
const DefaultResetDelay = 2 * time.Second

// UpdateFunc observes the view after each applied telegram.
type UpdateFunc func(Telegram, *View)

// Session drives a scanner from the host end of the line.
type Session struct {
	Port       io.ReadWriter
	View       *View
	ResetDelay time.Duration
	OnUpdate   []UpdateFunc
}

// NewSession creates a Session on port.
func NewSession(port io.ReadWriter) *Session {
	return &Session{Port: port, View: NewView(), ResetDelay: DefaultResetDelay}
}

// Observe adds an observer.
func (s *Session) Observe(fn UpdateFunc) *Session {
	s.OnUpdate = append(s.OnUpdate, fn)
	return s
}

// Name implements Named.
func (s *Session) Name() string {
	return "host.session"
}

// Run implements Runnable: wait the reset delay, send the token, then
// follow the telegrams until the line closes or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.ResetDelay):
	}
	if _, err := io.WriteString(s.Port, handshake.Token+link.LineEnd); err != nil {
		return err
	}
	glog.Info("host: sent ready token")
	if closer, ok := s.Port.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, s.follow)
	}
	return fx.RunWithContext(ctx, s.follow)
}

func (s *Session) follow() error {
	return link.ReadLines(s.Port, func(line string) error {
		s.Apply(line)
		return nil
	})
}

// Apply handles one line. Bad lines are logged and skipped.
func (s *Session) Apply(line string) {
	t, err := ParseTelegram(line)
	switch {
	case errors.Is(err, ErrEmptyLine):
		return
	case err != nil:
		glog.Warningf("host: %v", err)
		return
	}
	if !s.View.Apply(t) {
		glog.V(1).Infof("host: scanner says %q", t.Text)
		return
	}
	glog.V(2).Infof("host: %s step %d", t.Kind, s.View.Step())
	for _, fn := range s.OnUpdate {
		fn(t, s.View)
	}
}
