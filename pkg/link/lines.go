package link

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
)

// DefaultLineQueue is the number of inbound lines kept until polled.
const DefaultLineQueue = 16

// MaxLineLength bounds an inbound line. Longer runs are discarded up to
// the next newline.
const MaxLineLength = 4096

// ReadLines calls fn with every line of r, trailing CR/LF removed, until
// r fails or fn returns an error. EOF ends without error.
func ReadLines(r io.Reader, fn func(string) error) error {
	br := bufio.NewReaderSize(r, MaxLineLength)
	skipping := false
	for {
		chunk, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if !skipping {
				glog.Warningf("link: inbound line over %d bytes discarded", MaxLineLength)
			}
			skipping = true
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if skipping {
			skipping = false
		} else if len(chunk) > 0 {
			if ferr := fn(strings.TrimRight(string(chunk), "\r\n")); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			return nil
		}
	}
}

// Lines reads inbound lines in the background and hands them out
// without blocking. The reader waits while the queue is full.
type Lines struct {
	Reader io.Reader

	ch          chan string
	discard     chan struct{}
	discardOnce sync.Once
}

// NewLines creates Lines reading r with a queue of depth lines.
func NewLines(r io.Reader, depth int) *Lines {
	if depth <= 0 {
		depth = DefaultLineQueue
	}
	return &Lines{Reader: r, ch: make(chan string, depth), discard: make(chan struct{})}
}

// Name implements Named.
func (l *Lines) Name() string {
	return "link.lines"
}

// Poll returns the oldest complete line, if any.
func (l *Lines) Poll() (string, bool) {
	select {
	case line := <-l.ch:
		return line, true
	default:
		return "", false
	}
}

// Discard stops queueing. Lines read afterwards are dropped quietly.
func (l *Lines) Discard() {
	l.discardOnce.Do(func() { close(l.discard) })
}

// Run implements Runnable. A reader that is an io.Closer is closed on
// cancellation only, as it is usually the port telemetry writes to.
func (l *Lines) Run(ctx context.Context) error {
	fn := func() error {
		return ReadLines(l.Reader, func(line string) error {
			select {
			case <-l.discard:
				glog.V(3).Infof("link: discarded %q", line)
				return nil
			default:
			}
			select {
			case l.ch <- line:
			case <-l.discard:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}
	if closer, ok := l.Reader.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, fn)
	}
	return fx.RunWithContext(ctx, fn)
}
