// Package sh is the operator shell for scanners registered on the
// broker. It finds scanners, attaches to one and queries it.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1"
	env "github.com/robotalks/radar.go/pkg/l1/env/connector"
)

const (
	shellKey   = "$shell"
	idlePrompt = "radar> "
)

// CommandTimeout bounds the wait for a reply.
var CommandTimeout = 2 * time.Second

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{&DiscoverCmd, &ConnectCmd, &DisconnectCmd}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Run the given command and exit.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print replies as JSON.")
}

// AddCmds registers more commands. Call it from init.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// Shell is the ishell front end with at most one attached scanner.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Config      *env.Config

	ishell   *ishell.Shell
	attached *attachment
}

type attachment struct {
	ref    l1.DeviceRef
	conn   l1.DeviceConn
	cancel context.CancelFunc
}

// New creates a shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Config:      conf,
		ishell:      ishell.New(),
	}
	s.ishell.Set(shellKey, s)
	s.ishell.SetPrompt(idlePrompt)
	for _, cmd := range commands {
		s.ishell.AddCmd(cmd)
	}
	return s
}

func shellOf(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Attached returns the ref of the attached scanner.
func (s *Shell) Attached() (l1.DeviceRef, bool) {
	if s.attached == nil {
		return l1.DeviceRef{}, false
	}
	return s.attached.ref, true
}

// ParseRef reads "ID", "TYPE/ID" or "TYPE ID" with defType for the
// first form.
func ParseRef(defType string, args []string) (l1.DeviceRef, error) {
	switch len(args) {
	case 1:
		if typ, id, ok := strings.Cut(args[0], "/"); ok {
			return l1.DeviceRef{Type: typ, ID: id}, nil
		}
		return l1.DeviceRef{Type: defType, ID: args[0]}, nil
	case 2:
		return l1.DeviceRef{Type: args[0], ID: args[1]}, nil
	}
	return l1.DeviceRef{}, fmt.Errorf("expect ID, TYPE/ID or TYPE ID")
}

// Discover lists the registered devices of the configured type.
func (s *Shell) Discover(ctx context.Context) ([]l1.DeviceInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	found, err := connector.Discover(ctx)
	if err != nil {
		return nil, err
	}
	scanners := found[:0]
	for _, info := range found {
		if s.Config.Ref.Type == "" || info.Ref.Type == s.Config.Ref.Type {
			scanners = append(scanners, info)
		}
	}
	return scanners, nil
}

func (s *Shell) pick(found []l1.DeviceInfo) (l1.DeviceRef, error) {
	switch {
	case len(found) == 0:
		return l1.DeviceRef{}, fmt.Errorf("no scanner found")
	case len(found) == 1:
		return found[0].Ref, nil
	case !s.Interactive:
		return l1.DeviceRef{}, fmt.Errorf("%d scanners found, name one", len(found))
	}
	items := make([]string, len(found))
	for n, info := range found {
		items[n] = FormatInfo(info)
	}
	n := s.ishell.MultiChoice(items, "Attach to which scanner?")
	if n < 0 || n >= len(found) {
		return l1.DeviceRef{}, fmt.Errorf("no scanner chosen")
	}
	return found[n].Ref, nil
}

// Attach connects to ref and runs its connection loop until Detach.
func (s *Shell) Attach(ref l1.DeviceRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return err
	}
	s.Detach()
	loop := fx.NewLoop()
	if adder, ok := conn.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	go loop.Run(ctx)
	s.attached = &attachment{ref: ref, conn: conn, cancel: cancel}
	s.ishell.SetPrompt(ref.Name() + "> ")
	return nil
}

// Detach drops the attached scanner, if any.
func (s *Shell) Detach() {
	a := s.attached
	if a == nil {
		return
	}
	a.cancel()
	if closer, ok := a.conn.(io.Closer); ok {
		closer.Close()
	}
	s.attached = nil
	s.ishell.SetPrompt(idlePrompt)
}

// Query sends a command to the attached scanner and waits for the
// reply.
func (s *Shell) Query(cmd fx.Message) (fx.Message, error) {
	if s.attached == nil {
		return nil, fmt.Errorf("not attached")
	}
	select {
	case res := <-s.attached.conn.DoCommand(cmd).ResultChan():
		return res.Msg, res.Err
	case <-time.After(CommandTimeout):
		return nil, context.DeadlineExceeded
	}
}

// Format renders a reply for the terminal.
func (s *Shell) Format(msg fx.Message) (string, error) {
	if s.OutputJSON {
		out, err := json.Marshal(msg)
		return string(out), err
	}
	return FormatReply(msg)
}

// Run executes args as one command, or the interactive shell.
func (s *Shell) Run(args ...string) {
	if ref := s.Config.Ref; ref.IsValid() {
		if err := s.Attach(ref); err != nil {
			log.Fatalf("attach %s: %v", ref.Name(), err)
		}
	}
	switch {
	case len(args) > 0:
		if err := s.ishell.Process(args...); err != nil {
			log.Fatalln(err)
		}
	case s.Interactive:
		s.ishell.Run()
	default:
		log.Fatalln("command expected")
	}
}

// QueryCmd builds a command func sending the message from newMsg and
// printing the reply.
func QueryCmd(newMsg func(args []string) (fx.Message, error)) func(*ishell.Context) {
	return func(c *ishell.Context) {
		s := shellOf(c)
		cmd, err := newMsg(c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		reply, err := s.Query(cmd)
		if err != nil {
			c.Err(err)
			return
		}
		out, err := s.Format(reply)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(out)
	}
}

var (
	// DiscoverCmd lists registered scanners.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "list registered scanners",
		Func: func(c *ishell.Context) {
			s := shellOf(c)
			found, err := s.Discover(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, _ := json.Marshal(append([]l1.DeviceInfo{}, found...))
				c.Println(string(out))
				return
			}
			if len(found) == 0 {
				c.Println("No scanners found")
			}
			for _, info := range found {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd attaches to a scanner.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[ID | TYPE/ID | TYPE ID]",
		Func: func(c *ishell.Context) {
			s := shellOf(c)
			var ref l1.DeviceRef
			var err error
			if len(c.Args) == 0 {
				var found []l1.DeviceInfo
				if found, err = s.Discover(context.Background()); err == nil {
					ref, err = s.pick(found)
				}
			} else {
				ref, err = ParseRef(s.Config.Ref.Type, c.Args)
			}
			if err == nil {
				err = s.Attach(ref)
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd detaches from the scanner.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "detach from the scanner",
		Func: func(c *ishell.Context) {
			shellOf(c).Detach()
		},
	}
)

// Main parses flags and runs the shell.
func Main() {
	flag.Parse()
	New(env.NewConfig()).Run(flag.Args()...)
}
