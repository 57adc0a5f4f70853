package host

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

func TestParseTelegram(t *testing.T) {
	cases := []struct {
		line string
		want Telegram
		err  bool
	}{
		{"FWR\r", Telegram{Kind: Measuring, Text: "FWR"}, false},
		{"\rCDR\n", Telegram{Kind: DirectionChange, Text: "CDR"}, false},
		{"Distance: 17.000000", Telegram{Kind: Reading, Distance: 17, Text: "Distance: 17.000000"}, false},
		{"Distance:0.5", Telegram{Kind: Reading, Distance: 0.5, Text: "Distance:0.5"}, false},
		{"Scanner: waiting for RDY", Telegram{Kind: Info, Text: "Scanner: waiting for RDY"}, false},
		{"Distance: abc", Telegram{Kind: Info, Text: "Distance: abc"}, true},
		{" \r\n", Telegram{Kind: Info}, true},
	}
	for _, c := range cases {
		got, err := ParseTelegram(c.line)
		if c.err {
			require.Error(t, err, c.line)
		} else {
			require.NoError(t, err, c.line)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Errorf("ParseTelegram(%q) mismatch (-want +got):\n%s", c.line, diff)
		}
	}
	_, err := ParseTelegram("")
	require.ErrorIs(t, err, ErrEmptyLine)
}

func TestViewFollowsSweep(t *testing.T) {
	v := NewView()
	s := &Session{View: v}
	for _, line := range []string{
		"FWR", "Distance: 10.0",
		"FWR", "Distance: 20.0",
		"CDR",
		"FWR", "Distance: 30.0",
		"FWR", "Distance: 40.0",
		"FWR", "Distance: 50.0",
	} {
		s.Apply(line)
	}
	snap := v.Snapshot()
	require.Equal(t, Steps-1, snap.Step)
	require.Equal(t, -1, snap.Direction)
	want := make([]float64, Steps)
	want[1], want[2], want[0], want[Steps-1] = 30, 20, 40, 50
	if diff := cmp.Diff(want, snap.Distances); diff != "" {
		t.Errorf("distances (-want +got):\n%s", diff)
	}

	pts := v.Points()
	require.InDelta(t, 40, pts[0].X, 1e-9)
	require.InDelta(t, 0, pts[0].Y, 1e-9)
	require.InDelta(t, 50*cosDeg(356), pts[Steps-1].X, 1e-9)
}

func TestViewIgnoresInfo(t *testing.T) {
	v := NewView()
	require.False(t, v.Apply(Telegram{Kind: Info, Text: "hello"}))
	require.True(t, v.Apply(Telegram{Kind: Measuring}))
	require.Equal(t, 1, v.Step())
}

type fakePort struct {
	io.Reader
	out bytes.Buffer
}

func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }

func TestSessionRun(t *testing.T) {
	port := &fakePort{Reader: strings.NewReader(
		"Scanner: waiting for RDY\r\nScanner: ready signal received\r\nFWR\r\nDistance: 17.000000\r\ngarbage\r\n\r\n")}
	s := NewSession(port)
	s.ResetDelay = time.Millisecond
	var kinds []Kind
	s.Observe(func(t Telegram, _ *View) { kinds = append(kinds, t.Kind) })

	require.NoError(t, s.Run(context.Background()))
	require.Equal(t, "RDY\r\n", port.out.String())
	require.Equal(t, []Kind{Measuring, Reading}, kinds)
	require.Equal(t, 17.0, s.View.Snapshot().Distances[1])
}

func TestSessionCanceledBeforeToken(t *testing.T) {
	port := &fakePort{Reader: strings.NewReader("")}
	s := NewSession(port)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Run(ctx), context.Canceled)
	require.Empty(t, port.out.String())
}

func TestFeed(t *testing.T) {
	feed := NewFeed()
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	v := NewView()
	v.Apply(Telegram{Kind: Reading, Distance: 12})
	require.NoError(t, feed.Publish(v.Snapshot()))

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	receive := func() *msgs.SweepSnapshot {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var pkt []byte
		require.NoError(t, websocket.Message.Receive(conn, &pkt))
		typed, err := msgs.DecodeTyped(pkt)
		require.NoError(t, err)
		msg, err := typed.Decode()
		require.NoError(t, err)
		return msg.(*msgs.SweepSnapshot)
	}

	if diff := cmp.Diff(v.Snapshot(), receive()); diff != "" {
		t.Errorf("latest snapshot (-want +got):\n%s", diff)
	}

	require.Eventually(t, func() bool { return feed.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)
	v.Apply(Telegram{Kind: Measuring})
	v.Apply(Telegram{Kind: Reading, Distance: 34})
	feed.Update(Telegram{Kind: Reading}, v)
	if diff := cmp.Diff(v.Snapshot(), receive()); diff != "" {
		t.Errorf("update (-want +got):\n%s", diff)
	}
}

func cosDeg(d float64) float64 {
	return math.Cos(d * math.Pi / 180)
}
