package mqtt

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/comm"
)

// DefaultDiscoverTimeout is how long Discover collects retained meta.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector finds scanners by their retained meta and connects to
// their cmd/msg topics.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewConnector creates a Connector for the broker at brokerURL.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{DiscoverTimeout: DefaultDiscoverTimeout, options: opts, topicPrefix: topicPrefix}, nil
}

// ParseMeta decodes a retained meta message. Empty payloads mark
// unregistered devices and report false.
func ParseMeta(topic string, payload []byte) (l1.DeviceInfo, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] != "meta" || len(payload) == 0 {
		return l1.DeviceInfo{}, false
	}
	var info l1.DeviceInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		glog.Warningf("mqtt: bad meta on %s: %v", topic, err)
	}
	info.Ref = l1.DeviceRef{Type: parts[0], ID: parts[1]}
	return info, true
}

func waitToken(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Discover implements l1.Connector. Devices are sorted by name; a
// device announced more than once keeps its latest meta.
func (c *Connector) Discover(ctx context.Context) ([]l1.DeviceInfo, error) {
	q := NewQueue(c.options, c.topicPrefix)
	if err := waitToken(ctx, q.Connect()); err != nil {
		return nil, err
	}
	defer q.Close()

	var lock sync.Mutex
	found := make(map[string]l1.DeviceInfo)
	sub := q.Sub("+/+/meta", func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			lock.Lock()
			found[info.Ref.Name()] = info
			lock.Unlock()
		}
	})
	defer sub.Close()

	wait := c.DiscoverTimeout
	if wait <= 0 {
		wait = DefaultDiscoverTimeout
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	lock.Lock()
	defer lock.Unlock()
	infos := make([]l1.DeviceInfo, 0, len(found))
	for _, info := range found {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Ref.Name() < infos[j].Ref.Name() })
	return infos, nil
}

// Connect implements l1.Connector. The returned DeviceConn receives
// replies only once added to a Loop.
func (c *Connector) Connect(ctx context.Context, ref l1.DeviceRef) (l1.DeviceConn, error) {
	q := NewQueue(c.options, c.topicPrefix)
	conn := &DeviceConn{Queue: q, rw: NewPacketReadWriter(q).ForConnector(ref)}
	conn.Init(conn.rw)
	if err := waitToken(ctx, q.Connect()); err != nil {
		q.Close()
		return nil, err
	}
	return conn, nil
}

// DeviceConn is a comm.DeviceConn on the device's cmd/msg topics.
type DeviceConn struct {
	comm.DeviceConn
	Queue *Queue

	rw *ReadWriter
}

// AddToLoop implements LoopAdder.
func (c *DeviceConn) AddToLoop(l *fx.Loop) {
	l.AddRunnable(c.rw)
	c.DeviceConn.AddToLoop(l)
}

// Close disconnects from the broker.
func (c *DeviceConn) Close() error {
	return c.Queue.Close()
}
