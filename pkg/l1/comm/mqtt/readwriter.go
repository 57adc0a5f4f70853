package mqtt

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/radar.go/pkg/l1"
)

// DefaultPacketQueue is the number of inbound packets buffered.
const DefaultPacketQueue = 16

// ReadWriter implements PacketReadWriter on a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	done     chan struct{}
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, DefaultPacketQueue),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForConnector subscribes <ref>/msg and publishes to <ref>/cmd.
func (p *ReadWriter) ForConnector(ref l1.DeviceRef) *ReadWriter {
	prefix := ref.Name()
	return p.WithTopics(prefix+"/msg", prefix+"/cmd")
}

// ForDevice subscribes <ref>/cmd and publishes to <ref>/msg.
func (p *ReadWriter) ForDevice(ref l1.DeviceRef) *ReadWriter {
	prefix := ref.Name()
	return p.WithTopics(prefix+"/cmd", prefix+"/msg")
}

// ReadPacket implements PacketReader. It returns io.EOF once Run stops.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer sub.Close()
	defer close(p.done)
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	default:
		glog.Warningf("mqtt: %s inbound queue full, packet dropped", topic)
	}
}
