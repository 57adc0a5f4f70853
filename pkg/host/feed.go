package host

import (
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/radar.go/pkg/l1/comm"
	ws "github.com/robotalks/radar.go/pkg/l1/comm/websocket"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

// Feed pushes SweepSnapshot packets to websocket clients. A new client
// first gets the latest snapshot.
type Feed struct {
	lock    sync.Mutex
	clients map[comm.PacketWriter]struct{}
	latest  []byte
}

// NewFeed creates a Feed.
func NewFeed() *Feed {
	return &Feed{clients: make(map[comm.PacketWriter]struct{})}
}

// Handler serves the websocket endpoint.
func (f *Feed) Handler() http.Handler {
	return websocket.Handler(f.serve)
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.clients)
}

// Publish sends snap to every client, dropping those failing.
func (f *Feed) Publish(snap *msgs.SweepSnapshot) error {
	pkt, err := msgs.EncodeMsg(snap)
	if err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.latest = pkt
	for c := range f.clients {
		if err := c.WritePacket(pkt); err != nil {
			glog.V(1).Infof("feed: drop client: %v", err)
			delete(f.clients, c)
		}
	}
	return nil
}

// Update is an UpdateFunc publishing the view.
func (f *Feed) Update(_ Telegram, v *View) {
	if err := f.Publish(v.Snapshot()); err != nil {
		glog.Warningf("feed: %v", err)
	}
}

func (f *Feed) serve(conn *websocket.Conn) {
	client := ws.New(conn)
	f.lock.Lock()
	if f.latest != nil {
		if err := client.WritePacket(f.latest); err != nil {
			f.lock.Unlock()
			return
		}
	}
	f.clients[client] = struct{}{}
	f.lock.Unlock()
	glog.V(1).Infof("feed: client %s", client.RemoteAddr())

	if err := client.Drain(); err != nil {
		glog.V(1).Infof("feed: client %s: %v", client.RemoteAddr(), err)
	}
	f.lock.Lock()
	delete(f.clients, client)
	f.lock.Unlock()
}
