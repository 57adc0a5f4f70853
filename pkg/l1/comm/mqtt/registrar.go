package mqtt

import (
	"context"
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/comm"
)

// ClientIDPrefix prefixes generated MQTT client IDs.
const ClientIDPrefix = "radar:"

// Registrar implements l1.Registrar using MQTT. The device info is
// published retained on <ref>/meta and cleared on exit, or by the
// broker through the will message if the connection drops.
type Registrar struct {
	Queue *Queue
	Info  l1.DeviceInfo

	meta      []byte
	rw        *ReadWriter
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.DeviceInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+metaTopic(info.Ref), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID(ClientIDPrefix + info.Ref.Name())
	}
	r := &Registrar{
		Queue: NewQueue(opts, topicPrefix),
		Info:  info,
		meta:  meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.publishMeta(r.meta) }
	r.rw = NewPacketReadWriter(r.Queue).ForDevice(info.Ref)
	r.registrar.Init(r.rw)
	return r, nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r.rw, r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	if token := r.Queue.Connect(); token.Wait() && token.Error() != nil {
		glog.Warningf("mqtt connect %s: %v", r.Info.Ref.Name(), token.Error())
	}
	<-ctx.Done()
	r.publishMeta(nil).Wait()
	r.Queue.Close()
	return ctx.Err()
}

func (r *Registrar) publishMeta(payload []byte) paho.Token {
	return r.Queue.PubWith(metaTopic(r.Info.Ref), payload, 1, true)
}

func metaTopic(ref l1.DeviceRef) string {
	return ref.Name() + "/meta"
}
