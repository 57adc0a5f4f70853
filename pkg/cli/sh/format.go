package sh

import (
	"encoding/json"
	"fmt"

	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

// FormatInfo renders a registered scanner as "type/id: description".
func FormatInfo(info l1.DeviceInfo) string {
	if info.Meta.Description == "" {
		return info.Ref.Name()
	}
	return info.Ref.Name() + ": " + info.Meta.Description
}

// FormatStatus renders a status reply on one line.
func FormatStatus(st *msgs.ScanStatus) string {
	motor := "stopped"
	if st.Running {
		motor = "running"
	}
	return fmt.Sprintf("%s, motor %s %s, cycle %d (%d since reversal), last %.2f cm",
		st.State, motor, st.Direction, st.Cycles, st.Counter, st.LastDistance)
}

// FormatReply renders known replies for people and the rest as the
// type name with a JSON body.
func FormatReply(msg fx.Message) (string, error) {
	switch m := msg.(type) {
	case *msgs.ScanStatus:
		return FormatStatus(m), nil
	case *msgs.CommandOK:
		return "OK", nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	return msgs.Name(msg) + " " + string(body), nil
}
