// Package env holds the process environment shared by devices and
// their consumers.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID keys the hashed machine ID so the raw ID is never published.
const AppID = "radar.go"

// MachineID retrieves the unique ID identifying the machine. It falls
// back to the hostname when the platform has no machine ID.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}
