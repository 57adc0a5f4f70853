// Package scan adds scanner queries to the shell.
package scan

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/radar.go/pkg/cli/sh"
	fx "github.com/robotalks/radar.go/pkg/framework"
	"github.com/robotalks/radar.go/pkg/l1/msgs"
)

// StatusCmd prints the scanner state, motor and counters.
var StatusCmd = ishell.Cmd{
	Name:    "scan.status",
	Aliases: []string{"ss", "status"},
	Help:    "show scanner state and counters",
	Func: sh.QueryCmd(func(args []string) (fx.Message, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("scan.status takes no arguments")
		}
		return &msgs.ScanStatusQuery{}, nil
	}),
}

func init() {
	sh.AddCmds(&StatusCmd)
}
