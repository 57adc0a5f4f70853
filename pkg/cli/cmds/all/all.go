// Package all registers every shell command set.
package all

import (
	_ "github.com/robotalks/radar.go/pkg/cli/cmds/scan"
)
