// Package host is the consumer end of the scanner line: it sends the
// readiness token, follows the telegrams and keeps the sweep picture.
package host

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/radar.go/pkg/telemetry"
)

// Kind of a telegram.
type Kind int

// Telegram kinds.
const (
	Info Kind = iota
	Measuring
	DirectionChange
	Reading
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Measuring:
		return telemetry.MarkerMeasuring
	case DirectionChange:
		return telemetry.MarkerDirectionChange
	case Reading:
		return "reading"
	}
	return "info"
}

// Telegram is one parsed line from the scanner.
type Telegram struct {
	Kind Kind
	// Distance is set for Reading, in centimeters.
	Distance float64
	// Text is the trimmed line.
	Text string
}

// ErrEmptyLine is returned for blank lines.
var ErrEmptyLine = errors.New("empty line")

const readingPrefix = "Distance:"

// ParseTelegram parses a line. Unrecognized lines are Info telegrams.
func ParseTelegram(line string) (Telegram, error) {
	text := strings.TrimSpace(line)
	t := Telegram{Kind: Info, Text: text}
	switch {
	case text == "":
		return t, ErrEmptyLine
	case text == telemetry.MarkerMeasuring:
		t.Kind = Measuring
	case text == telemetry.MarkerDirectionChange:
		t.Kind = DirectionChange
	case strings.HasPrefix(text, readingPrefix):
		val, err := strconv.ParseFloat(strings.TrimSpace(text[len(readingPrefix):]), 64)
		if err != nil {
			return t, fmt.Errorf("bad distance %q: %w", text, err)
		}
		t.Kind, t.Distance = Reading, val
	}
	return t, nil
}
