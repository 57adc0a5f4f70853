// Package link is the line-oriented serial connection between the
// scanner and its host.
package link

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate of the host line.
const DefaultBaudRate = 115200

// LineEnd terminates every outbound line.
const LineEnd = "\r\n"

// PortOptions describes how to open a serial port.
type PortOptions struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`
}

// Normalize validates the options and fills defaults: 115200 8N1.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("link: invalid data bits %d", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("link: invalid stop bits %d", opts.StopBits)
	}
	switch strings.ToUpper(strings.TrimSpace(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("link: unsupported parity %q", o.Parity)
	}
	return opts, nil
}

// SerialMode converts the options for go.bug.st/serial.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	return mode, nil
}

// Open opens the serial port.
func Open(opts PortOptions) (serial.Port, error) {
	if opts.Device == "" {
		return nil, fmt.Errorf("link: serial device required")
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(opts.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", opts.Device, err)
	}
	return port, nil
}

// StdioDevice selects the process stdin/stdout as the host line.
const StdioDevice = "-"

type stdio struct {
	io.Reader
	io.Writer
}

func (s stdio) Close() error {
	return os.Stdin.Close()
}

// OpenLine opens the host line: the serial port, or stdin/stdout when
// the device is StdioDevice.
func OpenLine(opts PortOptions) (io.ReadWriteCloser, error) {
	if opts.Device == StdioDevice {
		return stdio{Reader: os.Stdin, Writer: os.Stdout}, nil
	}
	return Open(opts)
}
