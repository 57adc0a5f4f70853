// Package display provides the local text display showing the latest
// reading.
package display

import (
	"strings"
	"sync"

	"github.com/golang/glog"
)

// Sink is a fixed-position text display.
type Sink interface {
	// Clear blanks the display and homes the cursor.
	Clear() error
	// Print writes text starting at col, row. Text past the last column
	// is dropped.
	Print(col, row int, text string) error
}

// Console is an in-memory Sink which logs its content. It stands in for
// the LCD in simulation and headless setups.
type Console struct {
	Cols, Rows int

	lock  sync.Mutex
	lines [][]byte
}

// NewConsole creates a Console of the given geometry.
func NewConsole(cols, rows int) *Console {
	c := &Console{Cols: cols, Rows: rows}
	c.Clear()
	return c
}

// Clear implements Sink.
func (c *Console) Clear() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.lines = make([][]byte, c.Rows)
	for n := range c.lines {
		c.lines[n] = []byte(strings.Repeat(" ", c.Cols))
	}
	return nil
}

// Print implements Sink.
func (c *Console) Print(col, row int, text string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if row < 0 || row >= len(c.lines) || col < 0 {
		return nil
	}
	line := c.lines[row]
	for n := 0; n < len(text) && col+n < len(line); n++ {
		line[col+n] = text[n]
	}
	glog.V(2).Infof("display[%d] %q", row, string(line))
	return nil
}

// Lines returns the current content, one string per row.
func (c *Console) Lines() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	res := make([]string, len(c.lines))
	for n, line := range c.lines {
		res[n] = string(line)
	}
	return res
}
