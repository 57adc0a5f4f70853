package display

import (
	"time"

	"periph.io/x/conn/v3/i2c"
)

// DefaultLCDAddr is the usual address of a PCF8574 backpack.
const DefaultLCDAddr uint16 = 0x27

// PCF8574 pin mapping of the common HD44780 backpack.
const (
	bitRS        byte = 0x01
	bitEnable    byte = 0x04
	bitBacklight byte = 0x08
)

// HD44780 instructions.
const (
	cmdClear        byte = 0x01
	cmdEntryMode    byte = 0x06 // increment, no shift
	cmdDisplayOn    byte = 0x0c // display on, no cursor
	cmdFunction4Bit byte = 0x28 // 4-bit, 2 lines, 5x8
	cmdSetDDRAM     byte = 0x80
)

var rowOffsets = []byte{0x00, 0x40, 0x14, 0x54}

// LCD drives an HD44780 character display in 4-bit mode through a
// PCF8574 I2C expander.
type LCD struct {
	Dev  *i2c.Dev
	Cols int
	Rows int

	backlight byte
}

// NewLCD initializes the display on bus at addr and turns on the
// backlight.
func NewLCD(bus i2c.Bus, addr uint16, cols, rows int) (*LCD, error) {
	l := &LCD{
		Dev:       &i2c.Dev{Bus: bus, Addr: addr},
		Cols:      cols,
		Rows:      rows,
		backlight: bitBacklight,
	}
	if err := l.init(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LCD) init() error {
	time.Sleep(50 * time.Millisecond)
	if err := l.expander(0); err != nil {
		return err
	}
	// reset into 8-bit mode three times, then switch to 4-bit.
	for _, d := range []time.Duration{4500 * time.Microsecond, 4500 * time.Microsecond, 150 * time.Microsecond} {
		if err := l.nibble(0x30, 0); err != nil {
			return err
		}
		time.Sleep(d)
	}
	if err := l.nibble(0x20, 0); err != nil {
		return err
	}
	for _, cmd := range []byte{cmdFunction4Bit, cmdDisplayOn, cmdEntryMode} {
		if err := l.command(cmd); err != nil {
			return err
		}
	}
	return l.Clear()
}

// Clear implements Sink.
func (l *LCD) Clear() error {
	if err := l.command(cmdClear); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond)
	return nil
}

// SetCursor moves the cursor.
func (l *LCD) SetCursor(col, row int) error {
	if row < 0 || row >= len(rowOffsets) {
		row = 0
	}
	return l.command(cmdSetDDRAM | (byte(col) + rowOffsets[row]))
}

// Print implements Sink.
func (l *LCD) Print(col, row int, text string) error {
	if col >= l.Cols || row >= l.Rows {
		return nil
	}
	if err := l.SetCursor(col, row); err != nil {
		return err
	}
	if room := l.Cols - col; len(text) > room {
		text = text[:room]
	}
	for n := 0; n < len(text); n++ {
		if err := l.write(text[n], bitRS); err != nil {
			return err
		}
	}
	return nil
}

func (l *LCD) command(cmd byte) error {
	if err := l.write(cmd, 0); err != nil {
		return err
	}
	time.Sleep(50 * time.Microsecond)
	return nil
}

func (l *LCD) write(b, mode byte) error {
	if err := l.nibble(b&0xf0, mode); err != nil {
		return err
	}
	return l.nibble((b<<4)&0xf0, mode)
}

func (l *LCD) nibble(hi, mode byte) error {
	data := hi | mode | l.backlight
	if err := l.expander(data | bitEnable); err != nil {
		return err
	}
	time.Sleep(time.Microsecond)
	return l.expander(data)
}

func (l *LCD) expander(b byte) error {
	_, err := l.Dev.Write([]byte{b})
	return err
}
