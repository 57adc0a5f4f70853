package display

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestConsole(t *testing.T) {
	c := NewConsole(16, 2)
	require.NoError(t, c.Print(0, 0, "Distance:"))
	require.NoError(t, c.Print(10, 0, "123.45678"))
	require.NoError(t, c.Print(0, 5, "ignored"))
	require.Equal(t, []string{"Distance: 123.45", "                "}, c.Lines())

	require.NoError(t, c.Clear())
	require.Equal(t, []string{"                ", "                "}, c.Lines())
}

// decodeData reassembles bytes sent to the expander with the RS bit set.
func decodeData(ops []i2ctest.IO) []byte {
	var nibbles []byte
	for _, op := range ops {
		for _, b := range op.W {
			if b&bitEnable != 0 && b&bitRS != 0 {
				nibbles = append(nibbles, b&0xf0)
			}
		}
	}
	var res []byte
	for n := 0; n+1 < len(nibbles); n += 2 {
		res = append(res, nibbles[n]|nibbles[n+1]>>4)
	}
	return res
}

func TestLCD(t *testing.T) {
	bus := &i2ctest.Record{}
	lcd, err := NewLCD(bus, DefaultLCDAddr, 16, 2)
	require.NoError(t, err)
	require.NotEmpty(t, bus.Ops)
	for _, op := range bus.Ops {
		require.Equal(t, DefaultLCDAddr, op.Addr)
		require.Len(t, op.W, 1)
	}

	bus.Ops = nil
	require.NoError(t, lcd.Print(10, 0, "17.00 and more"))
	require.Equal(t, "17.00 ", string(decodeData(bus.Ops)))
	for _, op := range bus.Ops {
		require.NotZero(t, op.W[0]&bitBacklight)
	}
	// first byte pair is the cursor command: 0x80|10 high nibble.
	require.Equal(t, byte(0x80|bitEnable|bitBacklight), bus.Ops[0].W[0])

	bus.Ops = nil
	require.NoError(t, lcd.Print(16, 0, "x"))
	require.Empty(t, bus.Ops)
}
