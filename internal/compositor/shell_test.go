package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/seatbridge/internal/display"
)

type stubSeat struct {
	name   string
	active display.Output
}

func (s *stubSeat) Name() string                 { return s.name }
func (s *stubSeat) Keyboard() Keyboard           { return nil }
func (s *stubSeat) Pointer() Pointer             { return nil }
func (s *stubSeat) Touch() Touch                 { return nil }
func (s *stubSeat) ActiveOutput() display.Output { return s.active }

func TestShell_Snapshot(t *testing.T) {
	t.Run("empty shell has no snapshot", func(t *testing.T) {
		_, ok := NewShell().Snapshot()
		assert.False(t, ok)
	})

	t.Run("snapshot copies outputs and windows", func(t *testing.T) {
		shell := NewShell()
		shell.AddOutput(display.Output{Name: "a", Width: 100, Height: 100})
		shell.AddSeat(&stubSeat{name: "seat0"})
		shell.SetWindows([]Window{{ID: "w1", Width: 10, Height: 10}})

		snap, ok := shell.Snapshot()
		require.True(t, ok)

		// Later mutations must not show through the snapshot.
		shell.RemoveOutput("a")
		shell.SetWindows(nil)

		assert.Len(t, snap.Outputs, 1)
		assert.Len(t, snap.Windows, 1)
	})

	t.Run("last active seat is selected", func(t *testing.T) {
		shell := NewShell()
		shell.AddSeat(&stubSeat{name: "seat0"})
		shell.AddSeat(&stubSeat{name: "seat1"})

		snap, _ := shell.Snapshot()
		assert.Equal(t, "seat0", snap.Seat.Name())

		shell.SetLastActiveSeat("seat1")
		snap, _ = shell.Snapshot()
		assert.Equal(t, "seat1", snap.Seat.Name())

		shell.SetLastActiveSeat("no-such-seat")
		snap, _ = shell.Snapshot()
		assert.Equal(t, "seat1", snap.Seat.Name())
	})
}

func TestSnapshot_WindowUnder(t *testing.T) {
	snap := Snapshot{
		Windows: []Window{
			{ID: "top", X: 50, Y: 50, Width: 100, Height: 100},
			{ID: "bottom", X: 0, Y: 0, Width: 500, Height: 500},
		},
	}

	t.Run("topmost first", func(t *testing.T) {
		target := snap.WindowUnder(75, 75)
		require.NotNil(t, target)
		assert.Equal(t, "top", target.Window)
		assert.Equal(t, 25.0, target.X)
	})

	t.Run("falls through to lower windows", func(t *testing.T) {
		target := snap.WindowUnder(300, 300)
		require.NotNil(t, target)
		assert.Equal(t, "bottom", target.Window)
	})

	t.Run("nothing under empty space", func(t *testing.T) {
		assert.Nil(t, snap.WindowUnder(1000, 1000))
	})
}

func TestShell_RaiseWindow(t *testing.T) {
	shell := NewShell()
	shell.AddSeat(&stubSeat{name: "seat0"})
	shell.SetWindows([]Window{
		{ID: "a", Width: 100, Height: 100},
		{ID: "b", Width: 100, Height: 100},
	})

	shell.RaiseWindow("b")

	snap, _ := shell.Snapshot()
	target := snap.WindowUnder(10, 10)
	require.NotNil(t, target)
	assert.Equal(t, "b", target.Window)
}

func TestSnapshot_OutputAt(t *testing.T) {
	active := display.Output{Name: "active", X: 1920, Width: 1280, Height: 1024}
	snap := Snapshot{
		Outputs: []display.Output{
			{Name: "first", Width: 1920, Height: 1080},
			active,
		},
		Seat: &stubSeat{name: "seat0", active: active},
	}

	assert.Equal(t, "first", snap.OutputAt(10, 10).Name)
	assert.Equal(t, "active", snap.OutputAt(2000, 10).Name)
	assert.Equal(t, "active", snap.OutputAt(-100, -100).Name, "fallback to the seat's active output")
}

func TestSerialCounter(t *testing.T) {
	var c SerialCounter
	a := c.Next()
	b := c.Next()
	assert.Less(t, a, b)
	assert.NotZero(t, a)
}
