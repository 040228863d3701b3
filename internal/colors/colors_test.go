package colors

import (
	"math"
	"testing"

	"golang.org/x/image/colornames"
)

func TestTimeColors_SingleHand(t *testing.T) {
	for second := range 60 {
		frame := TimeColors(second)

		hands := 0
		handAt := -1
		for i, c := range frame {
			switch c {
			case SecondsHand:
				hands++
				handAt = i
			case WatchFace:
			default:
				t.Fatalf("second %d: pixel %d has unexpected color %s", second, i, Hex(c))
			}
		}
		if hands != 1 {
			t.Fatalf("second %d: got %d hand pixels, want 1", second, hands)
		}

		want := StripLength - 1 - second%StripLength
		if handAt != want {
			t.Errorf("second %d: hand at %d, want %d", second, handAt, want)
		}
	}
}

func TestTimeColors_PeriodicInStripLength(t *testing.T) {
	for second := range 60 {
		if TimeColors(second) != TimeColors(second%StripLength) {
			t.Errorf("TimeColors(%d) differs from TimeColors(%d)", second, second%StripLength)
		}
	}
}

func TestTimeColors_NegativeWraps(t *testing.T) {
	tests := []struct {
		second int
		want   int
	}{
		{-1, 0},
		{-7, StripLength - 1},
		{-8, 0},
		{61, StripLength - 1 - 61%StripLength},
	}

	for _, tt := range tests {
		frame := TimeColors(tt.second)
		if frame[tt.want] != SecondsHand {
			t.Errorf("TimeColors(%d): hand not at %d", tt.second, tt.want)
		}
	}
}

func TestTemperatureColors(t *testing.T) {
	tests := []struct {
		name    string
		celsius float64
		wantLit int
	}{
		{"freezing", -20, 0},
		{"zero", 0, 0},
		{"below half step", 3.4, 0},
		{"half step rounds up", 3.5, 1},
		{"room", 21, 3},
		{"warm", 28, 4},
		{"hot", 45, 6},
		{"top", 49, 7},
		{"over range", 120, 7},
		{"nan", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := TemperatureColors(tt.celsius)
			if got := LitCount(frame); got != tt.wantLit {
				t.Errorf("TemperatureColors(%v) lit = %d, want %d", tt.celsius, got, tt.wantLit)
			}
			assertGrowsFromEnd(t, frame)
		})
	}
}

func TestTemperatureColors_GradientOrder(t *testing.T) {
	frame := TemperatureColors(100)

	want := Frame{
		colornames.Red,
		colornames.Yellow,
		colornames.Yellow,
		colornames.Lime,
		colornames.Lime,
		colornames.Lime,
		colornames.Lime,
	}
	if frame != want {
		t.Errorf("full gauge = %v, want %v", frame, want)
	}

	// Partial gauges keep each pixel's table color, they do not shift it.
	partial := TemperatureColors(14)
	if partial[StripLength-1] != colornames.Lime || partial[StripLength-2] != colornames.Lime {
		t.Errorf("partial gauge tail = %s %s, want lime", Hex(partial[5]), Hex(partial[6]))
	}
}

func TestTemperatureColorsWithDivisor(t *testing.T) {
	if got := LitCount(TemperatureColorsWithDivisor(21, 10)); got != 2 {
		t.Errorf("divisor 10 at 21°C lit = %d, want 2", got)
	}
	if got := LitCount(TemperatureColorsWithDivisor(21, 0)); got != 0 {
		t.Errorf("zero divisor lit = %d, want 0", got)
	}
	if got := LitCount(TemperatureColorsWithDivisor(21, -3)); got != 0 {
		t.Errorf("negative divisor lit = %d, want 0", got)
	}
}

func TestTemperatureColors_Monotonic(t *testing.T) {
	prev := 0
	for c := -30.0; c <= 80; c += 0.25 {
		n := LitCount(TemperatureColors(c))
		if n < prev {
			t.Fatalf("lit count dropped from %d to %d at %v°C", prev, n, c)
		}
		prev = n
	}
}

func TestPressureColors(t *testing.T) {
	tests := []struct {
		name    string
		hPa     float64
		wantLit int
	}{
		{"far below", 900, 0},
		{"low bound", PressureLow, 0},
		{"just above low", 965.1, 1},
		{"mid", 1000, 4},
		{"normal", 1013.25, 5},
		{"high bound", PressureHigh, 7},
		{"far above", 1100, 7},
		{"nan", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := PressureColors(tt.hPa)
			if got := LitCount(frame); got != tt.wantLit {
				t.Errorf("PressureColors(%v) lit = %d, want %d", tt.hPa, got, tt.wantLit)
			}
			assertGrowsFromEnd(t, frame)
		})
	}
}

func TestPressureColors_UsesRainbowTable(t *testing.T) {
	frame := PressureColors(1000)
	rainbow := RainbowTable()

	for i := StripLength - 4; i < StripLength; i++ {
		if frame[i] != rainbow[i] {
			t.Errorf("pixel %d = %s, want %s", i, Hex(frame[i]), Hex(rainbow[i]))
		}
	}
	if rainbow[0] != colornames.Red {
		t.Errorf("rainbow starts at %s, want red", Hex(rainbow[0]))
	}
}

func TestPressureColors_Monotonic(t *testing.T) {
	prev := 0
	for p := 940.0; p <= 1060; p += 0.5 {
		n := LitCount(PressureColors(p))
		if n < prev {
			t.Fatalf("lit count dropped from %d to %d at %v hPa", prev, n, p)
		}
		prev = n
	}
}

func TestAllOff(t *testing.T) {
	frame := AllOff()
	for i, c := range frame {
		if c != Off {
			t.Errorf("pixel %d = %s, want off", i, Hex(c))
		}
	}
}

func TestFramesAreIndependent(t *testing.T) {
	first := TimeColors(0)
	first[0] = colornames.Blue

	if second := TimeColors(0); second[0] == colornames.Blue {
		t.Error("mutating a returned frame leaked into the next one")
	}
}

func TestHex(t *testing.T) {
	if got := Hex(WatchFace); got != "#FF9800" {
		t.Errorf("Hex(WatchFace) = %s, want #FF9800", got)
	}
}

// assertGrowsFromEnd checks that lit pixels form a contiguous run ending at
// the last pixel.
func assertGrowsFromEnd(t *testing.T, frame Frame) {
	t.Helper()
	seenLit := false
	for i, c := range frame {
		if c != Off {
			seenLit = true
			continue
		}
		if seenLit {
			t.Fatalf("dark pixel %d after a lit one: %v", i, frame)
		}
	}
}
