package clock

import (
	"testing"
	"time"
)

func TestClockTime_String(t *testing.T) {
	tests := []struct {
		in   ClockTime
		want string
	}{
		{0, "0:00:00.000000000"},
		{1500 * Millisecond, "0:00:01.500000000"},
		{Hour + 2*Minute + 3*Second + 4, "1:02:03.000000004"},
		{None, "99:99:99.999999999"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int64(tt.in), got, tt.want)
		}
	}
}

func TestClockTime_Conversions(t *testing.T) {
	if FromDuration(2*time.Second) != 2*Second {
		t.Error("expected 2s to convert to 2*Second")
	}
	if FromDuration(-time.Second) != None {
		t.Error("negative duration should map to None")
	}
	if None.Duration() != 0 {
		t.Error("None should convert to zero duration")
	}
	if None.IsValid() {
		t.Error("None must not be valid")
	}
}

func TestManualClock(t *testing.T) {
	c := NewManualClock()
	if c.Now() != 0 {
		t.Fatalf("expected zero, got %v", c.Now())
	}
	c.Advance(3 * Second)
	c.Advance(-Second)
	if c.Now() != 3*Second {
		t.Errorf("expected 3s, got %v", c.Now())
	}
	c.Set(2 * Second)
	if c.Now() != 3*Second {
		t.Error("Set must not move the clock backwards")
	}
	c.Set(10 * Second)
	if c.Now() != 10*Second {
		t.Errorf("expected 10s, got %v", c.Now())
	}
}

func TestSeekFlags(t *testing.T) {
	f := SeekFlagFlush | SeekFlagKeyUnit
	if !f.Has(SeekFlagFlush) || !f.Has(SeekFlagKeyUnit) || f.Has(SeekFlagAccurate) {
		t.Errorf("unexpected flag membership for %s", f)
	}
	if f.String() != "flush+key-unit" {
		t.Errorf("unexpected string %q", f.String())
	}
	if SeekFlagNone.String() != "none" {
		t.Errorf("unexpected string %q", SeekFlagNone.String())
	}
}
