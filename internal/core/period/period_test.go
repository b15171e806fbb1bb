package period

import (
	"testing"
	"time"
)

func TestKeyAndReceiptPrefix(t *testing.T) {
	p := New(2026, time.March, FirstHalf)
	if p.Key() != "2026-03-Q1" {
		t.Errorf("Key() = %s", p.Key())
	}
	if p.ReceiptPrefix() != "202603Q1" {
		t.Errorf("ReceiptPrefix() = %s", p.ReceiptPrefix())
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	p := New(2025, time.December, SecondHalf)
	parsed, err := ParseKey(p.Key())
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if parsed != p {
		t.Errorf("round trip mismatch: %+v != %+v", parsed, p)
	}
}

func TestParseKeyInvalid(t *testing.T) {
	for _, s := range []string{"", "garbage", "2026-13-Q1", "2026-03-Q3"} {
		if _, err := ParseKey(s); err == nil {
			t.Errorf("ParseKey(%q) should fail", s)
		}
	}
}

func TestBounds(t *testing.T) {
	p := New(2026, time.February, SecondHalf)
	start, end := p.Bounds()
	if start.Day() != 16 {
		t.Errorf("second half start day = %d, want 16", start.Day())
	}
	if end.Day() != 28 {
		t.Errorf("feb 2026 end day = %d, want 28", end.Day())
	}

	first, lastOfFirst := New(2026, time.February, FirstHalf).Bounds()
	if first.Day() != 1 || lastOfFirst.Day() != 15 {
		t.Errorf("first half bounds = %d..%d, want 1..15", first.Day(), lastOfFirst.Day())
	}
}

func TestStatusSettled(t *testing.T) {
	if StatusOpen.Settled() {
		t.Error("open period must not be settled")
	}
	if !StatusLiquidated.Settled() || !StatusPaid.Settled() {
		t.Error("liquidated and paid periods are settled")
	}
}
