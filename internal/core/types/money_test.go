package types

import "testing"

func TestRoundMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{1499.5, 1500},
		{333333.333, 333333},
		{-0.5, -1},
		{-2.4, -2},
	}
	for _, c := range cases {
		if got := RoundMoney(c.in); got != c.want {
			t.Errorf("RoundMoney(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPercentOf(t *testing.T) {
	if got := PercentOf(150_000, 1); got != 1_500 {
		t.Errorf("PercentOf(150000, 1) = %d, want 1500", got)
	}
	if got := PercentOf(0, 1); got != 0 {
		t.Errorf("PercentOf(0, 1) = %d, want 0", got)
	}
	// 1% of 50 pesos is 0.5, rounds up
	if got := PercentOf(50, 1); got != 1 {
		t.Errorf("PercentOf(50, 1) = %d, want 1", got)
	}
	if got := PercentOf(1_000_000, 0.5); got != 5_000 {
		t.Errorf("PercentOf(1000000, 0.5) = %d, want 5000", got)
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		current, previous, want int64
	}{
		{0, 0, 0},
		{100, 0, 100},
		{80, 100, -20},
		{120, 100, 20},
		{0, 100, -100},
		{150, 100, 50},
	}
	for _, c := range cases {
		if got := PercentChange(c.current, c.previous); got != c.want {
			t.Errorf("PercentChange(%d, %d) = %d, want %d", c.current, c.previous, got, c.want)
		}
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(10, 0); got != 0 {
		t.Errorf("SafeDivide(10, 0) = %v, want 0", got)
	}
	if got := SafeDivide(10, 4); got != 2.5 {
		t.Errorf("SafeDivide(10, 4) = %v, want 2.5", got)
	}
}

func TestPerTripCost(t *testing.T) {
	if got := PerTripCost(1_000_000, 10); got != 100_000 {
		t.Errorf("PerTripCost(1000000, 10) = %d, want 100000", got)
	}
	if got := PerTripCost(1_000_000, 3); got != 333_333 {
		t.Errorf("PerTripCost(1000000, 3) = %d, want 333333", got)
	}
	if got := PerTripCost(500_000, 0); got != 0 {
		t.Errorf("PerTripCost(500000, 0) = %d, want 0", got)
	}
}
