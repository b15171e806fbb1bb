package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64 // Simulates DB sequence value
	lastKey      string
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(args) > 0 {
		if key, ok := args[0].(string); ok {
			m.lastKey = key
		}
	}
	m.currentValue++
	return &mockRow{val: m.currentValue}
}

func TestGetNextNumber(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("LIQ")
	at := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "LIQ-2026-00001" {
		t.Errorf("expected LIQ-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "LIQ-2026-00002" {
		t.Errorf("expected LIQ-2026-00002, got %s", num)
	}
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	svc := New(&mockQuerier{})
	at := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		reset string
		want  string
	}{
		{"year", "LIQ_2026"},
		{"month", "LIQ_2026_03"},
		{"never", "LIQ"},
	}
	for _, c := range cases {
		cfg := Config{Prefix: "LIQ", ResetPeriod: c.reset}
		if got := svc.buildKey(cfg, at); got != c.want {
			t.Errorf("buildKey(%s) = %s, want %s", c.reset, got, c.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if got := ParseNumber("LIQ-2026-00042"); got != 42 {
		t.Errorf("ParseNumber = %d, want 42", got)
	}
	if got := ParseNumber("not-a-number"); got != -1 {
		t.Errorf("ParseNumber(garbage) = %d, want -1", got)
	}
}
