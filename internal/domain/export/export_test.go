package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"fletero/internal/core/id"
	"fletero/internal/core/period"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/liquidation"
)

func strPtr(s string) *string { return &s }

func TestParsePhone(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want Phone
	}{
		{"nil", nil, Phone{}},
		{"empty", strPtr(""), Phone{}},
		{"blank", strPtr("   "), Phone{}},
		{"plus prefix", strPtr("+57 3001234567"), Phone{"57", "3001234567"}},
		{"plus one digit", strPtr("+1 5551234567"), Phone{"1", "5551234567"}},
		{"leading 57 long", strPtr("573001234567"), Phone{"57", "3001234567"}},
		{"local", strPtr("3001234567"), Phone{"57", "3001234567"}},
		{"local with spaces", strPtr("300 123 4567"), Phone{"57", "3001234567"}},
		// Exactly 10 digits starting with 57 is a local number, not a
		// country-coded one; the >10 threshold is part of the contract.
		{"ten digits with 57", strPtr("5730012345"), Phone{"57", "5730012345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePhone(tt.in); got != tt.want {
				t.Errorf("ParsePhone(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReceiptNumber(t *testing.T) {
	p := period.New(2026, time.March, period.FirstHalf)

	if got := ReceiptNumber(p, 0); got != "202603Q1-001" {
		t.Errorf("ReceiptNumber = %q, want 202603Q1-001", got)
	}
	if got := ReceiptNumber(p, 11); got != "202603Q1-012" {
		t.Errorf("ReceiptNumber = %q, want 202603Q1-012", got)
	}
}

func TestConsolidate(t *testing.T) {
	c1 := fleet.Contractor{Name: "Transportes Andinos", DocumentID: "900123456"}
	c1.ID = id.New()
	c2 := fleet.Contractor{Name: "Perez, Juan", Phone: strPtr("+57 3001234567")}
	c2.ID = id.New()

	mk := func(cid id.ID, subtotal, deductions int64) liquidation.Liquidation {
		l := liquidation.Liquidation{
			ContractorID:    cid,
			Subtotal:        subtotal,
			TotalDeductions: deductions,
			NetPayable:      subtotal - deductions,
		}
		l.ID = id.New()
		return l
	}

	// c2 appears first; consolidation keeps first-appearance order.
	settlements := []liquidation.Liquidation{
		mk(c2.ID, 200_000, 2_000),
		mk(c1.ID, 150_000, 1_500),
		mk(c2.ID, 100_000, 1_000),
	}

	out := Consolidate(settlements, []fleet.Contractor{c1, c2})
	if len(out) != 2 {
		t.Fatalf("consolidated = %d entries, want 2", len(out))
	}

	if out[0].Name != "Perez, Juan" || out[0].Settlements != 2 {
		t.Errorf("first = %+v, want Perez, Juan with 2 settlements", out[0])
	}
	if out[0].Subtotal != 300_000 || out[0].TotalDeductions != 3_000 || out[0].NetPayable != 297_000 {
		t.Errorf("first sums = %d/%d/%d", out[0].Subtotal, out[0].TotalDeductions, out[0].NetPayable)
	}
	if out[1].Name != "Transportes Andinos" || out[1].NetPayable != 148_500 {
		t.Errorf("second = %+v", out[1])
	}
}

func TestEscapeField(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"Perez, Juan", `"Perez, Juan"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeField(tt.in); got != tt.want {
			t.Errorf("EscapeField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildCSV(t *testing.T) {
	p := period.New(2026, time.March, period.FirstHalf)
	consolidated := []ConsolidatedContractor{
		{
			Name:          "Perez, Juan",
			DocumentID:    "123456",
			Phone:         strPtr("3001234567"),
			BankName:      strPtr("Bancolombia"),
			AccountType:   strPtr("ahorros"),
			AccountNumber: strPtr("1234567890"),
			Settlements:   1,
			Subtotal:      150_000, TotalDeductions: 1_500, NetPayable: 148_500,
		},
		{
			Name:        "Transportes Andinos",
			Settlements: 2,
			Subtotal:    300_000, TotalDeductions: 3_000, NetPayable: 297_000,
		},
	}

	csv := BuildCSV(BuildRows(consolidated, p))
	lines := strings.Split(csv, "\n")

	// Two rows produce exactly three lines, header included.
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != csvHeader {
		t.Errorf("header = %q", lines[0])
	}
	if got := strings.Count(lines[0], ","); got != 14 {
		t.Errorf("header has %d commas, want 14 (15 columns)", got)
	}

	if !strings.Contains(lines[1], `"Perez, Juan"`) {
		t.Errorf("comma-bearing name must be quoted: %q", lines[1])
	}
	if !strings.HasPrefix(lines[1], "202603Q1-001,2026-03-Q1,") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "202603Q1-002,") {
		t.Errorf("second row = %q", lines[2])
	}
	// Optional fields absent on the second contractor default to "".
	if !strings.Contains(lines[2], ",,,,,,") {
		t.Errorf("missing optional fields must be empty: %q", lines[2])
	}
}

func TestWriteCSV_BOM(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("file output must start with the UTF-8 BOM")
	}
	if string(out[3:]) != csvHeader {
		t.Errorf("empty batch body = %q, want bare header", out[3:])
	}
}

func TestComputeTotals(t *testing.T) {
	rows := []Row{{NetPayable: 148_500}, {NetPayable: 297_000}}

	totals := ComputeTotals(rows)
	if totals.Count != 2 || totals.TotalAmount != 445_500 {
		t.Errorf("totals = %+v, want {2 445500}", totals)
	}

	if got := ComputeTotals(nil); got != (Totals{}) {
		t.Errorf("empty batch totals = %+v, want zero", got)
	}
}
