// Package export builds the payment batch handed to the payment
// platform: per-contractor consolidation of a period's settlements and
// the 15-column CSV whose header order and escaping are a compatibility
// contract reproduced byte for byte.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"fletero/internal/core/id"
	"fletero/internal/core/period"
	"fletero/internal/domain/fleet"
	"fletero/internal/domain/liquidation"
)

// ConsolidatedContractor groups one contractor's settlements within a
// period. Derived, never persisted.
type ConsolidatedContractor struct {
	ContractorID id.ID  `json:"contractorId"`
	Name         string `json:"name"`
	DocumentID   string `json:"documentId"`

	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	BankName      *string `json:"bankName,omitempty"`
	AccountType   *string `json:"accountType,omitempty"`
	AccountNumber *string `json:"accountNumber,omitempty"`

	Settlements     int   `json:"settlements"`
	Subtotal        int64 `json:"subtotal"`
	TotalDeductions int64 `json:"totalDeductions"`
	NetPayable      int64 `json:"netPayable"`
}

// Consolidate groups settlements by contractor, in order of each
// contractor's first appearance in the input. A settlement whose
// contractor record is missing still consolidates, with empty contact
// fields, so no money silently drops out of the batch.
func Consolidate(settlements []liquidation.Liquidation, contractors []fleet.Contractor) []ConsolidatedContractor {
	byID := make(map[id.ID]*fleet.Contractor, len(contractors))
	for i := range contractors {
		byID[contractors[i].ID] = &contractors[i]
	}

	index := make(map[id.ID]int)
	var out []ConsolidatedContractor
	for i := range settlements {
		l := &settlements[i]

		pos, seen := index[l.ContractorID]
		if !seen {
			cc := ConsolidatedContractor{ContractorID: l.ContractorID}
			if c, ok := byID[l.ContractorID]; ok {
				cc.Name = c.Name
				cc.DocumentID = c.DocumentID
				cc.Phone = c.Phone
				cc.Email = c.Email
				cc.BankName = c.BankName
				cc.AccountType = c.AccountType
				cc.AccountNumber = c.AccountNumber
			}
			pos = len(out)
			index[l.ContractorID] = pos
			out = append(out, cc)
		}

		out[pos].Settlements++
		out[pos].Subtotal += l.Subtotal
		out[pos].TotalDeductions += l.TotalDeductions
		out[pos].NetPayable += l.NetPayable
	}
	return out
}

// Phone is a parsed phone number split into country code and local part.
type Phone struct {
	CountryCode string `json:"countryCode"`
	Number      string `json:"number"`
}

var plusPhoneRE = regexp.MustCompile(`^\+(\d{1,3})\s?(.*)$`)

// ParsePhone splits a raw phone into country code and number.
//
// Three branches, in order: an explicit "+CC" prefix wins; a leading "57"
// with more than 10 total digits is taken as the Colombian country code;
// anything else is assumed to be a local Colombian number. Nil or empty
// input yields two empty strings.
func ParsePhone(raw *string) Phone {
	if raw == nil {
		return Phone{}
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return Phone{}
	}

	if m := plusPhoneRE.FindStringSubmatch(s); m != nil {
		return Phone{CountryCode: m[1], Number: stripSpaces(m[2])}
	}

	digits := stripSpaces(s)
	if strings.HasPrefix(digits, "57") && len(digits) > 10 {
		return Phone{CountryCode: "57", Number: digits[2:]}
	}

	return Phone{CountryCode: "57", Number: digits}
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// ReceiptNumber builds the sequential receipt id for one export row,
// e.g. "202603Q1-001" for the first row of 2026-03-Q1. Sequential
// construction makes it unique within the batch.
func ReceiptNumber(p period.Period, index int) string {
	return fmt.Sprintf("%s-%03d", p.ReceiptPrefix(), index+1)
}

// Row is one line of the payment batch.
type Row struct {
	ReceiptNumber    string `json:"receiptNumber"`
	PeriodKey        string `json:"periodKey"`
	Name             string `json:"name"`
	DocumentID       string `json:"documentId"`
	PhoneCountryCode string `json:"phoneCountryCode"`
	PhoneNumber      string `json:"phoneNumber"`
	Email            string `json:"email"`
	BankName         string `json:"bankName"`
	AccountType      string `json:"accountType"`
	AccountNumber    string `json:"accountNumber"`
	Settlements      int    `json:"settlements"`
	Subtotal         int64  `json:"subtotal"`
	Deductions       int64  `json:"deductions"`
	NetPayable       int64  `json:"netPayable"`
	Concept          string `json:"concept"`
}

// csvHeader is the fixed 15-column header the payment platform expects.
// Order is part of the contract; do not reorder.
const csvHeader = "numero_recibo,periodo,nombre,documento,indicativo,telefono," +
	"correo,banco,tipo_cuenta,numero_cuenta,liquidaciones,subtotal," +
	"deducciones,neto_pagar,concepto"

// BuildRows converts consolidated contractors into export rows, one per
// contractor in input order. Optional contact fields default to "".
func BuildRows(consolidated []ConsolidatedContractor, p period.Period) []Row {
	rows := make([]Row, 0, len(consolidated))
	for i, cc := range consolidated {
		phone := ParsePhone(cc.Phone)
		rows = append(rows, Row{
			ReceiptNumber:    ReceiptNumber(p, i),
			PeriodKey:        p.Key(),
			Name:             cc.Name,
			DocumentID:       cc.DocumentID,
			PhoneCountryCode: phone.CountryCode,
			PhoneNumber:      phone.Number,
			Email:            orEmpty(cc.Email),
			BankName:         orEmpty(cc.BankName),
			AccountType:      orEmpty(cc.AccountType),
			AccountNumber:    orEmpty(cc.AccountNumber),
			Settlements:      cc.Settlements,
			Subtotal:         cc.Subtotal,
			Deductions:       cc.TotalDeductions,
			NetPayable:       cc.NetPayable,
			Concept:          "Pago fletes " + p.Key(),
		})
	}
	return rows
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r Row) fields() []string {
	return []string{
		r.ReceiptNumber,
		r.PeriodKey,
		r.Name,
		r.DocumentID,
		r.PhoneCountryCode,
		r.PhoneNumber,
		r.Email,
		r.BankName,
		r.AccountType,
		r.AccountNumber,
		strconv.Itoa(r.Settlements),
		strconv.FormatInt(r.Subtotal, 10),
		strconv.FormatInt(r.Deductions, 10),
		strconv.FormatInt(r.NetPayable, 10),
		r.Concept,
	}
}

// EscapeField wraps the field in double quotes, doubling internal quotes,
// when it contains a comma, quote or newline; other fields pass through
// untouched. encoding/csv is deliberately not used here: it rewrites
// quoting and line endings, and the platform checks bytes.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// BuildCSV renders the header plus one line per row, joined by \n.
func BuildCSV(rows []Row) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	for _, r := range rows {
		b.WriteByte('\n')
		fields := r.fields()
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeField(f))
		}
	}
	return b.String()
}

// WriteCSV writes the batch to w prefixed with the UTF-8 BOM, which the
// platform requires on uploaded files.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	if _, err := io.WriteString(w, BuildCSV(rows)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Totals summarizes one export batch.
type Totals struct {
	Count       int   `json:"count"`
	TotalAmount int64 `json:"totalAmount"`
}

// ComputeTotals sums the net payable across the batch.
func ComputeTotals(rows []Row) Totals {
	t := Totals{Count: len(rows)}
	for _, r := range rows {
		t.TotalAmount += r.NetPayable
	}
	return t
}
