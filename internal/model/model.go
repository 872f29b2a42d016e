// Package model holds the data types the matching engine reads and
// writes. All monetary and quantity fields use shopspring/decimal;
// binary floating point never carries a match amount.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Declared fixed-point scales. AmountScale/AmountPrecision and
// QuantityScale/QuantityPrecision bound the NumericOverflow check in
// internal/decimalx.
const (
	AmountPrecision   = 23
	AmountScale       = 10
	QuantityPrecision = 36
	QuantityScale     = 23
)

// Bill is the negative (red-flush) tax bill header. Immutable during a
// match session.
type Bill struct {
	ID        string
	BuyerTax  string
	SellerTax string
}

// BillLine is one line item on a Bill. TargetAmount is the absolute
// value of the signed amount stored upstream.
type BillLine struct {
	BillID       string
	LineID       string
	SKU          string
	TargetAmount decimal.Decimal
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
}

// InvoiceLine is a candidate blue-invoice line that may be drawn upon.
// Identity for deduplication is (InvoiceID, LineID). RemainingAmount is
// always non-negative by the time it reaches the engine — the candidate
// queries filter non-positive remaining amounts at the source.
type InvoiceLine struct {
	InvoiceID       string
	LineID          string
	SKU             string
	RemainingAmount decimal.Decimal
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	IssueTime       time.Time
}

// Key returns the (invoice_id, line_id) dedup identity for an InvoiceLine.
func (l InvoiceLine) Key() InvoiceLineKey {
	return InvoiceLineKey{InvoiceID: l.InvoiceID, LineID: l.LineID}
}

// InvoiceLineKey is the (invoice_id, line_id) deduplication identity.
type InvoiceLineKey struct {
	InvoiceID string
	LineID    string
}

// CandidateStat is the (count, total-amount) pair the scarcity ranker
// queries per SKU.
type CandidateStat struct {
	Count       int
	TotalAmount decimal.Decimal
}

// MatchRecord is one emitted row associating a bill line with a share of
// an invoice line.
type MatchRecord struct {
	BillID           string
	BuyerTax         string
	SellerTax        string
	SKU              string
	InvoiceID        string
	InvoiceLineID    string
	InvoiceQuantity  decimal.Decimal
	BillAmount       decimal.Decimal
	InvoiceAmount    decimal.Decimal
	MatchAmount      decimal.Decimal
	BillUnitPrice    decimal.Decimal
	BillQuantity     decimal.Decimal
	InvoiceUnitPrice decimal.Decimal
	// InvoiceQuantity2 duplicates InvoiceQuantity. Source schemas for this
	// domain carry the invoice line's quantity twice (see spec's Match
	// Record field list); both are always set from the same candidate, so
	// this is preserved rather than collapsed. See DESIGN.md.
	InvoiceQuantity2 decimal.Decimal
	MatchedAt        time.Time
}

// BillState names the per-bill state machine a match session moves
// through.
type BillState string

const (
	StateLoaded   BillState = "LOADED"
	StateRanked   BillState = "RANKED"
	StateMatching BillState = "MATCHING"
	StateFlushing BillState = "FLUSHING"
	StateDone     BillState = "DONE"
	StateFailed   BillState = "FAILED"
)

// BillOutcome is the per-bill result folded into a BatchResult.
type BillOutcome struct {
	BillID      string
	State       BillState
	Err         error // non-nil only when State == StateFailed
	Records     int
	// Shortfalls maps SKU -> amount still unmet after the candidate pool
	// was exhausted. Under-match is not an error; it's surfaced here for
	// the caller to report on.
	Shortfalls map[string]decimal.Decimal
}

// BatchResult is the response to BatchMatch.
type BatchResult struct {
	// BatchID identifies this run for correlating NATS batch-start/
	// batch-complete events and exported result files.
	BatchID      string
	SuccessCount int
	FailureCount int
	Outcomes     []BillOutcome
	// ExportPath is set when the caller configured a results export
	// directory; empty otherwise.
	ExportPath string
}

// Failures returns the outcomes whose State is StateFailed, in the
// order they were processed.
func (r BatchResult) Failures() []BillOutcome {
	var out []BillOutcome
	for _, o := range r.Outcomes {
		if o.State == StateFailed {
			out = append(out, o)
		}
	}
	return out
}
