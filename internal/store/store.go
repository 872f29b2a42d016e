// Package store defines the candidate-pool interface the matching engine
// consumes and a lib/pq-backed Postgres implementation of it.
package store

import (
	"context"

	"github.com/pinggolf/redblue-matcher/internal/model"
)

// CandidatePool is the read/write contract the engine is built against.
// All read operations restrict to invoice lines with a positive
// remaining amount on a positive-total invoice — that predicate lives
// in the SQL here, never in the engine.
type CandidatePool interface {
	// GetBill fetches a bill's header. Returns (nil, nil) when absent;
	// callers translate that into matcherrors.NotFound.
	GetBill(ctx context.Context, billID string) (*model.Bill, error)

	// ListBillLines returns a bill's line items. Order is irrelevant to
	// correctness — the scarcity ranker re-orders them.
	ListBillLines(ctx context.Context, billID string) ([]model.BillLine, error)

	// StatForProduct returns (count, total_amount) for the candidate
	// pool restricted to (buyerTax, sellerTax, sku).
	StatForProduct(ctx context.Context, buyerTax, sellerTax, sku string) (model.CandidateStat, error)

	// MatchByTaxAndProduct returns candidate invoice lines for
	// (buyerTax, sellerTax, sku) ordered amount-descending.
	MatchByTaxAndProduct(ctx context.Context, buyerTax, sellerTax, sku string) ([]model.InvoiceLine, error)

	// MatchOnInvoices returns candidate invoice lines for
	// (buyerTax, sellerTax, sku) restricted to invoiceIDs (≤1000),
	// ordered amount-ascending.
	MatchOnInvoices(ctx context.Context, buyerTax, sellerTax, sku string, invoiceIDs []string) ([]model.InvoiceLine, error)

	// InsertMatchRecords persists up to 1000 records atomically per call.
	InsertMatchRecords(ctx context.Context, records []model.MatchRecord) error
}

// Cleaner deletes previously emitted match rows so a batch can be
// idempotently re-run. It's an external operational concern, kept here
// as an interface so the CLI wrapper (cmd/batchmatch) has something
// real to call rather than a dangling promise.
type Cleaner interface {
	DeleteMatchesForBills(ctx context.Context, billIDs []string) error
}

// MaxPageSize is the hard cap on ids per MatchOnInvoices call and
// records per InsertMatchRecords call.
const MaxPageSize = 1000
