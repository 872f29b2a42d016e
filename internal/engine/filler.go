package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/pinggolf/redblue-matcher/internal/decimalx"
	"github.com/pinggolf/redblue-matcher/internal/matcherrors"
	"github.com/pinggolf/redblue-matcher/internal/model"
	"github.com/pinggolf/redblue-matcher/internal/store"
	"github.com/shopspring/decimal"
)

// filler walks a bill's scarcity-ordered lines and emits match records.
// One filler instance is created per bill, shares no state with any
// other bill's filler.
type filler struct {
	pool       store.CandidatePool
	pageSize   int
	flushSize  int
	registry   *preferredRegistry
	matched    map[string]decimal.Decimal // SKU -> matched_so_far
	cache      *candidateSourceCache
	buffer     []model.MatchRecord
	emitted    int
	shortfalls map[string]decimal.Decimal
}

func newFiller(pool store.CandidatePool, pageSize, flushSize int) *filler {
	return &filler{
		pool:       pool,
		pageSize:   pageSize,
		flushSize:  flushSize,
		registry:   newPreferredRegistry(),
		matched:    make(map[string]decimal.Decimal),
		cache:      newCandidateSourceCache(),
		shortfalls: make(map[string]decimal.Decimal),
	}
}

// targetForSKU sums the absolute bill-line amounts for sku on this bill.
func targetForSKU(lines []model.BillLine, sku string) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.SKU == sku {
			total = total.Add(l.TargetAmount)
		}
	}
	return total
}

// representativeLine returns the first bill line (in the order passed
// in, which is the original ListBillLines order — see DESIGN.md Open
// Question #2) carrying sku. Callers always pass the pre-ranking order
// here so "first" means first-as-loaded, not first-as-scarcity-ranked.
func representativeLine(lines []model.BillLine, sku string) (model.BillLine, bool) {
	for _, l := range lines {
		if l.SKU == sku {
			return l, true
		}
	}
	return model.BillLine{}, false
}

// run processes every SKU in scarcity order, emitting match records into
// buffer and flushing through flush whenever the buffer reaches
// flushSize or the bill finishes. bill is the header; rankedLines is the
// scarcity-ordered line set from rankBillLines; originalLines is the
// pre-ranking order used only to resolve "the first bill line" per SKU.
func (f *filler) run(ctx context.Context, bill *model.Bill, rankedLines, originalLines []model.BillLine) error {
	for _, sku := range orderedSKUs(rankedLines) {
		if err := ctx.Err(); err != nil {
			return err
		}

		target := targetForSKU(rankedLines, sku)
		remaining := target.Sub(f.matched[sku])
		if remaining.Sign() <= 0 {
			continue
		}

		candidates, err := buildCandidateSource(ctx, f.pool, f.cache, f.registry, bill.BuyerTax, bill.SellerTax, sku, f.pageSize)
		if err != nil {
			return matcherrors.CandidateQueryFailed(bill.ID, err)
		}

		repLine, ok := representativeLine(originalLines, sku)
		if !ok {
			// Cannot happen: sku was derived from rankedLines, a
			// reordering of originalLines with the same elements.
			return fmt.Errorf("no representative line for sku %s on bill %s", sku, bill.ID)
		}

		for _, cand := range candidates {
			if remaining.Sign() <= 0 {
				break
			}
			use := decimalx.Min(cand.RemainingAmount, remaining)
			if !decimalx.IsPositive(use) {
				continue
			}

			for _, v := range []decimal.Decimal{use, repLine.TargetAmount, cand.RemainingAmount} {
				if err := decimalx.CheckScale(bill.ID, v, model.AmountPrecision, model.AmountScale); err != nil {
					return err
				}
			}
			for _, v := range []decimal.Decimal{cand.Quantity, repLine.Quantity} {
				if err := decimalx.CheckScale(bill.ID, v, model.QuantityPrecision, model.QuantityScale); err != nil {
					return err
				}
			}

			rec := model.MatchRecord{
				BillID:           bill.ID,
				BuyerTax:         bill.BuyerTax,
				SellerTax:        bill.SellerTax,
				SKU:              sku,
				InvoiceID:        cand.InvoiceID,
				InvoiceLineID:    cand.LineID,
				InvoiceQuantity:  cand.Quantity,
				BillAmount:       repLine.TargetAmount,
				InvoiceAmount:    cand.RemainingAmount,
				MatchAmount:      use,
				BillUnitPrice:    repLine.UnitPrice,
				BillQuantity:     repLine.Quantity,
				InvoiceUnitPrice: cand.UnitPrice,
				InvoiceQuantity2: cand.Quantity,
				MatchedAt:        time.Now(),
			}
			f.buffer = append(f.buffer, rec)

			f.registry.Add(cand.InvoiceID)
			f.matched[sku] = f.matched[sku].Add(use)
			remaining = remaining.Sub(use)

			if len(f.buffer) >= f.flushSize {
				if err := f.flush(ctx, bill.ID); err != nil {
					return err
				}
			}
		}

		if remaining.Sign() > 0 {
			// Candidates exhausted before need satisfied: under-match,
			// not an error. Surface via stats.
			f.shortfalls[sku] = remaining
		}
	}

	return f.flush(ctx, bill.ID)
}

// flush persists the buffered records in one statement and clears the
// buffer. A flush error aborts the bill and discards in-memory state —
// the caller (engine.go) is responsible for discarding f afterward.
func (f *filler) flush(ctx context.Context, billID string) error {
	if len(f.buffer) == 0 {
		return nil
	}
	if err := f.pool.InsertMatchRecords(ctx, f.buffer); err != nil {
		return matcherrors.PersistFailed(billID, err)
	}
	f.emitted += len(f.buffer)
	f.buffer = f.buffer[:0]
	return nil
}
