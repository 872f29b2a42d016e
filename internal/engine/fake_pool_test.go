package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pinggolf/redblue-matcher/internal/decimalx"
	"github.com/pinggolf/redblue-matcher/internal/model"
)

// fakePool is an in-memory store.CandidatePool used across engine tests.
// It holds the full candidate universe and derives stats/query results
// from it directly, rather than mimicking SQL.
type fakePool struct {
	bills map[string]*model.Bill
	lines map[string][]model.BillLine
	inv   []model.InvoiceLine

	inserted []model.MatchRecord
	deleted  []string

	failStat  error
	failMatch error
}

func newFakePool() *fakePool {
	return &fakePool{
		bills: make(map[string]*model.Bill),
		lines: make(map[string][]model.BillLine),
	}
}

func (p *fakePool) addBill(b model.Bill, lines ...model.BillLine) {
	bb := b
	p.bills[b.ID] = &bb
	p.lines[b.ID] = lines
}

func (p *fakePool) addInvoiceLine(l model.InvoiceLine) {
	p.inv = append(p.inv, l)
}

func (p *fakePool) GetBill(ctx context.Context, billID string) (*model.Bill, error) {
	b, ok := p.bills[billID]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (p *fakePool) ListBillLines(ctx context.Context, billID string) ([]model.BillLine, error) {
	return p.lines[billID], nil
}

func (p *fakePool) candidates(buyerTax, sellerTax, sku string) []model.InvoiceLine {
	var out []model.InvoiceLine
	for _, l := range p.inv {
		if l.SKU == sku && decimalx.IsPositive(l.RemainingAmount) {
			out = append(out, l)
		}
	}
	_ = buyerTax
	_ = sellerTax
	return out
}

func (p *fakePool) StatForProduct(ctx context.Context, buyerTax, sellerTax, sku string) (model.CandidateStat, error) {
	if p.failStat != nil {
		return model.CandidateStat{}, p.failStat
	}
	cands := p.candidates(buyerTax, sellerTax, sku)
	total := decimal.Zero
	for _, c := range cands {
		total = total.Add(c.RemainingAmount)
	}
	return model.CandidateStat{Count: len(cands), TotalAmount: total}, nil
}

func (p *fakePool) MatchByTaxAndProduct(ctx context.Context, buyerTax, sellerTax, sku string) ([]model.InvoiceLine, error) {
	if p.failMatch != nil {
		return nil, p.failMatch
	}
	cands := p.candidates(buyerTax, sellerTax, sku)
	out := make([]model.InvoiceLine, len(cands))
	copy(out, cands)
	// amount descending, stable otherwise
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].RemainingAmount.GreaterThan(out[j-1].RemainingAmount); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (p *fakePool) MatchOnInvoices(ctx context.Context, buyerTax, sellerTax, sku string, invoiceIDs []string) ([]model.InvoiceLine, error) {
	want := make(map[string]bool, len(invoiceIDs))
	for _, id := range invoiceIDs {
		want[id] = true
	}
	cands := p.candidates(buyerTax, sellerTax, sku)
	var out []model.InvoiceLine
	for _, c := range cands {
		if want[c.InvoiceID] {
			out = append(out, c)
		}
	}
	// amount ascending, stable otherwise
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].RemainingAmount.LessThan(out[j-1].RemainingAmount); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (p *fakePool) InsertMatchRecords(ctx context.Context, records []model.MatchRecord) error {
	p.inserted = append(p.inserted, records...)
	return nil
}

func (p *fakePool) DeleteMatchesForBills(ctx context.Context, billIDs []string) error {
	p.deleted = append(p.deleted, billIDs...)
	return nil
}
