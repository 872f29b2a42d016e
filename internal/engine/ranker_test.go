package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pinggolf/redblue-matcher/internal/model"
)

func TestRankBillLinesOrdersByScarcity(t *testing.T) {
	pool := newFakePool()
	bill := model.Bill{ID: "bill-1", BuyerTax: "B1", SellerTax: "S1"}

	lines := []model.BillLine{
		{BillID: "bill-1", LineID: "l1", SKU: "SKU-PLENTY", TargetAmount: decimal.RequireFromString("100")},
		{BillID: "bill-1", LineID: "l2", SKU: "SKU-SCARCE", TargetAmount: decimal.RequireFromString("50")},
		{BillID: "bill-1", LineID: "l3", SKU: "SKU-NONE", TargetAmount: decimal.RequireFromString("10")},
	}
	pool.addBill(bill, lines...)

	// SKU-PLENTY: 3 candidates, SKU-SCARCE: 1 candidate, SKU-NONE: 0 candidates.
	pool.addInvoiceLine(model.InvoiceLine{InvoiceID: "i1", LineID: "1", SKU: "SKU-PLENTY", RemainingAmount: decimal.RequireFromString("10")})
	pool.addInvoiceLine(model.InvoiceLine{InvoiceID: "i2", LineID: "1", SKU: "SKU-PLENTY", RemainingAmount: decimal.RequireFromString("10")})
	pool.addInvoiceLine(model.InvoiceLine{InvoiceID: "i3", LineID: "1", SKU: "SKU-PLENTY", RemainingAmount: decimal.RequireFromString("10")})
	pool.addInvoiceLine(model.InvoiceLine{InvoiceID: "i4", LineID: "1", SKU: "SKU-SCARCE", RemainingAmount: decimal.RequireFromString("5")})

	ranked, err := rankBillLines(context.Background(), pool, &bill, lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := orderedSKUs(ranked)
	want := []string{"SKU-NONE", "SKU-SCARCE", "SKU-PLENTY"}
	if len(got) != len(want) {
		t.Fatalf("orderedSKUs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("orderedSKUs[%d] = %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRankBillLinesTieBreaksBySKU(t *testing.T) {
	pool := newFakePool()
	bill := model.Bill{ID: "bill-1", BuyerTax: "B1", SellerTax: "S1"}
	lines := []model.BillLine{
		{BillID: "bill-1", LineID: "l1", SKU: "ZZZ", TargetAmount: decimal.RequireFromString("10")},
		{BillID: "bill-1", LineID: "l2", SKU: "AAA", TargetAmount: decimal.RequireFromString("10")},
	}
	pool.addBill(bill, lines...)
	// Neither SKU has any candidates: both rank (0, 0), so sku ascending breaks the tie.

	ranked, err := rankBillLines(context.Background(), pool, &bill, lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := orderedSKUs(ranked)
	if got[0] != "AAA" || got[1] != "ZZZ" {
		t.Fatalf("expected AAA before ZZZ, got %v", got)
	}
}

func TestRankBillLinesPreservesOrderWithinSKU(t *testing.T) {
	pool := newFakePool()
	bill := model.Bill{ID: "bill-1", BuyerTax: "B1", SellerTax: "S1"}
	lines := []model.BillLine{
		{BillID: "bill-1", LineID: "first", SKU: "SKU-A", TargetAmount: decimal.RequireFromString("10")},
		{BillID: "bill-1", LineID: "second", SKU: "SKU-A", TargetAmount: decimal.RequireFromString("20")},
	}
	pool.addBill(bill, lines...)

	ranked, err := rankBillLines(context.Background(), pool, &bill, lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ranked[0].LineID != "first" || ranked[1].LineID != "second" {
		t.Fatalf("expected original relative order preserved, got %v", ranked)
	}
}
