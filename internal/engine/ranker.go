package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/pinggolf/redblue-matcher/internal/model"
	"github.com/pinggolf/redblue-matcher/internal/store"
)

// skuRank is the per-SKU scarcity stat used to order a bill's lines.
type skuRank struct {
	sku  string
	stat model.CandidateStat
}

// rankBillLines orders a bill's lines by SKU scarcity: for each distinct
// SKU on the bill, query candidate-pool statistics, order SKUs by
// (count asc, total-amount asc, sku asc), then place each bill line
// under its SKU's rank, preserving original relative order within a SKU.
func rankBillLines(ctx context.Context, pool store.CandidatePool, bill *model.Bill, lines []model.BillLine) ([]model.BillLine, error) {
	// Discover distinct SKUs in first-seen order (doesn't affect the
	// final ranking, just keeps the stat lookups deterministic).
	var skus []string
	seen := make(map[string]bool)
	for _, l := range lines {
		if !seen[l.SKU] {
			seen[l.SKU] = true
			skus = append(skus, l.SKU)
		}
	}

	ranks := make([]skuRank, 0, len(skus))
	for _, sku := range skus {
		stat, err := pool.StatForProduct(ctx, bill.BuyerTax, bill.SellerTax, sku)
		if err != nil {
			return nil, fmt.Errorf("stat for sku %s: %w", sku, err)
		}
		// A SKU with zero candidates is still ranked; stat.Count == 0
		// sorts first, which is intentional and harmless — the filler
		// later yields no records for it.
		ranks = append(ranks, skuRank{sku: sku, stat: stat})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		a, b := ranks[i], ranks[j]
		if a.stat.Count != b.stat.Count {
			return a.stat.Count < b.stat.Count
		}
		cmp := a.stat.TotalAmount.Cmp(b.stat.TotalAmount)
		if cmp != 0 {
			return cmp < 0
		}
		// Tie-break deterministically by SKU string ascending
		// (DESIGN.md Open Question #1).
		return a.sku < b.sku
	})

	order := make(map[string]int, len(ranks))
	for i, r := range ranks {
		order[r.sku] = i
	}

	// Stable-sort the original bill lines by their SKU's rank so that
	// lines sharing a SKU keep their original relative order.
	ordered := make([]model.BillLine, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		return order[ordered[i].SKU] < order[ordered[j].SKU]
	})

	return ordered, nil
}

// orderedSKUs returns the distinct SKUs appearing in lines in the order
// they first appear — since lines is already scarcity-ordered by
// rankBillLines, this is also the scarcity-first SKU processing order
// the filler iterates.
func orderedSKUs(lines []model.BillLine) []string {
	var skus []string
	seen := make(map[string]bool)
	for _, l := range lines {
		if !seen[l.SKU] {
			seen[l.SKU] = true
			skus = append(skus, l.SKU)
		}
	}
	return skus
}
