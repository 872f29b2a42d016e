package engine

import (
	"context"
	"fmt"

	"github.com/pinggolf/redblue-matcher/internal/model"
	"github.com/pinggolf/redblue-matcher/internal/store"
)

// candidateSourceCache memoizes the built candidate sequence for a SKU
// against the preferred-invoice registry's version, since the registry
// only grows within a bill. It is per-bill, like the registry itself.
type candidateSourceCache struct {
	entries map[string]cachedSource
}

type cachedSource struct {
	version int
	lines   []model.InvoiceLine
}

func newCandidateSourceCache() *candidateSourceCache {
	return &candidateSourceCache{entries: make(map[string]cachedSource)}
}

// buildCandidateSource concatenates the preferred-invoice slice (amount
// ascending, paged by ≤ pageSize ids) with the general slice (amount
// descending), then walks both in order deduplicating by
// (invoice_id, line_id), keeping first-seen order.
func buildCandidateSource(
	ctx context.Context,
	pool store.CandidatePool,
	cache *candidateSourceCache,
	registry *preferredRegistry,
	buyerTax, sellerTax, sku string,
	pageSize int,
) ([]model.InvoiceLine, error) {
	if cached, ok := cache.entries[sku]; ok && cached.version == registry.version {
		return cached.lines, nil
	}

	var preferred []model.InvoiceLine
	for _, page := range registry.Pages(pageSize) {
		pageLines, err := pool.MatchOnInvoices(ctx, buyerTax, sellerTax, sku, page)
		if err != nil {
			return nil, fmt.Errorf("preferred candidates for sku %s: %w", sku, err)
		}
		preferred = append(preferred, pageLines...)
	}

	general, err := pool.MatchByTaxAndProduct(ctx, buyerTax, sellerTax, sku)
	if err != nil {
		return nil, fmt.Errorf("general candidates for sku %s: %w", sku, err)
	}

	seen := make(map[model.InvoiceLineKey]struct{}, len(preferred)+len(general))
	out := make([]model.InvoiceLine, 0, len(preferred)+len(general))

	for _, l := range preferred {
		key := l.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	for _, l := range general {
		key := l.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}

	cache.entries[sku] = cachedSource{version: registry.version, lines: out}
	return out, nil
}
