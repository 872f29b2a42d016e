package engine

// preferredRegistry is the per-bill ordered set of invoice-ids already
// drawn upon in this bill's matching session: an insertion-ordered set
// with O(1) membership. It lives for the duration of one bill's
// processing and is never shared across bills — a bill task owns its
// own registry value, so no mutex is needed here even though bills
// themselves may run concurrently.
type preferredRegistry struct {
	order   []string
	seen    map[string]struct{}
	version int // bumped every time Add grows the set; used by the candidates cache
}

func newPreferredRegistry() *preferredRegistry {
	return &preferredRegistry{
		seen: make(map[string]struct{}),
	}
}

// Add inserts invoiceID if not already present. No-op otherwise.
func (r *preferredRegistry) Add(invoiceID string) {
	if _, ok := r.seen[invoiceID]; ok {
		return
	}
	r.seen[invoiceID] = struct{}{}
	r.order = append(r.order, invoiceID)
	r.version++
}

// Contains reports insertion-order membership.
func (r *preferredRegistry) Contains(invoiceID string) bool {
	_, ok := r.seen[invoiceID]
	return ok
}

// Len returns the number of distinct invoice ids registered so far.
func (r *preferredRegistry) Len() int {
	return len(r.order)
}

// Pages returns the registry's ids split into chunks of at most
// pageSize, preserving insertion order.
func (r *preferredRegistry) Pages(pageSize int) [][]string {
	if len(r.order) == 0 {
		return nil
	}
	var pages [][]string
	for start := 0; start < len(r.order); start += pageSize {
		end := start + pageSize
		if end > len(r.order) {
			end = len(r.order)
		}
		pages = append(pages, r.order[start:end])
	}
	return pages
}

// snapshot returns the registry's current ids in insertion order, as a
// plain slice decoupled from future mutation. At flush time this set is
// exactly the invoice ids appearing in the emitted records, since Add is
// only ever called alongside a buffered match.
func (r *preferredRegistry) snapshot() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

