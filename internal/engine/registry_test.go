package engine

import "testing"

func TestPreferredRegistryAddIsNoOpForDuplicates(t *testing.T) {
	r := newPreferredRegistry()
	r.Add("inv-1")
	r.Add("inv-2")
	r.Add("inv-1")

	if got, want := r.Len(), 2; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	if got, want := r.version, 2; got != want {
		t.Fatalf("version = %d, want %d (duplicate Add must not bump it)", got, want)
	}
	if !r.Contains("inv-1") || !r.Contains("inv-2") {
		t.Fatalf("expected both ids registered")
	}
	if r.Contains("inv-3") {
		t.Fatalf("unexpected membership for inv-3")
	}
}

func TestPreferredRegistryPreservesInsertionOrder(t *testing.T) {
	r := newPreferredRegistry()
	ids := []string{"c", "a", "b", "a", "d"}
	for _, id := range ids {
		r.Add(id)
	}
	want := []string{"c", "a", "b", "d"}
	got := r.snapshot()
	if len(got) != len(want) {
		t.Fatalf("snapshot length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPreferredRegistryPages(t *testing.T) {
	r := newPreferredRegistry()
	for i := 0; i < 5; i++ {
		r.Add(string(rune('a' + i)))
	}
	pages := r.Pages(2)
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if len(pages[0]) != 2 || len(pages[1]) != 2 || len(pages[2]) != 1 {
		t.Fatalf("unexpected page sizes: %v", pages)
	}
}

func TestPreferredRegistryPagesEmpty(t *testing.T) {
	r := newPreferredRegistry()
	if pages := r.Pages(1000); pages != nil {
		t.Fatalf("expected nil pages for empty registry, got %v", pages)
	}
}
