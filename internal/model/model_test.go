package model

import "testing"

func TestInvoiceLineKey(t *testing.T) {
	l := InvoiceLine{InvoiceID: "inv-1", LineID: "line-2"}
	want := InvoiceLineKey{InvoiceID: "inv-1", LineID: "line-2"}
	if got := l.Key(); got != want {
		t.Fatalf("Key() = %+v, want %+v", got, want)
	}
}

func TestBatchResultFailures(t *testing.T) {
	r := BatchResult{
		Outcomes: []BillOutcome{
			{BillID: "a", State: StateDone},
			{BillID: "b", State: StateFailed},
			{BillID: "c", State: StateDone},
			{BillID: "d", State: StateFailed},
		},
	}
	failures := r.Failures()
	if len(failures) != 2 {
		t.Fatalf("Failures() returned %d entries, want 2", len(failures))
	}
	if failures[0].BillID != "b" || failures[1].BillID != "d" {
		t.Fatalf("Failures() = %+v, want bills b then d", failures)
	}
}
