package store

import (
	"context"
	"testing"

	"github.com/pinggolf/redblue-matcher/internal/model"
)

// These cover PostgresStore's input-validation branches that never touch
// the database, so a nil *sql.DB is safe to exercise them against.

func TestMatchOnInvoicesEmptyIDs(t *testing.T) {
	s := New(nil)
	lines, err := s.MatchOnInvoices(context.Background(), "BUYER", "SELLER", "SKU-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines != nil {
		t.Fatalf("expected nil lines, got %v", lines)
	}
}

func TestMatchOnInvoicesTooManyIDs(t *testing.T) {
	s := New(nil)
	ids := make([]string, MaxPageSize+1)
	for i := range ids {
		ids[i] = "inv"
	}
	_, err := s.MatchOnInvoices(context.Background(), "BUYER", "SELLER", "SKU-1", ids)
	if err == nil {
		t.Fatal("expected error for ids exceeding MaxPageSize")
	}
}

func TestInsertMatchRecordsEmpty(t *testing.T) {
	s := New(nil)
	if err := s.InsertMatchRecords(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error for empty records: %v", err)
	}
}

func TestInsertMatchRecordsTooMany(t *testing.T) {
	s := New(nil)
	records := make([]model.MatchRecord, MaxPageSize+1)
	if err := s.InsertMatchRecords(context.Background(), records); err == nil {
		t.Fatal("expected error for records exceeding MaxPageSize")
	}
}

func TestDeleteMatchesForBillsEmpty(t *testing.T) {
	s := New(nil)
	if err := s.DeleteMatchesForBills(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error for empty bill ids: %v", err)
	}
}
