package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pinggolf/redblue-matcher/internal/model"
)

// PostgresStore is the lib/pq-backed CandidatePool + Cleaner
// implementation, modeled on the teacher's db.Queries wrapper over
// *sql.DB (internal/db/queries.go, internal/db/jobs.go).
type PostgresStore struct {
	db *sql.DB
}

// New creates a PostgresStore over an already-configured *sql.DB.
func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DB returns the underlying connection pool, for callers that need it
// for migrations or health checks.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) GetBill(ctx context.Context, billID string) (*model.Bill, error) {
	query := `
		SELECT id, buyer_tax_number, seller_tax_number
		FROM red_bills
		WHERE id = $1
	`
	var b model.Bill
	err := s.db.QueryRowContext(ctx, query, billID).Scan(&b.ID, &b.BuyerTax, &b.SellerTax)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bill %s: %w", billID, err)
	}
	return &b, nil
}

func (s *PostgresStore) ListBillLines(ctx context.Context, billID string) ([]model.BillLine, error) {
	query := `
		SELECT bill_id, line_id, sku, ABS(amount) AS target_amount, quantity, unit_price
		FROM red_bill_lines
		WHERE bill_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, fmt.Errorf("list bill lines for %s: %w", billID, err)
	}
	defer rows.Close()

	var lines []model.BillLine
	for rows.Next() {
		var l model.BillLine
		if err := rows.Scan(&l.BillID, &l.LineID, &l.SKU, &l.TargetAmount, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan bill line for %s: %w", billID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bill lines for %s: %w", billID, err)
	}
	return lines, nil
}

func (s *PostgresStore) StatForProduct(ctx context.Context, buyerTax, sellerTax, sku string) (model.CandidateStat, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(il.remaining_amount), 0)
		FROM blue_invoice_lines il
		JOIN blue_invoices i ON i.id = il.invoice_id
		WHERE i.buyer_tax_number = $1
		  AND i.seller_tax_number = $2
		  AND il.sku = $3
		  AND il.remaining_amount > 0
		  AND i.total_amount > 0
	`
	var stat model.CandidateStat
	err := s.db.QueryRowContext(ctx, query, buyerTax, sellerTax, sku).Scan(&stat.Count, &stat.TotalAmount)
	if err != nil {
		return model.CandidateStat{}, fmt.Errorf("stat for product %s: %w", sku, err)
	}
	return stat, nil
}

func (s *PostgresStore) MatchByTaxAndProduct(ctx context.Context, buyerTax, sellerTax, sku string) ([]model.InvoiceLine, error) {
	query := `
		SELECT il.invoice_id, il.line_id, il.sku, il.remaining_amount, il.quantity, il.unit_price, i.issue_time
		FROM blue_invoice_lines il
		JOIN blue_invoices i ON i.id = il.invoice_id
		WHERE i.buyer_tax_number = $1
		  AND i.seller_tax_number = $2
		  AND il.sku = $3
		  AND il.remaining_amount > 0
		  AND i.total_amount > 0
		ORDER BY il.remaining_amount DESC, il.invoice_id, il.line_id
	`
	return s.scanInvoiceLines(ctx, query, buyerTax, sellerTax, sku)
}

func (s *PostgresStore) MatchOnInvoices(ctx context.Context, buyerTax, sellerTax, sku string, invoiceIDs []string) ([]model.InvoiceLine, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	if len(invoiceIDs) > MaxPageSize {
		return nil, fmt.Errorf("match on invoices: %d ids exceeds max page size %d", len(invoiceIDs), MaxPageSize)
	}

	placeholders := make([]string, len(invoiceIDs))
	args := make([]interface{}, 0, len(invoiceIDs)+3)
	args = append(args, buyerTax, sellerTax, sku)
	for i, id := range invoiceIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+4)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT il.invoice_id, il.line_id, il.sku, il.remaining_amount, il.quantity, il.unit_price, i.issue_time
		FROM blue_invoice_lines il
		JOIN blue_invoices i ON i.id = il.invoice_id
		WHERE i.buyer_tax_number = $1
		  AND i.seller_tax_number = $2
		  AND il.sku = $3
		  AND il.remaining_amount > 0
		  AND i.total_amount > 0
		  AND il.invoice_id IN (%s)
		ORDER BY il.remaining_amount ASC, il.invoice_id, il.line_id
	`, strings.Join(placeholders, ","))

	return s.scanInvoiceLines(ctx, query, args...)
}

func (s *PostgresStore) scanInvoiceLines(ctx context.Context, query string, args ...interface{}) ([]model.InvoiceLine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []model.InvoiceLine
	for rows.Next() {
		var l model.InvoiceLine
		if err := rows.Scan(&l.InvoiceID, &l.LineID, &l.SKU, &l.RemainingAmount, &l.Quantity, &l.UnitPrice, &l.IssueTime); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice lines: %w", err)
	}
	return lines, nil
}

// InsertMatchRecords persists up to store.MaxPageSize records in one
// statement; partial failure rolls back the whole insert and aborts the
// bill.
func (s *PostgresStore) InsertMatchRecords(ctx context.Context, records []model.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > MaxPageSize {
		return fmt.Errorf("insert match records: %d exceeds max batch size %d", len(records), MaxPageSize)
	}

	const cols = 15
	placeholders := make([]string, len(records))
	args := make([]interface{}, 0, len(records)*cols)

	for i, r := range records {
		base := i * cols
		ph := make([]string, cols)
		for c := 0; c < cols; c++ {
			ph[c] = fmt.Sprintf("$%d", base+c+1)
		}
		placeholders[i] = "(" + strings.Join(ph, ",") + ")"

		args = append(args,
			r.BillID, r.BuyerTax, r.SellerTax, r.SKU,
			r.InvoiceID, r.InvoiceLineID, r.InvoiceQuantity,
			r.BillAmount, r.InvoiceAmount, r.MatchAmount,
			r.BillUnitPrice, r.BillQuantity, r.InvoiceUnitPrice,
			r.InvoiceQuantity2, r.MatchedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO red_blue_match_records (
			bill_id, buyer_tax_number, seller_tax_number, sku,
			invoice_id, invoice_line_id, invoice_quantity,
			bill_amount, invoice_amount, match_amount,
			bill_unit_price, bill_quantity, invoice_unit_price,
			invoice_quantity_2, matched_at
		) VALUES %s
	`, strings.Join(placeholders, ","))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin flush transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush transaction: %w", err)
	}
	return nil
}

// DeleteMatchesForBills removes previously emitted match rows for the
// given bill ids, so BatchMatch can be re-run idempotently.
func (s *PostgresStore) DeleteMatchesForBills(ctx context.Context, billIDs []string) error {
	if len(billIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(billIDs))
	args := make([]interface{}, len(billIDs))
	for i, id := range billIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`DELETE FROM red_blue_match_records WHERE bill_id IN (%s)`, strings.Join(placeholders, ","))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete matches for bills: %w", err)
	}
	return nil
}
