// Package matcherrors defines the error taxonomy a bill match session can
// fail with. Callers use errors.Is against the sentinels below;
// BillError wraps one with the bill it happened to and a short reason.
package matcherrors

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. These are the taxonomy, not wire error codes.
var (
	ErrBillNotFound         = errors.New("bill not found")
	ErrBillEmpty            = errors.New("bill has no lines")
	ErrCandidateQueryFailed = errors.New("candidate query failed")
	ErrPersistFailed        = errors.New("persist failed")
	ErrTimeout              = errors.New("bill timed out")
	ErrNumericOverflow      = errors.New("numeric overflow")
)

// BillError associates a bill ID with one of the sentinel kinds above,
// plus the underlying cause where one exists. A failed bill does not
// halt the batch; the batch response carries one of these per failure.
type BillError struct {
	BillID string
	Kind   error
	Cause  error
}

func (e *BillError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bill %s: %v: %v", e.BillID, e.Kind, e.Cause)
	}
	return fmt.Sprintf("bill %s: %v", e.BillID, e.Kind)
}

// Unwrap exposes the underlying cause (if any) so errors.Is/As can reach
// past a BillError into whatever failed underneath it — a sql.ErrNoRows,
// a driver error, and so on. Matching the BillError's own Kind goes
// through Is below, not through this chain.
func (e *BillError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, matcherrors.ErrBillNotFound) etc. match directly
// against the taxonomy kind, independent of whatever Cause is attached.
func (e *BillError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newBillError(billID string, kind, cause error) *BillError {
	return &BillError{BillID: billID, Kind: kind, Cause: cause}
}

func NotFound(billID string) *BillError {
	return newBillError(billID, ErrBillNotFound, nil)
}

func Empty(billID string) *BillError {
	return newBillError(billID, ErrBillEmpty, nil)
}

func CandidateQueryFailed(billID string, cause error) *BillError {
	return newBillError(billID, ErrCandidateQueryFailed, cause)
}

func PersistFailed(billID string, cause error) *BillError {
	return newBillError(billID, ErrPersistFailed, cause)
}

func Timeout(billID string) *BillError {
	return newBillError(billID, ErrTimeout, nil)
}

func NumericOverflow(billID string, cause error) *BillError {
	return newBillError(billID, ErrNumericOverflow, cause)
}
