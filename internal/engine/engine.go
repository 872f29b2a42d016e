// Package engine implements the batch matching engine: the bill loader,
// scarcity ranker, candidate source builder, and greedy filler/emitter,
// wired together into BatchMatch.
package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pinggolf/redblue-matcher/internal/matcherrors"
	"github.com/pinggolf/redblue-matcher/internal/model"
	"github.com/pinggolf/redblue-matcher/internal/store"
)

// ProgressReporter is notified as bills move through the batch. It
// mirrors the teacher's ProgressCallback pattern
// (internal/services/snapshot.go) so the out-of-scope HTTP/NATS layers
// can subscribe without the engine depending on either.
type ProgressReporter func(billID string, state model.BillState)

// BatchReporter is notified when a batch run starts and when it
// completes, keyed by the batch's generated identifier.
type BatchReporter func(batchID string, billIDs []string, result *model.BatchResult)

// Engine runs BatchMatch against a CandidatePool.
type Engine struct {
	pool         store.CandidatePool
	pageSize     int
	flushSize    int
	onProgress   ProgressReporter
	onBatchStart BatchReporter
	onBatchDone  BatchReporter
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithProgressReporter registers a callback invoked on every bill state
// transition.
func WithProgressReporter(r ProgressReporter) Option {
	return func(e *Engine) { e.onProgress = r }
}

// WithBatchStartReporter registers a callback invoked once per BatchMatch
// call, before any bill is processed.
func WithBatchStartReporter(r BatchReporter) Option {
	return func(e *Engine) { e.onBatchStart = r }
}

// WithBatchCompleteReporter registers a callback invoked once per
// BatchMatch call, after every bill has reached a terminal state.
func WithBatchCompleteReporter(r BatchReporter) Option {
	return func(e *Engine) { e.onBatchDone = r }
}

// New creates an Engine. pageSize and flushSize must be in (0, 1000] —
// the chunk and flush bounds the candidate queries and inserts respect.
func New(pool store.CandidatePool, pageSize, flushSize int, opts ...Option) *Engine {
	e := &Engine{pool: pool, pageSize: pageSize, flushSize: flushSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) report(billID string, state model.BillState) {
	if e.onProgress != nil {
		e.onProgress(billID, state)
	}
}

func (e *Engine) reportBatch(batchID string, billIDs []string) {
	if e.onBatchStart != nil {
		e.onBatchStart(batchID, billIDs, nil)
	}
}

func (e *Engine) reportBatchDone(batchID string, billIDs []string, result *model.BatchResult) {
	if e.onBatchDone != nil {
		e.onBatchDone(batchID, billIDs, result)
	}
}

// BatchMatch processes every bill id, returning a BatchResult with
// per-bill success/failure. Bills are processed with bounded
// parallelism; per-bill state (registry, matched totals, emit buffer)
// never crosses a bill boundary, so no synchronization is needed between
// bill tasks beyond the shared connection pool itself.
func (e *Engine) BatchMatch(ctx context.Context, billIDs []string, concurrency int, billTimeout time.Duration) model.BatchResult {
	batchID := uuid.New().String()
	e.reportBatch(batchID, billIDs)

	outcomes := make([]model.BillOutcome, len(billIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, billID := range billIDs {
		i, billID := i, billID
		g.Go(func() error {
			// A cancelled batch context stops picking up new bills
			// immediately.
			if gctx.Err() != nil {
				outcomes[i] = model.BillOutcome{BillID: billID, State: model.StateFailed, Err: gctx.Err()}
				return nil
			}

			billCtx := gctx
			if billTimeout > 0 {
				var cancel context.CancelFunc
				billCtx, cancel = context.WithTimeout(gctx, billTimeout)
				defer cancel()
			}

			outcomes[i] = e.matchOneBill(billCtx, billID)
			// A single bill's failure never aborts the batch.
			return nil
		})
	}

	// errgroup's own error is ignored: matchOneBill never returns a
	// group error, it only ever records outcomes[i]. g.Wait() here
	// purely joins the goroutines.
	_ = g.Wait()

	result := model.BatchResult{BatchID: batchID, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.State == model.StateDone {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}
	e.reportBatchDone(batchID, billIDs, &result)
	return result
}

// matchOneBill runs the full per-bill state machine: LOADED -> RANKED ->
// MATCHING(sku) -> FLUSHING -> DONE | FAILED(reason).
func (e *Engine) matchOneBill(ctx context.Context, billID string) model.BillOutcome {
	bill, err := e.pool.GetBill(ctx, billID)
	if err != nil {
		return e.failed(billID, matcherrors.CandidateQueryFailed(billID, err))
	}
	if bill == nil {
		return e.failed(billID, matcherrors.NotFound(billID))
	}
	e.report(billID, model.StateLoaded)

	lines, err := e.pool.ListBillLines(ctx, billID)
	if err != nil {
		return e.failed(billID, matcherrors.CandidateQueryFailed(billID, err))
	}
	if len(lines) == 0 {
		// Not an error: skip the bill.
		log.Printf("[bill %s] no lines, skipping", billID)
		return model.BillOutcome{BillID: billID, State: model.StateDone}
	}

	ranked, err := rankBillLines(ctx, e.pool, bill, lines)
	if err != nil {
		return e.failed(billID, matcherrors.CandidateQueryFailed(billID, err))
	}
	e.report(billID, model.StateRanked)

	f := newFiller(e.pool, e.pageSize, e.flushSize)

	e.report(billID, model.StateMatching)
	if err := f.run(ctx, bill, ranked, lines); err != nil {
		var billErr *matcherrors.BillError
		if errors.As(err, &billErr) {
			return e.failed(billID, billErr)
		}
		if ctx.Err() != nil {
			return e.failed(billID, matcherrors.Timeout(billID))
		}
		return e.failed(billID, matcherrors.CandidateQueryFailed(billID, err))
	}
	e.report(billID, model.StateFlushing)
	e.report(billID, model.StateDone)

	return model.BillOutcome{
		BillID:     billID,
		State:      model.StateDone,
		Records:    f.emitted,
		Shortfalls: f.shortfalls,
	}
}

func (e *Engine) failed(billID string, err error) model.BillOutcome {
	log.Printf("[bill %s] failed: %v", billID, err)
	e.report(billID, model.StateFailed)
	return model.BillOutcome{BillID: billID, State: model.StateFailed, Err: err}
}
