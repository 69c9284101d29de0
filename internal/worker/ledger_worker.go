package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// LedgerSyncer mirrors new ledger entries into analytics storage
type LedgerSyncer interface {
	Sync(ctx context.Context) (int, error)
}

// OverdueScanner flags overdue loans
type OverdueScanner interface {
	ScanOverdue(ctx context.Context) (int, error)
}

// LedgerWorker runs the periodic ledger and loan maintenance tasks
type LedgerWorker struct {
	logger  *zap.Logger
	syncer  LedgerSyncer
	scanner OverdueScanner
}

// NewLedgerWorker creates a new ledger worker. A nil syncer disables ledger sync.
func NewLedgerWorker(logger *zap.Logger, syncer LedgerSyncer, scanner OverdueScanner) *LedgerWorker {
	return &LedgerWorker{
		logger:  logger,
		syncer:  syncer,
		scanner: scanner,
	}
}

// RegisterHandlers registers the ledger task handlers
func (w *LedgerWorker) RegisterHandlers(mux *asynq.ServeMux) {
	if w.syncer != nil {
		mux.HandleFunc(TypeLedgerSync, w.HandleLedgerSync)
	}
	mux.HandleFunc(TypeLoanOverdueScan, w.HandleOverdueScan)
}

// HandleLedgerSync copies ledger entries added since the last run
func (w *LedgerWorker) HandleLedgerSync(ctx context.Context, _ *asynq.Task) error {
	copied, err := w.syncer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("ledger sync failed after %d entries: %w", copied, err)
	}
	if copied > 0 {
		w.logger.Info("ledger entries mirrored", zap.Int("count", copied))
	}
	return nil
}

// HandleOverdueScan flags active loans whose payment is past due
func (w *LedgerWorker) HandleOverdueScan(ctx context.Context, _ *asynq.Task) error {
	flagged, err := w.scanner.ScanOverdue(ctx)
	if err != nil {
		return fmt.Errorf("overdue scan failed: %w", err)
	}
	w.logger.Info("overdue scan finished", zap.Int("flagged", flagged))
	return nil
}
