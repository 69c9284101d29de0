package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/pkg/metrics"
)

const (
	defaultSyncBatch = 1000
	// defaultSettleLag bounds how long a posting transaction may stay open
	// before its entries can be passed over by the watermark
	defaultSettleLag = time.Minute
)

// LedgerSource reads ledger entries in sequence order
type LedgerSource interface {
	ListEntriesSince(ctx context.Context, afterSeq int64, settledBefore time.Time, limit int) ([]domain.LedgerEntry, error)
}

// LedgerSink stores mirrored ledger entries
type LedgerSink interface {
	Insert(ctx context.Context, entries []domain.LedgerEntry) error
}

// SyncWatermark persists the last mirrored ledger sequence
type SyncWatermark interface {
	Get(ctx context.Context) (int64, error)
	Set(ctx context.Context, pos int64) error
}

// LedgerSyncService copies new ledger entries into the analytics store
type LedgerSyncService struct {
	source    LedgerSource
	sink      LedgerSink
	watermark SyncWatermark
	batchSize int
	settleLag time.Duration
	logger    *zap.Logger
	now       Clock
}

// NewLedgerSyncService creates a new ledger sync service
func NewLedgerSyncService(source LedgerSource, sink LedgerSink, watermark SyncWatermark, batchSize int, logger *zap.Logger) *LedgerSyncService {
	if batchSize <= 0 {
		batchSize = defaultSyncBatch
	}
	return &LedgerSyncService{
		source:    source,
		sink:      sink,
		watermark: watermark,
		batchSize: batchSize,
		settleLag: defaultSettleLag,
		logger:    logger,
		now:       utcNow,
	}
}

// Sync mirrors every settled entry after the watermark and returns how many
// were copied. Entries younger than the settle lag wait for the next run since
// sequence numbers can commit out of order. The watermark only advances after
// a batch is stored, so a failed run is retried from the last stored batch.
// The mirror table deduplicates on replay.
func (s *LedgerSyncService) Sync(ctx context.Context) (int, error) {
	pos, err := s.watermark.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger watermark: %w", err)
	}

	settledBefore := s.now().Add(-s.settleLag)
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		entries, err := s.source.ListEntriesSince(ctx, pos, settledBefore, s.batchSize)
		if err != nil {
			return total, err
		}
		if len(entries) == 0 {
			break
		}

		if err := s.sink.Insert(ctx, entries); err != nil {
			return total, fmt.Errorf("failed to mirror ledger entries: %w", err)
		}

		pos = entries[len(entries)-1].Seq
		if err := s.watermark.Set(ctx, pos); err != nil {
			return total, fmt.Errorf("failed to store ledger watermark: %w", err)
		}

		total += len(entries)
		metrics.RecordLedgerSynced(len(entries))

		if len(entries) < s.batchSize {
			break
		}
	}

	if total > 0 {
		s.logger.Info("ledger entries mirrored", zap.Int("count", total), zap.Int64("watermark", pos))
	}
	return total, nil
}
