package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/domain"
)

type sliceLedgerSource struct {
	entries []domain.LedgerEntry
	calls   int
	cutoffs []time.Time
}

func (s *sliceLedgerSource) ListEntriesSince(_ context.Context, afterSeq int64, settledBefore time.Time, limit int) ([]domain.LedgerEntry, error) {
	s.calls++
	s.cutoffs = append(s.cutoffs, settledBefore)
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.Seq <= afterSeq {
			continue
		}
		if !e.CreatedAt.Before(settledBefore) || len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

type recordingSink struct {
	batches [][]domain.LedgerEntry
	failAt  int
}

func (s *recordingSink) Insert(_ context.Context, entries []domain.LedgerEntry) error {
	if s.failAt > 0 && len(s.batches)+1 == s.failAt {
		return errors.New("clickhouse unavailable")
	}
	s.batches = append(s.batches, entries)
	return nil
}

type memWatermark struct {
	pos int64
}

func (w *memWatermark) Get(context.Context) (int64, error)    { return w.pos, nil }
func (w *memWatermark) Set(_ context.Context, p int64) error { w.pos = p; return nil }

func TestLedgerSyncService_Sync(t *testing.T) {
	source := &sliceLedgerSource{entries: entriesWithSeq(1, 2, 3, 4, 5, 6, 7)}
	sink := &recordingSink{}
	wm := &memWatermark{}
	svc := NewLedgerSyncService(source, sink, wm, 3, testLogger)

	n, err := svc.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, n)
	assert.Len(t, sink.batches, 3)
	assert.Equal(t, int64(7), wm.pos)
	assert.Equal(t, 3, source.calls, "a short batch ends the run")

	n, err = svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLedgerSyncService_ResumesFromWatermark(t *testing.T) {
	source := &sliceLedgerSource{entries: entriesWithSeq(10, 11, 12, 13)}
	sink := &recordingSink{}
	wm := &memWatermark{pos: 11}
	svc := NewLedgerSyncService(source, sink, wm, 0, testLogger)

	n, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(12), sink.batches[0][0].Seq)
}

func TestLedgerSyncService_FailedInsertKeepsWatermark(t *testing.T) {
	source := &sliceLedgerSource{entries: entriesWithSeq(1, 2, 3, 4)}
	sink := &recordingSink{failAt: 2}
	wm := &memWatermark{}
	svc := NewLedgerSyncService(source, sink, wm, 2, testLogger)

	n, err := svc.Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), wm.pos, "only stored batches advance the watermark")
}

func TestLedgerSyncService_StopsOnCancelledContext(t *testing.T) {
	source := &sliceLedgerSource{entries: entriesWithSeq(1)}
	svc := NewLedgerSyncService(source, &recordingSink{}, &memWatermark{}, 10, testLogger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Sync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, source.calls)
}

func TestLedgerSyncService_HoldsBackUnsettledEntries(t *testing.T) {
	entries := entriesWithSeq(1, 2, 3, 4)
	for i := range entries {
		entries[i].CreatedAt = fixedNow.Add(-2 * time.Minute)
	}
	// seq 3 was allocated by a transaction that is still open
	entries[2].CreatedAt = fixedNow.Add(-10 * time.Second)
	source := &sliceLedgerSource{entries: entries}
	wm := &memWatermark{}
	svc := NewLedgerSyncService(source, &recordingSink{}, wm, 10, testLogger)
	svc.now = fixedClock

	n, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), wm.pos, "the watermark stops before the unsettled entry")
	assert.Equal(t, fixedNow.Add(-defaultSettleLag), source.cutoffs[0])

	svc.now = func() time.Time { return fixedNow.Add(time.Minute) }
	n, err = svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(4), wm.pos)
}
