// Package repo persists cleared grid executions to the Postgres trade
// ledger. Writing is strictly best-effort: the decision path never blocks
// on it, and a struggling or absent database degrades the ledger to
// drop-oldest rather than backing pressure onto ticks.
package repo

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"gridserver/pkg/gridengine"
)

// LedgerWriter batches LedgerEntry rows onto a background goroutine and
// flushes them to Postgres, implementing gridengine.LedgerSink.
type LedgerWriter struct {
	conn          sqlx.SqlConn
	ch            chan gridengine.LedgerEntry
	batchSize     int
	flushInterval time.Duration
	done          chan struct{}
	stopped       chan struct{}
}

// NewLedgerWriter starts the background consumer and returns a ready
// writer. bufferSize bounds how many unflushed entries may queue before
// the oldest is dropped; batchSize/flushInterval bound how large, and how
// stale, a batch may get before it is written.
func NewLedgerWriter(conn sqlx.SqlConn, bufferSize, batchSize int, flushInterval time.Duration) *LedgerWriter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	w := &LedgerWriter{
		conn:          conn,
		ch:            make(chan gridengine.LedgerEntry, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go w.run()
	return w
}

// Record enqueues entries for background persistence. A full buffer drops
// its oldest entry to make room — a logged, never-blocking degradation.
func (w *LedgerWriter) Record(entries []gridengine.LedgerEntry) {
	for _, e := range entries {
		if len(w.ch) == cap(w.ch) {
			logx.Errorf("ledger: buffer full, dropping oldest entry to queue session=%s idx=%d", e.SessionID, e.Index)
		}
		if !enqueueDropOldest(w.ch, e) {
			logx.Errorf("ledger: buffer full, dropped entry session=%s idx=%d", e.SessionID, e.Index)
		}
	}
}

// enqueueDropOldest sends e on ch, evicting the oldest queued entry to
// make room if ch is full. It returns false only when even the retry
// after eviction fails (another sender filled the freed slot before this
// one could resend — vanishingly rare with a single producer).
func enqueueDropOldest(ch chan gridengine.LedgerEntry, e gridengine.LedgerEntry) bool {
	select {
	case ch <- e:
		return true
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- e:
		return true
	default:
		return false
	}
}

// Close stops the consumer after flushing whatever is queued.
func (w *LedgerWriter) Close() {
	close(w.done)
	<-w.stopped
}

func (w *LedgerWriter) run() {
	defer close(w.stopped)
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]gridengine.LedgerEntry, 0, w.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.insertBatch(batch); err != nil {
			logx.Errorf("ledger: batch insert failed, dropping %d entries: %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-w.ch:
			batch = append(batch, e)
			if len(batch) >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.done:
			for {
				select {
				case e := <-w.ch:
					batch = append(batch, e)
					if len(batch) >= w.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

const insertLedgerEntry = `
INSERT INTO ledger_entries (
	side, session_id, index, entry_price, exit_profit, opened_at, closed_at, reason
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (w *LedgerWriter) insertBatch(batch []gridengine.LedgerEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return w.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		for _, e := range batch {
			if _, err := session.ExecCtx(ctx, insertLedgerEntry,
				string(e.Side), e.SessionID, e.Index, e.EntryPrice, e.ExitProfit,
				e.OpenedAt, e.ClosedAt, string(e.Reason),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ gridengine.LedgerSink = (*LedgerWriter)(nil)
