package repo

import (
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"gridserver/pkg/gridengine"
	"gridserver/pkg/journal"
)

// JournalSink is the local fallback ledger when no Postgres DSN is
// configured: it writes the same entries the Postgres writer would have
// persisted, as timestamped JSON files, so a disabled ledger still leaves
// an audit trail on disk.
type JournalSink struct {
	writer *journal.Writer
}

// NewJournalSink roots the fallback at dir (created when the sink is built).
func NewJournalSink(dir string) *JournalSink {
	return &JournalSink{writer: journal.NewWriter(dir)}
}

// Record writes one journal file per call, matching gridengine's
// best-effort, never-blocking contract: a write failure is logged, not
// propagated.
func (s *JournalSink) Record(entries []gridengine.LedgerEntry) {
	if len(entries) == 0 {
		return
	}
	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"side":        string(e.Side),
			"session_id":  e.SessionID,
			"index":       e.Index,
			"entry_price": e.EntryPrice,
			"exit_profit": e.ExitProfit,
			"opened_at":   e.OpenedAt,
			"closed_at":   e.ClosedAt,
			"reason":      string(e.Reason),
		})
	}
	rec := &journal.CycleRecord{
		Timestamp: time.Now(),
		TraderID:  "ledger",
		Actions:   rows,
		Success:   true,
	}
	if _, err := s.writer.WriteCycle(rec); err != nil {
		logx.Errorf("ledger: journal fallback write failed: %v", err)
	}
}

var _ gridengine.LedgerSink = (*JournalSink)(nil)
