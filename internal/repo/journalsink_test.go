package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridserver/pkg/gridengine"
)

func TestJournalSink_WritesOneFilePerRecordCall(t *testing.T) {
	dir := t.TempDir()
	sink := NewJournalSink(dir)

	sink.Record([]gridengine.LedgerEntry{
		{Side: gridengine.SideBuy, SessionID: "buy_abc12345", Index: 0, Reason: gridengine.LedgerReasonTP},
	})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.True(t, filepath.Ext(entries[0].Name()) == ".json")
}

func TestJournalSink_EmptyEntriesIsNoop(t *testing.T) {
	dir := t.TempDir()
	sink := NewJournalSink(dir)

	sink.Record(nil)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 0)
}
