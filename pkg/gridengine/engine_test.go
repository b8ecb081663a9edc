package gridengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	state *PersistedState
	saves int
}

func (m *memStore) Load() (*PersistedState, error) { return m.state, nil }
func (m *memStore) Save(s *PersistedState) error {
	m.saves++
	m.state = s
	return nil
}

type memLedger struct {
	entries []LedgerEntry
}

func (m *memLedger) Record(entries []LedgerEntry) {
	m.entries = append(m.entries, entries...)
}

func TestNewEngine_FreshStartWhenStoreHasNoState(t *testing.T) {
	store := &memStore{}
	e, err := NewEngine(store, 10)
	require.NoError(t, err)
	assert.False(t, e.runtime.Buy.Enabled)
	assert.Equal(t, 10, e.priceHistory.max)
}

func TestNewEngine_RestoresPersistedRuntime(t *testing.T) {
	persisted := &PersistedState{
		Settings: UserSettings{Buy: SideSettings{LimitPrice: 42}},
		Runtime:  NewGlobalRuntime(),
		LastUpdateTS: "2026-01-01T00:00:00Z",
	}
	persisted.Runtime.Buy.Enabled = true
	store := &memStore{state: persisted}

	e, err := NewEngine(store, 10)
	require.NoError(t, err)
	assert.True(t, e.runtime.Buy.Enabled)
	assert.Equal(t, 42.0, e.settings.Buy.LimitPrice)
	assert.Equal(t, "2026-01-01T00:00:00Z", e.lastUpdateTS)
}

func TestEngine_Tick_PersistsAndUpdatesPriceHistory(t *testing.T) {
	store := &memStore{}
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e, err := NewEngine(store, 10, WithClock(func() time.Time { return clock }))
	require.NoError(t, err)

	d, err := e.Tick(Tick{Ask: 100, Bid: 99})
	require.NoError(t, err)
	assert.Equal(t, ActionWait, d.Action)
	assert.Equal(t, 1, store.saves)
	assert.Len(t, e.priceHistory.Samples(), 1)
	assert.Equal(t, 99.5, e.priceHistory.Samples()[0].Mid)
}

func TestEngine_Tick_DrainsLedgerEntriesToSink(t *testing.T) {
	store := &memStore{}
	ledger := &memLedger{}
	e, err := NewEngine(store, 10, WithLedger(ledger))
	require.NoError(t, err)

	require.NoError(t, e.ApplySettingsUpdate(UserSettings{
		Buy: SideSettings{Rows: []GridLevel{{Index: 0, Dollar: 10, Lots: 0.01}}},
	}))
	require.NoError(t, e.ApplyControl(ControlRequest{BuySwitch: boolPtr(true)}))

	_, err = e.Tick(Tick{Ask: 100, Bid: 99})
	require.NoError(t, err)

	_, err = e.Tick(Tick{Ask: 89, Bid: 88})
	require.NoError(t, err)
	require.NotEmpty(t, e.runtime.Buy.ExecMap, "entry should have executed once price crossed the trigger")

	require.NoError(t, e.ApplyControl(ControlRequest{BuySwitch: boolPtr(false)}))

	d, err := e.Tick(Tick{Ask: 89, Bid: 88})
	require.NoError(t, err)
	assert.Equal(t, ActionCloseAll, d.Action, "the queued pending close fires before close-confirmation is ever checked")

	_, err = e.Tick(Tick{Ask: 89, Bid: 88})
	require.NoError(t, err)

	assert.Len(t, ledger.entries, 1)
	assert.Equal(t, LedgerReasonCloseConfirmed, ledger.entries[0].Reason)
}

func TestApplySettingsUpdate_RejectsNegativeTPValue(t *testing.T) {
	store := &memStore{}
	e, err := NewEngine(store, 10)
	require.NoError(t, err)

	err = e.ApplySettingsUpdate(UserSettings{Buy: SideSettings{TPValue: -1}})
	var verr *SettingsValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestApplySettingsUpdate_RejectsNegativeHedgeValue(t *testing.T) {
	store := &memStore{}
	e, err := NewEngine(store, 10)
	require.NoError(t, err)

	err = e.ApplySettingsUpdate(UserSettings{Buy: SideSettings{HedgeValue: -1}})
	var verr *SettingsValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestMergeRows_PreservesExecutedRowDollarAndLotsButTakesIncomingAlert(t *testing.T) {
	current := []GridLevel{{Index: 0, Dollar: 10, Lots: 0.01, Alert: false}}
	incoming := []GridLevel{{Index: 0, Dollar: 999, Lots: 999, Alert: true}}
	execMap := map[int]*ExecRecord{0: {Index: 0}}

	merged := mergeRows(incoming, current, execMap)
	require.Len(t, merged, 1)
	assert.Equal(t, 10.0, merged[0].Dollar)
	assert.Equal(t, 0.01, merged[0].Lots)
	assert.True(t, merged[0].Alert)
}

func TestMergeRows_UnexecutedRowIsReplacedWholesale(t *testing.T) {
	current := []GridLevel{{Index: 0, Dollar: 10, Lots: 0.01}}
	incoming := []GridLevel{{Index: 0, Dollar: 20, Lots: 0.02}}

	merged := mergeRows(incoming, current, map[int]*ExecRecord{})
	require.Len(t, merged, 1)
	assert.Equal(t, 20.0, merged[0].Dollar)
	assert.Equal(t, 0.02, merged[0].Lots)
}

func TestMergeRows_DropsPauseSentinelRows(t *testing.T) {
	incoming := []GridLevel{{Index: 0, Dollar: 0, Lots: 0}}
	merged := mergeRows(incoming, nil, map[int]*ExecRecord{})
	assert.Empty(t, merged)
}

func TestApplyControl_TurningSwitchOffEnqueuesOneShotClose(t *testing.T) {
	store := &memStore{}
	e, err := NewEngine(store, 10)
	require.NoError(t, err)
	require.NoError(t, e.ApplyControl(ControlRequest{BuySwitch: boolPtr(true)}))

	require.NoError(t, e.ApplyControl(ControlRequest{BuySwitch: boolPtr(false)}))
	assert.True(t, e.runtime.Buy.IsClosing)
	assert.False(t, e.runtime.Buy.Enabled)
	require.Len(t, e.runtime.PendingActions, 1)
	assert.Equal(t, PendingCloseBuy, e.runtime.PendingActions[0].Kind)
}

func TestApplyControl_EmergencyCloseDisablesBothSidesAndClearsFreeze(t *testing.T) {
	store := &memStore{}
	e, err := NewEngine(store, 10)
	require.NoError(t, err)
	e.runtime.ErrorStatus = "CRITICAL: some conflict"
	require.NoError(t, e.ApplyControl(ControlRequest{BuySwitch: boolPtr(true), SellSwitch: boolPtr(true), Cyclic: boolPtr(true)}))

	require.NoError(t, e.ApplyControl(ControlRequest{EmergencyClose: true}))
	assert.False(t, e.runtime.Buy.Enabled)
	assert.False(t, e.runtime.Sell.Enabled)
	assert.False(t, e.runtime.CyclicOn)
	assert.True(t, e.runtime.Buy.IsClosing)
	assert.True(t, e.runtime.Sell.IsClosing)
	assert.Empty(t, e.runtime.ErrorStatus)
	require.NotEmpty(t, e.runtime.PendingActions)
	assert.Equal(t, PendingCloseEmergency, e.runtime.PendingActions[len(e.runtime.PendingActions)-1].Kind)
}

func TestSnapshot_ReturnsIndependentCopyOfSessions(t *testing.T) {
	store := &memStore{}
	e, err := NewEngine(store, 10)
	require.NoError(t, err)

	snap := e.Snapshot()
	snap.Runtime.Buy.Enabled = true
	assert.False(t, e.runtime.Buy.Enabled, "mutating the snapshot must not leak back into engine state")
}

func TestHealth_ReportsErrorStatusWhenFrozen(t *testing.T) {
	store := &memStore{}
	e, err := NewEngine(store, 10)
	require.NoError(t, err)
	e.runtime.ErrorStatus = "CRITICAL: boom"

	h := e.Health()
	assert.Equal(t, "error", h.Status)
	assert.Equal(t, "CRITICAL: boom", h.Error)
}

func boolPtr(b bool) *bool { return &b }
