package gridengine

import (
	"sync"
	"time"
)

// Store persists and reloads the engine's durable snapshot. Implementations
// live outside this package (internal/persistence/engine is the JSON
// write-then-rename adaptation); the engine never does I/O itself.
type Store interface {
	Load() (*PersistedState, error)
	Save(*PersistedState) error
}

// LedgerSink receives best-effort audit rows for executions cleared from a
// session's exec_map. Implementations must not block the caller for long —
// the engine holds its single lock while calling Record. A nil sink is a
// valid no-op default.
type LedgerSink interface {
	Record(entries []LedgerEntry)
}

type noopLedgerSink struct{}

func (noopLedgerSink) Record([]LedgerEntry) {}

// PersistedState is the full on-disk snapshot: settings, runtime, price
// history, and the last update timestamp, exactly as spec.md §6 describes.
type PersistedState struct {
	Settings     UserSettings  `json:"settings"`
	Runtime      *GlobalRuntime `json:"runtime"`
	PriceHistory []PriceSample `json:"price_history"`
	LastUpdateTS string        `json:"last_update_ts"`
}

// Engine is the single-writer owner of the grid's runtime and settings. One
// exclusive lock serializes tick, settings, and control requests exactly as
// spec.md §5 requires; persistence completes before the lock is released.
type Engine struct {
	mu sync.Mutex

	runtime      *GlobalRuntime
	settings     UserSettings
	priceHistory *PriceHistory
	lastUpdateTS string

	store  Store
	ledger LedgerSink
	clock  func() time.Time
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithLedger overrides the default no-op ledger sink.
func WithLedger(sink LedgerSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.ledger = sink
		}
	}
}

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewEngine loads the persisted snapshot from store (a missing snapshot is a
// fresh start, per spec.md §6) and returns a ready Engine.
func NewEngine(store Store, priceHistoryMax int, opts ...Option) (*Engine, error) {
	e := &Engine{
		runtime:      NewGlobalRuntime(),
		priceHistory: NewPriceHistory(priceHistoryMax),
		store:        store,
		ledger:       noopLedgerSink{},
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if state != nil {
		e.settings = state.Settings
		if state.Runtime != nil {
			e.runtime = state.Runtime
		}
		e.priceHistory.Load(state.PriceHistory, priceHistoryMax)
		e.lastUpdateTS = state.LastUpdateTS
	}
	return e, nil
}

func (e *Engine) snapshotLocked() *PersistedState {
	return &PersistedState{
		Settings:     e.settings,
		Runtime:      e.runtime,
		PriceHistory: e.priceHistory.Samples(),
		LastUpdateTS: e.lastUpdateTS,
	}
}

func (e *Engine) persistLocked() error {
	return e.store.Save(e.snapshotLocked())
}

// Tick runs one polling request end to end: timestamps it, folds it through
// the priority dispatcher, appends to the UI price-history ring, persists
// the resulting state, and hands cleared executions to the ledger sink — all
// under the engine's single lock.
func (e *Engine) Tick(req Tick) (Directive, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	req.Now = nowSeconds(now)
	req.WallClock = now

	mid := (req.Ask + req.Bid) / 2
	e.priceHistory.Append(PriceSample{Mid: mid, Timestamp: now.UnixMilli()})

	directive, entries := ProcessTick(e.runtime, &e.settings, req)
	e.lastUpdateTS = now.Format(time.RFC3339)

	if err := e.persistLocked(); err != nil {
		return directive, err
	}
	if len(entries) > 0 {
		e.ledger.Record(entries)
	}
	return directive, nil
}

// nowSeconds renders a wall clock as Unix seconds with sub-second
// precision, standing in for the monotonic clock spec.md's grace-period
// arithmetic assumes.
func nowSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// SettingsValidationError is returned by ApplySettingsUpdate when the
// incoming settings fail validation; the engine state is left untouched.
type SettingsValidationError struct{ Reason string }

func (e *SettingsValidationError) Error() string { return e.Reason }

// ApplySettingsUpdate merges incoming UserSettings into the current
// settings per spec.md §6: negative tp/hedge values reject the whole
// request; incoming rows that are pause sentinels are dropped; a row
// whose index already has an execution keeps its stored dollar/lots and
// only takes the incoming alert; every other row is replaced wholesale.
func (e *Engine) ApplySettingsUpdate(incoming UserSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if incoming.Buy.TPValue < 0 || incoming.Sell.TPValue < 0 {
		return &SettingsValidationError{Reason: "tp value cannot be negative"}
	}
	if incoming.Buy.HedgeValue < 0 || incoming.Sell.HedgeValue < 0 {
		return &SettingsValidationError{Reason: "hedge value cannot be negative"}
	}

	e.settings.Buy.LimitPrice = incoming.Buy.LimitPrice
	e.settings.Sell.LimitPrice = incoming.Sell.LimitPrice
	e.settings.Buy.TPType = incoming.Buy.TPType
	e.settings.Buy.TPValue = incoming.Buy.TPValue
	e.settings.Sell.TPType = incoming.Sell.TPType
	e.settings.Sell.TPValue = incoming.Sell.TPValue
	e.settings.Buy.HedgeValue = incoming.Buy.HedgeValue
	e.settings.Sell.HedgeValue = incoming.Sell.HedgeValue

	e.settings.Buy.Rows = mergeRows(incoming.Buy.Rows, e.settings.Buy.Rows, e.runtime.Buy.ExecMap)
	e.settings.Sell.Rows = mergeRows(incoming.Sell.Rows, e.settings.Sell.Rows, e.runtime.Sell.ExecMap)

	return e.persistLocked()
}

// mergeRows implements the per-row merge rule shared by both sides.
func mergeRows(incoming, current []GridLevel, execMap map[int]*ExecRecord) []GridLevel {
	byIndex := make(map[int]GridLevel, len(current))
	for _, row := range current {
		byIndex[row.Index] = row
	}

	final := make([]GridLevel, 0, len(incoming))
	for _, row := range incoming {
		if row.IsPauseSentinel() {
			continue
		}
		if old, executed := byIndex[row.Index]; executed {
			if _, hasExec := execMap[row.Index]; hasExec {
				final = append(final, GridLevel{Index: old.Index, Dollar: old.Dollar, Lots: old.Lots, Alert: row.Alert})
				continue
			}
		}
		final = append(final, row)
	}
	return final
}

// ControlRequest carries the optional fields of POST /api/control.
type ControlRequest struct {
	BuySwitch      *bool
	SellSwitch     *bool
	Cyclic         *bool
	EmergencyClose bool
}

// ApplyControl mutates the enabled switches and cyclic flag per spec.md §6.
// Turning a switch off enqueues a one-shot close and marks that side
// closing; emergency_close disables both switches and cyclic mode,
// marks both sides closing, enqueues an emergency close, and clears any
// freeze.
func (e *Engine) ApplyControl(req ControlRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.EmergencyClose {
		e.runtime.Buy.Enabled = false
		e.runtime.Sell.Enabled = false
		e.runtime.CyclicOn = false
		e.runtime.Buy.IsClosing = true
		e.runtime.Sell.IsClosing = true
		e.runtime.Buy.ClosingReason = LedgerReasonEmergency
		e.runtime.Sell.ClosingReason = LedgerReasonEmergency
		e.runtime.PendingActions = append(e.runtime.PendingActions, PendingAction{Kind: PendingCloseEmergency})
		e.runtime.ErrorStatus = ""
		return e.persistLocked()
	}

	if req.BuySwitch != nil {
		if e.runtime.Buy.Enabled && !*req.BuySwitch {
			e.runtime.PendingActions = append(e.runtime.PendingActions, PendingAction{Kind: PendingCloseBuy})
			e.runtime.Buy.IsClosing = true
			e.runtime.Buy.ClosingReason = LedgerReasonCloseConfirmed
		}
		e.runtime.Buy.Enabled = *req.BuySwitch
	}
	if req.SellSwitch != nil {
		if e.runtime.Sell.Enabled && !*req.SellSwitch {
			e.runtime.PendingActions = append(e.runtime.PendingActions, PendingAction{Kind: PendingCloseSell})
			e.runtime.Sell.IsClosing = true
			e.runtime.Sell.ClosingReason = LedgerReasonCloseConfirmed
		}
		e.runtime.Sell.Enabled = *req.SellSwitch
	}
	if req.Cyclic != nil {
		e.runtime.CyclicOn = *req.Cyclic
	}

	return e.persistLocked()
}

// Snapshot is the read model behind GET /api/ui-data.
type Snapshot struct {
	Settings     UserSettings  `json:"settings"`
	Runtime      *GlobalRuntime `json:"runtime"`
	PriceHistory []PriceSample `json:"price_history"`
	LastUpdateTS string        `json:"last_update_ts"`
}

// Snapshot returns a copy of the current UI-facing state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	runtime := *e.runtime
	buy := *e.runtime.Buy
	sell := *e.runtime.Sell
	runtime.Buy = &buy
	runtime.Sell = &sell
	return Snapshot{
		Settings:     e.settings,
		Runtime:      &runtime,
		PriceHistory: e.priceHistory.Samples(),
		LastUpdateTS: e.lastUpdateTS,
	}
}

// Health is the read model behind GET /api/health.
type Health struct {
	Status string  `json:"status"`
	Error  string  `json:"error"`
	Buy    bool    `json:"buy"`
	Sell   bool    `json:"sell"`
	Price  float64 `json:"price"`
}

// Health reports the engine's frozen/healthy status and both sides' switches.
func (e *Engine) Health() Health {
	e.mu.Lock()
	defer e.mu.Unlock()
	status := "healthy"
	if e.runtime.ErrorStatus != "" {
		status = "error"
	}
	return Health{
		Status: status,
		Error:  e.runtime.ErrorStatus,
		Buy:    e.runtime.Buy.Enabled,
		Sell:   e.runtime.Sell.Enabled,
		Price:  e.runtime.CurrentMid,
	}
}
