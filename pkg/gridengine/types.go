// Package gridengine implements the per-tick decision engine for a
// dual-sided grid trading strategy: session lifecycle, grid-level
// progression, take-profit evaluation, cross-hedge absorption, and
// close-all confirmation. The engine never places orders itself — it
// folds a tick's market snapshot and broker positions into its state and
// emits at most one directive in response.
package gridengine

import (
	"fmt"
	"time"
)

// Side identifies one leg of the dual-sided grid.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s Side) String() string { return string(s) }

// GridLevel is one configured row of a side's grid. A level with
// Dollar<=0 or Lots<=0 is a pause sentinel: the side halts progression at
// that index without executing.
type GridLevel struct {
	Index  int     `json:"index"`
	Dollar float64 `json:"dollar"`
	Lots   float64 `json:"lots"`
	Alert  bool    `json:"alert"`
}

// IsPauseSentinel reports whether the row should halt progression rather
// than dispatch an entry.
func (g GridLevel) IsPauseSentinel() bool {
	return g.Dollar <= 0 || g.Lots <= 0
}

// ExecRecord is the bookkeeping entry for one executed grid level.
// Cumulatives are derived: after any reconciliation they equal the
// ascending-index prefix sums over the session's exec map.
type ExecRecord struct {
	Index            int     `json:"index"`
	EntryPrice       float64 `json:"entry_price"`
	Lots             float64 `json:"lots"`
	Profit           float64 `json:"profit"`
	Timestamp        string  `json:"timestamp"`
	CumulativeLots   float64 `json:"cumulative_lots"`
	CumulativeProfit float64 `json:"cumulative_profit"`

	// ViaHedge marks a level inserted by the cross-hedge controller rather
	// than the ordinary planner, so the ledger writer can tag its eventual
	// close as hedge_absorption instead of the session's generic closing
	// reason. [EXPANSION], never consulted by the dispatcher.
	ViaHedge bool `json:"via_hedge,omitempty"`
}

// LedgerReason tags why a side's executions were cleared, for the audit
// trail appended to the trade ledger (see internal/repo.LedgerWriter).
// It never feeds back into a dispatcher decision.
type LedgerReason string

const (
	LedgerReasonTP              LedgerReason = "tp"
	LedgerReasonHedgeAbsorption LedgerReason = "hedge_absorption"
	LedgerReasonCloseConfirmed  LedgerReason = "close_confirmed"
	LedgerReasonExternalClose   LedgerReason = "external_close"
	LedgerReasonEmergency       LedgerReason = "emergency"
)

// SessionState holds one side's session lifecycle and execution
// bookkeeping. The tick dispatcher is the only writer.
type SessionState struct {
	Enabled         bool                `json:"enabled"`
	SessionID       string              `json:"session_id"`
	WaitingLimit    bool                `json:"waiting_limit"`
	StartRef        float64             `json:"start_ref"`
	ExecMap         map[int]*ExecRecord `json:"exec_map"`
	IsClosing       bool                `json:"is_closing"`
	HedgeTriggered  bool                `json:"hedge_triggered"`
	LastOrderSentTS float64             `json:"last_order_sent_ts"`

	// ClosingReason records why IsClosing was set, so the ledger writer
	// can tag the eventual close-confirmation row once exec_map clears.
	// [EXPANSION] beyond spec.md's literal SessionState fields, additive
	// only — never read by the dispatcher's decision rules.
	ClosingReason LedgerReason `json:"closing_reason,omitempty"`
}

func newSessionState() *SessionState {
	return &SessionState{ExecMap: make(map[int]*ExecRecord)}
}

// nextIndex is the next grid level to consider: always len(ExecMap).
func (s *SessionState) nextIndex() int { return len(s.ExecMap) }

// TPType enumerates how a side's take-profit target is expressed.
type TPType string

const (
	TPEquityPct  TPType = "equity_pct"
	TPBalancePct TPType = "balance_pct"
	TPFixedMoney TPType = "fixed_money"
)

// SideSettings holds the independent, user-controlled configuration for
// one side of the grid.
type SideSettings struct {
	LimitPrice  float64     `json:"limit_price"`
	TPType      TPType      `json:"tp_type"`
	TPValue     float64     `json:"tp_value"`
	HedgeValue  float64     `json:"hedge_value"`
	Rows        []GridLevel `json:"rows"`
}

// UserSettings bundles both sides' independent settings.
type UserSettings struct {
	Buy  SideSettings `json:"buy"`
	Sell SideSettings `json:"sell"`
}

func (u *UserSettings) side(s Side) *SideSettings {
	if s == SideBuy {
		return &u.Buy
	}
	return &u.Sell
}

// PriceSample is one entry of the UI price-history ring.
type PriceSample struct {
	Mid       float64 `json:"mid"`
	Timestamp int64   `json:"timestamp"`
}

// Direction tags whether the last tick moved the mid price up, down, or
// left it unchanged.
type Direction string

const (
	DirUp      Direction = "up"
	DirDown    Direction = "down"
	DirNeutral Direction = "neutral"
)

// GlobalRuntime is the full mutable state of the engine: both sessions,
// cyclic-mode flag, pending one-shot closes, last market snapshot, and
// the freeze flag.
type GlobalRuntime struct {
	Buy      *SessionState `json:"buy"`
	Sell     *SessionState `json:"sell"`
	CyclicOn bool          `json:"cyclic_on"`

	PendingActions []PendingAction `json:"pending_actions"`

	CurrentMid       float64   `json:"current_price"`
	CurrentAsk       float64   `json:"current_ask"`
	CurrentBid       float64   `json:"current_bid"`
	PriceDirection   Direction `json:"price_direction"`

	ErrorStatus string `json:"error_status"`
}

// NewGlobalRuntime returns a fresh runtime with both sides idle.
func NewGlobalRuntime() *GlobalRuntime {
	return &GlobalRuntime{
		Buy:            newSessionState(),
		Sell:           newSessionState(),
		PriceDirection: DirNeutral,
	}
}

func (r *GlobalRuntime) session(s Side) *SessionState {
	if s == SideBuy {
		return r.Buy
	}
	return r.Sell
}

// PendingActionKind enumerates one-shot close directives queued by the
// control endpoint between ticks.
type PendingActionKind string

const (
	PendingCloseBuy       PendingActionKind = "CLOSE_ALL_BUY"
	PendingCloseSell      PendingActionKind = "CLOSE_ALL_SELL"
	PendingCloseEmergency PendingActionKind = "CLOSE_ALL_EMERGENCY"
)

// PendingAction is one queued one-shot close-all directive.
type PendingAction struct {
	Kind PendingActionKind `json:"kind"`
}

// PriceHistory is a bounded ring of the last N mid-price samples, UI-only.
type PriceHistory struct {
	samples []PriceSample
	max     int
}

// NewPriceHistory returns a ring bounded to max samples.
func NewPriceHistory(max int) *PriceHistory {
	if max <= 0 {
		max = 100
	}
	return &PriceHistory{max: max}
}

// Append adds a sample, evicting the oldest entry once the ring is full.
func (p *PriceHistory) Append(sample PriceSample) {
	p.samples = append(p.samples, sample)
	if len(p.samples) > p.max {
		p.samples = p.samples[len(p.samples)-p.max:]
	}
}

// Samples returns the ring contents, oldest first.
func (p *PriceHistory) Samples() []PriceSample {
	out := make([]PriceSample, len(p.samples))
	copy(out, p.samples)
	return out
}

// Load replaces the ring contents wholesale, e.g. after a state reload.
func (p *PriceHistory) Load(samples []PriceSample, max int) {
	if max <= 0 {
		max = 100
	}
	p.max = max
	if len(samples) > max {
		samples = samples[len(samples)-max:]
	}
	p.samples = append([]PriceSample(nil), samples...)
}

// Position is a single broker-reported open position, as carried in a
// tick request.
type Position struct {
	Ticket  int64   `json:"ticket"`
	Symbol  string  `json:"symbol"`
	Type    string  `json:"type"` // "BUY" | "SELL"
	Volume  float64 `json:"volume"`
	Price   float64 `json:"price"`
	Profit  float64 `json:"profit"`
	Comment string  `json:"comment"`
}

// Tick is the normalized input of one polling request.
type Tick struct {
	AccountID string     `json:"account_id"`
	Equity    float64    `json:"equity"`
	Balance   float64    `json:"balance"`
	Symbol    string     `json:"symbol"`
	Ask       float64    `json:"ask"`
	Bid       float64    `json:"bid"`
	Positions []Position `json:"positions"`
	Now       float64    `json:"-"` // monotonic seconds, injected by the caller
	WallClock time.Time  `json:"-"` // injected by the caller, stamps new exec records
}

// ActionKind enumerates the directive returned for a tick.
type ActionKind string

const (
	ActionWait     ActionKind = "WAIT"
	ActionBuy      ActionKind = "BUY"
	ActionSell     ActionKind = "SELL"
	ActionCloseAll ActionKind = "CLOSE_ALL"
)

// Directive is the engine's response to a tick: at most one of place a
// buy, place a sell, close all trades for a session, or wait.
type Directive struct {
	Action  ActionKind `json:"action"`
	Volume  float64    `json:"volume,omitempty"`
	Comment string     `json:"comment,omitempty"`
	Alert   bool       `json:"alert,omitempty"`
	Error   string     `json:"error,omitempty"`
}

func waitDirective() Directive { return Directive{Action: ActionWait} }

func waitWithError(err string) Directive {
	return Directive{Action: ActionWait, Error: err}
}

func closeAllDirective(comment string) Directive {
	return Directive{Action: ActionCloseAll, Comment: comment}
}

// LedgerEntry is one durable audit row describing executions cleared from
// a session's exec_map, either on close-confirmation or external-close.
// [EXPANSION §4.9]: purely additive, never read back by the dispatcher.
type LedgerEntry struct {
	Side        Side         `json:"side"`
	SessionID   string       `json:"session_id"`
	Index       int          `json:"index"`
	EntryPrice  float64      `json:"entry_price"`
	ExitProfit  float64      `json:"exit_profit"`
	OpenedAt    string       `json:"opened_at"`
	ClosedAt    float64      `json:"closed_at"`
	Reason      LedgerReason `json:"reason"`
}

func entryDirective(side Side, volume float64, comment string, alert bool) Directive {
	kind := ActionBuy
	if side == SideSell {
		kind = ActionSell
	}
	return Directive{Action: kind, Volume: volume, Comment: comment, Alert: alert}
}

// entryComment builds the "<sid>_idx<k>" comment used for entries.
func entryComment(sessionID string, idx int) string {
	return fmt.Sprintf("%s_idx%d", sessionID, idx)
}
