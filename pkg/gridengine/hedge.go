package gridengine

import (
	"math"
	"time"
)

// hedgeResult carries the directive (if any) the hedge controller wants
// to emit for the opposite side this tick.
type hedgeResult struct {
	Directive Directive
	Emitted   bool
}

// checkHedge evaluates side A's floating loss against its configured
// hedge threshold and, on breach, latches A and drives the opposite side
// B to absorb the loss with a single lump-sum volume equal to A's total
// open lots.
func checkHedge(rt *GlobalRuntime, settings *UserSettings, side Side, positions []Position, now float64, wallClock time.Time) hedgeResult {
	a := rt.session(side)
	aSettings := settings.side(side)
	if !a.Enabled || a.SessionID == "" || a.IsClosing || a.HedgeTriggered || aSettings.HedgeValue <= 0 {
		return hedgeResult{}
	}

	aPositions := positionsMatchingSession(positions, a.SessionID)
	var profit, lots float64
	for _, pos := range aPositions {
		profit += pos.Profit
		lots += pos.Volume
	}
	if profit > -aSettings.HedgeValue {
		return hedgeResult{}
	}

	a.HedgeTriggered = true
	if lots <= 0 {
		return hedgeResult{}
	}

	other := side.Other()
	b := rt.session(other)
	bSettings := settings.side(other)
	if b.IsClosing {
		return hedgeResult{} // retry next tick once B finishes closing.
	}

	price := rt.CurrentAsk
	if other == SideSell {
		price = rt.CurrentBid
	}

	if !b.Enabled || b.SessionID == "" || len(b.ExecMap) == 0 {
		return absorbIdle(b, bSettings, other, price, lots, now, wallClock)
	}
	return absorbRunning(b, bSettings, other, price, lots, now, wallClock)
}

// absorbIdle starts a fresh session on the idle side with a single row
// sized to the losing side's open lots. The row's Dollar is 0, so the
// planner treats it as a pause sentinel; it is executed directly here.
func absorbIdle(b *SessionState, bSettings *SideSettings, other Side, price, lots, now float64, wallClock time.Time) hedgeResult {
	b.SessionID = newSessionID(other)
	b.StartRef = price
	b.Enabled = true
	b.WaitingLimit = false
	b.ExecMap = make(map[int]*ExecRecord)

	bSettings.Rows = []GridLevel{{Index: 0, Dollar: 0, Lots: lots, Alert: true}}
	return insertHedgeExecution(b, 0, price, lots, now, wallClock, other, true)
}

// absorbRunning appends a new row to the already-running side, sized so
// the injected gap coincides with the current market. The level is a
// cosmetic artifact of the planner (it would trigger immediately if the
// planner ever reached it), not a future trigger, since it fires
// directly in this same tick for zero-latency hedging.
func absorbRunning(b *SessionState, bSettings *SideSettings, other Side, price, lots, now float64, wallClock time.Time) hedgeResult {
	lastIdx := -1
	lastPrice := price
	for i, rec := range b.ExecMap {
		if i > lastIdx {
			lastIdx, lastPrice = i, rec.EntryPrice
		}
	}
	gap := math.Abs(price - lastPrice)

	idx := len(bSettings.Rows)
	bSettings.Rows = append(bSettings.Rows, GridLevel{Index: idx, Dollar: gap, Lots: lots, Alert: true})
	return insertHedgeExecution(b, idx, price, lots, now, wallClock, other, true)
}

func insertHedgeExecution(b *SessionState, idx int, price, lots, now float64, wallClock time.Time, side Side, alert bool) hedgeResult {
	b.ExecMap[idx] = &ExecRecord{Index: idx, EntryPrice: price, Lots: lots, ViaHedge: true, Timestamp: formatWallClock(wallClock)}
	recomputeCumulatives(b)
	b.LastOrderSentTS = now
	return hedgeResult{
		Directive: entryDirective(side, lots, entryComment(b.SessionID, idx), alert),
		Emitted:   true,
	}
}

// formatWallClock renders the caller-injected wall clock as RFC3339, or
// the empty string when the caller left it zero (e.g. in unit tests that
// don't care about the stamp).
func formatWallClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
