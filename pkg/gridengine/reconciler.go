package gridengine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// tradeIDPattern matches a canonical managed-trade comment:
// "<side>_<8-hex>_idx<n>". Positions whose comment does not match belong
// to other tools and are ignored by the reconciler.
var tradeIDPattern = regexp.MustCompile(`^(sell|buy)_[0-9a-fA-F]{8}_idx(\d+)$`)

// parseTradeComment extracts the side, session id, and level index from a
// canonical trade comment. ok is false when the comment doesn't match the
// pattern at all.
func parseTradeComment(comment string) (side Side, sessionID string, idx int, ok bool) {
	m := tradeIDPattern.FindStringSubmatch(comment)
	if m == nil {
		return "", "", 0, false
	}
	side = Side(m[1])
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return "", "", 0, false
	}
	// session id is the side prefix + 8 hex chars preceding "_idx".
	rest := strings.TrimPrefix(comment, string(side)+"_")
	sessionID = string(side) + "_" + rest[:8]
	return side, sessionID, idx, true
}

// reconcile folds the tick's broker-reported positions into both
// sessions' exec maps. It returns a non-empty conflict message when a
// managed-looking position carries a session id that doesn't match the
// side's current session — the caller must freeze the engine on conflict
// and abort further reconciliation for this tick.
func reconcile(rt *GlobalRuntime, positions []Position) string {
	for _, pos := range positions {
		side, sid, idx, ok := parseTradeComment(pos.Comment)
		if !ok {
			continue // not a managed trade; belongs to another tool.
		}
		session := rt.session(side)
		if session.SessionID == "" || sid != session.SessionID {
			return fmt.Sprintf("CRITICAL: Conflict detected. Unknown %s trade %d.", side, pos.Ticket)
		}
		rec, exists := session.ExecMap[idx]
		if !exists {
			rec = &ExecRecord{Index: idx}
			session.ExecMap[idx] = rec
		}
		rec.EntryPrice = pos.Price
		rec.Lots = pos.Volume
		rec.Profit = pos.Profit
	}

	recomputeCumulatives(rt.Buy)
	recomputeCumulatives(rt.Sell)
	return ""
}

// recomputeCumulatives re-derives CumulativeLots/CumulativeProfit as the
// ascending-index prefix sums over the session's exec map.
func recomputeCumulatives(s *SessionState) {
	indices := make([]int, 0, len(s.ExecMap))
	for idx := range s.ExecMap {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var lots, profit float64
	for _, idx := range indices {
		rec := s.ExecMap[idx]
		lots += rec.Lots
		profit += rec.Profit
		rec.CumulativeLots = lots
		rec.CumulativeProfit = profit
	}
}
