package gridengine

import "strings"

// tpTarget derives the monetary take-profit target T from the
// configured type/value and the tick's account snapshot.
func tpTarget(settings SideSettings, equity, balance float64) float64 {
	switch settings.TPType {
	case TPEquityPct:
		return equity * settings.TPValue / 100
	case TPBalancePct:
		return balance * settings.TPValue / 100
	case TPFixedMoney:
		return settings.TPValue
	default:
		return 0
	}
}

// takeProfitHit reports whether a side's floating+realized profit over
// its live positions has reached its configured target. A side with no
// active session or a non-positive tp_value is never evaluated. Profit
// is summed over the tick's raw positions (not the exec map) so that
// partial manual closes are reflected immediately — see the open
// question in the design notes.
func takeProfitHit(settings SideSettings, session *SessionState, positions []Position, equity, balance float64) bool {
	if session.SessionID == "" || settings.TPValue <= 0 {
		return false
	}
	target := tpTarget(settings, equity, balance)
	if target <= 0 {
		return false
	}
	var profit float64
	for _, pos := range positionsMatchingSession(positions, session.SessionID) {
		profit += pos.Profit
	}
	return profit >= target
}

// positionsMatchingSession returns positions whose comment contains the
// session id, regardless of which side the comment claims — this
// mirrors the spec's "comment contains the side's session id" wording,
// which is satisfied by construction since session ids are unique per
// side.
func positionsMatchingSession(positions []Position, sessionID string) []Position {
	if sessionID == "" {
		return nil
	}
	var out []Position
	for _, pos := range positions {
		if strings.Contains(pos.Comment, sessionID) {
			out = append(out, pos)
		}
	}
	return out
}
