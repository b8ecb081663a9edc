package gridengine

// checkCloseConfirmation handles a side whose IsClosing flag is set. It
// returns (directive, ledger entries, handled) — handled is true if the
// side short-circuits the dispatcher's priority walk this tick (either a
// directive was emitted, or the side reset/recycled and the caller should
// return WAIT immediately).
func checkCloseConfirmation(rt *GlobalRuntime, side Side, positions []Position, now float64) (Directive, []LedgerEntry, bool) {
	s := rt.session(side)
	if !s.IsClosing {
		return Directive{}, nil, false
	}

	if len(positionsMatchingSession(positions, s.SessionID)) == 0 {
		reason := s.ClosingReason
		if reason == "" {
			reason = LedgerReasonCloseConfirmed
		}
		entries := resetOrRecycle(rt, side, now, reason)
		return waitDirective(), entries, true
	}

	return closeAllDirective(s.SessionID), nil, true
}

// resetOrRecycle clears a side's execution bookkeeping on close
// confirmation or external close, returning one ledger entry per cleared
// record. In cyclic mode the side is immediately rearmed at the current
// mid; otherwise it is fully disabled.
func resetOrRecycle(rt *GlobalRuntime, side Side, now float64, reason LedgerReason) []LedgerEntry {
	s := rt.session(side)
	entries := make([]LedgerEntry, 0, len(s.ExecMap))
	for _, rec := range s.ExecMap {
		r := reason
		if rec.ViaHedge {
			r = LedgerReasonHedgeAbsorption
		}
		entries = append(entries, LedgerEntry{
			Side:       side,
			SessionID:  s.SessionID,
			Index:      rec.Index,
			EntryPrice: rec.EntryPrice,
			ExitProfit: rec.Profit,
			OpenedAt:   rec.Timestamp,
			ClosedAt:   now,
			Reason:     r,
		})
	}

	s.ExecMap = make(map[int]*ExecRecord)
	s.HedgeTriggered = false
	s.IsClosing = false
	s.ClosingReason = ""

	if rt.CyclicOn {
		s.SessionID = ""
		s.StartRef = rt.CurrentMid
		s.Enabled = true
		return entries
	}

	s.Enabled = false
	s.SessionID = ""
	s.StartRef = 0
	s.WaitingLimit = false
	return entries
}

// checkExternalClose applies to a side with an active session and
// executions, not currently closing, once the grace period since the
// last dispatched order has elapsed. If the broker reports zero
// positions for the session, the user is assumed to have closed it
// manually in the terminal, and the side is cleared or recycled exactly
// like a confirmed close-all. Unlike close-confirmation, this check does
// not short-circuit the dispatcher: execution continues.
const externalCloseGracePeriod = 5.0 // seconds

func checkExternalClose(rt *GlobalRuntime, side Side, positions []Position, now float64) []LedgerEntry {
	s := rt.session(side)
	if s.SessionID == "" || len(s.ExecMap) == 0 || s.IsClosing {
		return nil
	}
	if now-s.LastOrderSentTS < externalCloseGracePeriod {
		return nil
	}
	if len(positionsMatchingSession(positions, s.SessionID)) > 0 {
		return nil
	}
	return resetOrRecycle(rt, side, now, LedgerReasonExternalClose)
}
