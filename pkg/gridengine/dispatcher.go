package gridengine

// ProcessTick runs the full priority-ordered decision rule of a single
// tick against the engine's runtime and settings, mutating both in
// place, and returns the one directive to hand back to the caller plus
// any ledger rows cleared during this tick. The caller is responsible
// for persisting state, and draining the ledger rows to the audit
// writer, on any mutating branch before the response is sent —
// ProcessTick itself never does I/O.
func ProcessTick(rt *GlobalRuntime, settings *UserSettings, tick Tick) (Directive, []LedgerEntry) {
	// 1. Frozen — a prior conflict halts all decisions until cleared.
	if rt.ErrorStatus != "" {
		return waitWithError(rt.ErrorStatus), nil
	}

	// 2. Market update.
	updateMarket(rt, tick)

	// 3. Reconcile.
	if conflict := reconcile(rt, tick.Positions); conflict != "" {
		rt.ErrorStatus = conflict
		return waitWithError(conflict), nil
	}

	// 4. Pending one-shot close.
	if d, ok := popPendingClose(rt); ok {
		return d, nil
	}

	// 5. Close-confirmation, buy then sell.
	if d, entries, handled := checkCloseConfirmation(rt, SideBuy, tick.Positions, tick.Now); handled {
		return d, entries
	}
	if d, entries, handled := checkCloseConfirmation(rt, SideSell, tick.Positions, tick.Now); handled {
		return d, entries
	}

	// 6. Hedge check, buy then sell.
	if res := checkHedge(rt, settings, SideBuy, tick.Positions, tick.Now, tick.WallClock); res.Emitted {
		return res.Directive, nil
	}
	if res := checkHedge(rt, settings, SideSell, tick.Positions, tick.Now, tick.WallClock); res.Emitted {
		return res.Directive, nil
	}

	// 7. Take-profit, buy then sell.
	if takeProfitHit(settings.Buy, rt.Buy, tick.Positions, tick.Equity, tick.Balance) {
		rt.Buy.IsClosing = true
		rt.Buy.ClosingReason = LedgerReasonTP
		return closeAllDirective(rt.Buy.SessionID), nil
	}
	if takeProfitHit(settings.Sell, rt.Sell, tick.Positions, tick.Equity, tick.Balance) {
		rt.Sell.IsClosing = true
		rt.Sell.ClosingReason = LedgerReasonTP
		return closeAllDirective(rt.Sell.SessionID), nil
	}

	// 8. External-close, buy then sell. Does not short-circuit.
	var entries []LedgerEntry
	entries = append(entries, checkExternalClose(rt, SideBuy, tick.Positions, tick.Now)...)
	entries = append(entries, checkExternalClose(rt, SideSell, tick.Positions, tick.Now)...)

	// 9. Buy entry.
	if d, ok := evaluateEntry(rt, settings, SideBuy, tick); ok {
		return d, entries
	}

	// 10. Sell entry.
	if d, ok := evaluateEntry(rt, settings, SideSell, tick); ok {
		return d, entries
	}

	// 11. Default.
	return waitDirective(), entries
}

func updateMarket(rt *GlobalRuntime, tick Tick) {
	mid := (tick.Ask + tick.Bid) / 2
	if rt.CurrentMid != 0 {
		switch {
		case mid > rt.CurrentMid:
			rt.PriceDirection = DirUp
		case mid < rt.CurrentMid:
			rt.PriceDirection = DirDown
		default:
			rt.PriceDirection = DirNeutral
		}
	}
	rt.CurrentMid = mid
	rt.CurrentAsk = tick.Ask
	rt.CurrentBid = tick.Bid
}

func popPendingClose(rt *GlobalRuntime) (Directive, bool) {
	if len(rt.PendingActions) == 0 {
		return Directive{}, false
	}
	action := rt.PendingActions[0]
	rt.PendingActions = rt.PendingActions[1:]

	switch action.Kind {
	case PendingCloseBuy:
		return closeAllDirective(rt.Buy.SessionID), true
	case PendingCloseSell:
		return closeAllDirective(rt.Sell.SessionID), true
	case PendingCloseEmergency:
		return closeAllDirective("server"), true
	default:
		return waitDirective(), true
	}
}

// evaluateEntry implements priority steps 9/10 for one side. A session
// with no id is minted against the current price in the same pass that
// then checks the limit gate and the entry trigger. A limit-free session
// anchors StartRef at that price, so its first trigger lies one row gap
// away and it cannot fire on the tick it is minted. ok is true when the
// side emits a BUY/SELL directive this tick, and also when the next row
// is a pause sentinel, in which case the directive is WAIT.
func evaluateEntry(rt *GlobalRuntime, settings *UserSettings, side Side, tick Tick) (Directive, bool) {
	s := rt.session(side)
	cfg := settings.side(side)
	if !s.Enabled || s.IsClosing || s.HedgeTriggered {
		return Directive{}, false
	}

	price := tick.Ask
	if side == SideSell {
		price = tick.Bid
	}

	if s.SessionID == "" {
		s.SessionID = newSessionID(side)
		s.ExecMap = make(map[int]*ExecRecord)
		if cfg.LimitPrice > 0 {
			s.StartRef = cfg.LimitPrice
			s.WaitingLimit = true
		} else {
			s.StartRef = price
			s.WaitingLimit = false
		}
	}

	if s.WaitingLimit {
		gated := (side == SideBuy && price <= cfg.LimitPrice) || (side == SideSell && price >= cfg.LimitPrice)
		if gated {
			s.WaitingLimit = false
			s.StartRef = price
		}
		return Directive{}, false
	}

	plan := planNextEntry(side, s.StartRef, cfg.Rows, s.nextIndex())
	if plan.IsPause {
		return waitDirective(), true
	}
	if !plan.OK {
		return Directive{}, false
	}

	fire := (side == SideBuy && price <= plan.Trigger) || (side == SideSell && price >= plan.Trigger)
	if !fire {
		return Directive{}, false
	}

	s.ExecMap[plan.Index] = &ExecRecord{Index: plan.Index, EntryPrice: price, Timestamp: formatWallClock(tick.WallClock)}
	recomputeCumulatives(s)
	s.LastOrderSentTS = tick.Now
	return entryDirective(side, plan.Row.Lots, entryComment(s.SessionID, plan.Index), plan.Row.Alert), true
}
