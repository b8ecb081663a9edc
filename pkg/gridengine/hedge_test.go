package gridengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newHedgeSettings(hedgeValue float64) *UserSettings {
	return &UserSettings{
		Buy:  SideSettings{HedgeValue: hedgeValue},
		Sell: SideSettings{HedgeValue: hedgeValue},
	}
}

func TestCheckHedge_NoSessionIsNoop(t *testing.T) {
	rt := NewGlobalRuntime()
	rt.Buy.Enabled = true
	settings := newHedgeSettings(50)

	res := checkHedge(rt, settings, SideBuy, nil, 0, time.Time{})
	assert.False(t, res.Emitted)
}

func TestCheckHedge_ProfitAboveThresholdDoesNotTrigger(t *testing.T) {
	rt := NewGlobalRuntime()
	rt.Buy.Enabled = true
	rt.Buy.SessionID = "buy_a1b2c3d4"
	settings := newHedgeSettings(50)

	positions := []Position{{Comment: "buy_a1b2c3d4_idx0", Profit: -10, Volume: 0.01}}
	res := checkHedge(rt, settings, SideBuy, positions, 0, time.Time{})
	assert.False(t, res.Emitted)
	assert.False(t, rt.Buy.HedgeTriggered)
}

func TestCheckHedge_BreachLatchesAAndAbsorbsOnIdleB(t *testing.T) {
	rt := NewGlobalRuntime()
	rt.Buy.Enabled = true
	rt.Buy.SessionID = "buy_a1b2c3d4"
	rt.CurrentAsk = 99
	rt.CurrentBid = 98
	settings := newHedgeSettings(50)

	positions := []Position{{Comment: "buy_a1b2c3d4_idx0", Profit: -60, Volume: 0.03}}
	res := checkHedge(rt, settings, SideBuy, positions, 123, time.Time{})

	assert.True(t, rt.Buy.HedgeTriggered)
	assert.True(t, res.Emitted)
	assert.Equal(t, ActionSell, res.Directive.Action)
	assert.Equal(t, 0.03, res.Directive.Volume)
	assert.True(t, res.Directive.Alert)

	assert.NotEmpty(t, rt.Sell.SessionID)
	assert.Equal(t, 98.0, rt.Sell.StartRef)
	assert.Len(t, settings.Sell.Rows, 1)
	assert.Equal(t, 0.03, settings.Sell.Rows[0].Lots)
	assert.True(t, settings.Sell.Rows[0].Alert)
}

func TestCheckHedge_ZeroLotsLatchesWithoutEmitting(t *testing.T) {
	rt := NewGlobalRuntime()
	rt.Buy.Enabled = true
	rt.Buy.SessionID = "buy_a1b2c3d4"
	settings := newHedgeSettings(10)

	positions := []Position{{Comment: "buy_a1b2c3d4_idx0", Profit: -20, Volume: 0}}
	res := checkHedge(rt, settings, SideBuy, positions, 0, time.Time{})
	assert.True(t, rt.Buy.HedgeTriggered)
	assert.False(t, res.Emitted)
}

func TestCheckHedge_SkipsWhenOppositeSideIsClosing(t *testing.T) {
	rt := NewGlobalRuntime()
	rt.Buy.Enabled = true
	rt.Buy.SessionID = "buy_a1b2c3d4"
	rt.Sell.IsClosing = true
	settings := newHedgeSettings(10)

	positions := []Position{{Comment: "buy_a1b2c3d4_idx0", Profit: -20, Volume: 0.01}}
	res := checkHedge(rt, settings, SideBuy, positions, 0, time.Time{})
	assert.True(t, rt.Buy.HedgeTriggered)
	assert.False(t, res.Emitted)
}

func TestAbsorbRunning_AppendsRowSizedToMarketGap(t *testing.T) {
	rt := NewGlobalRuntime()
	rt.Sell.Enabled = true
	rt.Sell.SessionID = "sell_deadbeef"
	rt.Sell.ExecMap[0] = &ExecRecord{Index: 0, EntryPrice: 100}
	settings := newHedgeSettings(0)
	settings.Sell.Rows = []GridLevel{{Index: 0, Dollar: 10, Lots: 0.01}}

	res := absorbRunning(rt.Sell, &settings.Sell, SideSell, 105, 0.02, 10, time.Time{})
	assert.True(t, res.Emitted)
	assert.Equal(t, ActionSell, res.Directive.Action)
	assert.Len(t, settings.Sell.Rows, 2)
	assert.Equal(t, 5.0, settings.Sell.Rows[1].Dollar)
	assert.True(t, rt.Sell.ExecMap[1].ViaHedge)
}
