package gridengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelPrice_BuySubtractsInclusiveSum(t *testing.T) {
	rows := []GridLevel{
		{Index: 0, Dollar: 10, Lots: 0.01},
		{Index: 1, Dollar: 15, Lots: 0.02},
		{Index: 2, Dollar: 20, Lots: 0.03},
	}

	price, ok := levelPrice(SideBuy, 100, rows, 0)
	assert.True(t, ok)
	assert.Equal(t, 90.0, price, "idx0 trigger is start_ref minus its own dollar")

	price, ok = levelPrice(SideBuy, 100, rows, 1)
	assert.True(t, ok)
	assert.Equal(t, 75.0, price, "idx1 trigger sums dollar over idx0..idx1")

	price, ok = levelPrice(SideBuy, 100, rows, 2)
	assert.True(t, ok)
	assert.Equal(t, 55.0, price, "idx2 trigger sums dollar over idx0..idx2")
}

func TestLevelPrice_SellAddsInclusiveSum(t *testing.T) {
	rows := []GridLevel{
		{Index: 0, Dollar: 10, Lots: 0.01},
		{Index: 1, Dollar: 15, Lots: 0.02},
	}

	price, ok := levelPrice(SideSell, 100, rows, 1)
	assert.True(t, ok)
	assert.Equal(t, 125.0, price)
}

func TestLevelPrice_OutOfRangeIsNotOK(t *testing.T) {
	rows := []GridLevel{{Index: 0, Dollar: 10, Lots: 0.01}}

	_, ok := levelPrice(SideBuy, 100, rows, 1)
	assert.False(t, ok)

	_, ok = levelPrice(SideBuy, 100, rows, -1)
	assert.False(t, ok)
}

func TestPlanNextEntry_PauseSentinelHaltsProgression(t *testing.T) {
	rows := []GridLevel{
		{Index: 0, Dollar: 10, Lots: 0.01},
		{Index: 1, Dollar: 0, Lots: 0}, // pause sentinel
	}

	plan := planNextEntry(SideBuy, 100, rows, 1)
	assert.True(t, plan.IsPause)
	assert.False(t, plan.OK)
}

func TestPlanNextEntry_NoMoreRowsIsNotOK(t *testing.T) {
	rows := []GridLevel{{Index: 0, Dollar: 10, Lots: 0.01}}

	plan := planNextEntry(SideBuy, 100, rows, 1)
	assert.False(t, plan.OK)
	assert.False(t, plan.IsPause)
}

func TestPlanNextEntry_ValidRowComputesTrigger(t *testing.T) {
	rows := []GridLevel{{Index: 0, Dollar: 10, Lots: 0.01, Alert: true}}

	plan := planNextEntry(SideBuy, 100, rows, 0)
	assert.True(t, plan.OK)
	assert.False(t, plan.IsPause)
	assert.Equal(t, 90.0, plan.Trigger)
	assert.Equal(t, rows[0], plan.Row)
}
