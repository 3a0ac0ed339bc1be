package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func breakdown(t *testing.T, real, freebet, bonus, exposure string) PoolBreakdown {
	t.Helper()
	b, err := NewPoolBreakdown("acc-1", "BRL", dec(real), dec(freebet), dec(bonus), dec(exposure))
	require.NoError(t, err)
	return b
}

func TestAllocate_WaterfallOrder(t *testing.T) {
	// Escenario de referencia: real=500, freebet=50, bonus=20, exposure=0
	b := breakdown(t, "500", "50", "20", "0")

	res := Allocate(dec("60"), b, true)

	assert.True(t, res.DebitBonus.Equal(dec("20")), "bonus drains first")
	assert.True(t, res.DebitFreebet.Equal(dec("40")), "freebet covers the rest")
	assert.True(t, res.DebitReal.IsZero(), "real untouched")
	assert.True(t, res.FullyCovered)
}

func TestAllocate_FreebetNotAllowed(t *testing.T) {
	b := breakdown(t, "500", "50", "20", "0")

	res := Allocate(dec("60"), b, false)

	assert.True(t, res.DebitBonus.Equal(dec("20")))
	assert.True(t, res.DebitFreebet.IsZero(), "freebet skipped when not allowed")
	assert.True(t, res.DebitReal.Equal(dec("40")))
	assert.True(t, res.FullyCovered)
}

func TestAllocate_DrawsFromAvailableNotReal(t *testing.T) {
	// real=500 pero exposure=480 → solo 20 disponibles
	b := breakdown(t, "500", "0", "0", "480")

	res := Allocate(dec("60"), b, true)

	assert.True(t, res.DebitReal.Equal(dec("20")), "capped at available, not real")
	assert.False(t, res.FullyCovered)
	assert.True(t, res.Remaining.Equal(dec("40")))
}

func TestAllocate_PartialReturnsSplit(t *testing.T) {
	b := breakdown(t, "10", "5", "3", "0")

	res := Allocate(dec("100"), b, true)

	// El reparto parcial se devuelve igualmente — el caller decide
	assert.True(t, res.DebitBonus.Equal(dec("3")))
	assert.True(t, res.DebitFreebet.Equal(dec("5")))
	assert.True(t, res.DebitReal.Equal(dec("10")))
	assert.True(t, res.Remaining.Equal(dec("82")))
	assert.False(t, res.FullyCovered)
}

func TestAllocate_TotalNeverExceedsStake(t *testing.T) {
	cases := []struct {
		name         string
		stake        string
		real         string
		freebet      string
		bonus        string
		allowFreebet bool
	}{
		{"exact fit", "573", "500", "53", "20", true},
		{"tiny stake", "0.01", "500", "50", "20", true},
		{"bonus only", "15", "0", "0", "20", true},
		{"nothing available", "50", "0", "0", "0", false},
		{"fractional pools", "99.99", "33.33", "33.33", "33.33", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := breakdown(t, tc.real, tc.freebet, tc.bonus, "0")
			stake := dec(tc.stake)

			res := Allocate(stake, b, tc.allowFreebet)

			total := res.TotalDebited()
			assert.True(t, total.LessThanOrEqual(stake), "total %s > stake %s", total, stake)
			// Igualdad sii FullyCovered
			assert.Equal(t, res.FullyCovered, total.Equal(stake))
			assert.True(t, total.Add(res.Remaining).Equal(stake))
		})
	}
}

func TestAllocate_ZeroStake(t *testing.T) {
	b := breakdown(t, "100", "0", "0", "0")

	res := Allocate(decimal.Zero, b, true)

	assert.True(t, res.FullyCovered)
	assert.True(t, res.TotalDebited().IsZero())
}
