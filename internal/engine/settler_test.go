package engine_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/bankroll/internal/domain"
	"github.com/alejandrodnm/bankroll/internal/engine"
)

type settlerFixture struct {
	ledger   *fakeLedger
	ops      *fakeOps
	computer *engine.BalanceComputer
	settler  *engine.Settler
}

func newSettlerFixture() *settlerFixture {
	ledger := newFakeLedger()
	ops := newFakeOps()
	computer := engine.NewBalanceComputer(ledger, ops)
	settler := engine.NewSettler(ledger, ops, computer, engine.WithSettlerClock(clock()))
	return &settlerFixture{ledger: ledger, ops: ops, computer: computer, settler: settler}
}

func op(id, account, stake, odd string) domain.Operation {
	return domain.Operation{
		ID:        id,
		AccountID: account,
		Stake:     dec(stake),
		Currency:  "BRL",
		Odd:       dec(odd),
	}
}

func TestPlaceStake_DebitsPromoPoolsAndOpensOperation(t *testing.T) {
	f := newSettlerFixture()
	f.ledger.add("acc-1", domain.PoolReal, "500", "BRL")
	f.ledger.add("acc-1", domain.PoolFreebet, "50", "BRL")
	f.ledger.add("acc-1", domain.PoolBonus, "20", "BRL")
	ctx := context.Background()

	alloc, err := f.settler.PlaceStake(ctx, op("op-1", "acc-1", "100", "2.0"), true)
	require.NoError(t, err)
	require.True(t, alloc.FullyCovered)

	// 20 bonus + 50 freebet debitados; 30 reales quedan como exposición
	assert.True(t, alloc.DebitBonus.Equal(dec("20")))
	assert.True(t, alloc.DebitFreebet.Equal(dec("50")))
	assert.True(t, alloc.DebitReal.Equal(dec("30")))

	b, err := f.computer.Compute(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, b.Bonus.IsZero())
	assert.True(t, b.Freebet.IsZero())
	assert.True(t, b.Real.Equal(dec("500")), "real untouched at placement")
	assert.True(t, b.Exposure.Equal(dec("30")))
	assert.True(t, b.Available.Equal(dec("470")))

	saved, found, err := f.ops.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.OperationOpen, saved.Status)
	assert.True(t, saved.RealStake.Equal(dec("30")))
}

func TestPlaceStake_PartialDoesNotMutate(t *testing.T) {
	f := newSettlerFixture()
	f.ledger.add("acc-1", domain.PoolReal, "10", "BRL")
	ctx := context.Background()

	alloc, err := f.settler.PlaceStake(ctx, op("op-1", "acc-1", "100", "2.0"), true)
	require.NoError(t, err)

	assert.False(t, alloc.FullyCovered)
	assert.True(t, alloc.Remaining.Equal(dec("90")))

	// Nada colocado: ni entradas nuevas ni operación
	b, err := f.computer.Compute(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, b.Exposure.IsZero())
	_, found, err := f.ops.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPlaceStake_RetrySafe(t *testing.T) {
	f := newSettlerFixture()
	f.ledger.add("acc-1", domain.PoolReal, "500", "BRL")
	f.ledger.add("acc-1", domain.PoolBonus, "20", "BRL")
	ctx := context.Background()

	first := op("op-1", "acc-1", "60", "2.0")
	_, err := f.settler.PlaceStake(ctx, first, false)
	require.NoError(t, err)

	// Reintento del mismo batch lógico: las claves deterministas lo anulan
	_, err = f.settler.PlaceStake(ctx, first, false)
	require.NoError(t, err)

	b, err := f.computer.Compute(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, b.Bonus.IsZero(), "bonus debited exactly once")
	assert.True(t, b.Exposure.Equal(dec("40")), "one open operation, not two")
}

func TestSettleWin_CreditsProfitOnly(t *testing.T) {
	f := newSettlerFixture()
	f.ledger.add("acc-1", domain.PoolReal, "500", "BRL")
	f.ledger.add("acc-1", domain.PoolFreebet, "50", "BRL")
	f.ledger.add("acc-1", domain.PoolBonus, "20", "BRL")
	ctx := context.Background()

	_, err := f.settler.PlaceStake(ctx, op("op-1", "acc-1", "100", "2.5"), true)
	require.NoError(t, err)

	require.NoError(t, f.settler.SettleWin(ctx, "op-1"))

	b, err := f.computer.Compute(ctx, "acc-1")
	require.NoError(t, err)

	// profit = 100 × 1.5 = 150 a REAL; el principal real (30) se libera con
	// la exposición; el principal promo (70) se consumió al colocar
	assert.True(t, b.Real.Equal(dec("650")), "got %s", b.Real)
	assert.True(t, b.Exposure.IsZero())
	assert.True(t, b.Available.Equal(dec("650")))
	assert.True(t, b.Freebet.IsZero())
	assert.True(t, b.Bonus.IsZero())
}

func TestSettleLoss_DebitsRealPortion(t *testing.T) {
	f := newSettlerFixture()
	f.ledger.add("acc-1", domain.PoolReal, "500", "BRL")
	f.ledger.add("acc-1", domain.PoolBonus, "20", "BRL")
	ctx := context.Background()

	_, err := f.settler.PlaceStake(ctx, op("op-1", "acc-1", "60", "2.0"), false)
	require.NoError(t, err)

	require.NoError(t, f.settler.SettleLoss(ctx, "op-1"))

	b, err := f.computer.Compute(ctx, "acc-1")
	require.NoError(t, err)

	// 40 reales perdidos; available vuelve a real − 0 exposición
	assert.True(t, b.Real.Equal(dec("460")))
	assert.True(t, b.Exposure.IsZero())
	assert.True(t, b.Available.Equal(dec("460")))
}

func TestSettle_Idempotent(t *testing.T) {
	f := newSettlerFixture()
	f.ledger.add("acc-1", domain.PoolReal, "500", "BRL")
	ctx := context.Background()

	_, err := f.settler.PlaceStake(ctx, op("op-1", "acc-1", "100", "2.0"), false)
	require.NoError(t, err)

	require.NoError(t, f.settler.SettleWin(ctx, "op-1"))
	require.NoError(t, f.settler.SettleWin(ctx, "op-1"), "settling twice is a no-op")

	b, err := f.computer.Compute(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, b.Real.Equal(dec("600")), "profit credited exactly once")
}

func TestPlaceStake_CurrencyMismatchRejected(t *testing.T) {
	f := newSettlerFixture()
	f.ledger.add("acc-1", domain.PoolReal, "500", "BRL")

	bad := op(uuid.New().String(), "acc-1", "50", "2.0")
	bad.Currency = "EUR"

	_, err := f.settler.PlaceStake(context.Background(), bad, false)
	assert.Error(t, err)
}

func TestPlaceStake_AvailableNeverGoesNegative(t *testing.T) {
	// Colocaciones sucesivas hasta agotar: el waterfall limita la porción
	// real a available, así que compute nunca puede dar negativo
	f := newSettlerFixture()
	f.ledger.add("acc-1", domain.PoolReal, "100", "BRL")
	ctx := context.Background()

	_, err := f.settler.PlaceStake(ctx, op("op-1", "acc-1", "60", "2.0"), false)
	require.NoError(t, err)

	// Solo quedan 40 disponibles: 60 ya no caben
	alloc, err := f.settler.PlaceStake(ctx, op("op-2", "acc-1", "60", "2.0"), false)
	require.NoError(t, err)
	assert.False(t, alloc.FullyCovered)

	b, err := f.computer.Compute(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, b.Available.Equal(dec("40")))
}
