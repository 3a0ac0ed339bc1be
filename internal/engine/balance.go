package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/internal/domain"
	"github.com/alejandrodnm/bankroll/internal/ports"
)

// BalanceComputer agrega el libro de una cuenta en su desglose canónico.
// Lectura pura, sin efectos: el breakdown es siempre una proyección.
type BalanceComputer struct {
	ledger ports.LedgerStore
	ops    ports.OperationStore
}

// NewBalanceComputer crea el computer sobre los stores dados.
func NewBalanceComputer(ledger ports.LedgerStore, ops ports.OperationStore) *BalanceComputer {
	return &BalanceComputer{ledger: ledger, ops: ops}
}

// Compute suma las entradas del libro por pool, agrega la exposición de las
// operaciones abiertas y deriva available y operable. Una cuenta sin
// entradas es válida y devuelve el breakdown en cero.
//
// Si available quedaría negativo — o un pool suma negativo, o el libro
// mezcla monedas — devuelve BalanceIntegrityFault en vez de recortar:
// recortar escondería el bug aguas arriba.
func (bc *BalanceComputer) Compute(ctx context.Context, accountID string) (domain.PoolBreakdown, error) {
	entries, err := bc.ledger.EntriesByAccount(ctx, accountID)
	if err != nil {
		return domain.PoolBreakdown{}, fmt.Errorf("engine.Compute: read ledger %s: %w", accountID, err)
	}
	if len(entries) == 0 {
		return domain.ZeroBreakdown(accountID), nil
	}

	currency := entries[0].Currency
	sums := map[domain.Pool]decimal.Decimal{}
	for _, e := range entries {
		if !e.Pool.Valid() {
			return domain.PoolBreakdown{}, &domain.BalanceIntegrityFault{
				AccountID: accountID,
				Detail:    fmt.Sprintf("unknown pool %q in entry %s", e.Pool, e.IdempotencyKey),
			}
		}
		if e.Currency != currency {
			// El libro de una cuenta es monomoneda: un agregado mixto sería
			// una conversión implícita disfrazada.
			return domain.PoolBreakdown{}, &domain.BalanceIntegrityFault{
				AccountID: accountID,
				Detail:    fmt.Sprintf("mixed currencies %s and %s in ledger", currency, e.Currency),
			}
		}
		sums[e.Pool] = sums[e.Pool].Add(e.Amount)
	}

	exposure, err := bc.exposure(ctx, accountID, currency)
	if err != nil {
		return domain.PoolBreakdown{}, err
	}

	return domain.NewPoolBreakdown(accountID, currency,
		sums[domain.PoolReal], sums[domain.PoolFreebet], sums[domain.PoolBonus], exposure)
}

// exposure suma el capital real comprometido en operaciones abiertas.
// Las porciones de bonus/freebet de cada stake ya salieron del libro al
// colocar, así que solo la porción real sigue "en vuelo".
func (bc *BalanceComputer) exposure(ctx context.Context, accountID string, currency domain.Currency) (decimal.Decimal, error) {
	open, err := bc.ops.OpenOperations(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("engine.Compute: read open operations %s: %w", accountID, err)
	}

	total := decimal.Zero
	for _, op := range open {
		if op.Currency != currency {
			return decimal.Zero, &domain.BalanceIntegrityFault{
				AccountID: accountID,
				Detail:    fmt.Sprintf("open operation %s staked in %s, ledger is %s", op.ID, op.Currency, currency),
			}
		}
		total = total.Add(op.RealStake)
	}
	return total, nil
}
