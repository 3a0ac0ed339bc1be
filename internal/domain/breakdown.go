package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PoolBreakdown es el snapshot canónico de los saldos de una cuenta.
// Siempre es una proyección recalculada desde el libro y el conjunto de
// operaciones abiertas — nunca se persiste como fuente de verdad.
type PoolBreakdown struct {
	AccountID string
	Currency  Currency

	Real    decimal.Decimal // suma de entradas REAL
	Freebet decimal.Decimal // suma de entradas FREEBET
	Bonus   decimal.Decimal // suma de entradas BONUS

	// Exposure es el total apostado en operaciones aún sin resolver.
	Exposure decimal.Decimal

	// Available = Real − Exposure. Nunca negativo: un resultado negativo es
	// un fallo de integridad, no un estado válido.
	Available decimal.Decimal

	// Operable = Available + Freebet + Bonus: todo lo apostable ahora mismo.
	Operable decimal.Decimal
}

// NewPoolBreakdown deriva Available y Operable a partir de las sumas por pool
// y la exposición. Devuelve BalanceIntegrityFault si algún pool suma negativo
// o si Available quedaría por debajo de cero — recortar a cero escondería el
// bug (doble gasto, settlement perdido) en lugar de exponerlo.
func NewPoolBreakdown(accountID string, currency Currency, real, freebet, bonus, exposure decimal.Decimal) (PoolBreakdown, error) {
	for _, p := range []struct {
		name Pool
		sum  decimal.Decimal
	}{
		{PoolReal, real},
		{PoolFreebet, freebet},
		{PoolBonus, bonus},
	} {
		if p.sum.IsNegative() {
			return PoolBreakdown{}, &BalanceIntegrityFault{
				AccountID: accountID,
				Detail:    fmt.Sprintf("pool %s sums to %s", p.name, p.sum),
			}
		}
	}
	if exposure.IsNegative() {
		return PoolBreakdown{}, &BalanceIntegrityFault{
			AccountID: accountID,
			Detail:    fmt.Sprintf("exposure is %s", exposure),
		}
	}

	available := real.Sub(exposure)
	if available.IsNegative() {
		return PoolBreakdown{}, &BalanceIntegrityFault{
			AccountID: accountID,
			Detail:    fmt.Sprintf("available would be %s (real=%s exposure=%s)", available, real, exposure),
		}
	}

	return PoolBreakdown{
		AccountID: accountID,
		Currency:  currency,
		Real:      real,
		Freebet:   freebet,
		Bonus:     bonus,
		Exposure:  exposure,
		Available: available,
		Operable:  available.Add(freebet).Add(bonus),
	}, nil
}

// ZeroBreakdown devuelve el breakdown vacío de una cuenta sin movimientos.
// Una cuenta con cero entradas es válida.
func ZeroBreakdown(accountID string) PoolBreakdown {
	return PoolBreakdown{AccountID: accountID}
}
