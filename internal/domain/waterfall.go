package domain

import "github.com/shopspring/decimal"

// WaterfallResult es el reparto de un débito entre los tres pools.
// Salida pura de Allocate; no se persiste directamente — el caller la
// convierte en entradas de libro nuevas.
type WaterfallResult struct {
	DebitBonus   decimal.Decimal
	DebitFreebet decimal.Decimal
	DebitReal    decimal.Decimal

	// Remaining es lo que ningún pool pudo absorber. Cero sii FullyCovered.
	Remaining    decimal.Decimal
	FullyCovered bool
}

// TotalDebited devuelve la suma de los tres débitos.
// Siempre <= stake, con igualdad sii FullyCovered.
func (w WaterfallResult) TotalDebited() decimal.Decimal {
	return w.DebitBonus.Add(w.DebitFreebet).Add(w.DebitReal)
}

// Allocate reparte un stake entre los pools en orden de prioridad fijo:
// bonus → freebet (si allowFreebet) → available. El orden es regla de
// negocio, no preferencia configurable.
//
// Si los pools no cubren el stake completo, devuelve igualmente el reparto
// parcial con FullyCovered=false — el caller decide si un parcial es
// aceptable o debe rechazarse. Allocate nunca crea saldos negativos.
func Allocate(stake decimal.Decimal, b PoolBreakdown, allowFreebet bool) WaterfallResult {
	if !stake.IsPositive() {
		return WaterfallResult{FullyCovered: true}
	}

	remaining := stake
	var res WaterfallResult

	// 1. Bonus primero: es el valor con más restricciones, se quema antes.
	res.DebitBonus = decimal.Min(b.Bonus, remaining)
	remaining = remaining.Sub(res.DebitBonus)

	// 2. Freebet, solo si la apuesta califica para crédito gratis.
	if allowFreebet {
		res.DebitFreebet = decimal.Min(b.Freebet, remaining)
		remaining = remaining.Sub(res.DebitFreebet)
	}

	// 3. El resto sale del dinero real disponible (neto de exposición).
	res.DebitReal = decimal.Min(b.Available, remaining)
	remaining = remaining.Sub(res.DebitReal)

	res.Remaining = remaining
	res.FullyCovered = remaining.IsZero()
	return res
}
