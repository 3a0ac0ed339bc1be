package domain

import "github.com/shopspring/decimal"

// Modelo de settlement.
//
// Al colocar un stake, las porciones de bonus y freebet se debitan del libro
// inmediatamente: su principal no es retirable y se consume con la apuesta.
// La porción que sale de available NO se debita — sigue en REAL como capital
// comprometido y la operación abierta la cuenta como exposición. Así
// available = real − exposure no puede volverse negativo por una colocación
// válida: el waterfall ya limitó la porción real a available.
//
// Al resolver:
//   - ganancia: se abona solo el profit (stake total × (odd − 1)) a REAL.
//     El principal real nunca salió; cerrar la operación libera su exposición.
//     El principal de bonus/freebet no vuelve: solo sus ganancias.
//   - pérdida: se debita de REAL la porción real del stake (capital perdido)
//     y se cierra la operación. Available queda igual: lo comprometido se fue.

// WinProfit es el abono a REAL cuando la operación gana:
// el stake completo (los tres pools) multiplica, pero solo el profit se abona.
func WinProfit(alloc WaterfallResult, odd decimal.Decimal) decimal.Decimal {
	return alloc.TotalDebited().Mul(odd.Sub(decimal.NewFromInt(1)))
}

// LossDebit es el débito a REAL cuando la operación pierde: la porción del
// stake que montaba sobre capital real. Las porciones de bonus/freebet ya
// se debitaron al colocar.
func LossDebit(alloc WaterfallResult) decimal.Decimal {
	return alloc.DebitReal
}
