package domain

import (
	"errors"
	"fmt"
)

// BalanceIntegrityFault señala corrupción de datos en el libro: un available
// negativo (o un pool con suma negativa) nunca es un estado válido — indica
// un doble gasto o un settlement perdido aguas arriba. No se recupera
// automáticamente; la operación que lo detecta se detiene y el caso sube
// para reconciliación manual.
type BalanceIntegrityFault struct {
	AccountID string
	Detail    string
}

func (e *BalanceIntegrityFault) Error() string {
	return fmt.Sprintf("balance integrity fault: account %s: %s", e.AccountID, e.Detail)
}

// RateUnavailableError indica que ningún nivel de la cascada produjo una tasa
// usable para la moneda. El caller debe negarse a convertir, nunca asumir 1:1.
type RateUnavailableError struct {
	Currency Currency
	Reason   string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("rate unavailable for %s: %s", e.Currency, e.Reason)
}

// InvalidOperationShapeError indica una violación de precondición en las
// patas de una operación (menos de 2 patas, odd <= 1, referencia ausente o
// duplicada). Se rechaza antes de cualquier mutación.
type InvalidOperationShapeError struct {
	Reason string
}

func (e *InvalidOperationShapeError) Error() string {
	return fmt.Sprintf("invalid operation shape: %s", e.Reason)
}

// ErrFallbackRateBlocked: una ruta financieramente crítica (sizing de stakes,
// settlement) alcanzó el nivel FALLBACK de la cascada. Ese nivel solo sirve
// para display no vinculante.
var ErrFallbackRateBlocked = errors.New("fallback-tier rate blocked for settlement math")
