package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// stakePlaces es la precisión de un stake final: céntimos.
// El redondeo ocurre solo en el último paso del sizing — redondear antes
// acumula error a través de las patas.
const stakePlaces = 2

// RoundStake redondea un stake a la precisión final.
func RoundStake(d decimal.Decimal) decimal.Decimal {
	return d.Round(stakePlaces)
}

// ArbitrageLeg es un lado de una operación de arbitraje multi-resultado,
// denominado en su propia moneda y cuota.
type ArbitrageLeg struct {
	Currency Currency
	Odd      decimal.Decimal // siempre > 1
	Stake    decimal.Decimal

	// IsReference marca la pata cuyo retorno objetivo dimensiona al resto.
	// Exactamente una por operación.
	IsReference bool

	// IsLocked excluye la pata del resizing: editada a mano o importada
	// de un boleto externo. Conserva su stake tal cual.
	IsLocked bool
}

// Return devuelve el retorno bruto de la pata (stake × odd) en su moneda.
func (l ArbitrageLeg) Return() decimal.Decimal {
	return l.Stake.Mul(l.Odd)
}

// ValidateLegs comprueba las precondiciones de forma de una operación:
// al menos 2 patas, todas con odd > 1, exactamente una referencia.
// Cualquier violación se rechaza antes de mutar nada.
func ValidateLegs(legs []ArbitrageLeg) error {
	if len(legs) < 2 {
		return &InvalidOperationShapeError{Reason: fmt.Sprintf("need at least 2 legs, got %d", len(legs))}
	}

	one := decimal.NewFromInt(1)
	refs := 0
	for i, l := range legs {
		if !l.Odd.GreaterThan(one) {
			return &InvalidOperationShapeError{Reason: fmt.Sprintf("leg %d has odd %s, must be > 1", i, l.Odd)}
		}
		if l.Currency == "" {
			return &InvalidOperationShapeError{Reason: fmt.Sprintf("leg %d has no currency", i)}
		}
		if l.IsReference {
			refs++
		}
	}
	if refs != 1 {
		return &InvalidOperationShapeError{Reason: fmt.Sprintf("exactly one reference leg required, got %d", refs)}
	}
	return nil
}

// ReferenceLeg devuelve el índice de la pata de referencia, o -1.
func ReferenceLeg(legs []ArbitrageLeg) int {
	for i, l := range legs {
		if l.IsReference {
			return i
		}
	}
	return -1
}

// EqualizeResult es el resultado del sizing de patas.
// Si Valid es false las patas se devuelven sin tocar — no hay sizing parcial.
type EqualizeResult struct {
	Legs          []ArbitrageLeg
	Consolidation Currency

	// ConsolidatedProfit es el profit neto en la moneda de consolidación:
	// idéntico gane la pata que gane — ese es el propósito del sizing.
	ConsolidatedProfit decimal.Decimal

	Valid bool

	// Warnings acumula avisos no bloqueantes (tasas oficiales stale).
	Warnings []string
}

// OperationStatus es el ciclo de vida de una operación en el store.
type OperationStatus string

const (
	OperationOpen    OperationStatus = "OPEN"
	OperationSettled OperationStatus = "SETTLED"
)

// Operation es la apuesta de una cuenta dentro de una operación de arbitraje.
// Stake y Odd son los de la pata que esta cuenta juega, en la moneda de la
// cuenta. Las patas completas viven junto a la operación para contexto de
// equalización. Una vez settled, la operación es inmutable.
type Operation struct {
	ID        string // UUID acuñado por el caller; raíz de las claves de idempotencia
	AccountID string

	// Stake es el total apostado por la cuenta (los tres pools juntos).
	Stake    decimal.Decimal
	Currency Currency
	Odd      decimal.Decimal

	// RealStake es la porción del stake que monta sobre capital real.
	// Mientras la operación siga abierta cuenta como exposición; las
	// porciones de bonus/freebet ya se debitaron al colocar.
	RealStake decimal.Decimal

	Legs      []ArbitrageLeg
	Status    OperationStatus
	CreatedAt time.Time
	SettledAt *time.Time
}

// Open devuelve true si la operación aún cuenta como exposición.
func (o Operation) Open() bool {
	return o.Status == OperationOpen
}
