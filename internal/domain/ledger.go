package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pool es uno de los tres bolsillos de valor independientes de una cuenta.
type Pool string

const (
	PoolReal    Pool = "REAL"    // dinero retirable
	PoolFreebet Pool = "FREEBET" // crédito de apuesta gratis (principal no retirable)
	PoolBonus   Pool = "BONUS"   // bono promocional (principal no retirable)
)

// Valid devuelve true si el pool es uno de los tres conocidos.
func (p Pool) Valid() bool {
	switch p {
	case PoolReal, PoolFreebet, PoolBonus:
		return true
	}
	return false
}

// LedgerEntry es un movimiento de valor inmutable en el libro append-only.
// Las correcciones son entradas nuevas de signo contrario, nunca mutaciones.
// Invariante: la suma de entradas de (cuenta, pool) en cualquier instante
// es el saldo de ese pool en ese instante.
type LedgerEntry struct {
	ID             int64
	AccountID      string
	Pool           Pool
	Amount         decimal.Decimal // con signo: débito negativo, crédito positivo
	Currency       Currency
	CreatedAt      time.Time
	IdempotencyKey string // único por movimiento lógico — los reintentos no duplican
}
