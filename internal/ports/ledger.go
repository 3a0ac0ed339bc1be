package ports

import (
	"context"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// LedgerStore es el libro append-only de movimientos de valor.
//
// Contrato requerido por el engine:
//   - las lecturas devuelven entradas ordenadas por creación;
//   - AppendBatch es atómico (todo el batch o nada) e idempotente por
//     idempotency_key. El append es el punto de serialización: las carreras
//     read-modify-append entre callers concurrentes se resuelven aquí, no
//     en el cálculo.
type LedgerStore interface {
	// EntriesByAccount devuelve todas las entradas de la cuenta,
	// ordenadas por fecha de creación ascendente.
	EntriesByAccount(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)

	// AppendBatch añade las entradas en una sola transacción. Las claves de
	// idempotencia ya presentes se ignoran en silencio: reintentar un batch
	// es seguro y no duplica movimientos.
	AppendBatch(ctx context.Context, entries []domain.LedgerEntry) error

	// Close cierra la conexión limpiamente.
	Close() error
}
