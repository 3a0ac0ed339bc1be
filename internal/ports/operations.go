package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// OperationStore guarda las operaciones de arbitraje y su estado de ciclo
// de vida. Las operaciones abiertas de una cuenta definen su exposición.
type OperationStore interface {
	// SaveOperation persiste la operación con sus patas.
	SaveOperation(ctx context.Context, op domain.Operation) error

	// GetOperation devuelve la operación con sus patas.
	// found=false si el store no la conoce.
	GetOperation(ctx context.Context, id string) (op domain.Operation, found bool, err error)

	// OpenOperations devuelve las operaciones sin resolver de la cuenta.
	OpenOperations(ctx context.Context, accountID string) ([]domain.Operation, error)

	// MarkSettled cierra la operación. Idempotente: marcar una operación ya
	// cerrada no es error.
	MarkSettled(ctx context.Context, id string, at time.Time) error

	// Accounts devuelve los IDs de cuenta conocidos por el store.
	Accounts(ctx context.Context) ([]string, error)
}
