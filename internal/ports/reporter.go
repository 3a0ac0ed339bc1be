package ports

import (
	"context"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// Reporter presenta el estado del engine al operador.
// La implementación de consola imprime tablas formateadas.
type Reporter interface {
	// ReportBreakdowns muestra el desglose de saldos de cada cuenta.
	ReportBreakdowns(ctx context.Context, breakdowns []domain.PoolBreakdown) error

	// ReportAllocation muestra el plan de reparto de un stake.
	ReportAllocation(ctx context.Context, b domain.PoolBreakdown, alloc domain.WaterfallResult) error

	// ReportEqualization muestra el sizing de patas y el profit consolidado.
	ReportEqualization(ctx context.Context, res domain.EqualizeResult) error
}
