package ports

import (
	"context"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// RateFeed suministra la cotización más fresca de cada moneda contra el hub.
// El engine nunca obtiene tasas por sí mismo: consume lo ya traído por los
// collectors externos, con su metadato de procedencia y fecha.
type RateFeed interface {
	// LatestQuote devuelve la cotización más reciente de la moneda.
	// ok=false si el feed no conoce la moneda.
	LatestQuote(ctx context.Context, c domain.Currency) (domain.Quote, bool, error)
}
