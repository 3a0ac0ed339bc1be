package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// Conversion es la traza de una conversión: las tasas resueltas de ambos
// extremos, para audit y tooltips. Acompaña siempre al resultado numérico.
type Conversion struct {
	From domain.ResolvedRate
	To   domain.ResolvedRate

	// Identity: from == to, sin lookup de tasas. Las trazas de identidad no
	// tienen procedencia que auditar.
	Identity bool
}

// UsedFallback devuelve true si algún extremo salió de la tabla de último
// recurso. Las rutas de settlement deben rechazar estas trazas.
func (c Conversion) UsedFallback() bool {
	return c.From.Fallback() || c.To.Fallback()
}

// Stale devuelve true si algún extremo usó una cotización oficial vieja.
func (c Conversion) Stale() bool {
	return c.From.Stale() || c.To.Stale()
}

// CurrencyConverter convierte importes entre monedas pivotando siempre por
// el hub: amount × rate(from) / rate(to). Nunca una tabla de cruces directa —
// así cualquier par de monedas se relaciona solo a través de sus tasas hub y
// el redondeo y la frescura son uniformes en todo el grafo.
type CurrencyConverter struct {
	resolver *RateResolver
}

// NewCurrencyConverter crea el converter sobre el resolver dado.
func NewCurrencyConverter(resolver *RateResolver) *CurrencyConverter {
	return &CurrencyConverter{resolver: resolver}
}

// Convert convierte amount de from a to. Consulta el resolver en cada
// llamada — el engine no cachea tasas.
//
// from == to es identidad sin lookup: evita redondeo espurio y no falla con
// monedas exóticas sin cotizar cuando no hay conversión real que hacer.
func (cc *CurrencyConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to domain.Currency, working domain.WorkingRates) (decimal.Decimal, Conversion, error) {
	if from == to {
		return amount, Conversion{Identity: true}, nil
	}

	fromRate, err := cc.resolver.Resolve(ctx, from, working)
	if err != nil {
		return decimal.Zero, Conversion{}, fmt.Errorf("engine.Convert: from %s: %w", from, err)
	}
	toRate, err := cc.resolver.Resolve(ctx, to, working)
	if err != nil {
		return decimal.Zero, Conversion{}, fmt.Errorf("engine.Convert: to %s: %w", to, err)
	}

	// Guardia de división por cero: una tasa destino nula es una tasa
	// inutilizable, no "sin conversión".
	if toRate.Rate.IsZero() {
		return decimal.Zero, Conversion{}, fmt.Errorf("engine.Convert: %w",
			&domain.RateUnavailableError{Currency: to, Reason: "resolved rate is zero"})
	}

	converted := amount.Mul(fromRate.Rate).Div(toRate.Rate)
	return converted, Conversion{From: fromRate, To: toRate}, nil
}
