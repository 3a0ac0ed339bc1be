package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// LegEqualizer dimensiona las patas de una operación multi-moneda para que
// el profit neto sea idéntico gane la pata que gane.
type LegEqualizer struct {
	converter *CurrencyConverter
}

// NewLegEqualizer crea el equalizer sobre el converter dado.
func NewLegEqualizer(converter *CurrencyConverter) *LegEqualizer {
	return &LegEqualizer{converter: converter}
}

// Equalize calcula el stake de cada pata no bloqueada: el retorno objetivo es
// el de la pata de referencia (stake_ref × odd_ref, en su moneda); cada otra
// pata recibe stake = retorno_convertido / odd, redondeado solo en este paso
// final. Las patas bloqueadas conservan su stake.
//
// Fallos:
//   - forma inválida → InvalidOperationShapeError, Valid=false, patas sin tocar;
//   - cualquier tasa irresoluble → la operación entera falla, sin sizing parcial;
//   - cualquier tasa de nivel FALLBACK → ErrFallbackRateBlocked: el sizing de
//     stakes es financieramente crítico.
func (le *LegEqualizer) Equalize(ctx context.Context, legs []domain.ArbitrageLeg, consolidation domain.Currency, working domain.WorkingRates) (domain.EqualizeResult, error) {
	if err := domain.ValidateLegs(legs); err != nil {
		return domain.EqualizeResult{Legs: legs, Consolidation: consolidation}, err
	}

	ref := legs[domain.ReferenceLeg(legs)]
	targetReturn := ref.Return() // en la moneda de la referencia

	var warnings []string

	// Sizing sobre una copia: nada se publica hasta que todo resuelve.
	sized := make([]domain.ArbitrageLeg, len(legs))
	copy(sized, legs)

	for i := range sized {
		leg := &sized[i]
		if leg.IsReference || leg.IsLocked {
			continue
		}

		converted, trace, err := le.converter.Convert(ctx, targetReturn, ref.Currency, leg.Currency, working)
		if err != nil {
			return domain.EqualizeResult{Legs: legs, Consolidation: consolidation},
				fmt.Errorf("engine.Equalize: leg %d: %w", i, err)
		}
		if trace.UsedFallback() {
			return domain.EqualizeResult{Legs: legs, Consolidation: consolidation},
				fmt.Errorf("engine.Equalize: leg %d: %w", i, domain.ErrFallbackRateBlocked)
		}
		if trace.Stale() {
			warnings = append(warnings, fmt.Sprintf("leg %d sized with stale official rate", i))
		}

		leg.Stake = domain.RoundStake(converted.Div(leg.Odd))
	}

	profit, moreWarnings, err := le.consolidatedProfit(ctx, sized, targetReturn, ref.Currency, consolidation, working)
	if err != nil {
		return domain.EqualizeResult{Legs: legs, Consolidation: consolidation}, err
	}
	warnings = append(warnings, moreWarnings...)

	return domain.EqualizeResult{
		Legs:               sized,
		Consolidation:      consolidation,
		ConsolidatedProfit: profit,
		Valid:              true,
		Warnings:           warnings,
	}, nil
}

// consolidatedProfit = retorno objetivo − Σ stakes, todo convertido a la
// moneda de consolidación. Invariante de moneda: el mismo profit resulta
// gane la pata que gane.
func (le *LegEqualizer) consolidatedProfit(ctx context.Context, legs []domain.ArbitrageLeg, targetReturn decimal.Decimal, refCurrency, consolidation domain.Currency, working domain.WorkingRates) (decimal.Decimal, []string, error) {
	var warnings []string

	ret, trace, err := le.converter.Convert(ctx, targetReturn, refCurrency, consolidation, working)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("engine.Equalize: consolidate return: %w", err)
	}
	if trace.UsedFallback() {
		return decimal.Zero, nil, fmt.Errorf("engine.Equalize: consolidate return: %w", domain.ErrFallbackRateBlocked)
	}
	if trace.Stale() {
		warnings = append(warnings, "consolidated profit uses stale official rate")
	}

	profit := ret
	for i, leg := range legs {
		cost, trace, err := le.converter.Convert(ctx, leg.Stake, leg.Currency, consolidation, working)
		if err != nil {
			return decimal.Zero, nil, fmt.Errorf("engine.Equalize: consolidate leg %d: %w", i, err)
		}
		if trace.UsedFallback() {
			return decimal.Zero, nil, fmt.Errorf("engine.Equalize: consolidate leg %d: %w", i, domain.ErrFallbackRateBlocked)
		}
		if trace.Stale() {
			warnings = append(warnings, fmt.Sprintf("consolidated cost of leg %d uses stale official rate", i))
		}
		profit = profit.Sub(cost)
	}

	return profit, warnings, nil
}
