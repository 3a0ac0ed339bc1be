package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/internal/domain"
	"github.com/alejandrodnm/bankroll/internal/ports"
)

// RateResolver elige la tasa efectiva de una moneda contra el hub aplicando
// la cascada de prioridad. Sin estado ni timers: la frescura es un predicado
// puro sobre fetched_at y un reloj inyectado, así los tests son deterministas.
type RateResolver struct {
	feed     ports.RateFeed
	hub      domain.Currency
	fallback domain.FallbackTable

	freshWindow time.Duration // cotización oficial FRESH
	staleWindow time.Duration // cotización oficial STALE pero usable

	now func() time.Time
}

// ResolverOption configura el resolver en construcción.
type ResolverOption func(*RateResolver)

// WithClock sustituye el reloj, para tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *RateResolver) { r.now = now }
}

// WithWindows sustituye las ventanas de frescura.
func WithWindows(fresh, stale time.Duration) ResolverOption {
	return func(r *RateResolver) {
		r.freshWindow = fresh
		r.staleWindow = stale
	}
}

// NewRateResolver crea el resolver. La tabla fallback se inyecta aquí —
// nunca es una constante de módulo.
func NewRateResolver(feed ports.RateFeed, hub domain.Currency, fallback domain.FallbackTable, opts ...ResolverOption) *RateResolver {
	r := &RateResolver{
		feed:        feed,
		hub:         hub,
		fallback:    fallback,
		freshWindow: 30 * time.Minute,
		staleWindow: 24 * time.Hour,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hub devuelve la moneda hub del resolver.
func (r *RateResolver) Hub() domain.Currency {
	return r.hub
}

// Resolve aplica la cascada, primer nivel con éxito gana:
//
//  1. cotización oficial con menos de freshWindow → OFFICIAL / FRESH
//  2. cotización oficial con menos de staleWindow → OFFICIAL / STALE
//  3. working rate del contexto de la operación → WORKING
//  4. tabla fallback inyectada → FALLBACK (solo display)
//
// El hub cortocircuita a tasa 1 sin tocar la cascada. Si ningún nivel produce
// una tasa usable, devuelve RateUnavailableError: el caller debe negarse a
// convertir, nunca asumir 1:1.
func (r *RateResolver) Resolve(ctx context.Context, c domain.Currency, working domain.WorkingRates) (domain.ResolvedRate, error) {
	if c == r.hub {
		return domain.ResolvedRate{
			Currency:  c,
			Rate:      decimal.NewFromInt(1),
			Source:    domain.RateOfficial,
			Freshness: domain.FreshnessFresh,
		}, nil
	}

	quote, ok, err := r.feed.LatestQuote(ctx, c)
	if err != nil {
		return domain.ResolvedRate{}, fmt.Errorf("engine.Resolve: feed %s: %w", c, err)
	}
	if ok && quote.Usable() {
		age := r.now().Sub(quote.FetchedAt)
		switch {
		case age <= r.freshWindow:
			return domain.ResolvedRate{Currency: c, Rate: quote.Rate, Source: domain.RateOfficial, Freshness: domain.FreshnessFresh}, nil
		case age <= r.staleWindow:
			return domain.ResolvedRate{Currency: c, Rate: quote.Rate, Source: domain.RateOfficial, Freshness: domain.FreshnessStale}, nil
		}
		// Más vieja que staleWindow: sigue la cascada
	}

	if rate, ok := working[c]; ok && rate.IsPositive() {
		return domain.ResolvedRate{Currency: c, Rate: rate, Source: domain.RateWorking}, nil
	}

	if rate, ok := r.fallback[c]; ok && rate.IsPositive() {
		return domain.ResolvedRate{Currency: c, Rate: rate, Source: domain.RateFallback}, nil
	}

	return domain.ResolvedRate{}, &domain.RateUnavailableError{
		Currency: c,
		Reason:   "no cascade tier produced a usable rate",
	}
}
