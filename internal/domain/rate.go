package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency identifica una moneda: código ISO para fiat ("BRL", "EUR")
// o símbolo de token para cripto ("USDT").
type Currency string

// SourceTag identifica el proveedor externo que originó una cotización.
// Es metadato informativo; la cascada del resolver no distingue entre ellos.
type SourceTag string

const (
	SourcePrimary   SourceTag = "PRIMARY"
	SourceSecondary SourceTag = "SECONDARY"
)

// RateSource clasifica el nivel de la cascada que produjo la tasa efectiva.
type RateSource string

const (
	// RateOfficial: cotización real de mercado (fresca o stale).
	RateOfficial RateSource = "OFFICIAL"
	// RateWorking: tasa fijada manualmente en el contexto de la operación.
	RateWorking RateSource = "WORKING"
	// RateFallback: tabla constante de último recurso. Solo para display —
	// las rutas financieramente críticas deben rechazarla.
	RateFallback RateSource = "FALLBACK"
)

// Freshness indica la antigüedad de una cotización oficial.
type Freshness string

const (
	FreshnessFresh Freshness = "FRESH"
	FreshnessStale Freshness = "STALE" // usable, pero el caller debe avisar
)

// Quote es una cotización de una moneda contra la moneda hub,
// suministrada externamente. El engine nunca la obtiene por sí mismo.
type Quote struct {
	Currency  Currency
	Rate      decimal.Decimal // unidades de hub por unidad de Currency
	SourceTag SourceTag
	FetchedAt time.Time
}

// Usable devuelve true si la cotización puede participar en la cascada.
// Una tasa cero o negativa no convierte nada y se descarta.
func (q Quote) Usable() bool {
	return q.Rate.IsPositive()
}

// ResolvedRate es el resultado de la cascada: la tasa efectiva más su procedencia.
type ResolvedRate struct {
	Currency  Currency
	Rate      decimal.Decimal
	Source    RateSource
	Freshness Freshness // solo significativo cuando Source == OFFICIAL
}

// Stale devuelve true si la tasa es oficial pero con más de la ventana fresca.
func (r ResolvedRate) Stale() bool {
	return r.Source == RateOfficial && r.Freshness == FreshnessStale
}

// Fallback devuelve true si la tasa salió de la tabla de último recurso.
func (r ResolvedRate) Fallback() bool {
	return r.Source == RateFallback
}

// WorkingRates son las tasas fijadas manualmente en el contexto de una
// operación concreta. Tercer nivel de la cascada.
type WorkingRates map[Currency]decimal.Decimal

// FallbackTable es la tabla constante de último recurso, inyectada por
// configuración — nunca una constante a nivel de módulo, para que los tests
// puedan sustituirla por tablas deterministas.
type FallbackTable map[Currency]decimal.Decimal
