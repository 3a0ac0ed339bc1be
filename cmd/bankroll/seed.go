package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// runSeed carga cuentas y cotizaciones de demostración. Las claves de las
// entradas son deterministas, así que re-ejecutar el seed no duplica nada.
func (a *app) runSeed(ctx context.Context) error {
	now := time.Now().UTC()
	hub := domain.Currency(a.cfg.Engine.HubCurrency)

	seeds := []struct {
		account string
		pool    domain.Pool
		amount  string
	}{
		{"bet365-br", domain.PoolReal, "1500.00"},
		{"bet365-br", domain.PoolFreebet, "50.00"},
		{"bet365-br", domain.PoolBonus, "20.00"},
		{"betano-br", domain.PoolReal, "800.00"},
		{"betano-br", domain.PoolBonus, "100.00"},
		{"pinnacle-eu", domain.PoolReal, "2000.00"},
	}

	var entries []domain.LedgerEntry
	for _, s := range seeds {
		entries = append(entries, domain.LedgerEntry{
			AccountID:      s.account,
			Pool:           s.pool,
			Amount:         decimal.RequireFromString(s.amount),
			Currency:       hub,
			CreatedAt:      now,
			IdempotencyKey: fmt.Sprintf("seed:%s:%s", s.account, s.pool),
		})
	}

	if err := a.store.AppendBatch(ctx, entries); err != nil {
		return fmt.Errorf("seed ledger: %w", err)
	}

	quotes := []struct {
		currency domain.Currency
		rate     string
	}{
		{"EUR", "6.05"},
		{"USD", "5.10"},
		{"GBP", "7.02"},
	}
	for _, q := range quotes {
		if err := a.store.SaveQuote(ctx, domain.Quote{
			Currency:  q.currency,
			Rate:      decimal.RequireFromString(q.rate),
			SourceTag: domain.SourcePrimary,
			FetchedAt: now,
		}); err != nil {
			return fmt.Errorf("seed quote %s: %w", q.currency, err)
		}
	}

	slog.Info("demo data loaded", "accounts", 3, "quotes", len(quotes), "hub", hub)
	return nil
}
