package engine_test

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Dobles de test en memoria para los ports. Deliberadamente mínimos:
// respetan los contratos (orden de lectura, idempotencia, atomicidad por
// batch) sin tocar disco.

type fakeLedger struct {
	entries []domain.LedgerEntry
	seen    map[string]bool
	failAll error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seen: map[string]bool{}}
}

func (f *fakeLedger) EntriesByAccount(_ context.Context, accountID string) ([]domain.LedgerEntry, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []domain.LedgerEntry
	for _, e := range f.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedger) AppendBatch(_ context.Context, entries []domain.LedgerEntry) error {
	if f.failAll != nil {
		return f.failAll
	}
	for _, e := range entries {
		if f.seen[e.IdempotencyKey] {
			continue // reintento: no duplica
		}
		f.seen[e.IdempotencyKey] = true
		f.entries = append(f.entries, e)
	}
	return nil
}

func (f *fakeLedger) Close() error { return nil }

// add es un atajo para sembrar entradas en los tests.
func (f *fakeLedger) add(accountID string, pool domain.Pool, amount string, currency domain.Currency) {
	key := fmt.Sprintf("seed-%d", len(f.entries))
	f.entries = append(f.entries, domain.LedgerEntry{
		AccountID:      accountID,
		Pool:           pool,
		Amount:         dec(amount),
		Currency:       currency,
		CreatedAt:      time.Now().UTC(),
		IdempotencyKey: key,
	})
	f.seen[key] = true
}

type fakeOps struct {
	ops map[string]domain.Operation
}

func newFakeOps() *fakeOps {
	return &fakeOps{ops: map[string]domain.Operation{}}
}

func (f *fakeOps) SaveOperation(_ context.Context, op domain.Operation) error {
	f.ops[op.ID] = op
	return nil
}

func (f *fakeOps) GetOperation(_ context.Context, id string) (domain.Operation, bool, error) {
	op, ok := f.ops[id]
	return op, ok, nil
}

func (f *fakeOps) OpenOperations(_ context.Context, accountID string) ([]domain.Operation, error) {
	var out []domain.Operation
	for _, op := range f.ops {
		if op.AccountID == accountID && op.Open() {
			out = append(out, op)
		}
	}
	return out, nil
}

func (f *fakeOps) MarkSettled(_ context.Context, id string, at time.Time) error {
	op, ok := f.ops[id]
	if !ok {
		return fmt.Errorf("operation %s not found", id)
	}
	op.Status = domain.OperationSettled
	op.SettledAt = &at
	f.ops[id] = op
	return nil
}

func (f *fakeOps) Accounts(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, op := range f.ops {
		if !seen[op.AccountID] {
			seen[op.AccountID] = true
			out = append(out, op.AccountID)
		}
	}
	return out, nil
}

type fakeFeed struct {
	quotes map[domain.Currency]domain.Quote
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{quotes: map[domain.Currency]domain.Quote{}}
}

func (f *fakeFeed) LatestQuote(_ context.Context, c domain.Currency) (domain.Quote, bool, error) {
	q, ok := f.quotes[c]
	return q, ok, nil
}

func (f *fakeFeed) quote(c domain.Currency, rate string, age time.Duration, now time.Time) {
	f.quotes[c] = domain.Quote{
		Currency:  c,
		Rate:      dec(rate),
		SourceTag: domain.SourcePrimary,
		FetchedAt: now.Add(-age),
	}
}
