package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/internal/domain"
	"github.com/alejandrodnm/bankroll/internal/ports"
)

// Settler convierte asignaciones en batches de libro idempotentes y resuelve
// operaciones con la asimetría de abonos del dominio. Es el único componente
// del engine con efectos: todo pasa por los stores inyectados.
//
// Las claves de idempotencia son deterministas por movimiento lógico
// (<operationID>:stake:<pool>, <operationID>:settle:<kind>), así un reintento
// del mismo batch es un no-op en el libro.
type Settler struct {
	ledger   ports.LedgerStore
	ops      ports.OperationStore
	computer *BalanceComputer

	now func() time.Time
}

// SettlerOption configura el settler en construcción.
type SettlerOption func(*Settler)

// WithSettlerClock sustituye el reloj, para tests.
func WithSettlerClock(now func() time.Time) SettlerOption {
	return func(s *Settler) { s.now = now }
}

// NewSettler crea el settler sobre los stores dados.
func NewSettler(ledger ports.LedgerStore, ops ports.OperationStore, computer *BalanceComputer, opts ...SettlerOption) *Settler {
	s := &Settler{
		ledger:   ledger,
		ops:      ops,
		computer: computer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceStake calcula el breakdown actual, reparte el stake por el waterfall
// y, si queda cubierto del todo, debita bonus/freebet del libro y abre la
// operación — la porción real queda comprometida como exposición sin débito.
//
// Si el reparto es parcial no se muta nada: se devuelve el reparto con
// FullyCovered=false y el caller decide (aquí un parcial nunca se coloca).
func (s *Settler) PlaceStake(ctx context.Context, op domain.Operation, allowFreebet bool) (domain.WaterfallResult, error) {
	if op.ID == "" {
		return domain.WaterfallResult{}, fmt.Errorf("engine.PlaceStake: operation needs an ID")
	}
	if !op.Stake.IsPositive() {
		return domain.WaterfallResult{}, fmt.Errorf("engine.PlaceStake: stake %s must be positive", op.Stake)
	}

	// Reintento de una colocación ya hecha: devolver el reparto original
	// sin recalcular — el breakdown ya cambió con la primera colocación.
	if existing, found, err := s.ops.GetOperation(ctx, op.ID); err != nil {
		return domain.WaterfallResult{}, fmt.Errorf("engine.PlaceStake: lookup %s: %w", op.ID, err)
	} else if found {
		return s.reconstructAllocation(ctx, existing)
	}

	b, err := s.computer.Compute(ctx, op.AccountID)
	if err != nil {
		return domain.WaterfallResult{}, fmt.Errorf("engine.PlaceStake: %w", err)
	}
	if b.Currency != "" && b.Currency != op.Currency {
		return domain.WaterfallResult{}, fmt.Errorf("engine.PlaceStake: operation in %s, account ledger is %s", op.Currency, b.Currency)
	}

	alloc := domain.Allocate(op.Stake, b, allowFreebet)
	if !alloc.FullyCovered {
		return alloc, nil
	}

	now := s.now().UTC()
	var entries []domain.LedgerEntry
	for _, d := range []struct {
		pool   domain.Pool
		amount decimal.Decimal
	}{
		{domain.PoolBonus, alloc.DebitBonus},
		{domain.PoolFreebet, alloc.DebitFreebet},
	} {
		if d.amount.IsZero() {
			continue
		}
		entries = append(entries, domain.LedgerEntry{
			AccountID:      op.AccountID,
			Pool:           d.pool,
			Amount:         d.amount.Neg(),
			Currency:       op.Currency,
			CreatedAt:      now,
			IdempotencyKey: stakeKey(op.ID, d.pool),
		})
	}

	if len(entries) > 0 {
		if err := s.ledger.AppendBatch(ctx, entries); err != nil {
			return alloc, fmt.Errorf("engine.PlaceStake: append debits: %w", err)
		}
	}

	op.RealStake = alloc.DebitReal
	op.Status = domain.OperationOpen
	op.CreatedAt = now
	if err := s.ops.SaveOperation(ctx, op); err != nil {
		return alloc, fmt.Errorf("engine.PlaceStake: save operation: %w", err)
	}

	return alloc, nil
}

// SettleWin resuelve la operación como ganada: abona el profit a REAL y
// cierra la operación, liberando su exposición. Reintentable: el abono es
// idempotente y marcar dos veces no es error.
func (s *Settler) SettleWin(ctx context.Context, operationID string) error {
	op, found, err := s.ops.GetOperation(ctx, operationID)
	if err != nil {
		return fmt.Errorf("engine.SettleWin: %w", err)
	}
	if !found {
		return fmt.Errorf("engine.SettleWin: operation %s not found", operationID)
	}
	if op.Status == domain.OperationSettled {
		return nil
	}

	alloc, err := s.reconstructAllocation(ctx, op)
	if err != nil {
		return fmt.Errorf("engine.SettleWin: %w", err)
	}

	now := s.now().UTC()
	profit := domain.WinProfit(alloc, op.Odd)
	if profit.IsPositive() {
		entry := domain.LedgerEntry{
			AccountID:      op.AccountID,
			Pool:           domain.PoolReal,
			Amount:         profit,
			Currency:       op.Currency,
			CreatedAt:      now,
			IdempotencyKey: settleKey(op.ID, "profit"),
		}
		if err := s.ledger.AppendBatch(ctx, []domain.LedgerEntry{entry}); err != nil {
			return fmt.Errorf("engine.SettleWin: append profit: %w", err)
		}
	}

	if err := s.ops.MarkSettled(ctx, op.ID, now); err != nil {
		return fmt.Errorf("engine.SettleWin: mark settled: %w", err)
	}
	return nil
}

// SettleLoss resuelve la operación como perdida: debita de REAL la porción
// real del stake (bonus/freebet ya se consumieron al colocar) y cierra la
// operación. Available queda igual — lo comprometido se fue.
func (s *Settler) SettleLoss(ctx context.Context, operationID string) error {
	op, found, err := s.ops.GetOperation(ctx, operationID)
	if err != nil {
		return fmt.Errorf("engine.SettleLoss: %w", err)
	}
	if !found {
		return fmt.Errorf("engine.SettleLoss: operation %s not found", operationID)
	}
	if op.Status == domain.OperationSettled {
		return nil
	}

	now := s.now().UTC()
	if op.RealStake.IsPositive() {
		entry := domain.LedgerEntry{
			AccountID:      op.AccountID,
			Pool:           domain.PoolReal,
			Amount:         op.RealStake.Neg(),
			Currency:       op.Currency,
			CreatedAt:      now,
			IdempotencyKey: settleKey(op.ID, "loss"),
		}
		if err := s.ledger.AppendBatch(ctx, []domain.LedgerEntry{entry}); err != nil {
			return fmt.Errorf("engine.SettleLoss: append loss debit: %w", err)
		}
	}

	if err := s.ops.MarkSettled(ctx, op.ID, now); err != nil {
		return fmt.Errorf("engine.SettleLoss: mark settled: %w", err)
	}
	return nil
}

// reconstructAllocation recupera el reparto original del stake desde las
// claves deterministas del libro. El reparto no se persiste como tal: el
// libro es la fuente de verdad.
func (s *Settler) reconstructAllocation(ctx context.Context, op domain.Operation) (domain.WaterfallResult, error) {
	entries, err := s.ledger.EntriesByAccount(ctx, op.AccountID)
	if err != nil {
		return domain.WaterfallResult{}, fmt.Errorf("reconstruct allocation: %w", err)
	}

	alloc := domain.WaterfallResult{DebitReal: op.RealStake, FullyCovered: true}
	prefix := op.ID + ":stake:"
	for _, e := range entries {
		if !strings.HasPrefix(e.IdempotencyKey, prefix) {
			continue
		}
		switch e.Pool {
		case domain.PoolBonus:
			alloc.DebitBonus = e.Amount.Neg()
		case domain.PoolFreebet:
			alloc.DebitFreebet = e.Amount.Neg()
		}
	}
	return alloc, nil
}

func stakeKey(operationID string, pool domain.Pool) string {
	return fmt.Sprintf("%s:stake:%s", operationID, pool)
}

func settleKey(operationID, kind string) string {
	return fmt.Sprintf("%s:settle:%s", operationID, kind)
}
