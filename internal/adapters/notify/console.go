package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// Console implementa ports.Reporter.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// ReportBreakdowns imprime el desglose de saldos por cuenta.
func (c *Console) ReportBreakdowns(_ context.Context, breakdowns []domain.PoolBreakdown) error {
	if len(breakdowns) == 0 {
		fmt.Fprintf(c.out, "[%s] no accounts with ledger activity\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printBreakdownTable(breakdowns)
	} else {
		c.printBreakdownCompact(breakdowns)
	}
	return nil
}

// printBreakdownCompact imprime una línea por cuenta.
func (c *Console) printBreakdownCompact(breakdowns []domain.PoolBreakdown) {
	now := time.Now().Format("15:04:05")
	for _, b := range breakdowns {
		fmt.Fprintf(c.out, "[%s] %s %s | real:%s fb:%s bonus:%s exp:%s | avail:%s oper:%s\n",
			now, b.AccountID, b.Currency,
			money(b.Real), money(b.Freebet), money(b.Bonus), money(b.Exposure),
			money(b.Available), money(b.Operable))
	}
}

// printBreakdownTable imprime la tabla completa con los derivados.
func (c *Console) printBreakdownTable(breakdowns []domain.PoolBreakdown) {
	fmt.Fprintf(c.out, "\n[%s] %d account(s)\n", time.Now().Format("15:04:05"), len(breakdowns))

	table := tablewriter.NewWriter(c.out)
	table.Header("Account", "Ccy", "Real", "Freebet", "Bonus", "Exposure", "Available", "Operable")

	for _, b := range breakdowns {
		table.Append(
			b.AccountID,
			string(b.Currency),
			money(b.Real),
			money(b.Freebet),
			money(b.Bonus),
			money(b.Exposure),
			money(b.Available),
			money(b.Operable),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Available = real - exposure | Operable = available + freebet + bonus")
}

// ReportAllocation imprime el plan de reparto de un stake sobre el breakdown.
func (c *Console) ReportAllocation(_ context.Context, b domain.PoolBreakdown, alloc domain.WaterfallResult) error {
	fmt.Fprintf(c.out, "\n  Allocation for %s (%s):\n", b.AccountID, b.Currency)

	table := tablewriter.NewWriter(c.out)
	table.Header("Tier", "Balance", "Debit")
	table.Append("BONUS", money(b.Bonus), money(alloc.DebitBonus))
	table.Append("FREEBET", money(b.Freebet), money(alloc.DebitFreebet))
	table.Append("AVAILABLE", money(b.Available), money(alloc.DebitReal))
	table.Render()

	if alloc.FullyCovered {
		fmt.Fprintf(c.out, "  Covered in full: %s\n", money(alloc.TotalDebited()))
	} else {
		fmt.Fprintf(c.out, "  PARTIAL: %s covered, %s short — stake not placeable\n",
			money(alloc.TotalDebited()), money(alloc.Remaining))
	}
	return nil
}

// ReportEqualization imprime el sizing de patas y el profit consolidado.
func (c *Console) ReportEqualization(_ context.Context, res domain.EqualizeResult) error {
	if !res.Valid {
		fmt.Fprintln(c.out, "\n  Equalization rejected: legs left untouched")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Ccy", "Odd", "Stake", "Return", "Flags")

	for i, leg := range res.Legs {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(leg.Currency),
			leg.Odd.String(),
			money(leg.Stake),
			money(leg.Return()),
			legFlags(leg),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  Consolidated profit (%s): %s — same whichever leg wins\n",
		res.Consolidation, money(res.ConsolidatedProfit))

	for _, w := range res.Warnings {
		fmt.Fprintf(c.out, "  !! %s\n", w)
	}
	return nil
}

// --- helpers ---

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func legFlags(leg domain.ArbitrageLeg) string {
	switch {
	case leg.IsReference && leg.IsLocked:
		return "ref,locked"
	case leg.IsReference:
		return "ref"
	case leg.IsLocked:
		return "locked"
	}
	return "-"
}
