package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/bankroll/config"
	"github.com/alejandrodnm/bankroll/internal/adapters/notify"
	"github.com/alejandrodnm/bankroll/internal/adapters/storage"
	"github.com/alejandrodnm/bankroll/internal/domain"
	"github.com/alejandrodnm/bankroll/internal/engine"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")

	balance := flag.String("balance", "", "print the pool breakdown of the account (or 'all')")
	allocate := flag.String("allocate", "", "preview the stake split for the account, without placing")
	stake := flag.String("stake", "", "stake amount for -allocate / -place")
	odd := flag.String("odd", "", "decimal odd for -place")
	noFreebet := flag.Bool("no-freebet", false, "skip the FREEBET tier when splitting the stake")
	place := flag.String("place", "", "place a stake on the account (debits pools, opens the operation)")
	legsPath := flag.String("legs", "", "YAML file with the operation legs (with -place)")
	equalize := flag.String("equalize", "", "size the legs of the operation and print consolidated profit")
	consolidate := flag.String("consolidate", "", "consolidation currency for -equalize (overrides config)")
	settle := flag.String("settle", "", "settle the operation")
	win := flag.Bool("win", false, "settle as won (with -settle)")
	lose := flag.Bool("lose", false, "settle as lost (with -settle)")
	watch := flag.Bool("watch", false, "re-render breakdowns of every account on an interval")
	interval := flag.Duration("interval", 0, "watch interval (overrides config)")
	seed := flag.Bool("seed", false, "load demo accounts and quotes into storage")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
		slog.Warn("config file not loaded, using defaults", "err", err, "path", *configPath)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	fallback, err := parseFallback(cfg.Engine.FallbackRates)
	if err != nil {
		slog.Error("invalid fallback table", "err", err)
		os.Exit(1)
	}

	hub := domain.Currency(cfg.Engine.HubCurrency)
	resolver := engine.NewRateResolver(store, hub, fallback,
		engine.WithWindows(cfg.FreshWindow(), cfg.StaleWindow()))
	converter := engine.NewCurrencyConverter(resolver)
	computer := engine.NewBalanceComputer(store, store)
	equalizer := engine.NewLegEqualizer(converter)
	settler := engine.NewSettler(store, store, computer)
	reporter := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := &app{
		cfg:       cfg,
		store:     store,
		computer:  computer,
		equalizer: equalizer,
		settler:   settler,
		reporter:  reporter,
	}

	switch {
	case *seed:
		err = app.runSeed(ctx)
	case *watch:
		err = app.runWatch(ctx, *interval)
	case *balance != "":
		err = app.runBalance(ctx, *balance)
	case *allocate != "":
		err = app.runAllocate(ctx, *allocate, *stake, !*noFreebet)
	case *place != "":
		err = app.runPlace(ctx, *place, *stake, *odd, *legsPath, !*noFreebet)
	case *equalize != "":
		err = app.runEqualize(ctx, *equalize, *consolidate)
	case *settle != "":
		err = app.runSettle(ctx, *settle, *win, *lose)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// app agrupa los componentes cableados para los comandos.
type app struct {
	cfg       *config.Config
	store     *storage.SQLiteStorage
	computer  *engine.BalanceComputer
	equalizer *engine.LegEqualizer
	settler   *engine.Settler
	reporter  *notify.Console
}

// runBalance imprime el breakdown de la cuenta, o de todas con 'all'.
func (a *app) runBalance(ctx context.Context, account string) error {
	accounts := []string{account}
	if account == "all" {
		var err error
		if accounts, err = a.store.Accounts(ctx); err != nil {
			return err
		}
	}

	var breakdowns []domain.PoolBreakdown
	for _, id := range accounts {
		b, err := a.computer.Compute(ctx, id)
		if err != nil {
			return fmt.Errorf("account %s: %w", id, err)
		}
		breakdowns = append(breakdowns, b)
	}
	return a.reporter.ReportBreakdowns(ctx, breakdowns)
}

// runAllocate previsualiza el reparto del stake sin colocar nada.
func (a *app) runAllocate(ctx context.Context, account, stakeStr string, allowFreebet bool) error {
	stake, err := parseAmount(stakeStr, "-stake")
	if err != nil {
		return err
	}

	b, err := a.computer.Compute(ctx, account)
	if err != nil {
		return err
	}

	alloc := domain.Allocate(stake, b, allowFreebet)
	return a.reporter.ReportAllocation(ctx, b, alloc)
}

// runPlace coloca el stake: acuña el ID de operación, debita los pools promo
// y abre la operación. Un reparto parcial no coloca nada.
func (a *app) runPlace(ctx context.Context, account, stakeStr, oddStr, legsPath string, allowFreebet bool) error {
	stake, err := parseAmount(stakeStr, "-stake")
	if err != nil {
		return err
	}
	oddVal, err := parseAmount(oddStr, "-odd")
	if err != nil {
		return err
	}

	var legs []domain.ArbitrageLeg
	if legsPath != "" {
		if legs, err = loadLegs(legsPath); err != nil {
			return err
		}
	}

	b, err := a.computer.Compute(ctx, account)
	if err != nil {
		return err
	}
	currency := b.Currency
	if currency == "" {
		currency = domain.Currency(a.cfg.Engine.HubCurrency)
	}

	op := domain.Operation{
		ID:        uuid.New().String(),
		AccountID: account,
		Stake:     stake,
		Currency:  currency,
		Odd:       oddVal,
		Legs:      legs,
	}

	alloc, err := a.settler.PlaceStake(ctx, op, allowFreebet)
	if err != nil {
		return err
	}
	if err := a.reporter.ReportAllocation(ctx, b, alloc); err != nil {
		return err
	}

	if alloc.FullyCovered {
		slog.Info("stake placed", "operation", op.ID, "account", account,
			"stake", stake.String(), "real_portion", alloc.DebitReal.String())
	} else {
		slog.Warn("stake not placed: split is partial", "account", account,
			"remaining", alloc.Remaining.String())
	}
	return nil
}

// runEqualize dimensiona las patas de la operación con las working rates de
// su ámbito y persiste el resultado.
func (a *app) runEqualize(ctx context.Context, operationID, consolidate string) error {
	op, found, err := a.store.GetOperation(ctx, operationID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("operation %s not found", operationID)
	}
	// Una operación resuelta es inmutable: sus patas ya no se redimensionan.
	if !op.Open() {
		return fmt.Errorf("operation %s is settled: legs are immutable", operationID)
	}

	working, err := a.store.WorkingRates(ctx, operationID)
	if err != nil {
		return err
	}

	consolidation := domain.Currency(a.cfg.Engine.ConsolidationCurrency)
	if consolidate != "" {
		consolidation = domain.Currency(consolidate)
	}
	res, err := a.equalizer.Equalize(ctx, op.Legs, consolidation, working)
	if err != nil {
		return err
	}

	if err := a.reporter.ReportEqualization(ctx, res); err != nil {
		return err
	}

	op.Legs = res.Legs
	return a.store.SaveOperation(ctx, op)
}

// runSettle resuelve la operación como ganada o perdida.
func (a *app) runSettle(ctx context.Context, operationID string, win, lose bool) error {
	if win == lose {
		return fmt.Errorf("-settle needs exactly one of -win or -lose")
	}

	if win {
		if err := a.settler.SettleWin(ctx, operationID); err != nil {
			return err
		}
		slog.Info("operation settled as won", "operation", operationID)
		return nil
	}

	if err := a.settler.SettleLoss(ctx, operationID); err != nil {
		return err
	}
	slog.Info("operation settled as lost", "operation", operationID)
	return nil
}

func parseAmount(s, flagName string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, fmt.Errorf("%s is required", flagName)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", flagName, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive, got %s", flagName, s)
	}
	return d, nil
}

func parseFallback(raw map[string]string) (domain.FallbackTable, error) {
	table := domain.FallbackTable{}
	for currency, rate := range raw {
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("fallback rate %s=%q: %w", currency, rate, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("fallback rate %s=%q must be positive", currency, rate)
		}
		table[domain.Currency(currency)] = d
	}
	return table, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
