package storage

// sqlite.go — persistencia del libro, las operaciones y las cotizaciones.
//
// Estrategia:
//   - `ledger_entries`: append-only. UNIQUE(idempotency_key) + INSERT OR
//     IGNORE hace el append reintentable: el batch entero en una transacción,
//     las claves repetidas se descartan en silencio.
//   - `operations` + `operation_legs`: la apuesta de la cuenta y su contexto
//     de patas. El settle solo toca status/settled_at.
//   - `quotes`: una fila por moneda (UPSERT) — el feed externo solo necesita
//     la más fresca; la frescura la juzga el resolver, no el store.
//   - `working_rates`: tasas fijadas a mano, con ámbito de operación.
//
// Importes y tasas se guardan como TEXT decimal — nunca float: el dinero no
// se redondea por accidente de almacenamiento.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

const schema = `
-- Libro append-only: las correcciones son entradas nuevas, nunca UPDATEs
CREATE TABLE IF NOT EXISTS ledger_entries (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id      TEXT NOT NULL,
    pool            TEXT NOT NULL CHECK (pool IN ('REAL','FREEBET','BONUS')),
    amount          TEXT NOT NULL,
    currency        TEXT NOT NULL,
    created_at      DATETIME NOT NULL,
    idempotency_key TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS operations (
    id         TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    stake      TEXT NOT NULL,
    currency   TEXT NOT NULL,
    odd        TEXT NOT NULL,
    real_stake TEXT NOT NULL,
    status     TEXT NOT NULL CHECK (status IN ('OPEN','SETTLED')),
    created_at DATETIME NOT NULL,
    settled_at DATETIME
);

CREATE TABLE IF NOT EXISTS operation_legs (
    operation_id TEXT NOT NULL REFERENCES operations(id),
    idx          INTEGER NOT NULL,
    currency     TEXT NOT NULL,
    odd          TEXT NOT NULL,
    stake        TEXT NOT NULL,
    is_reference INTEGER NOT NULL DEFAULT 0,
    is_locked    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (operation_id, idx)
);

-- Una fila por moneda: solo interesa la cotización más fresca
CREATE TABLE IF NOT EXISTS quotes (
    currency   TEXT PRIMARY KEY,
    rate       TEXT NOT NULL,
    source_tag TEXT NOT NULL,
    fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS working_rates (
    operation_id TEXT NOT NULL,
    currency     TEXT NOT NULL,
    rate         TEXT NOT NULL,
    PRIMARY KEY (operation_id, currency)
);

CREATE INDEX IF NOT EXISTS idx_ledger_account ON ledger_entries(account_id, created_at);
CREATE INDEX IF NOT EXISTS idx_ops_account    ON operations(account_id, status);
`

// SQLiteStorage implementa ports.LedgerStore, ports.OperationStore y
// ports.RateFeed sobre SQLite (pure Go, sin CGo). La conexión única de
// escritura es además el ámbito de exclusión por cuenta que exige el
// contrato del libro.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// --- ports.LedgerStore ---

// AppendBatch añade las entradas en una transacción. Claves de idempotencia
// ya presentes se ignoran: reintentar el mismo batch es un no-op.
func (s *SQLiteStorage) AppendBatch(ctx context.Context, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.AppendBatch: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_entries (account_id, pool, amount, currency, created_at, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("storage.AppendBatch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if !e.Pool.Valid() {
			return fmt.Errorf("storage.AppendBatch: unknown pool %q", e.Pool)
		}
		if e.IdempotencyKey == "" {
			return fmt.Errorf("storage.AppendBatch: entry without idempotency key")
		}
		if _, err := stmt.ExecContext(ctx,
			e.AccountID, string(e.Pool), e.Amount.String(), string(e.Currency),
			e.CreatedAt.UTC(), e.IdempotencyKey,
		); err != nil {
			return fmt.Errorf("storage.AppendBatch: insert %s: %w", e.IdempotencyKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.AppendBatch: commit: %w", err)
	}
	return nil
}

// EntriesByAccount devuelve las entradas de la cuenta ordenadas por creación.
func (s *SQLiteStorage) EntriesByAccount(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, pool, amount, currency, created_at, idempotency_key
		FROM ledger_entries
		WHERE account_id = ?
		ORDER BY created_at ASC, id ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("storage.EntriesByAccount: query: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var pool, amount, currency string
		if err := rows.Scan(&e.ID, &e.AccountID, &pool, &amount, &currency, &e.CreatedAt, &e.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("storage.EntriesByAccount: scan: %w", err)
		}
		e.Pool = domain.Pool(pool)
		e.Currency = domain.Currency(currency)
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("storage.EntriesByAccount: amount %q: %w", amount, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- ports.OperationStore ---

// SaveOperation persiste la operación con sus patas en una transacción.
func (s *SQLiteStorage) SaveOperation(ctx context.Context, op domain.Operation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveOperation: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO operations (id, account_id, stake, currency, odd, real_stake, status, created_at, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stake      = excluded.stake,
			odd        = excluded.odd,
			real_stake = excluded.real_stake,
			status     = excluded.status,
			settled_at = excluded.settled_at
	`,
		op.ID, op.AccountID, op.Stake.String(), string(op.Currency), op.Odd.String(),
		op.RealStake.String(), string(op.Status), op.CreatedAt.UTC(), nullTime(op.SettledAt),
	); err != nil {
		return fmt.Errorf("storage.SaveOperation: upsert %s: %w", op.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM operation_legs WHERE operation_id = ?`, op.ID); err != nil {
		return fmt.Errorf("storage.SaveOperation: clear legs: %w", err)
	}
	for i, leg := range op.Legs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO operation_legs (operation_id, idx, currency, odd, stake, is_reference, is_locked)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, op.ID, i, string(leg.Currency), leg.Odd.String(), leg.Stake.String(),
			boolToInt(leg.IsReference), boolToInt(leg.IsLocked),
		); err != nil {
			return fmt.Errorf("storage.SaveOperation: leg %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveOperation: commit: %w", err)
	}
	return nil
}

// GetOperation devuelve la operación con sus patas. found=false si no existe.
func (s *SQLiteStorage) GetOperation(ctx context.Context, id string) (domain.Operation, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, stake, currency, odd, real_stake, status, created_at, settled_at
		FROM operations WHERE id = ?
	`, id)

	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return domain.Operation{}, false, nil
	}
	if err != nil {
		return domain.Operation{}, false, fmt.Errorf("storage.GetOperation: %w", err)
	}

	if op.Legs, err = s.legsFor(ctx, id); err != nil {
		return domain.Operation{}, false, fmt.Errorf("storage.GetOperation: %w", err)
	}
	return op, true, nil
}

// OpenOperations devuelve las operaciones sin resolver de la cuenta.
func (s *SQLiteStorage) OpenOperations(ctx context.Context, accountID string) ([]domain.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, stake, currency, odd, real_stake, status, created_at, settled_at
		FROM operations
		WHERE account_id = ? AND status = 'OPEN'
		ORDER BY created_at ASC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("storage.OpenOperations: query: %w", err)
	}
	defer rows.Close()

	var ops []domain.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.OpenOperations: scan: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// MarkSettled cierra la operación. Idempotente.
func (s *SQLiteStorage) MarkSettled(ctx context.Context, id string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE operations SET status = 'SETTLED', settled_at = ?
		WHERE id = ? AND status = 'OPEN'
	`, at.UTC(), id); err != nil {
		return fmt.Errorf("storage.MarkSettled: %s: %w", id, err)
	}
	return nil
}

// Accounts devuelve los IDs de cuenta con movimientos en el libro.
func (s *SQLiteStorage) Accounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT account_id FROM ledger_entries ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("storage.Accounts: query: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage.Accounts: scan: %w", err)
		}
		accounts = append(accounts, id)
	}
	return accounts, rows.Err()
}

// --- ports.RateFeed ---

// SaveQuote hace upsert de la cotización de la moneda.
func (s *SQLiteStorage) SaveQuote(ctx context.Context, q domain.Quote) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (currency, rate, source_tag, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(currency) DO UPDATE SET
			rate       = excluded.rate,
			source_tag = excluded.source_tag,
			fetched_at = excluded.fetched_at
	`, string(q.Currency), q.Rate.String(), string(q.SourceTag), q.FetchedAt.UTC()); err != nil {
		return fmt.Errorf("storage.SaveQuote: %s: %w", q.Currency, err)
	}
	return nil
}

// LatestQuote devuelve la cotización de la moneda. ok=false si no existe.
func (s *SQLiteStorage) LatestQuote(ctx context.Context, c domain.Currency) (domain.Quote, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT currency, rate, source_tag, fetched_at FROM quotes WHERE currency = ?`, string(c))

	var q domain.Quote
	var currency, rate, tag string
	err := row.Scan(&currency, &rate, &tag, &q.FetchedAt)
	if err == sql.ErrNoRows {
		return domain.Quote{}, false, nil
	}
	if err != nil {
		return domain.Quote{}, false, fmt.Errorf("storage.LatestQuote: %s: %w", c, err)
	}

	q.Currency = domain.Currency(currency)
	q.SourceTag = domain.SourceTag(tag)
	if q.Rate, err = decimal.NewFromString(rate); err != nil {
		return domain.Quote{}, false, fmt.Errorf("storage.LatestQuote: rate %q: %w", rate, err)
	}
	return q, true, nil
}

// SaveWorkingRate fija una tasa manual en el ámbito de una operación.
func (s *SQLiteStorage) SaveWorkingRate(ctx context.Context, operationID string, c domain.Currency, rate decimal.Decimal) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO working_rates (operation_id, currency, rate)
		VALUES (?, ?, ?)
		ON CONFLICT(operation_id, currency) DO UPDATE SET rate = excluded.rate
	`, operationID, string(c), rate.String()); err != nil {
		return fmt.Errorf("storage.SaveWorkingRate: %s/%s: %w", operationID, c, err)
	}
	return nil
}

// WorkingRates devuelve las tasas manuales de la operación.
func (s *SQLiteStorage) WorkingRates(ctx context.Context, operationID string) (domain.WorkingRates, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT currency, rate FROM working_rates WHERE operation_id = ?`, operationID)
	if err != nil {
		return nil, fmt.Errorf("storage.WorkingRates: query: %w", err)
	}
	defer rows.Close()

	working := domain.WorkingRates{}
	for rows.Next() {
		var currency, rate string
		if err := rows.Scan(&currency, &rate); err != nil {
			return nil, fmt.Errorf("storage.WorkingRates: scan: %w", err)
		}
		d, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("storage.WorkingRates: rate %q: %w", rate, err)
		}
		working[domain.Currency(currency)] = d
	}
	return working, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (domain.Operation, error) {
	var op domain.Operation
	var stake, currency, odd, realStake, status string
	var settledAt sql.NullTime

	if err := row.Scan(&op.ID, &op.AccountID, &stake, &currency, &odd, &realStake, &status, &op.CreatedAt, &settledAt); err != nil {
		return domain.Operation{}, err
	}

	var err error
	if op.Stake, err = decimal.NewFromString(stake); err != nil {
		return domain.Operation{}, fmt.Errorf("stake %q: %w", stake, err)
	}
	if op.Odd, err = decimal.NewFromString(odd); err != nil {
		return domain.Operation{}, fmt.Errorf("odd %q: %w", odd, err)
	}
	if op.RealStake, err = decimal.NewFromString(realStake); err != nil {
		return domain.Operation{}, fmt.Errorf("real_stake %q: %w", realStake, err)
	}
	op.Currency = domain.Currency(currency)
	op.Status = domain.OperationStatus(status)
	if settledAt.Valid {
		t := settledAt.Time
		op.SettledAt = &t
	}
	return op, nil
}

func (s *SQLiteStorage) legsFor(ctx context.Context, operationID string) ([]domain.ArbitrageLeg, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT currency, odd, stake, is_reference, is_locked
		FROM operation_legs WHERE operation_id = ? ORDER BY idx ASC
	`, operationID)
	if err != nil {
		return nil, fmt.Errorf("legs for %s: %w", operationID, err)
	}
	defer rows.Close()

	var legs []domain.ArbitrageLeg
	for rows.Next() {
		var leg domain.ArbitrageLeg
		var currency, odd, stake string
		var isRef, isLocked int
		if err := rows.Scan(&currency, &odd, &stake, &isRef, &isLocked); err != nil {
			return nil, fmt.Errorf("scan leg: %w", err)
		}
		leg.Currency = domain.Currency(currency)
		if leg.Odd, err = decimal.NewFromString(odd); err != nil {
			return nil, fmt.Errorf("leg odd %q: %w", odd, err)
		}
		if leg.Stake, err = decimal.NewFromString(stake); err != nil {
			return nil, fmt.Errorf("leg stake %q: %w", stake, err)
		}
		leg.IsReference = isRef == 1
		leg.IsLocked = isLocked == 1
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
