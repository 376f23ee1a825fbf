// Package sqlite implementa los puertos del ledger sobre SQLite (modo de un solo nodo).
//
// Cantidades: se guardan como INTEGER en gramos (escala 3) para que SUM sea exacto.
// Timestamps: TEXT UTC de ancho fijo, así el orden lexicográfico coincide con el temporal.
// Concurrencia: un RWMutex serializa las escrituras; SQLite admite un solo escritor.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var _ inventory.TxRunner = (*Store)(nil)

const (
	dateLayout = "2006-01-02"
	tsLayout   = "2006-01-02T15:04:05.000000000Z"
)

// querier subconjunto común de *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store base de datos SQLite con el esquema del ledger.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New abre (o crea) la base en path y aplica el esquema. ":memory:" sirve para tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	if path == ":memory:" {
		// cada conexión tendría su propia base en memoria
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrar sqlite: %w", err)
	}
	return s, nil
}

// Close cierra la base.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB acceso directo (seed de artículos y reservas en tests y demo).
func (s *Store) DB() *sql.DB { return s.db }

// Repos repositorios fuera de transacción.
func (s *Store) Repos() inventory.TxRepos {
	return s.repos(s.db, false)
}

// Run ejecuta fn en una transacción SQL; Rollback si fn devuelve error.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.repos(tx, true)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunReadOnly lecturas bajo el lock compartido dentro de una sola transacción.
func (s *Store) RunReadOnly(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(s.repos(tx, true))
}

func (s *Store) repos(q querier, inTx bool) inventory.TxRepos {
	base := repo{s: s, q: q, inTx: inTx}
	return inventory.TxRepos{
		Charges:      &ChargeRepo{base},
		Movements:    &MovementRepo{base},
		Reservations: &ReservationRepo{base},
		Articles:     &ArticleRepo{base},
	}
}

// repo base común: fuera de tx cada llamada toma el lock del Store.
type repo struct {
	s    *Store
	q    querier
	inTx bool
}

func (r repo) rlock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.RLock()
	return r.s.mu.RUnlock
}

func (r repo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id     TEXT PRIMARY KEY,
	number TEXT NOT NULL DEFAULT '',
	name   TEXT NOT NULL DEFAULT '',
	unit   TEXT NOT NULL DEFAULT 'kg'
);

CREATE TABLE IF NOT EXISTS charges (
	id             TEXT PRIMARY KEY,
	article_id     TEXT NOT NULL REFERENCES articles (id),
	best_by_date   TEXT NOT NULL,
	is_frozen_area INTEGER NOT NULL DEFAULT 0,
	slaughter_date TEXT,
	supplier_id    TEXT,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL,
	deleted_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_charges_article ON charges (article_id);

CREATE TABLE IF NOT EXISTS movements (
	id                  TEXT PRIMARY KEY,
	operation_id        TEXT NOT NULL,
	charge_id           TEXT NOT NULL REFERENCES charges (id),
	article_id          TEXT NOT NULL,
	storage_area        TEXT NOT NULL CHECK (storage_area IN ('TK', 'NON_TK')),
	kind                TEXT NOT NULL CHECK (kind IN ('RECEIPT', 'REBOOKING', 'WASTE', 'MERGE')),
	quantity_grams      INTEGER NOT NULL CHECK (quantity_grams <> 0),
	reason_code         TEXT,
	note                TEXT NOT NULL DEFAULT '',
	ts                  TEXT NOT NULL,
	related_movement_id TEXT,
	created_by          TEXT
);
CREATE INDEX IF NOT EXISTS idx_movements_position ON movements (charge_id, storage_area, ts);
CREATE INDEX IF NOT EXISTS idx_movements_history ON movements (ts DESC, id DESC);

CREATE TRIGGER IF NOT EXISTS trg_movements_no_update BEFORE UPDATE ON movements
BEGIN
	SELECT RAISE(ABORT, 'movements es de solo inserción');
END;
CREATE TRIGGER IF NOT EXISTS trg_movements_no_delete BEFORE DELETE ON movements
BEGIN
	SELECT RAISE(ABORT, 'movements es de solo inserción');
END;

CREATE TABLE IF NOT EXISTS reservations (
	id             TEXT PRIMARY KEY,
	charge_id      TEXT NOT NULL REFERENCES charges (id),
	storage_area   TEXT NOT NULL CHECK (storage_area IN ('TK', 'NON_TK')),
	order_id       TEXT NOT NULL,
	customer_id    TEXT NOT NULL DEFAULT '',
	delivery_date  TEXT NOT NULL,
	quantity_grams INTEGER NOT NULL,
	status         TEXT NOT NULL CHECK (status IN ('OPEN', 'IN_TRANSIT', 'CLOSED'))
);
CREATE INDEX IF NOT EXISTS idx_reservations_charge ON reservations (charge_id, status);
`

func toGrams(d decimal.Decimal) int64 {
	return d.Shift(3).Round(0).IntPart()
}

func fromGrams(g int64) decimal.Decimal {
	return decimal.New(g, -3)
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(tsLayout, s)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

func nullTS(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTS(*t), Valid: true}
}
