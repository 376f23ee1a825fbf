package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, operation_id, charge_id, article_id, storage_area, kind, quantity_delta,
	reason_code, note, ts, related_movement_id, created_by`

// MovementRepo libro de movimientos sobre PostgreSQL. La tabla rechaza UPDATE y DELETE por trigger.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.OperationID, m.ChargeID, m.ArticleID, string(m.StorageArea), string(m.Kind), m.QuantityDelta,
		nullString(string(m.ReasonCode)), m.Note, m.Timestamp, nullString(m.RelatedMovementID), nullString(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List página del historial (timestamp desc, id desc) y total.
func (r *MovementRepo) List(ctx context.Context, filter entity.MovementFilter, limit, offset int) ([]*entity.Movement, int, error) {
	cond, args := movementWhere(filter)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM movements`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := `SELECT ` + movementColumns + ` FROM movements` + cond + ` ORDER BY ts DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	var list []*entity.Movement
	err := r.each(ctx, query, args, func(m *entity.Movement) error {
		list = append(list, m)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Stream recorre el filtro completo sin cargarlo en memoria.
func (r *MovementRepo) Stream(ctx context.Context, filter entity.MovementFilter, fn func(*entity.Movement) error) error {
	cond, args := movementWhere(filter)
	return r.each(ctx, `SELECT `+movementColumns+` FROM movements`+cond+` ORDER BY ts DESC, id DESC`, args, fn)
}

func (r *MovementRepo) each(ctx context.Context, query string, args []any, fn func(*entity.Movement) error) error {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return fmt.Errorf("scan movement: %w", err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Balance suma de deltas de un (charge, zona).
func (r *MovementRepo) Balance(ctx context.Context, chargeID string, area entity.StorageArea) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `SELECT COALESCE(SUM(quantity_delta), 0) FROM movements WHERE charge_id = $1 AND storage_area = $2`
	if err := r.q.QueryRow(ctx, query, chargeID, string(area)).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("balance: %w", err)
	}
	return sum, nil
}

// Balances suma agrupada por (artículo, charge, zona), ordenada por charge y zona.
func (r *MovementRepo) Balances(ctx context.Context, filter repository.BalanceFilter) ([]entity.PositionBalance, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.ArticleID != "" {
		add("article_id = $%d", filter.ArticleID)
	}
	if filter.ChargeID != "" {
		add("charge_id = $%d", filter.ChargeID)
	}
	if filter.StorageArea != "" {
		add("storage_area = $%d", string(filter.StorageArea))
	}
	if filter.Before != nil {
		add("ts < $%d", *filter.Before)
	}
	query := `SELECT article_id, charge_id, storage_area, SUM(quantity_delta) FROM movements`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` GROUP BY article_id, charge_id, storage_area ORDER BY charge_id, storage_area`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	defer rows.Close()
	var out []entity.PositionBalance
	for rows.Next() {
		var b entity.PositionBalance
		var area string
		if err := rows.Scan(&b.ArticleID, &b.ChargeID, &area, &b.Available); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		b.StorageArea = entity.StorageArea(area)
		out = append(out, b)
	}
	return out, rows.Err()
}

func movementWhere(f entity.MovementFilter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "$?", fmt.Sprintf("$%d", len(args))))
	}
	if f.From != nil {
		add("ts >= $?", *f.From)
	}
	if f.To != nil {
		add("ts < $?", *f.To)
	}
	if f.ArticleID != "" {
		add("article_id = $?", f.ArticleID)
	}
	if f.ChargeID != "" {
		add("charge_id = $?", f.ChargeID)
	}
	if f.StorageArea != "" {
		add("storage_area = $?", string(f.StorageArea))
	}
	if f.Kind != "" {
		add("kind = $?", string(f.Kind))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(note ILIKE $? OR reason_code ILIKE $? OR article_id ILIKE $? OR charge_id ILIKE $?)", "%"+s+"%")
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var area, kind string
	var reason, related, createdBy *string
	if err := row.Scan(&m.ID, &m.OperationID, &m.ChargeID, &m.ArticleID, &area, &kind, &m.QuantityDelta,
		&reason, &m.Note, &m.Timestamp, &related, &createdBy); err != nil {
		return nil, err
	}
	m.StorageArea = entity.StorageArea(area)
	m.Kind = entity.MovementKind(kind)
	if reason != nil {
		m.ReasonCode = entity.WasteReason(*reason)
	}
	if related != nil {
		m.RelatedMovementID = *related
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}
