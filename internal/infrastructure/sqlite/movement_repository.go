package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, operation_id, charge_id, article_id, storage_area, kind, quantity_grams,
	reason_code, note, ts, related_movement_id, created_by`

// MovementRepo libro de movimientos sobre SQLite. Los triggers del esquema impiden UPDATE y DELETE.
type MovementRepo struct{ repo }

func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	defer r.lock()()
	_, err := r.q.ExecContext(ctx, `INSERT INTO movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.OperationID, m.ChargeID, m.ArticleID, string(m.StorageArea), string(m.Kind), toGrams(m.QuantityDelta),
		nullString(string(m.ReasonCode)), m.Note, formatTS(m.Timestamp), nullString(m.RelatedMovementID), nullString(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	defer r.rlock()()
	m, err := scanMovement(r.q.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

func (r *MovementRepo) List(ctx context.Context, filter entity.MovementFilter, limit, offset int) ([]*entity.Movement, int, error) {
	defer r.rlock()()
	cond, args := movementWhere(filter)
	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM movements`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}
	query := `SELECT ` + movementColumns + ` FROM movements` + cond + ` ORDER BY ts DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	var list []*entity.Movement
	if err := r.each(ctx, query, args, func(m *entity.Movement) error {
		list = append(list, m)
		return nil
	}); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *MovementRepo) Stream(ctx context.Context, filter entity.MovementFilter, fn func(*entity.Movement) error) error {
	defer r.rlock()()
	cond, args := movementWhere(filter)
	return r.each(ctx, `SELECT `+movementColumns+` FROM movements`+cond+` ORDER BY ts DESC, id DESC`, args, fn)
}

func (r *MovementRepo) each(ctx context.Context, query string, args []any, fn func(*entity.Movement) error) error {
	rows, err := r.q.QueryContext(ctx, query, args...)
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

func (r *MovementRepo) Balance(ctx context.Context, chargeID string, area entity.StorageArea) (decimal.Decimal, error) {
	defer r.rlock()()
	var grams int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity_grams), 0) FROM movements WHERE charge_id = ? AND storage_area = ?`,
		chargeID, string(area)).Scan(&grams)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance: %w", err)
	}
	return fromGrams(grams), nil
}

func (r *MovementRepo) Balances(ctx context.Context, filter repository.BalanceFilter) ([]entity.PositionBalance, error) {
	defer r.rlock()()
	var where []string
	var args []any
	if filter.ArticleID != "" {
		where = append(where, "article_id = ?")
		args = append(args, filter.ArticleID)
	}
	if filter.ChargeID != "" {
		where = append(where, "charge_id = ?")
		args = append(args, filter.ChargeID)
	}
	if filter.StorageArea != "" {
		where = append(where, "storage_area = ?")
		args = append(args, string(filter.StorageArea))
	}
	if filter.Before != nil {
		where = append(where, "ts < ?")
		args = append(args, formatTS(*filter.Before))
	}
	query := `SELECT article_id, charge_id, storage_area, SUM(quantity_grams) FROM movements`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` GROUP BY article_id, charge_id, storage_area ORDER BY charge_id, storage_area`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	defer rows.Close()
	var out []entity.PositionBalance
	for rows.Next() {
		var b entity.PositionBalance
		var area string
		var grams int64
		if err := rows.Scan(&b.ArticleID, &b.ChargeID, &area, &grams); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		b.StorageArea = entity.StorageArea(area)
		b.Available = fromGrams(grams)
		out = append(out, b)
	}
	return out, rows.Err()
}

func movementWhere(f entity.MovementFilter) (string, []any) {
	var where []string
	var args []any
	if f.From != nil {
		where = append(where, "ts >= ?")
		args = append(args, formatTS(*f.From))
	}
	if f.To != nil {
		where = append(where, "ts < ?")
		args = append(args, formatTS(*f.To))
	}
	if f.ArticleID != "" {
		where = append(where, "article_id = ?")
		args = append(args, f.ArticleID)
	}
	if f.ChargeID != "" {
		where = append(where, "charge_id = ?")
		args = append(args, f.ChargeID)
	}
	if f.StorageArea != "" {
		where = append(where, "storage_area = ?")
		args = append(args, string(f.StorageArea))
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		where = append(where, "(note LIKE ? OR reason_code LIKE ? OR article_id LIKE ? OR charge_id LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func scanMovement(row scanner) (*entity.Movement, error) {
	var m entity.Movement
	var area, kind, ts string
	var grams int64
	var reason, related, createdBy sql.NullString
	if err := row.Scan(&m.ID, &m.OperationID, &m.ChargeID, &m.ArticleID, &area, &kind, &grams,
		&reason, &m.Note, &ts, &related, &createdBy); err != nil {
		return nil, err
	}
	t, err := parseTS(ts)
	if err != nil {
		return nil, err
	}
	m.Timestamp = t
	m.StorageArea = entity.StorageArea(area)
	m.Kind = entity.MovementKind(kind)
	m.QuantityDelta = fromGrams(grams)
	m.ReasonCode = entity.WasteReason(reason.String)
	m.RelatedMovementID = related.String
	m.CreatedBy = createdBy.String
	return &m, nil
}
