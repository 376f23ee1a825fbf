package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

var _ repository.ChargeRepository = (*ChargeRepo)(nil)

const chargeColumns = `id, article_id, best_by_date, is_frozen_area, slaughter_date, supplier_id, created_at, updated_at, deleted_at`

// ChargeRepo implementación de ChargeRepository sobre PostgreSQL (usable con pool o tx).
type ChargeRepo struct {
	q           Querier
	lockTimeout time.Duration
}

// NewChargeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewChargeRepository(q Querier, lockTimeout time.Duration) *ChargeRepo {
	return &ChargeRepo{q: q, lockTimeout: lockTimeout}
}

// Create persiste un charge nuevo.
func (r *ChargeRepo) Create(ctx context.Context, c *entity.Charge) error {
	query := `
		INSERT INTO charges (id, article_id, best_by_date, is_frozen_area, slaughter_date, supplier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.ArticleID, c.BestByDate, c.IsFrozenArea, c.SlaughterDate, nullString(c.SupplierID),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create charge: id duplicado %s: %w", c.ID, err)
		}
		return fmt.Errorf("create charge: %w", err)
	}
	return nil
}

// GetByID obtiene un charge (incluidos los borrados).
func (r *ChargeRepo) GetByID(ctx context.Context, id string) (*entity.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE id = $1`
	c, err := scanCharge(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get charge: %w", err)
	}
	return c, nil
}

// GetForUpdate obtiene el charge y bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
// Si lock_timeout vence devuelve *domain.ContentionError.
func (r *ChargeRepo) GetForUpdate(ctx context.Context, id string) (*entity.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges WHERE id = $1 FOR UPDATE`
	c, err := scanCharge(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockNotAvailable(err) {
			return nil, contention(err, r.lockTimeout, id)
		}
		return nil, fmt.Errorf("get charge for update: %w", err)
	}
	return c, nil
}

// Update reescribe los campos editables y la marca de borrado.
func (r *ChargeRepo) Update(ctx context.Context, c *entity.Charge) error {
	query := `
		UPDATE charges SET best_by_date = $2, is_frozen_area = $3, slaughter_date = $4,
			supplier_id = $5, updated_at = $6, deleted_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.BestByDate, c.IsFrozenArea, c.SlaughterDate, nullString(c.SupplierID), c.UpdatedAt, c.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("update charge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update charge: %s no existe", c.ID)
	}
	return nil
}

// List lista charges por fecha de alta con el total sin paginar.
func (r *ChargeRepo) List(ctx context.Context, filter entity.ChargeFilter, limit, offset int) ([]*entity.Charge, int, error) {
	var where []string
	var args []any
	if filter.ArticleID != "" {
		args = append(args, filter.ArticleID)
		where = append(where, fmt.Sprintf("article_id = $%d", len(args)))
	}
	if filter.ChargeID != "" {
		args = append(args, filter.ChargeID)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM charges`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count charges: %w", err)
	}

	query := `SELECT ` + chargeColumns + ` FROM charges` + cond + ` ORDER BY created_at, id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list charges: %w", err)
	}
	defer rows.Close()
	var list []*entity.Charge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan charge: %w", err)
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

func scanCharge(row pgx.Row) (*entity.Charge, error) {
	var c entity.Charge
	var supplier *string
	if err := row.Scan(&c.ID, &c.ArticleID, &c.BestByDate, &c.IsFrozenArea, &c.SlaughterDate,
		&supplier, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
		return nil, err
	}
	if supplier != nil {
		c.SupplierID = *supplier
	}
	return &c, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
