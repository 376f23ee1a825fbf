package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

var _ repository.ChargeRepository = (*ChargeRepo)(nil)

const chargeColumns = `id, article_id, best_by_date, is_frozen_area, slaughter_date, supplier_id, created_at, updated_at, deleted_at`

// ChargeRepo charges sobre SQLite.
type ChargeRepo struct{ repo }

func (r *ChargeRepo) Create(ctx context.Context, c *entity.Charge) error {
	defer r.lock()()
	_, err := r.q.ExecContext(ctx, `INSERT INTO charges (`+chargeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ArticleID, formatDate(c.BestByDate), c.IsFrozenArea, nullDate(c.SlaughterDate),
		nullString(c.SupplierID), formatTS(c.CreatedAt), formatTS(c.UpdatedAt), nullTS(c.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("create charge: %w", err)
	}
	return nil
}

func (r *ChargeRepo) GetByID(ctx context.Context, id string) (*entity.Charge, error) {
	defer r.rlock()()
	c, err := scanCharge(r.q.QueryRowContext(ctx, `SELECT `+chargeColumns+` FROM charges WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get charge: %w", err)
	}
	return c, nil
}

// GetForUpdate SQLite no tiene bloqueo de filas; la transacción ya es exclusiva.
func (r *ChargeRepo) GetForUpdate(ctx context.Context, id string) (*entity.Charge, error) {
	return r.GetByID(ctx, id)
}

func (r *ChargeRepo) Update(ctx context.Context, c *entity.Charge) error {
	defer r.lock()()
	res, err := r.q.ExecContext(ctx, `
		UPDATE charges SET best_by_date = ?, is_frozen_area = ?, slaughter_date = ?, supplier_id = ?,
			updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		formatDate(c.BestByDate), c.IsFrozenArea, nullDate(c.SlaughterDate), nullString(c.SupplierID),
		formatTS(c.UpdatedAt), nullTS(c.DeletedAt), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update charge: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update charge: %s no existe", c.ID)
	}
	return nil
}

func (r *ChargeRepo) List(ctx context.Context, filter entity.ChargeFilter, limit, offset int) ([]*entity.Charge, int, error) {
	defer r.rlock()()
	var where []string
	var args []any
	if filter.ArticleID != "" {
		where = append(where, "article_id = ?")
		args = append(args, filter.ArticleID)
	}
	if filter.ChargeID != "" {
		where = append(where, "id = ?")
		args = append(args, filter.ChargeID)
	}
	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM charges`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count charges: %w", err)
	}
	query := `SELECT ` + chargeColumns + ` FROM charges` + cond + ` ORDER BY created_at, id`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanCharge(row scanner) (*entity.Charge, error) {
	var c entity.Charge
	var bestBy, createdAt, updatedAt string
	var slaughter, supplier, deleted sql.NullString
	if err := row.Scan(&c.ID, &c.ArticleID, &bestBy, &c.IsFrozenArea, &slaughter, &supplier,
		&createdAt, &updatedAt, &deleted); err != nil {
		return nil, err
	}
	var err error
	if c.BestByDate, err = parseDate(bestBy); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTS(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTS(updatedAt); err != nil {
		return nil, err
	}
	if slaughter.Valid {
		d, err := parseDate(slaughter.String)
		if err != nil {
			return nil, err
		}
		c.SlaughterDate = &d
	}
	if deleted.Valid {
		d, err := parseTS(deleted.String)
		if err != nil {
			return nil, err
		}
		c.DeletedAt = &d
	}
	c.SupplierID = supplier.String
	return &c, nil
}
