package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

var _ repository.ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo maestro de artículos sobre SQLite.
type ArticleRepo struct{ repo }

func (r *ArticleRepo) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	defer r.rlock()()
	var a entity.Article
	err := r.q.QueryRowContext(ctx, `SELECT id, number, name, unit FROM articles WHERE id = ?`, id).
		Scan(&a.ID, &a.Number, &a.Name, &a.Unit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return &a, nil
}

// PutArticle inserta o actualiza un artículo del maestro.
func (s *Store) PutArticle(ctx context.Context, a entity.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit := a.Unit
	if unit == "" {
		unit = "kg"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (id, number, name, unit) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET number = excluded.number, name = excluded.name, unit = excluded.unit`,
		a.ID, a.Number, a.Name, unit)
	if err != nil {
		return fmt.Errorf("put article: %w", err)
	}
	return nil
}
