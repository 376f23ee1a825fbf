package memory

import (
	"context"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

var _ repository.ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo maestro de artículos en memoria.
type ArticleRepo struct {
	s    *Store
	inTx bool
}

func (r *ArticleRepo) GetByID(_ context.Context, id string) (*entity.Article, error) {
	defer r.s.rlock(r.inTx)()
	a, ok := r.s.articles[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}
