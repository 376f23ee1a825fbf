package repository

import (
	"context"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// ArticleRepository acceso de solo lectura al maestro de artículos.
type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Article, error)
}
