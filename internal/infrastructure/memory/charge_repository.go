package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

var _ repository.ChargeRepository = (*ChargeRepo)(nil)

// ChargeRepo charges en memoria.
type ChargeRepo struct {
	s    *Store
	inTx bool
}

func (r *ChargeRepo) Create(_ context.Context, charge *entity.Charge) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.charges[charge.ID]; ok {
		return fmt.Errorf("create charge: id duplicado %s", charge.ID)
	}
	r.s.charges[charge.ID] = charge.Clone()
	return nil
}

func (r *ChargeRepo) GetByID(_ context.Context, id string) (*entity.Charge, error) {
	defer r.s.rlock(r.inTx)()
	return r.s.charges[id].Clone(), nil
}

// GetForUpdate el lock de escritura de la transacción ya serializa: equivale a GetByID.
func (r *ChargeRepo) GetForUpdate(ctx context.Context, id string) (*entity.Charge, error) {
	return r.GetByID(ctx, id)
}

func (r *ChargeRepo) Update(_ context.Context, charge *entity.Charge) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.charges[charge.ID]; !ok {
		return fmt.Errorf("update charge: %s no existe", charge.ID)
	}
	r.s.charges[charge.ID] = charge.Clone()
	return nil
}

func (r *ChargeRepo) List(_ context.Context, filter entity.ChargeFilter, limit, offset int) ([]*entity.Charge, int, error) {
	defer r.s.rlock(r.inTx)()
	var list []*entity.Charge
	for _, c := range r.s.charges {
		if filter.ArticleID != "" && c.ArticleID != filter.ArticleID {
			continue
		}
		if filter.ChargeID != "" && c.ID != filter.ChargeID {
			continue
		}
		if !filter.IncludeDeleted && c.Deleted() {
			continue
		}
		list = append(list, c.Clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, offset), len(list), nil
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
