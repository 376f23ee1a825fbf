package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en memoria. Solo inserción.
type MovementRepo struct {
	s    *Store
	inTx bool
}

func (r *MovementRepo) Create(_ context.Context, movement *entity.Movement) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.movementByID[movement.ID]; ok {
		return fmt.Errorf("create movement: id duplicado %s", movement.ID)
	}
	cp := *movement
	r.s.movements = append(r.s.movements, &cp)
	r.s.movementByID[cp.ID] = &cp
	return nil
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	defer r.s.rlock(r.inTx)()
	m, ok := r.s.movementByID[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *MovementRepo) List(_ context.Context, filter entity.MovementFilter, limit, offset int) ([]*entity.Movement, int, error) {
	defer r.s.rlock(r.inTx)()
	list := r.matching(filter)
	return page(list, limit, offset), len(list), nil
}

func (r *MovementRepo) Stream(ctx context.Context, filter entity.MovementFilter, fn func(*entity.Movement) error) error {
	unlock := r.s.rlock(r.inTx)
	list := r.matching(filter)
	unlock()
	for _, m := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *MovementRepo) Balance(_ context.Context, chargeID string, area entity.StorageArea) (decimal.Decimal, error) {
	defer r.s.rlock(r.inTx)()
	return inventory.Balance(r.s.movements, entity.PositionKey{ChargeID: chargeID, StorageArea: area}), nil
}

func (r *MovementRepo) Balances(_ context.Context, filter repository.BalanceFilter) ([]entity.PositionBalance, error) {
	defer r.s.rlock(r.inTx)()
	var selected []*entity.Movement
	for _, m := range r.s.movements {
		if filter.ArticleID != "" && m.ArticleID != filter.ArticleID {
			continue
		}
		if filter.ChargeID != "" && m.ChargeID != filter.ChargeID {
			continue
		}
		if filter.StorageArea != "" && m.StorageArea != filter.StorageArea {
			continue
		}
		selected = append(selected, m)
	}
	return inventory.FoldBalances(selected, filter.Before), nil
}

// matching copia los movimientos del filtro ordenados por timestamp desc, id desc.
func (r *MovementRepo) matching(f entity.MovementFilter) []*entity.Movement {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if f.From != nil && m.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && !m.Timestamp.Before(*f.To) {
			continue
		}
		if f.ArticleID != "" && m.ArticleID != f.ArticleID {
			continue
		}
		if f.ChargeID != "" && m.ChargeID != f.ChargeID {
			continue
		}
		if f.StorageArea != "" && m.StorageArea != f.StorageArea {
			continue
		}
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		if search != "" && !matchesSearch(m, search) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func matchesSearch(m *entity.Movement, q string) bool {
	for _, field := range []string{m.Note, string(m.ReasonCode), m.ArticleID, m.ChargeID} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
