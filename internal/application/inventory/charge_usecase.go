package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

// ChargeUseCase registro de charges (lotes): alta, consulta, edición y baja.
type ChargeUseCase struct {
	txRunner TxRunner
	charges  repository.ChargeRepository
	locker   Locker
	now      Clock
	log      zerolog.Logger
}

// NewChargeUseCase construye el caso de uso.
func NewChargeUseCase(txRunner TxRunner, charges repository.ChargeRepository, locker Locker, now Clock, log zerolog.Logger) *ChargeUseCase {
	if now == nil {
		now = time.Now
	}
	return &ChargeUseCase{txRunner: txRunner, charges: charges, locker: locker, now: now, log: log}
}

// CreateChargeInput datos de un charge nuevo.
type CreateChargeInput struct {
	ArticleID     string
	BestByDate    *time.Time
	IsFrozenArea  bool
	SlaughterDate *time.Time
	SupplierID    string
}

// CreateCharge da de alta un charge. Falla con ValidationError si el artículo no existe
// o falta el MHD.
func (uc *ChargeUseCase) CreateCharge(ctx context.Context, in CreateChargeInput) (*entity.Charge, error) {
	if err := validateCreateCharge(in); err != nil {
		return nil, err
	}
	var created *entity.Charge
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		c, err := createCharge(ctx, r, in, uc.now())
		created = c
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("charge_id", created.ID).Str("article_id", created.ArticleID).Msg("charge creado")
	return created, nil
}

// GetCharge obtiene un charge no borrado.
func (uc *ChargeUseCase) GetCharge(ctx context.Context, id string) (*entity.Charge, error) {
	if id == "" {
		return nil, domain.Invalid("charge_id", "requerido")
	}
	c, err := uc.charges.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener charge: %w", err)
	}
	if c == nil || c.Deleted() {
		return nil, domain.NotFound("charge", id)
	}
	return c, nil
}

// ListCharges lista charges con paginación.
func (uc *ChargeUseCase) ListCharges(ctx context.Context, filter entity.ChargeFilter, limit, offset int) ([]*entity.Charge, int, error) {
	if offset < 0 {
		offset = 0
	}
	list, total, err := uc.charges.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listar charges: %w", err)
	}
	return list, total, nil
}

// UpdateCharge aplica el patch sobre los campos descriptivos. No toca movimientos:
// cambiar la zona declarada con stock existente se reporta luego como advertencia de zona.
func (uc *ChargeUseCase) UpdateCharge(ctx context.Context, id string, patch entity.ChargePatch) (*entity.Charge, error) {
	if id == "" {
		return nil, domain.Invalid("charge_id", "requerido")
	}
	if patch.SlaughterDate != nil && patch.ClearSlaughterDate {
		return nil, domain.Invalid("slaughter_date", "no se puede asignar y borrar a la vez")
	}
	var (
		updated     *entity.Charge
		areaChanged bool
	)
	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		c, err := r.Charges.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("obtener charge: %w", err)
		}
		if c == nil || c.Deleted() {
			return domain.NotFound("charge", id)
		}
		if patch.ArticleID != nil && *patch.ArticleID != c.ArticleID {
			return domain.Invalid("article_id", "el artículo de un charge no se puede cambiar")
		}
		if patch.BestByDate != nil {
			c.BestByDate = *patch.BestByDate
		}
		if patch.IsFrozenArea != nil {
			areaChanged = c.IsFrozenArea != *patch.IsFrozenArea
			c.IsFrozenArea = *patch.IsFrozenArea
		}
		if patch.SlaughterDate != nil {
			d := *patch.SlaughterDate
			c.SlaughterDate = &d
		}
		if patch.ClearSlaughterDate {
			c.SlaughterDate = nil
		}
		if patch.SupplierID != nil {
			c.SupplierID = *patch.SupplierID
		}
		if c.SlaughterDate != nil && c.SlaughterDate.After(c.BestByDate) {
			return domain.Invalid("slaughter_date", "posterior al MHD")
		}
		c.UpdatedAt = uc.now()
		if err := r.Charges.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if areaChanged {
		uc.log.Warn().Str("charge_id", id).Str("storage_area", string(updated.DeclaredArea())).
			Msg("zona declarada cambiada; los movimientos previos conservan su zona")
	}
	return updated, nil
}

// DeleteCharge da de baja un charge. Recalcula el saldo de todas sus zonas dentro de la
// transacción y falla con ConflictError si queda stock o hay reservas abiertas.
func (uc *ChargeUseCase) DeleteCharge(ctx context.Context, id string) error {
	if id == "" {
		return domain.Invalid("charge_id", "requerido")
	}
	keys := make([]entity.PositionKey, 0, len(entity.StorageAreas))
	for _, a := range entity.StorageAreas {
		keys = append(keys, entity.PositionKey{ChargeID: id, StorageArea: a})
	}
	release, err := uc.locker.Acquire(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()

	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		c, err := r.Charges.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("obtener charge: %w", err)
		}
		if c == nil || c.Deleted() {
			return domain.NotFound("charge", id)
		}
		balances, err := r.Movements.Balances(ctx, repository.BalanceFilter{ChargeID: id})
		if err != nil {
			return fmt.Errorf("saldo del charge: %w", err)
		}
		for _, b := range balances {
			if !b.Available.IsZero() {
				return &domain.ConflictError{
					ChargeID:  id,
					Reason:    fmt.Sprintf("quedan %s kg en %s", b.Available.StringFixed(3), b.StorageArea),
					Available: b.Available,
				}
			}
		}
		open, err := r.Reservations.ListActive(ctx, id)
		if err != nil {
			return fmt.Errorf("reservas del charge: %w", err)
		}
		if len(open) > 0 {
			return &domain.ConflictError{
				ChargeID:         id,
				Reason:           fmt.Sprintf("%d reservas abiertas", len(open)),
				OpenReservations: len(open),
			}
		}
		now := uc.now()
		c.DeletedAt = &now
		c.UpdatedAt = now
		return r.Charges.Update(ctx, c)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("charge_id", id).Msg("charge dado de baja")
	return nil
}

// ListReservations reservas (todas las situaciones) de un charge.
func (uc *ChargeUseCase) ListReservations(ctx context.Context, chargeID string) ([]*entity.Reservation, error) {
	if _, err := uc.GetCharge(ctx, chargeID); err != nil {
		return nil, err
	}
	var out []*entity.Reservation
	err := uc.txRunner.RunReadOnly(ctx, func(r TxRepos) error {
		list, err := r.Reservations.ListByCharge(ctx, chargeID)
		out = list
		return err
	})
	return out, err
}

func validateCreateCharge(in CreateChargeInput) error {
	if in.ArticleID == "" {
		return domain.Invalid("article_id", "requerido")
	}
	if in.BestByDate == nil || in.BestByDate.IsZero() {
		return domain.Invalid("best_by_date", "requerido")
	}
	if in.SlaughterDate != nil && in.SlaughterDate.After(*in.BestByDate) {
		return domain.Invalid("slaughter_date", "posterior al MHD")
	}
	return nil
}

// createCharge valida contra el maestro de artículos y persiste el charge con los repos de la tx.
func createCharge(ctx context.Context, r TxRepos, in CreateChargeInput, now time.Time) (*entity.Charge, error) {
	if err := validateCreateCharge(in); err != nil {
		return nil, err
	}
	article, err := r.Articles.GetByID(ctx, in.ArticleID)
	if err != nil {
		return nil, fmt.Errorf("obtener artículo: %w", err)
	}
	if article == nil {
		return nil, domain.Invalid("article_id", fmt.Sprintf("artículo %q desconocido", in.ArticleID))
	}
	c := &entity.Charge{
		ID:           uuid.New().String(),
		ArticleID:    in.ArticleID,
		BestByDate:   *in.BestByDate,
		IsFrozenArea: in.IsFrozenArea,
		SupplierID:   in.SupplierID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.SlaughterDate != nil {
		d := *in.SlaughterDate
		c.SlaughterDate = &d
	}
	if err := r.Charges.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
