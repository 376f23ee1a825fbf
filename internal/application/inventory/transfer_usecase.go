package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

// TransferUseCase motor de transferencias: entrada manual, merma, reubicación (Umbuchen)
// y fusión de charges. Cada operación bloquea sus claves (charge, zona), abre una sola
// transacción y escribe todos sus movimientos o ninguno.
type TransferUseCase struct {
	txRunner TxRunner
	charges  repository.ChargeRepository
	locker   Locker
	now      Clock
	log      zerolog.Logger
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(txRunner TxRunner, charges repository.ChargeRepository, locker Locker, now Clock, log zerolog.Logger) *TransferUseCase {
	if now == nil {
		now = time.Now
	}
	return &TransferUseCase{txRunner: txRunner, charges: charges, locker: locker, now: now, log: log}
}

// Actor usuario que ejecuta la operación; se pasa explícitamente en cada llamada.
type Actor struct {
	UserID string
}

// NewChargeSpec charge a crear como destino de una entrada o reubicación.
type NewChargeSpec struct {
	BestByDate    *time.Time
	IsFrozenArea  bool
	SlaughterDate *time.Time
	SupplierID    string
}

// ReceiptInput entrada manual de mercancía. Exactamente uno de ExistingChargeID / NewCharge.
type ReceiptInput struct {
	Actor            Actor
	ArticleID        string
	Quantity         decimal.Decimal
	StorageArea      entity.StorageArea
	ExistingChargeID string
	NewCharge        *NewChargeSpec
	Note             string
}

// WasteInput baja por merma.
type WasteInput struct {
	Actor       Actor
	ChargeID    string
	Quantity    decimal.Decimal
	StorageArea entity.StorageArea
	ReasonCode  entity.WasteReason
	Note        string
}

// RebookInput reubicación de cantidad a otro charge/zona. SourceStorageArea vacío = zona
// declarada del charge origen. Destino: ExistingChargeID o NewCharge, siempre con StorageArea.
type RebookInput struct {
	Actor             Actor
	SourceChargeID    string
	SourceStorageArea entity.StorageArea
	Quantity          decimal.Decimal
	ExistingChargeID  string
	NewCharge         *NewChargeSpec
	StorageArea       entity.StorageArea
	Note              string
}

// MergeInput fusión de un charge en otro existente del mismo artículo.
// Quantity nil = todo el disponible del origen.
type MergeInput struct {
	Actor             Actor
	SourceChargeID    string
	SourceStorageArea entity.StorageArea
	TargetChargeID    string
	TargetStorageArea entity.StorageArea
	Quantity          *decimal.Decimal
	Note              string
}

// txFunc cuerpo transaccional de una operación.
type txFunc func(r TxRepos, now time.Time, operationID string) ([]*entity.Movement, error)

// execute bloquea claves, corre fn en una transacción y registra el resultado.
func (uc *TransferUseCase) execute(ctx context.Context, op string, actor Actor, keys []entity.PositionKey, fn txFunc) ([]*entity.Movement, error) {
	release, err := uc.locker.Acquire(ctx, keys...)
	if err != nil {
		uc.logRejected(op, actor, err)
		return nil, err
	}
	defer release()

	now := uc.now()
	operationID := uuid.New().String()
	var written []*entity.Movement
	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		ms, err := fn(r, now, operationID)
		if err != nil {
			return err
		}
		written = ms
		return nil
	})
	if err != nil {
		uc.logRejected(op, actor, err)
		return nil, err
	}

	ids := make([]string, 0, len(written))
	for _, m := range written {
		ids = append(ids, m.ID)
	}
	uc.log.Info().
		Str("operation", op).
		Str("operation_id", operationID).
		Str("user_id", actor.UserID).
		Strs("movement_ids", ids).
		Str("quantity", written[len(written)-1].QuantityDelta.Abs().StringFixed(3)).
		Msg("operación de inventario registrada")
	return written, nil
}

func (uc *TransferUseCase) logRejected(op string, actor Actor, err error) {
	ev := uc.log.Warn()
	if !domain.IsClientError(err) && !domain.IsRetryable(err) {
		ev = uc.log.Error()
	}
	ev.Err(err).Str("operation", op).Str("user_id", actor.UserID).Msg("operación de inventario rechazada")
}

// AddManualReceipt registra una entrada manual (+quantity) en un charge existente o en uno nuevo.
func (uc *TransferUseCase) AddManualReceipt(ctx context.Context, in ReceiptInput) ([]*entity.Movement, error) {
	qty, err := inventory.NormalizeQuantity("quantity", in.Quantity)
	if err != nil {
		return nil, err
	}
	if in.ArticleID == "" {
		return nil, domain.Invalid("article_id", "requerido")
	}
	if !in.StorageArea.Valid() {
		return nil, domain.Invalid("storage_area", "debe ser TK o NON_TK")
	}
	if (in.ExistingChargeID == "") == (in.NewCharge == nil) {
		return nil, domain.Invalid("target", "indicar un charge existente o uno nuevo")
	}
	if in.NewCharge != nil {
		if err := validateCreateCharge(newChargeInput(in.ArticleID, in.NewCharge)); err != nil {
			return nil, err
		}
	}

	var keys []entity.PositionKey
	if in.ExistingChargeID != "" {
		keys = append(keys, entity.PositionKey{ChargeID: in.ExistingChargeID, StorageArea: in.StorageArea})
	}
	return uc.execute(ctx, "receipt", in.Actor, keys, func(r TxRepos, now time.Time, opID string) ([]*entity.Movement, error) {
		var charge *entity.Charge
		if in.NewCharge != nil {
			c, err := createCharge(ctx, r, newChargeInput(in.ArticleID, in.NewCharge), now)
			if err != nil {
				return nil, err
			}
			charge = c
		} else {
			c, err := lockCharge(ctx, r, in.ExistingChargeID)
			if err != nil {
				return nil, err
			}
			if c.ArticleID != in.ArticleID {
				return nil, domain.Invalid("article_id", "no coincide con el artículo del charge")
			}
			charge = c
		}
		m := &entity.Movement{
			ID:            uuid.New().String(),
			OperationID:   opID,
			ChargeID:      charge.ID,
			ArticleID:     charge.ArticleID,
			StorageArea:   in.StorageArea,
			Kind:          entity.MovementKindReceipt,
			QuantityDelta: qty,
			Note:          in.Note,
			Timestamp:     now,
			CreatedBy:     in.Actor.UserID,
		}
		if err := r.Movements.Create(ctx, m); err != nil {
			return nil, err
		}
		return []*entity.Movement{m}, nil
	})
}

// BookWaste registra una baja por merma (-quantity). Requiere available >= quantity.
func (uc *TransferUseCase) BookWaste(ctx context.Context, in WasteInput) (*entity.Movement, error) {
	qty, err := inventory.NormalizeQuantity("quantity", in.Quantity)
	if err != nil {
		return nil, err
	}
	if in.ChargeID == "" {
		return nil, domain.Invalid("charge_id", "requerido")
	}
	if !in.StorageArea.Valid() {
		return nil, domain.Invalid("storage_area", "debe ser TK o NON_TK")
	}
	if !in.ReasonCode.Valid() {
		return nil, domain.Invalid("reason_code", "motivo de merma desconocido")
	}

	key := entity.PositionKey{ChargeID: in.ChargeID, StorageArea: in.StorageArea}
	ms, err := uc.execute(ctx, "waste", in.Actor, []entity.PositionKey{key}, func(r TxRepos, now time.Time, opID string) ([]*entity.Movement, error) {
		charge, err := lockCharge(ctx, r, in.ChargeID)
		if err != nil {
			return nil, err
		}
		if err := requireAvailable(ctx, r, key, qty); err != nil {
			return nil, err
		}
		m := &entity.Movement{
			ID:            uuid.New().String(),
			OperationID:   opID,
			ChargeID:      charge.ID,
			ArticleID:     charge.ArticleID,
			StorageArea:   in.StorageArea,
			Kind:          entity.MovementKindWaste,
			QuantityDelta: qty.Neg(),
			ReasonCode:    in.ReasonCode,
			Note:          in.Note,
			Timestamp:     now,
			CreatedBy:     in.Actor.UserID,
		}
		if err := r.Movements.Create(ctx, m); err != nil {
			return nil, err
		}
		return []*entity.Movement{m}, nil
	})
	if err != nil {
		return nil, err
	}
	return ms[0], nil
}

// RebookCharge mueve cantidad de un (charge, zona) a otro existente o a un charge nuevo.
// Escribe dos movimientos REBOOKING enlazados cuya suma es cero.
func (uc *TransferUseCase) RebookCharge(ctx context.Context, in RebookInput) ([]*entity.Movement, error) {
	qty, err := inventory.NormalizeQuantity("quantity", in.Quantity)
	if err != nil {
		return nil, err
	}
	if in.SourceChargeID == "" {
		return nil, domain.Invalid("source_charge_id", "requerido")
	}
	if !in.StorageArea.Valid() {
		return nil, domain.Invalid("destination.storage_area", "debe ser TK o NON_TK")
	}
	if (in.ExistingChargeID == "") == (in.NewCharge == nil) {
		return nil, domain.Invalid("destination", "indicar un charge existente o uno nuevo")
	}
	srcArea, err := uc.sourceArea(ctx, in.SourceChargeID, in.SourceStorageArea)
	if err != nil {
		return nil, err
	}
	if in.ExistingChargeID == in.SourceChargeID && in.StorageArea == srcArea {
		return nil, domain.Invalid("destination", "origen y destino son el mismo charge y zona")
	}
	if in.NewCharge != nil && (in.NewCharge.BestByDate == nil || in.NewCharge.BestByDate.IsZero()) {
		return nil, domain.Invalid("destination.best_by_date", "requerido")
	}

	src := entity.PositionKey{ChargeID: in.SourceChargeID, StorageArea: srcArea}
	keys := []entity.PositionKey{src}
	if in.ExistingChargeID != "" {
		keys = append(keys, entity.PositionKey{ChargeID: in.ExistingChargeID, StorageArea: in.StorageArea})
	}
	return uc.execute(ctx, "rebooking", in.Actor, keys, func(r TxRepos, now time.Time, opID string) ([]*entity.Movement, error) {
		locked, err := lockCharges(ctx, r, in.SourceChargeID, in.ExistingChargeID)
		if err != nil {
			return nil, err
		}
		source := locked[in.SourceChargeID]
		if err := requireAvailable(ctx, r, src, qty); err != nil {
			return nil, err
		}
		var dest *entity.Charge
		if in.NewCharge != nil {
			spec := *in.NewCharge
			if spec.SupplierID == "" {
				spec.SupplierID = source.SupplierID
			}
			c, err := createCharge(ctx, r, newChargeInput(source.ArticleID, &spec), now)
			if err != nil {
				return nil, err
			}
			dest = c
		} else {
			dest = locked[in.ExistingChargeID]
			if dest.ArticleID != source.ArticleID {
				return nil, domain.Invalid("destination.charge_id", "el charge destino es de otro artículo")
			}
		}
		return writePair(ctx, r, pairSpec{
			kind:        entity.MovementKindRebooking,
			operationID: opID,
			source:      source,
			sourceArea:  src.StorageArea,
			dest:        dest,
			destArea:    in.StorageArea,
			quantity:    qty,
			note:        in.Note,
			now:         now,
			actor:       in.Actor,
		})
	})
}

// MergeCharges fusiona cantidad de un charge en otro existente del mismo artículo.
// Mismo efecto en el libro que una reubicación, con movimientos MERGE.
func (uc *TransferUseCase) MergeCharges(ctx context.Context, in MergeInput) ([]*entity.Movement, error) {
	var qty *decimal.Decimal
	if in.Quantity != nil {
		q, err := inventory.NormalizeQuantity("quantity", *in.Quantity)
		if err != nil {
			return nil, err
		}
		qty = &q
	}
	if in.SourceChargeID == "" || in.TargetChargeID == "" {
		return nil, domain.Invalid("charge_id", "origen y destino requeridos")
	}
	if in.SourceChargeID == in.TargetChargeID {
		return nil, domain.Invalid("target_charge_id", "no se puede fusionar un charge consigo mismo")
	}
	if !in.TargetStorageArea.Valid() {
		return nil, domain.Invalid("target_storage_area", "debe ser TK o NON_TK")
	}
	srcArea, err := uc.sourceArea(ctx, in.SourceChargeID, in.SourceStorageArea)
	if err != nil {
		return nil, err
	}

	src := entity.PositionKey{ChargeID: in.SourceChargeID, StorageArea: srcArea}
	dst := entity.PositionKey{ChargeID: in.TargetChargeID, StorageArea: in.TargetStorageArea}
	return uc.execute(ctx, "merge", in.Actor, []entity.PositionKey{src, dst}, func(r TxRepos, now time.Time, opID string) ([]*entity.Movement, error) {
		locked, err := lockCharges(ctx, r, in.SourceChargeID, in.TargetChargeID)
		if err != nil {
			return nil, err
		}
		source, target := locked[in.SourceChargeID], locked[in.TargetChargeID]
		if source.ArticleID != target.ArticleID {
			return nil, domain.Invalid("target_charge_id", "no se pueden fusionar charges de artículos distintos")
		}
		available, err := r.Movements.Balance(ctx, src.ChargeID, src.StorageArea)
		if err != nil {
			return nil, fmt.Errorf("saldo origen: %w", err)
		}
		amount := available
		if qty != nil {
			amount = *qty
		}
		if !amount.IsPositive() || available.LessThan(amount) {
			return nil, &domain.InsufficientStockError{
				ChargeID: src.ChargeID, StorageArea: string(src.StorageArea), Requested: amount, Available: available,
			}
		}
		return writePair(ctx, r, pairSpec{
			kind:        entity.MovementKindMerge,
			operationID: opID,
			source:      source,
			sourceArea:  src.StorageArea,
			dest:        target,
			destArea:    dst.StorageArea,
			quantity:    amount,
			note:        in.Note,
			now:         now,
			actor:       in.Actor,
		})
	})
}

// sourceArea resuelve la zona origen antes de bloquear: la indicada o la declarada del charge.
func (uc *TransferUseCase) sourceArea(ctx context.Context, chargeID string, area entity.StorageArea) (entity.StorageArea, error) {
	if area != "" {
		if !area.Valid() {
			return "", domain.Invalid("source_storage_area", "debe ser TK o NON_TK")
		}
		return area, nil
	}
	c, err := uc.charges.GetByID(ctx, chargeID)
	if err != nil {
		return "", fmt.Errorf("obtener charge: %w", err)
	}
	if c == nil || c.Deleted() {
		return "", domain.NotFound("charge", chargeID)
	}
	return c.DeclaredArea(), nil
}

type pairSpec struct {
	kind        entity.MovementKind
	operationID string
	source      *entity.Charge
	sourceArea  entity.StorageArea
	dest        *entity.Charge
	destArea    entity.StorageArea
	quantity    decimal.Decimal
	note        string
	now         time.Time
	actor       Actor
}

// writePair escribe la pata negativa en origen y la positiva en destino, enlazadas entre sí.
func writePair(ctx context.Context, r TxRepos, p pairSpec) ([]*entity.Movement, error) {
	outID, inID := uuid.New().String(), uuid.New().String()
	out := &entity.Movement{
		ID:                outID,
		OperationID:       p.operationID,
		ChargeID:          p.source.ID,
		ArticleID:         p.source.ArticleID,
		StorageArea:       p.sourceArea,
		Kind:              p.kind,
		QuantityDelta:     p.quantity.Neg(),
		Note:              p.note,
		Timestamp:         p.now,
		RelatedMovementID: inID,
		CreatedBy:         p.actor.UserID,
	}
	in := &entity.Movement{
		ID:                inID,
		OperationID:       p.operationID,
		ChargeID:          p.dest.ID,
		ArticleID:         p.dest.ArticleID,
		StorageArea:       p.destArea,
		Kind:              p.kind,
		QuantityDelta:     p.quantity,
		Note:              p.note,
		Timestamp:         p.now,
		RelatedMovementID: outID,
		CreatedBy:         p.actor.UserID,
	}
	if err := r.Movements.Create(ctx, out); err != nil {
		return nil, err
	}
	if err := r.Movements.Create(ctx, in); err != nil {
		return nil, err
	}
	return []*entity.Movement{out, in}, nil
}

// lockCharge bloquea y devuelve un charge vigente.
func lockCharge(ctx context.Context, r TxRepos, id string) (*entity.Charge, error) {
	c, err := r.Charges.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener charge: %w", err)
	}
	if c == nil || c.Deleted() {
		return nil, domain.NotFound("charge", id)
	}
	return c, nil
}

// lockCharges bloquea los charges en orden ascendente de ID (mismo orden que el Locker).
// IDs vacíos se ignoran.
func lockCharges(ctx context.Context, r TxRepos, ids ...string) (map[string]*entity.Charge, error) {
	keys := make([]entity.PositionKey, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			keys = append(keys, entity.PositionKey{ChargeID: id})
		}
	}
	out := make(map[string]*entity.Charge, len(keys))
	for _, k := range SortKeys(keys) {
		c, err := lockCharge(ctx, r, k.ChargeID)
		if err != nil {
			return nil, err
		}
		out[k.ChargeID] = c
	}
	return out, nil
}

// requireAvailable comprueba available(key) >= qty con el saldo leído dentro de la transacción.
func requireAvailable(ctx context.Context, r TxRepos, key entity.PositionKey, qty decimal.Decimal) error {
	available, err := r.Movements.Balance(ctx, key.ChargeID, key.StorageArea)
	if err != nil {
		return fmt.Errorf("saldo de %s: %w", key, err)
	}
	if available.LessThan(qty) {
		return &domain.InsufficientStockError{
			ChargeID: key.ChargeID, StorageArea: string(key.StorageArea), Requested: qty, Available: available,
		}
	}
	return nil
}

func newChargeInput(articleID string, spec *NewChargeSpec) CreateChargeInput {
	return CreateChargeInput{
		ArticleID:     articleID,
		BestByDate:    spec.BestByDate,
		IsFrozenArea:  spec.IsFrozenArea,
		SlaughterDate: spec.SlaughterDate,
		SupplierID:    spec.SupplierID,
	}
}
