package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

// OverviewUseCase contabilidad de cantidades: deriva las posiciones de stock
// (disponible, reservado, en tránsito) sumando movimientos y reservas en cada lectura.
// No bloquea: lee dentro de una transacción de solo lectura para no ver operaciones a medias.
type OverviewUseCase struct {
	txRunner         TxRunner
	now              Clock
	loc              *time.Location
	defaultThreshold int
	log              zerolog.Logger
}

// NewOverviewUseCase construye el caso de uso. loc es el calendario de "hoy" y de asOfDate.
func NewOverviewUseCase(txRunner TxRunner, now Clock, loc *time.Location, defaultThreshold int, log zerolog.Logger) *OverviewUseCase {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &OverviewUseCase{txRunner: txRunner, now: now, loc: loc, defaultThreshold: defaultThreshold, log: log}
}

// GetOverview devuelve la página pedida de posiciones y el total tras filtrar.
// AsOfDate es un instante: a las 00:00 de loc cuenta como la fecha completa (hasta el final
// del día), con hora incluye los movimientos con timestamp <= AsOfDate. AsOfDate = ahora da el
// mismo resultado que la lectura en vivo.
func (uc *OverviewUseCase) GetOverview(ctx context.Context, filter entity.OverviewFilter, limit, offset int) ([]entity.StockPosition, int, error) {
	if filter.StorageArea != "" && !filter.StorageArea.Valid() {
		return nil, 0, domain.Invalid("storage_area", "debe ser TK o NON_TK")
	}
	threshold := uc.defaultThreshold
	if filter.ThresholdDays != nil {
		if *filter.ThresholdDays < 0 {
			return nil, 0, domain.Invalid("threshold_days", "no puede ser negativo")
		}
		threshold = *filter.ThresholdDays
	}
	today := entity.DateOf(uc.now(), uc.loc)
	var before *time.Time
	if filter.AsOfDate != nil {
		b, day := uc.asOfBound(*filter.AsOfDate)
		today, before = day, &b
	}

	var positions []entity.StockPosition
	err := uc.txRunner.RunReadOnly(ctx, func(r TxRepos) error {
		ps, err := uc.collect(ctx, r, filter, before, today, threshold)
		positions = ps
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	if filter.OnlyCritical {
		critical := positions[:0]
		for _, p := range positions {
			if p.Critical {
				critical = append(critical, p)
			}
		}
		positions = critical
	}
	inventory.SortPositions(positions)
	for _, p := range positions {
		if len(p.Warnings) > 0 {
			uc.log.Debug().Str("charge_id", p.ChargeID).Str("storage_area", string(p.StorageArea)).
				Int("warnings", len(p.Warnings)).Str("code", p.Warnings[0].Code).Msg("advertencia de stock")
		}
	}

	total := len(positions)
	return paginate(positions, limit, offset), total, nil
}

// asOfBound cota exclusiva de tiempo y "hoy" del calendario de loc para asOf.
func (uc *OverviewUseCase) asOfBound(asOf time.Time) (time.Time, time.Time) {
	day := entity.DateOf(asOf, uc.loc)
	if entity.IsStartOfDay(asOf, uc.loc) {
		return entity.EndOfDate(day, uc.loc), day
	}
	return asOf.Add(time.Nanosecond), day
}

// Location calendario en el que se interpretan "hoy" y las fechas de asOfDate.
func (uc *OverviewUseCase) Location() *time.Location { return uc.loc }

// GetPosition posición en vivo de un solo (charge, zona).
func (uc *OverviewUseCase) GetPosition(ctx context.Context, chargeID string, area entity.StorageArea) (*entity.StockPosition, error) {
	if chargeID == "" {
		return nil, domain.Invalid("charge_id", "requerido")
	}
	if !area.Valid() {
		return nil, domain.Invalid("storage_area", "debe ser TK o NON_TK")
	}
	var pos *entity.StockPosition
	err := uc.txRunner.RunReadOnly(ctx, func(r TxRepos) error {
		c, err := r.Charges.GetByID(ctx, chargeID)
		if err != nil {
			return fmt.Errorf("obtener charge: %w", err)
		}
		if c == nil || c.Deleted() {
			return domain.NotFound("charge", chargeID)
		}
		available, err := r.Movements.Balance(ctx, chargeID, area)
		if err != nil {
			return fmt.Errorf("saldo: %w", err)
		}
		res, err := r.Reservations.ListActive(ctx, chargeID)
		if err != nil {
			return fmt.Errorf("reservas: %w", err)
		}
		p := inventory.BuildPosition(inventory.PositionInput{
			Charge:       c,
			StorageArea:  area,
			Available:    available,
			Reservations: reservationsIn(res, area),
		}, entity.DateOf(uc.now(), uc.loc), uc.defaultThreshold)
		pos = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func (uc *OverviewUseCase) collect(
	ctx context.Context,
	r TxRepos,
	filter entity.OverviewFilter,
	before *time.Time,
	today time.Time,
	threshold int,
) ([]entity.StockPosition, error) {
	charges, _, err := r.Charges.List(ctx, entity.ChargeFilter{
		ArticleID:      filter.ArticleID,
		ChargeID:       filter.ChargeID,
		IncludeDeleted: before != nil,
	}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listar charges: %w", err)
	}
	visible := make(map[string]*entity.Charge, len(charges))
	for _, c := range charges {
		if before != nil {
			if !c.CreatedAt.Before(*before) {
				continue
			}
			if c.DeletedAt != nil && c.DeletedAt.Before(*before) {
				continue
			}
		} else if c.Deleted() {
			continue
		}
		visible[c.ID] = c
	}

	balances, err := r.Movements.Balances(ctx, repository.BalanceFilter{
		ArticleID:   filter.ArticleID,
		ChargeID:    filter.ChargeID,
		StorageArea: filter.StorageArea,
		Before:      before,
	})
	if err != nil {
		return nil, fmt.Errorf("sumar movimientos: %w", err)
	}
	reservations, err := r.Reservations.ListActive(ctx, filter.ChargeID)
	if err != nil {
		return nil, fmt.Errorf("listar reservas: %w", err)
	}

	inputs := make(map[entity.PositionKey]*inventory.PositionInput)
	seen := make(map[string]bool)
	input := func(c *entity.Charge, area entity.StorageArea) *inventory.PositionInput {
		k := entity.PositionKey{ChargeID: c.ID, StorageArea: area}
		in, ok := inputs[k]
		if !ok {
			in = &inventory.PositionInput{Charge: c, StorageArea: area, Available: decimal.Zero}
			inputs[k] = in
		}
		seen[c.ID] = true
		return in
	}
	for _, b := range balances {
		c, ok := visible[b.ChargeID]
		if !ok {
			continue
		}
		input(c, b.StorageArea).Available = b.Available
	}
	for _, res := range reservations {
		c, ok := visible[res.ChargeID]
		if !ok || (filter.StorageArea != "" && res.StorageArea != filter.StorageArea) {
			continue
		}
		in := input(c, res.StorageArea)
		in.Reservations = append(in.Reservations, res)
	}
	for _, c := range visible {
		if seen[c.ID] {
			continue
		}
		if filter.StorageArea != "" && c.DeclaredArea() != filter.StorageArea {
			continue
		}
		input(c, c.DeclaredArea())
	}

	out := make([]entity.StockPosition, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, inventory.BuildPosition(*in, today, threshold))
	}
	return out, nil
}

func reservationsIn(list []*entity.Reservation, area entity.StorageArea) []*entity.Reservation {
	var out []*entity.Reservation
	for _, r := range list {
		if r.StorageArea == area {
			out = append(out, r)
		}
	}
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
