package inventory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
)

// MaxReportRows límite de filas del informe PDF; el CSV no tiene límite.
const MaxReportRows = 5000

// CSVHeader columnas del export de movimientos.
var CSVHeader = []string{"kind", "timestamp", "article_id", "charge_id", "storage_area", "quantity_delta", "note"}

// HistoryUseCase consultas del historial de movimientos y su exportación (CSV / PDF).
type HistoryUseCase struct {
	movements repository.MovementRepository
	reports   MovementReportGenerator
	now       Clock
	loc       *time.Location
}

// NewHistoryUseCase construye el caso de uso. reports puede ser nil si no se exporta a PDF.
func NewHistoryUseCase(movements repository.MovementRepository, reports MovementReportGenerator, now Clock, loc *time.Location) *HistoryUseCase {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HistoryUseCase{movements: movements, reports: reports, now: now, loc: loc}
}

// HistoryFilter filtros del historial; From/To son fechas de calendario inclusivas.
type HistoryFilter struct {
	From        *time.Time
	To          *time.Time
	ArticleID   string
	ChargeID    string
	StorageArea entity.StorageArea
	Kind        entity.MovementKind
	Search      string
}

// QueryMovements página del historial ordenada por timestamp descendente y el total.
func (uc *HistoryUseCase) QueryMovements(ctx context.Context, filter HistoryFilter, limit, offset int) ([]*entity.Movement, int, error) {
	f, err := uc.toMovementFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	list, total, err := uc.movements.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listar movimientos: %w", err)
	}
	return list, total, nil
}

// GetMovement obtiene un movimiento por ID.
func (uc *HistoryUseCase) GetMovement(ctx context.Context, id string) (*entity.Movement, error) {
	if id == "" {
		return nil, domain.Invalid("movement_id", "requerido")
	}
	m, err := uc.movements.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener movimiento: %w", err)
	}
	if m == nil {
		return nil, domain.NotFound("movement", id)
	}
	return m, nil
}

// ExportMovementsCsv escribe todas las filas del filtro en w, sin paginar.
func (uc *HistoryUseCase) ExportMovementsCsv(ctx context.Context, filter HistoryFilter, w io.Writer) error {
	f, err := uc.toMovementFilter(filter)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("csv: cabecera: %w", err)
	}
	err = uc.movements.Stream(ctx, f, func(m *entity.Movement) error {
		return cw.Write([]string{
			string(m.Kind),
			m.Timestamp.UTC().Format(time.RFC3339),
			m.ArticleID,
			m.ChargeID,
			string(m.StorageArea),
			m.QuantityDelta.StringFixed(inventory.QuantityScale),
			m.Note,
		})
	})
	if err != nil {
		return fmt.Errorf("csv: exportar movimientos: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// ExportMovementsPdf genera el informe PDF del historial filtrado.
func (uc *HistoryUseCase) ExportMovementsPdf(ctx context.Context, filter HistoryFilter) ([]byte, error) {
	if uc.reports == nil {
		return nil, fmt.Errorf("pdf: generador no configurado")
	}
	f, err := uc.toMovementFilter(filter)
	if err != nil {
		return nil, err
	}
	report := &MovementReport{
		Title:       "Historial de movimientos",
		GeneratedAt: uc.now(),
		Filters:     describeFilter(filter),
		Totals:      make(map[entity.MovementKind]TotalLine),
	}
	err = uc.movements.Stream(ctx, f, func(m *entity.Movement) error {
		if len(report.Movements) >= MaxReportRows {
			return domain.Invalid("filter", fmt.Sprintf("el informe supera %d filas, acote el rango", MaxReportRows))
		}
		report.Movements = append(report.Movements, m)
		t := report.Totals[m.Kind]
		t.Count++
		t.Sum = t.Sum.Add(m.QuantityDelta)
		report.Totals[m.Kind] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.reports.GenerateMovementReport(ctx, report)
}

func (uc *HistoryUseCase) toMovementFilter(in HistoryFilter) (entity.MovementFilter, error) {
	if in.StorageArea != "" && !in.StorageArea.Valid() {
		return entity.MovementFilter{}, domain.Invalid("storage_area", "debe ser TK o NON_TK")
	}
	if in.Kind != "" && !in.Kind.Valid() {
		return entity.MovementFilter{}, domain.Invalid("kind", "tipo de movimiento desconocido")
	}
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return entity.MovementFilter{}, domain.Invalid("to", "anterior a from")
	}
	f := entity.MovementFilter{
		ArticleID:   in.ArticleID,
		ChargeID:    in.ChargeID,
		StorageArea: in.StorageArea,
		Kind:        in.Kind,
		Search:      in.Search,
	}
	if in.From != nil {
		from := entity.StartOfDate(*in.From, uc.loc)
		f.From = &from
	}
	if in.To != nil {
		to := entity.EndOfDate(*in.To, uc.loc)
		f.To = &to
	}
	return f, nil
}

func describeFilter(f HistoryFilter) []string {
	var out []string
	if f.From != nil {
		out = append(out, "desde "+f.From.Format(entity.DateLayout))
	}
	if f.To != nil {
		out = append(out, "hasta "+f.To.Format(entity.DateLayout))
	}
	if f.ArticleID != "" {
		out = append(out, "artículo "+f.ArticleID)
	}
	if f.ChargeID != "" {
		out = append(out, "charge "+f.ChargeID)
	}
	if f.StorageArea != "" {
		out = append(out, "zona "+string(f.StorageArea))
	}
	if f.Kind != "" {
		out = append(out, "tipo "+string(f.Kind))
	}
	if f.Search != "" {
		out = append(out, fmt.Sprintf("búsqueda %q", f.Search))
	}
	return out
}
