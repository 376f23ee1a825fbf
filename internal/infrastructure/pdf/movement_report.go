// Package pdf genera el informe PDF del historial de movimientos.
//
// Layout de la página A4 apaisada:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│  TÍTULO                                 Generado: fecha/hora  │
//	│  Filtros aplicados                                            │
//	│  ──────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Artículo | Charge | Zona | kg | Nota   │
//	│  ──────────────────────────────────────────────────────────  │
//	│  TOTALES por tipo: filas y suma de kg                         │
//	└──────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

var _ inventory.MovementReportGenerator = (*MarotoReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWaste   = &props.Color{Red: 160, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa inventory.MovementReportGenerator usando Maroto v2.
type MarotoReportGenerator struct {
	printer *message.Printer
	loc     *time.Location
}

// NewMarotoReportGenerator construye el generador. locale fija el formato numérico ("de" -> 1.234,500);
// loc es la zona en la que se imprimen los timestamps.
func NewMarotoReportGenerator(locale string, loc *time.Location) *MarotoReportGenerator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.German
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MarotoReportGenerator{printer: message.NewPrinter(tag), loc: loc}
}

// GenerateMovementReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateMovementReport(ctx context.Context, report *inventory.MovementReport) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(report.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, mv := range report.Movements {
		m.AddRows(g.movementRow(mv))
	}
	if len(report.Movements) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos para los filtros indicados.", props.Text{Size: 8, Top: 2, Color: colorGray}),
		)))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	for _, r := range g.totalsRows(report.Totals) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoReportGenerator) headerRow(report *inventory.MovementReport) core.Row {
	filters := "Sin filtros"
	if len(report.Filters) > 0 {
		filters = "Filtros: " + strings.Join(report.Filters, " · ")
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New(report.Title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(filters, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Generado: "+report.GeneratedAt.In(g.loc).Format("02.01.2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(g.printer.Sprintf("%d movimientos", len(report.Movements)), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 1, align.Left),
		h("Artículo", 2, align.Left),
		h("Charge", 2, align.Left),
		h("Zona", 1, align.Center),
		h("kg", 1, align.Right),
		h("Nota", 3, align.Left),
	)
}

func (g *MarotoReportGenerator) movementRow(mv *entity.Movement) core.Row {
	cell := props.Text{Size: 7, Top: 1}
	qty := cell
	qty.Align = align.Right
	if mv.QuantityDelta.IsNegative() {
		qty.Color = colorWaste
	}
	note := mv.Note
	if mv.ReasonCode != "" {
		note = strings.TrimSpace(string(mv.ReasonCode) + " " + note)
	}
	area := cell
	area.Align = align.Center
	return row.New(6).Add(
		col.New(2).Add(text.New(mv.Timestamp.In(g.loc).Format("02.01.2006 15:04"), cell)),
		col.New(1).Add(text.New(string(mv.Kind), cell)),
		col.New(2).Add(text.New(mv.ArticleID, cell)),
		col.New(2).Add(text.New(shortID(mv.ChargeID), cell)),
		col.New(1).Add(text.New(string(mv.StorageArea), area)),
		col.New(1).Add(text.New(g.kg(mv.QuantityDelta), qty)),
		col.New(3).Add(text.New(note, cell)),
	)
}

// totalsRows una fila por tipo, en orden alfabético.
func (g *MarotoReportGenerator) totalsRows(totals map[entity.MovementKind]inventory.TotalLine) []core.Row {
	kinds := make([]string, 0, len(totals))
	for k := range totals {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	rows := []core.Row{row.New(7).Add(col.New(12).Add(
		text.New("TOTALES", props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 1}),
	))}
	for _, k := range kinds {
		t := totals[entity.MovementKind(k)]
		rows = append(rows, row.New(6).Add(
			col.New(6),
			col.New(2).Add(text.New(k, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right})),
			col.New(2).Add(text.New(g.printer.Sprintf("%d filas", t.Count), props.Text{Size: 8, Align: align.Right})),
			col.New(2).Add(text.New(g.kg(t.Sum)+" kg", props.Text{Size: 8, Align: align.Right})),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

// kg formatea con tres decimales y separadores del locale.
func (g *MarotoReportGenerator) kg(d decimal.Decimal) string {
	return g.printer.Sprint(number.Decimal(d.Round(3).InexactFloat64(), number.Scale(3)))
}

// shortID recorta UUIDs para que quepan en la columna.
func shortID(id string) string {
	if len(id) > 13 {
		return id[:13] + "…"
	}
	return id
}
