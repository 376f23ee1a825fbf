package inventory_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/charge-ledger/internal/application/dto"
	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
	"github.com/jhoicas/charge-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memory.Store
	now       time.Time
	charges   *inventory.ChargeUseCase
	transfers *inventory.TransferUseCase
	overview  *inventory.OverviewUseCase
	history   *inventory.HistoryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRunner(t, nil)
}

// newFixtureWithRunner permite sustituir el TxRunner de los casos de uso de escritura.
func newFixtureWithRunner(t *testing.T, wrap func(*memory.Store) inventory.TxRunner) *fixture {
	t.Helper()
	return buildFixture(t, wrap, time.UTC)
}

// newFixtureIn fixture cuyo calendario de "hoy" y asOfDate es loc.
func newFixtureIn(t *testing.T, loc *time.Location) *fixture {
	t.Helper()
	return buildFixture(t, nil, loc)
}

func buildFixture(t *testing.T, wrap func(*memory.Store) inventory.TxRunner, loc *time.Location) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), now: time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)}
	f.store.AddArticle(entity.Article{ID: "A1", Number: "1001", Name: "Hack", Unit: "kg"})
	f.store.AddArticle(entity.Article{ID: "A2", Number: "1002", Name: "Bauch", Unit: "kg"})

	var runner inventory.TxRunner = f.store
	if wrap != nil {
		runner = wrap(f.store)
	}
	clock := func() time.Time { return f.now }
	locker := inventory.NewKeyLocker(2 * time.Second)
	f.charges = inventory.NewChargeUseCase(runner, f.store.Charges(), locker, clock, zerolog.Nop())
	f.transfers = inventory.NewTransferUseCase(runner, f.store.Charges(), locker, clock, zerolog.Nop())
	f.overview = inventory.NewOverviewUseCase(f.store, clock, loc, 7, zerolog.Nop())
	f.history = inventory.NewHistoryUseCase(f.store.Movements(), nil, clock, loc)
	return f
}

var ctx = context.Background()

func kg(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(s string) *time.Time {
	d, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

var actor = inventory.Actor{UserID: "u-1"}

func (f *fixture) newCharge(t *testing.T, article, bestBy string, frozen bool) *entity.Charge {
	t.Helper()
	c, err := f.charges.CreateCharge(ctx, inventory.CreateChargeInput{ArticleID: article, BestByDate: date(bestBy), IsFrozenArea: frozen})
	require.NoError(t, err)
	return c
}

func (f *fixture) receive(t *testing.T, c *entity.Charge, qty string, area entity.StorageArea) {
	t.Helper()
	_, err := f.transfers.AddManualReceipt(ctx, inventory.ReceiptInput{
		Actor: actor, ArticleID: c.ArticleID, Quantity: kg(qty), StorageArea: area, ExistingChargeID: c.ID,
	})
	require.NoError(t, err)
}

func (f *fixture) available(t *testing.T, chargeID string, area entity.StorageArea) decimal.Decimal {
	t.Helper()
	b, err := f.store.Movements().Balance(ctx, chargeID, area)
	require.NoError(t, err)
	return b
}

func (f *fixture) allMovements(t *testing.T) []*entity.Movement {
	t.Helper()
	var out []*entity.Movement
	require.NoError(t, f.store.Movements().Stream(ctx, entity.MovementFilter{}, func(m *entity.Movement) error {
		out = append(out, m)
		return nil
	}))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de charges
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateCharge_Validaciones(t *testing.T) {
	f := newFixture(t)

	_, err := f.charges.CreateCharge(ctx, inventory.CreateChargeInput{ArticleID: "A1"})
	assert.ErrorIs(t, err, domain.ErrValidation, "falta MHD")

	_, err = f.charges.CreateCharge(ctx, inventory.CreateChargeInput{ArticleID: "X", BestByDate: date("2025-02-01")})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "article_id", ve.Field)

	_, err = f.charges.CreateCharge(ctx, inventory.CreateChargeInput{
		ArticleID: "A1", BestByDate: date("2025-02-01"), SlaughterDate: date("2025-03-01"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "sacrificio posterior al MHD")
}

func TestUpdateCharge_CambiaZonaSinTocarMovimientos(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-20", false)
	f.receive(t, c, "10", entity.StorageAreaNonTK)

	frozen := true
	updated, err := f.charges.UpdateCharge(ctx, c.ID, entity.ChargePatch{IsFrozenArea: &frozen})
	require.NoError(t, err)
	assert.Equal(t, entity.StorageAreaTK, updated.DeclaredArea())
	assert.True(t, f.available(t, c.ID, entity.StorageAreaNonTK).Equal(kg("10")))

	list, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{ChargeID: c.ID}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Warnings, 1)
	assert.Equal(t, entity.WarningStorageAreaMismatch, list[0].Warnings[0].Code)

	other := "A2"
	_, err = f.charges.UpdateCharge(ctx, c.ID, entity.ChargePatch{ArticleID: &other})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.charges.UpdateCharge(ctx, "nope", entity.ChargePatch{IsFrozenArea: &frozen})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCharge_StockYReservas(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-20", true)
	f.receive(t, c, "2", entity.StorageAreaTK)

	err := f.charges.DeleteCharge(ctx, c.ID)
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Available.Equal(kg("2")))

	_, err = f.transfers.BookWaste(ctx, inventory.WasteInput{
		Actor: actor, ChargeID: c.ID, Quantity: kg("2"), StorageArea: entity.StorageAreaTK, ReasonCode: entity.WasteReasonDamaged,
	})
	require.NoError(t, err)

	f.store.PutReservation(entity.Reservation{ID: "R1", ChargeID: c.ID, StorageArea: entity.StorageAreaTK, Quantity: kg("1"), Status: entity.ReservationOpen})
	err = f.charges.DeleteCharge(ctx, c.ID)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.OpenReservations)

	f.store.PutReservation(entity.Reservation{ID: "R1", ChargeID: c.ID, StorageArea: entity.StorageAreaTK, Quantity: kg("1"), Status: entity.ReservationClosed})
	require.NoError(t, f.charges.DeleteCharge(ctx, c.ID))

	_, err = f.charges.GetCharge(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, f.allMovements(t), 2, "la baja conserva los movimientos")

	assert.ErrorIs(t, f.charges.DeleteCharge(ctx, c.ID), domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Motor de transferencias
// ──────────────────────────────────────────────────────────────────────────────

func TestReceipt_DestinoExclusivo(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-20", true)

	_, err := f.transfers.AddManualReceipt(ctx, inventory.ReceiptInput{
		Actor: actor, ArticleID: "A1", Quantity: kg("1"), StorageArea: entity.StorageAreaTK,
		ExistingChargeID: c.ID, NewCharge: &inventory.NewChargeSpec{BestByDate: date("2025-02-01")},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.transfers.AddManualReceipt(ctx, inventory.ReceiptInput{
		Actor: actor, ArticleID: "A2", Quantity: kg("1"), StorageArea: entity.StorageAreaTK, ExistingChargeID: c.ID,
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "artículo distinto del charge")
	assert.Empty(t, f.allMovements(t))
}

func TestRebookAndMerge_ConservanCantidad(t *testing.T) {
	f := newFixture(t)
	c1 := f.newCharge(t, "A1", "2025-01-10", true)
	c3 := f.newCharge(t, "A1", "2025-01-20", false)
	f.receive(t, c1, "100", entity.StorageAreaTK)

	rebook, err := f.transfers.RebookCharge(ctx, inventory.RebookInput{
		Actor: actor, SourceChargeID: c1.ID, Quantity: kg("40"),
		NewCharge: &inventory.NewChargeSpec{BestByDate: date("2025-01-10"), IsFrozenArea: true}, StorageArea: entity.StorageAreaTK,
	})
	require.NoError(t, err)
	require.Len(t, rebook, 2)
	assert.True(t, decimal.Sum(rebook[0].QuantityDelta, rebook[1].QuantityDelta).IsZero())
	assert.Equal(t, entity.MovementKindRebooking, rebook[0].Kind)
	c2 := rebook[1].ChargeID

	merge, err := f.transfers.MergeCharges(ctx, inventory.MergeInput{
		Actor: actor, SourceChargeID: c1.ID, TargetChargeID: c3.ID, TargetStorageArea: entity.StorageAreaNonTK,
	})
	require.NoError(t, err)
	require.Len(t, merge, 2)
	assert.True(t, decimal.Sum(merge[0].QuantityDelta, merge[1].QuantityDelta).IsZero())
	assert.True(t, merge[1].QuantityDelta.Equal(kg("60")), "sin quantity fusiona todo el disponible")

	assert.True(t, f.available(t, c1.ID, entity.StorageAreaTK).IsZero())
	assert.True(t, f.available(t, c2, entity.StorageAreaTK).Equal(kg("40")))
	assert.True(t, f.available(t, c3.ID, entity.StorageAreaNonTK).Equal(kg("60")))

	// Un merge sin disponible falla con stock insuficiente.
	_, err = f.transfers.MergeCharges(ctx, inventory.MergeInput{
		Actor: actor, SourceChargeID: c1.ID, TargetChargeID: c3.ID, TargetStorageArea: entity.StorageAreaNonTK,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestRebook_MismoChargeYZonaEsInvalido(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-10", true)
	f.receive(t, c, "5", entity.StorageAreaTK)

	_, err := f.transfers.RebookCharge(ctx, inventory.RebookInput{
		Actor: actor, SourceChargeID: c.ID, Quantity: kg("1"), ExistingChargeID: c.ID, StorageArea: entity.StorageAreaTK,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Mismo charge, otra zona: reubicación válida.
	_, err = f.transfers.RebookCharge(ctx, inventory.RebookInput{
		Actor: actor, SourceChargeID: c.ID, Quantity: kg("1"), ExistingChargeID: c.ID, StorageArea: entity.StorageAreaNonTK,
	})
	require.NoError(t, err)
	assert.True(t, f.available(t, c.ID, entity.StorageAreaNonTK).Equal(kg("1")))
}

func TestNoNegatividad_SecuenciaDeOperaciones(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-10", false)
	f.receive(t, c, "1.5", entity.StorageAreaNonTK)

	for _, q := range []string{"0.5", "0.75", "0.5", "0.25", "0.001"} {
		_, err := f.transfers.BookWaste(ctx, inventory.WasteInput{
			Actor: actor, ChargeID: c.ID, Quantity: kg(q), StorageArea: entity.StorageAreaNonTK, ReasonCode: entity.WasteReasonOther,
		})
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
		assert.False(t, f.available(t, c.ID, entity.StorageAreaNonTK).IsNegative())
	}
	assert.True(t, f.available(t, c.ID, entity.StorageAreaNonTK).IsZero())
	assert.Len(t, f.allMovements(t), 4, "recepción + 0.5 + 0.75 + 0.25")
}

func TestBookWaste_ConcurrenteNoSobregira(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-10", true)
	f.receive(t, c, "10", entity.StorageAreaTK)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		refused int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.transfers.BookWaste(ctx, inventory.WasteInput{
				Actor: actor, ChargeID: c.ID, Quantity: kg("1"), StorageArea: entity.StorageAreaTK, ReasonCode: entity.WasteReasonSpoilage,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				refused++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, refused)
	assert.True(t, f.available(t, c.ID, entity.StorageAreaTK).IsZero())
}

// failingMovements falla en la n-ésima escritura de movimientos dentro de la transacción.
type failingMovements struct {
	repository.MovementRepository
	failOn *int
}

var errInjected = errors.New("fallo inyectado")

func (m failingMovements) Create(ctx context.Context, mv *entity.Movement) error {
	*m.failOn--
	if *m.failOn == 0 {
		return errInjected
	}
	return m.MovementRepository.Create(ctx, mv)
}

type failingRunner struct {
	*memory.Store
	failOn int
}

func (r *failingRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	return r.Store.Run(ctx, func(repos inventory.TxRepos) error {
		repos.Movements = failingMovements{MovementRepository: repos.Movements, failOn: &r.failOn}
		return fn(repos)
	})
}

func TestMerge_FalloEnSegundaPataNoEscribeNada(t *testing.T) {
	runner := &failingRunner{}
	f := newFixtureWithRunner(t, func(s *memory.Store) inventory.TxRunner {
		runner.Store = s
		return runner
	})
	c1 := f.newCharge(t, "A1", "2025-01-10", true)
	c2 := f.newCharge(t, "A1", "2025-01-12", true)
	f.receive(t, c1, "8", entity.StorageAreaTK)
	before := f.allMovements(t)

	runner.failOn = 2 // la pata positiva
	q := kg("3")
	_, err := f.transfers.MergeCharges(ctx, inventory.MergeInput{
		Actor: actor, SourceChargeID: c1.ID, TargetChargeID: c2.ID, TargetStorageArea: entity.StorageAreaTK, Quantity: &q,
	})
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, before, f.allMovements(t))
	assert.True(t, f.available(t, c1.ID, entity.StorageAreaTK).Equal(kg("8")))
	assert.True(t, f.available(t, c2.ID, entity.StorageAreaTK).IsZero())
}

func TestRebook_FalloTrasCrearChargeDestinoLoDeshace(t *testing.T) {
	runner := &failingRunner{}
	f := newFixtureWithRunner(t, func(s *memory.Store) inventory.TxRunner {
		runner.Store = s
		return runner
	})
	c1 := f.newCharge(t, "A1", "2025-01-10", true)
	f.receive(t, c1, "8", entity.StorageAreaTK)

	runner.failOn = 1
	_, err := f.transfers.RebookCharge(ctx, inventory.RebookInput{
		Actor: actor, SourceChargeID: c1.ID, Quantity: kg("3"),
		NewCharge: &inventory.NewChargeSpec{BestByDate: date("2025-01-30")}, StorageArea: entity.StorageAreaNonTK,
	})
	require.ErrorIs(t, err, errInjected)

	list, total, err := f.charges.ListCharges(ctx, entity.ChargeFilter{ArticleID: "A1"}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "el charge destino no sobrevive al rollback")
	assert.Equal(t, c1.ID, list[0].ID)
	assert.Len(t, f.allMovements(t), 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vista de stock
// ──────────────────────────────────────────────────────────────────────────────

func TestOverview_LecturasIdempotentesYViajeEnElTiempo(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-08", true)
	f.receive(t, c, "10", entity.StorageAreaTK)

	f.now = f.now.AddDate(0, 0, 1) // 2025-01-06
	_, err := f.transfers.BookWaste(ctx, inventory.WasteInput{
		Actor: actor, ChargeID: c.ID, Quantity: kg("4"), StorageArea: entity.StorageAreaTK, ReasonCode: entity.WasteReasonDamaged,
	})
	require.NoError(t, err)

	live, total, err := f.overview.GetOverview(ctx, entity.OverviewFilter{}, 10, 0)
	require.NoError(t, err)
	again, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, live, again)
	assert.Equal(t, 1, total)

	today := entity.DateOf(f.now, time.UTC)
	asOfToday, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{AsOfDate: &today}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, live, asOfToday)

	past, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{AsOfDate: date("2025-01-05")}, 10, 0)
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.True(t, past[0].Available.Equal(kg("10")), "antes de la merma")
	assert.Equal(t, 3, past[0].DaysToExpiry)

	before, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{AsOfDate: date("2025-01-04")}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, before, "el charge aún no existía")
}

func TestOverview_AsOfAhoraCoincideConLecturaEnVivoTrasMedianocheLocal(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	f := newFixtureIn(t, berlin)
	f.now = time.Date(2025, 1, 5, 23, 15, 0, 0, time.UTC) // 00:15 del 6 en Berlín
	c := f.newCharge(t, "A1", "2025-01-13", true)
	f.receive(t, c, "100", entity.StorageAreaTK)
	f.now = f.now.Add(10 * time.Minute)

	live, total, err := f.overview.GetOverview(ctx, entity.OverviewFilter{}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.True(t, live[0].Available.Equal(kg("100")))
	assert.Equal(t, 7, live[0].DaysToExpiry)
	assert.True(t, live[0].Critical)

	now := f.now
	asOfNow, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{AsOfDate: &now}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, live, asOfNow)

	// la fecha de calendario local cubre el día completo
	localDay := time.Date(2025, 1, 6, 0, 0, 0, 0, berlin)
	fromQuery, err := inventory.OverviewFilterFromQuery(dto.OverviewQuery{AsOfDate: "2025-01-06"}, berlin)
	require.NoError(t, err)
	require.NotNil(t, fromQuery.AsOfDate)
	assert.True(t, fromQuery.AsOfDate.Equal(localDay))
	asOfDay, _, err := f.overview.GetOverview(ctx, fromQuery, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, live, asOfDay)

	// el día anterior en Berlín termina antes de la entrada
	prevDay := time.Date(2025, 1, 5, 0, 0, 0, 0, berlin)
	asOfPrev, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{AsOfDate: &prevDay}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, asOfPrev)
}

func TestOverview_AsOfInstanteExcluyeMovimientosPosteriores(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-20", true)
	f.receive(t, c, "10", entity.StorageAreaTK)
	cut := f.now

	f.now = f.now.Add(time.Hour)
	f.receive(t, c, "5", entity.StorageAreaTK)

	atCut, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{AsOfDate: &cut}, 10, 0)
	require.NoError(t, err)
	require.Len(t, atCut, 1)
	assert.True(t, atCut[0].Available.Equal(kg("10")), "incluye movimientos con timestamp igual al instante")

	wholeDay, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{AsOfDate: date("2025-01-05")}, 10, 0)
	require.NoError(t, err)
	require.Len(t, wholeDay, 1)
	assert.True(t, wholeDay[0].Available.Equal(kg("15")))
}

func TestOverview_FiltrosCriticosYPaginacion(t *testing.T) {
	f := newFixture(t)
	soon := f.newCharge(t, "A1", "2025-01-07", false)
	later := f.newCharge(t, "A1", "2025-03-01", false)
	empty := f.newCharge(t, "A2", "2025-01-06", true)
	f.receive(t, soon, "1", entity.StorageAreaNonTK)
	f.receive(t, later, "2", entity.StorageAreaNonTK)

	all, total, err := f.overview.GetOverview(ctx, entity.OverviewFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total, "los charges sin movimientos aparecen con disponible 0")
	assert.Equal(t, empty.ID, all[0].ChargeID)

	critical, total, err := f.overview.GetOverview(ctx, entity.OverviewFilter{OnlyCritical: true}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, soon.ID, critical[0].ChargeID)

	wide := 90
	critical, _, err = f.overview.GetOverview(ctx, entity.OverviewFilter{OnlyCritical: true, ThresholdDays: &wide}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, critical, 2)

	page, total, err := f.overview.GetOverview(ctx, entity.OverviewFilter{ArticleID: "A1"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, later.ID, page[0].ChargeID)

	tk, _, err := f.overview.GetOverview(ctx, entity.OverviewFilter{StorageArea: entity.StorageAreaTK}, 0, 0)
	require.NoError(t, err)
	require.Len(t, tk, 1)
	assert.Equal(t, empty.ID, tk[0].ChargeID)

	negative := -1
	_, _, err = f.overview.GetOverview(ctx, entity.OverviewFilter{ThresholdDays: &negative}, 0, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Historial
// ──────────────────────────────────────────────────────────────────────────────

func TestPaginacion_OffsetNegativoSeTrataComoCero(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-02-01", true)
	f.receive(t, c, "1", entity.StorageAreaTK)
	f.now = f.now.Add(time.Minute)
	f.receive(t, c, "2", entity.StorageAreaTK)

	movs, total, err := f.history.QueryMovements(ctx, inventory.HistoryFilter{}, 1, -5)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].QuantityDelta.Equal(kg("2")))

	charges, total, err := f.charges.ListCharges(ctx, entity.ChargeFilter{}, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, charges, 1)
	assert.Equal(t, c.ID, charges[0].ID)
}

func TestHistory_AppendOnlyYFiltros(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-10", true)
	f.receive(t, c, "10", entity.StorageAreaTK)
	first := f.allMovements(t)[0]
	snapshot := *first

	f.now = f.now.Add(time.Hour)
	_, err := f.transfers.BookWaste(ctx, inventory.WasteInput{
		Actor: actor, ChargeID: c.ID, Quantity: kg("1"), StorageArea: entity.StorageAreaTK,
		ReasonCode: entity.WasteReasonCustomerRejection, Note: "Reklamation Kunde 42",
	})
	require.NoError(t, err)

	got, err := f.history.GetMovement(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot, *got)

	list, total, err := f.history.QueryMovements(ctx, inventory.HistoryFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, entity.MovementKindWaste, list[0].Kind, "timestamp descendente")

	list, _, err = f.history.QueryMovements(ctx, inventory.HistoryFilter{Search: "reklamation"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, _, err = f.history.QueryMovements(ctx, inventory.HistoryFilter{Kind: entity.MovementKindReceipt}, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, _, err = f.history.QueryMovements(ctx, inventory.HistoryFilter{From: date("2025-02-01"), To: date("2025-01-01")}, 10, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	list, _, err = f.history.QueryMovements(ctx, inventory.HistoryFilter{From: date("2025-01-06")}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.history.GetMovement(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportMovementsCsv(t *testing.T) {
	f := newFixture(t)
	c := f.newCharge(t, "A1", "2025-01-10", true)
	f.receive(t, c, "10.5", entity.StorageAreaTK)
	_, err := f.transfers.RebookCharge(ctx, inventory.RebookInput{
		Actor: actor, SourceChargeID: c.ID, Quantity: kg("0.25"), ExistingChargeID: c.ID,
		StorageArea: entity.StorageAreaNonTK, Note: "umgelagert; Kühlung defekt",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.history.ExportMovementsCsv(ctx, inventory.HistoryFilter{ChargeID: c.ID}, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, inventory.CSVHeader, rows[0])
	deltas := map[string]bool{}
	for _, r := range rows[1:] {
		deltas[r[5]] = true
	}
	assert.Equal(t, map[string]bool{"10.500": true, "-0.250": true, "0.250": true}, deltas)
	assert.Equal(t, "2025-01-05T10:00:00Z", rows[1][1])
}

func TestExportMovementsPdf_SinGenerador(t *testing.T) {
	f := newFixture(t)
	_, err := f.history.ExportMovementsPdf(ctx, inventory.HistoryFilter{})
	assert.Error(t, err)
}
