package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/charge-ledger/internal/application/inventory"
	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/repository"
	"github.com/jhoicas/charge-ledger/internal/infrastructure/sqlite"
)

var (
	ctx   = context.Background()
	actor = inventory.Actor{UserID: "u-1"}
)

type ledger struct {
	store     *sqlite.Store
	now       time.Time
	charges   *inventory.ChargeUseCase
	transfers *inventory.TransferUseCase
	overview  *inventory.OverviewUseCase
}

func openLedger(t *testing.T) *ledger {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.PutArticle(ctx, entity.Article{ID: "A1", Number: "1001", Name: "Hack", Unit: "kg"}))
	require.NoError(t, s.PutArticle(ctx, entity.Article{ID: "A2", Number: "1002", Name: "Bauch", Unit: "kg"}))

	l := &ledger{store: s, now: time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return l.now }
	locker := inventory.NewKeyLocker(2 * time.Second)
	l.charges = inventory.NewChargeUseCase(s, s.Repos().Charges, locker, clock, zerolog.Nop())
	l.transfers = inventory.NewTransferUseCase(s, s.Repos().Charges, locker, clock, zerolog.Nop())
	l.overview = inventory.NewOverviewUseCase(s, clock, time.UTC, 7, zerolog.Nop())
	return l
}

func kg(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bestBy(s string) *time.Time {
	d, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func (l *ledger) charge(t *testing.T, article string, frozen bool) *entity.Charge {
	t.Helper()
	c, err := l.charges.CreateCharge(ctx, inventory.CreateChargeInput{ArticleID: article, BestByDate: bestBy("2025-01-10"), IsFrozenArea: frozen})
	require.NoError(t, err)
	return c
}

func (l *ledger) receive(t *testing.T, chargeID, qty string, area entity.StorageArea) {
	t.Helper()
	l.now = l.now.Add(time.Minute)
	_, err := l.transfers.AddManualReceipt(ctx, inventory.ReceiptInput{
		Actor: actor, ArticleID: "A1", Quantity: kg(qty), StorageArea: area, ExistingChargeID: chargeID,
	})
	require.NoError(t, err)
}

func (l *ledger) balance(t *testing.T, chargeID string, area entity.StorageArea) decimal.Decimal {
	t.Helper()
	b, err := l.store.Repos().Movements.Balance(ctx, chargeID, area)
	require.NoError(t, err)
	return b
}

func TestStore_ChargeRoundTrip(t *testing.T) {
	l := openLedger(t)
	c, err := l.charges.CreateCharge(ctx, inventory.CreateChargeInput{
		ArticleID: "A1", BestByDate: bestBy("2025-02-01"), IsFrozenArea: true,
		SlaughterDate: bestBy("2024-12-20"), SupplierID: "S-7",
	})
	require.NoError(t, err)

	got, err := l.charges.GetCharge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", got.ArticleID)
	assert.True(t, got.IsFrozenArea)
	assert.Equal(t, "S-7", got.SupplierID)
	require.NotNil(t, got.SlaughterDate)
	assert.Equal(t, "2024-12-20", got.SlaughterDate.Format("2006-01-02"))
	assert.Equal(t, "2025-02-01", got.BestByDate.Format("2006-01-02"))

	_, err = l.charges.GetCharge(ctx, "desconocido")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = l.charges.CreateCharge(ctx, inventory.CreateChargeInput{ArticleID: "A9", BestByDate: bestBy("2025-02-01")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_ExactGramArithmetic(t *testing.T) {
	l := openLedger(t)
	c := l.charge(t, "A1", true)

	l.receive(t, c.ID, "0.1", entity.StorageAreaTK)
	l.receive(t, c.ID, "0.2", entity.StorageAreaTK)
	assert.True(t, kg("0.3").Equal(l.balance(t, c.ID, entity.StorageAreaTK)))

	l.now = l.now.Add(time.Minute)
	_, err := l.transfers.BookWaste(ctx, inventory.WasteInput{
		Actor: actor, ChargeID: c.ID, Quantity: kg("0.3"), StorageArea: entity.StorageAreaTK,
		ReasonCode: entity.WasteReasonDamaged,
	})
	require.NoError(t, err)
	assert.True(t, l.balance(t, c.ID, entity.StorageAreaTK).IsZero())

	_, err = l.transfers.BookWaste(ctx, inventory.WasteInput{
		Actor: actor, ChargeID: c.ID, Quantity: kg("0.001"), StorageArea: entity.StorageAreaTK,
		ReasonCode: entity.WasteReasonDamaged,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.IsZero())
}

func TestStore_RebookAndMergeConserveQuantity(t *testing.T) {
	l := openLedger(t)
	src := l.charge(t, "A1", true)
	dst := l.charge(t, "A1", false)
	l.receive(t, src.ID, "20", entity.StorageAreaTK)

	l.now = l.now.Add(time.Minute)
	movs, err := l.transfers.RebookCharge(ctx, inventory.RebookInput{
		Actor: actor, SourceChargeID: src.ID, Quantity: kg("7.5"),
		ExistingChargeID: dst.ID, StorageArea: entity.StorageAreaNonTK,
	})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, movs[0].OperationID, movs[1].OperationID)
	assert.True(t, movs[0].QuantityDelta.Add(movs[1].QuantityDelta).IsZero())

	l.now = l.now.Add(time.Minute)
	_, err = l.transfers.MergeCharges(ctx, inventory.MergeInput{
		Actor: actor, SourceChargeID: src.ID, SourceStorageArea: entity.StorageAreaTK,
		TargetChargeID: dst.ID, TargetStorageArea: entity.StorageAreaNonTK,
	})
	require.NoError(t, err)

	assert.True(t, l.balance(t, src.ID, entity.StorageAreaTK).IsZero())
	assert.True(t, kg("20").Equal(l.balance(t, dst.ID, entity.StorageAreaNonTK)))

	balances, err := l.store.Repos().Movements.Balances(ctx, repository.BalanceFilter{ArticleID: "A1"})
	require.NoError(t, err)
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Available)
	}
	assert.True(t, kg("20").Equal(total))
}

func TestStore_BalancesBeforeCutoff(t *testing.T) {
	l := openLedger(t)
	c := l.charge(t, "A1", true)
	l.receive(t, c.ID, "5", entity.StorageAreaTK)
	cutoff := l.now.Add(30 * time.Second)
	l.receive(t, c.ID, "3", entity.StorageAreaTK)

	balances, err := l.store.Repos().Movements.Balances(ctx, repository.BalanceFilter{ChargeID: c.ID, Before: &cutoff})
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, kg("5").Equal(balances[0].Available))

	positions, total, err := l.overview.GetOverview(ctx, entity.OverviewFilter{}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.True(t, kg("8").Equal(positions[0].Available))

	positions, _, err = l.overview.GetOverview(ctx, entity.OverviewFilter{AsOfDate: bestBy("2025-01-04")}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, positions)

	live, err := l.overview.GetPosition(ctx, c.ID, entity.StorageAreaTK)
	require.NoError(t, err)
	assert.True(t, kg("8").Equal(live.Available))
}

func TestStore_ListNewestFirst(t *testing.T) {
	l := openLedger(t)
	c := l.charge(t, "A1", true)
	l.receive(t, c.ID, "1", entity.StorageAreaTK)
	l.receive(t, c.ID, "2", entity.StorageAreaTK)
	l.receive(t, c.ID, "3", entity.StorageAreaTK)

	movs, total, err := l.store.Repos().Movements.List(ctx, entity.MovementFilter{ChargeID: c.ID}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, movs, 2)
	assert.True(t, kg("3").Equal(movs[0].QuantityDelta))
	assert.True(t, movs[0].Timestamp.After(movs[1].Timestamp))

	var streamed []string
	err = l.store.Repos().Movements.Stream(ctx, entity.MovementFilter{ChargeID: c.ID}, func(m *entity.Movement) error {
		streamed = append(streamed, m.QuantityDelta.String())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, streamed)
}

func TestStore_RunRollsBackOnError(t *testing.T) {
	l := openLedger(t)
	c := l.charge(t, "A1", true)
	boom := errors.New("boom")

	err := l.store.Run(ctx, func(r inventory.TxRepos) error {
		m := &entity.Movement{
			ID: uuid.NewString(), OperationID: uuid.NewString(), ChargeID: c.ID, ArticleID: "A1",
			StorageArea: entity.StorageAreaTK, Kind: entity.MovementKindReceipt,
			QuantityDelta: kg("4"), Timestamp: l.now, CreatedBy: actor.UserID,
		}
		if err := r.Movements.Create(ctx, m); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, l.balance(t, c.ID, entity.StorageAreaTK).IsZero())
}

func TestStore_MovementsAreAppendOnly(t *testing.T) {
	l := openLedger(t)
	c := l.charge(t, "A1", true)
	l.receive(t, c.ID, "2", entity.StorageAreaTK)

	_, err := l.store.DB().ExecContext(ctx, `UPDATE movements SET quantity_grams = 1`)
	assert.Error(t, err)
	_, err = l.store.DB().ExecContext(ctx, `DELETE FROM movements`)
	assert.Error(t, err)
	assert.True(t, kg("2").Equal(l.balance(t, c.ID, entity.StorageAreaTK)))
}

func TestStore_ReservationsBlockDelete(t *testing.T) {
	l := openLedger(t)
	c := l.charge(t, "A1", true)
	require.NoError(t, l.store.PutReservation(ctx, entity.Reservation{
		ID: "R1", ChargeID: c.ID, StorageArea: entity.StorageAreaTK, OrderID: "O-1",
		DeliveryDate: *bestBy("2025-01-07"), Quantity: kg("1.5"), Status: entity.ReservationOpen,
	}))

	list, err := l.charges.ListReservations(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, kg("1.5").Equal(list[0].Quantity))

	var conflict *domain.ConflictError
	require.ErrorAs(t, l.charges.DeleteCharge(ctx, c.ID), &conflict)
	assert.Equal(t, 1, conflict.OpenReservations)

	require.NoError(t, l.store.PutReservation(ctx, entity.Reservation{
		ID: "R1", ChargeID: c.ID, StorageArea: entity.StorageAreaTK, OrderID: "O-1",
		DeliveryDate: *bestBy("2025-01-07"), Quantity: kg("1.5"), Status: entity.ReservationClosed,
	}))
	require.NoError(t, l.charges.DeleteCharge(ctx, c.ID))

	_, err = l.charges.GetCharge(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
