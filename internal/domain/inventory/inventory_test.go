package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
	"github.com/jhoicas/charge-ledger/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func mv(charge string, area entity.StorageArea, delta string, ts time.Time) *entity.Movement {
	return &entity.Movement{ChargeID: charge, ArticleID: "A1", StorageArea: area, QuantityDelta: d(delta), Timestamp: ts}
}

func TestFoldBalances_SumaPorClaveYOrdena(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	ms := []*entity.Movement{
		mv("C2", entity.StorageAreaTK, "40", t0),
		mv("C1", entity.StorageAreaTK, "100", t0),
		mv("C1", entity.StorageAreaTK, "-40", t0.Add(time.Hour)),
		mv("C1", entity.StorageAreaNonTK, "0.125", t0.Add(2*time.Hour)),
	}

	got := inventory.FoldBalances(ms, nil)
	require.Len(t, got, 3)
	assert.Equal(t, "C1", got[0].ChargeID)
	assert.Equal(t, entity.StorageAreaNonTK, got[0].StorageArea)
	assert.True(t, got[0].Available.Equal(d("0.125")))
	assert.True(t, got[1].Available.Equal(d("60")))
	assert.Equal(t, "C2", got[2].ChargeID)

	before := t0.Add(30 * time.Minute)
	past := inventory.FoldBalances(ms, &before)
	require.Len(t, past, 2)
	assert.True(t, past[0].Available.Equal(d("100")), "solo cuenta movimientos anteriores a la cota")
}

func TestBalanceYNetDelta(t *testing.T) {
	t0 := time.Now()
	ms := []*entity.Movement{
		mv("C1", entity.StorageAreaTK, "-40", t0),
		mv("C2", entity.StorageAreaTK, "40", t0),
	}
	assert.True(t, inventory.NetDelta(ms).IsZero())
	assert.True(t, inventory.Balance(ms, entity.PositionKey{ChargeID: "C2", StorageArea: entity.StorageAreaTK}).Equal(d("40")))
	assert.True(t, inventory.Balance(ms, entity.PositionKey{ChargeID: "C2", StorageArea: entity.StorageAreaNonTK}).IsZero())
}

func TestIsCritical_UmbralInclusivo(t *testing.T) {
	today := day("2025-01-01")
	assert.True(t, inventory.IsCritical(day("2025-01-08"), today, 7, d("1")), "justo en el umbral")
	assert.False(t, inventory.IsCritical(day("2025-01-09"), today, 7, d("1")))
	assert.True(t, inventory.IsCritical(day("2024-12-30"), today, 7, d("1")), "ya caducado")
	assert.False(t, inventory.IsCritical(day("2025-01-02"), today, 7, decimal.Zero), "sin stock nunca es crítico")
	assert.True(t, inventory.IsCritical(today, today, 0, d("0.001")))
}

func TestBuildPosition_ReservasYAdvertencias(t *testing.T) {
	charge := &entity.Charge{ID: "C1", ArticleID: "A1", BestByDate: day("2025-01-10"), IsFrozenArea: true}
	res := []*entity.Reservation{
		{Quantity: d("30"), Status: entity.ReservationOpen},
		{Quantity: d("25"), Status: entity.ReservationInTransit},
		{Quantity: d("99"), Status: entity.ReservationClosed},
	}

	p := inventory.BuildPosition(inventory.PositionInput{
		Charge: charge, StorageArea: entity.StorageAreaTK, Available: d("50"), Reservations: res,
	}, day("2025-01-05"), 7)

	assert.True(t, p.Reserved.Equal(d("30")))
	assert.True(t, p.InTransit.Equal(d("25")))
	assert.True(t, p.Free.Equal(d("-5")))
	assert.Equal(t, 5, p.DaysToExpiry)
	assert.True(t, p.Critical)
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, entity.WarningReservationOverdraft, p.Warnings[0].Code)

	mismatch := inventory.BuildPosition(inventory.PositionInput{
		Charge: charge, StorageArea: entity.StorageAreaNonTK, Available: d("1"),
	}, day("2025-01-05"), 0)
	require.Len(t, mismatch.Warnings, 1)
	assert.Equal(t, entity.WarningStorageAreaMismatch, mismatch.Warnings[0].Code)
	assert.False(t, mismatch.Critical)
}

func TestSortPositions_MHDArticuloCharge(t *testing.T) {
	ps := []entity.StockPosition{
		{ArticleID: "A2", ChargeID: "C9", StorageArea: entity.StorageAreaTK, BestByDate: day("2025-02-01")},
		{ArticleID: "A1", ChargeID: "C3", StorageArea: entity.StorageAreaTK, BestByDate: day("2025-01-01")},
		{ArticleID: "A1", ChargeID: "C3", StorageArea: entity.StorageAreaNonTK, BestByDate: day("2025-01-01")},
		{ArticleID: "A0", ChargeID: "C7", StorageArea: entity.StorageAreaTK, BestByDate: day("2025-01-01")},
	}
	inventory.SortPositions(ps)
	assert.Equal(t, "C7", ps[0].ChargeID)
	assert.Equal(t, entity.StorageAreaNonTK, ps[1].StorageArea)
	assert.Equal(t, entity.StorageAreaTK, ps[2].StorageArea)
	assert.Equal(t, "C9", ps[3].ChargeID)
}

func TestNormalizeQuantity(t *testing.T) {
	q, err := inventory.NormalizeQuantity("quantity", d("1.23456"))
	require.NoError(t, err)
	assert.Equal(t, "1.235", q.StringFixed(3))

	_, err = inventory.NormalizeQuantity("quantity", d("0.0004"))
	assert.ErrorIs(t, err, domain.ErrValidation, "redondea a cero")

	_, err = inventory.NormalizeQuantity("quantity", d("-1"))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)
}
