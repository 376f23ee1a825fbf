package inventory

import (
	"strconv"
	"time"

	"github.com/jhoicas/charge-ledger/internal/application/dto"
	"github.com/jhoicas/charge-ledger/internal/domain"
	"github.com/jhoicas/charge-ledger/internal/domain/entity"
)

// Adaptadores de los requests HTTP a las entradas de los casos de uso.
// Convierten fechas YYYY-MM-DD y enums de texto; los errores son ValidationError.

// CreateChargeFromRequest adapta dto.CreateChargeRequest.
func CreateChargeFromRequest(in dto.CreateChargeRequest) (CreateChargeInput, error) {
	bestBy, err := optionalDate("best_by_date", in.BestByDate)
	if err != nil {
		return CreateChargeInput{}, err
	}
	slaughter, err := optionalDate("slaughter_date", in.SlaughterDate)
	if err != nil {
		return CreateChargeInput{}, err
	}
	return CreateChargeInput{
		ArticleID:     in.ArticleID,
		BestByDate:    bestBy,
		IsFrozenArea:  in.IsFrozenArea,
		SlaughterDate: slaughter,
		SupplierID:    in.SupplierID,
	}, nil
}

// ChargePatchFromRequest adapta dto.UpdateChargeRequest.
func ChargePatchFromRequest(in dto.UpdateChargeRequest) (entity.ChargePatch, error) {
	patch := entity.ChargePatch{
		ArticleID:          in.ArticleID,
		IsFrozenArea:       in.IsFrozenArea,
		ClearSlaughterDate: in.ClearSlaughterDate,
		SupplierID:         in.SupplierID,
	}
	if in.BestByDate != nil {
		d, err := requiredDate("best_by_date", *in.BestByDate)
		if err != nil {
			return patch, err
		}
		patch.BestByDate = &d
	}
	if in.SlaughterDate != nil {
		d, err := requiredDate("slaughter_date", *in.SlaughterDate)
		if err != nil {
			return patch, err
		}
		patch.SlaughterDate = &d
	}
	if patch.Empty() {
		return patch, domain.Invalid("", "el patch no contiene cambios")
	}
	return patch, nil
}

// ReceiptFromRequest adapta dto.ReceiptRequest.
func ReceiptFromRequest(actor Actor, in dto.ReceiptRequest) (ReceiptInput, error) {
	area, err := storageArea("storage_area", in.StorageArea)
	if err != nil {
		return ReceiptInput{}, err
	}
	spec, err := newChargeSpec(in.NewCharge)
	if err != nil {
		return ReceiptInput{}, err
	}
	return ReceiptInput{
		Actor:            actor,
		ArticleID:        in.ArticleID,
		Quantity:         in.Quantity,
		StorageArea:      area,
		ExistingChargeID: in.ChargeID,
		NewCharge:        spec,
		Note:             in.Note,
	}, nil
}

// WasteFromRequest adapta dto.WasteRequest.
func WasteFromRequest(actor Actor, in dto.WasteRequest) (WasteInput, error) {
	area, err := storageArea("storage_area", in.StorageArea)
	if err != nil {
		return WasteInput{}, err
	}
	return WasteInput{
		Actor:       actor,
		ChargeID:    in.ChargeID,
		Quantity:    in.Quantity,
		StorageArea: area,
		ReasonCode:  entity.WasteReason(in.ReasonCode),
		Note:        in.Note,
	}, nil
}

// RebookFromRequest adapta dto.RebookRequest.
func RebookFromRequest(actor Actor, in dto.RebookRequest) (RebookInput, error) {
	var src entity.StorageArea
	if in.SourceStorageArea != "" {
		a, err := storageArea("source_storage_area", in.SourceStorageArea)
		if err != nil {
			return RebookInput{}, err
		}
		src = a
	}
	dst, err := storageArea("destination.storage_area", in.Destination.StorageArea)
	if err != nil {
		return RebookInput{}, err
	}
	spec, err := newChargeSpec(in.Destination.NewCharge)
	if err != nil {
		return RebookInput{}, err
	}
	return RebookInput{
		Actor:             actor,
		SourceChargeID:    in.SourceChargeID,
		SourceStorageArea: src,
		Quantity:          in.Quantity,
		ExistingChargeID:  in.Destination.ChargeID,
		NewCharge:         spec,
		StorageArea:       dst,
		Note:              in.Note,
	}, nil
}

// MergeFromRequest adapta dto.MergeRequest.
func MergeFromRequest(actor Actor, in dto.MergeRequest) (MergeInput, error) {
	var src entity.StorageArea
	if in.SourceStorageArea != "" {
		a, err := storageArea("source_storage_area", in.SourceStorageArea)
		if err != nil {
			return MergeInput{}, err
		}
		src = a
	}
	dst, err := storageArea("target_storage_area", in.TargetStorageArea)
	if err != nil {
		return MergeInput{}, err
	}
	return MergeInput{
		Actor:             actor,
		SourceChargeID:    in.SourceChargeID,
		SourceStorageArea: src,
		TargetChargeID:    in.TargetChargeID,
		TargetStorageArea: dst,
		Quantity:          in.Quantity,
		Note:              in.Note,
	}, nil
}

// OverviewFilterFromQuery adapta dto.OverviewQuery. as_of_date se fija a las 00:00 de loc,
// el calendario del ledger.
func OverviewFilterFromQuery(q dto.OverviewQuery, loc *time.Location) (entity.OverviewFilter, error) {
	f := entity.OverviewFilter{
		ArticleID:    q.ArticleID,
		ChargeID:     q.ChargeID,
		OnlyCritical: q.OnlyCritical,
	}
	if q.StorageArea != "" {
		a, err := storageArea("storage_area", q.StorageArea)
		if err != nil {
			return f, err
		}
		f.StorageArea = a
	}
	if q.ThresholdDays != "" {
		n, err := strconv.Atoi(q.ThresholdDays)
		if err != nil {
			return f, domain.Invalid("threshold_days", "debe ser un entero")
		}
		f.ThresholdDays = &n
	}
	if q.AsOfDate != "" {
		asOf, err := entity.ParseDateIn(q.AsOfDate, loc)
		if err != nil {
			return f, domain.Invalid("as_of_date", "fecha inválida, formato YYYY-MM-DD")
		}
		f.AsOfDate = &asOf
	}
	return f, nil
}

// HistoryFilterFromQuery adapta dto.MovementQuery.
func HistoryFilterFromQuery(q dto.MovementQuery) (HistoryFilter, error) {
	f := HistoryFilter{
		ArticleID: q.ArticleID,
		ChargeID:  q.ChargeID,
		Kind:      entity.MovementKind(q.Kind),
		Search:    q.Search,
	}
	if q.StorageArea != "" {
		a, err := storageArea("storage_area", q.StorageArea)
		if err != nil {
			return f, err
		}
		f.StorageArea = a
	}
	from, err := optionalDate("from", q.From)
	if err != nil {
		return f, err
	}
	to, err := optionalDate("to", q.To)
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to
	return f, nil
}

func newChargeSpec(in *dto.NewChargeRequest) (*NewChargeSpec, error) {
	if in == nil {
		return nil, nil
	}
	bestBy, err := optionalDate("new_charge.best_by_date", in.BestByDate)
	if err != nil {
		return nil, err
	}
	slaughter, err := optionalDate("new_charge.slaughter_date", in.SlaughterDate)
	if err != nil {
		return nil, err
	}
	return &NewChargeSpec{
		BestByDate:    bestBy,
		IsFrozenArea:  in.IsFrozenArea,
		SlaughterDate: slaughter,
		SupplierID:    in.SupplierID,
	}, nil
}

func storageArea(field, s string) (entity.StorageArea, error) {
	a, ok := entity.ParseStorageArea(s)
	if !ok {
		return "", domain.Invalid(field, "debe ser TK o NON_TK")
	}
	return a, nil
}

func optionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := requiredDate(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func requiredDate(field, s string) (time.Time, error) {
	d, err := entity.ParseDate(s)
	if err != nil {
		return time.Time{}, domain.Invalid(field, "fecha inválida, formato YYYY-MM-DD")
	}
	return d, nil
}
