package core

import (
	"context"
	"fmt"
	"time"

	"neocertify/pkg/domain"
)

// Code settings applied when a manufacturer has not configured its own.
var defaultCodeSettings = CodeSettings{
	LotPrefix:      "LOT",
	DateFormat:     domain.DateFormatYYMMDD,
	SequenceDigits: 4,
	ExpiryMonths:   36,
}

// CreateLotInput carries a production request.
type CreateLotInput struct {
	ManufacturerID string
	ProductID      string
	Quantity       int
	ProducedOn     time.Time
}

// CreateLot records a production batch: one lot plus its full set of units,
// created in a single transaction. Unit codes are drawn from the ledger's
// monotonic sequence, so codes are collision-free even under concurrent
// allocation, and the lot number is derived from the manufacturer's code
// settings.
func (s *Service) CreateLot(ctx context.Context, in CreateLotInput) (Lot, Result, error) {
	if in.Quantity < 1 {
		return Lot{}, Result{}, domain.NewValidation("quantity must be at least 1, got %d", in.Quantity)
	}
	var created Lot
	res, err := s.runInTransaction(ctx, "create_lot", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		manufacturer, err := activeOrganization(view, in.ManufacturerID)
		if err != nil {
			return err
		}
		if manufacturer.Type != OrgManufacturer {
			return domain.NewForbidden("organization %q is not a manufacturer", in.ManufacturerID)
		}
		product, ok := view.FindProduct(in.ProductID)
		if !ok {
			return domain.NewNotFound(domain.EntityProduct, in.ProductID)
		}
		if product.ManufacturerID != in.ManufacturerID {
			return domain.NewForbidden("product %q is not owned by %q", in.ProductID, in.ManufacturerID)
		}
		if !product.Active {
			return domain.NewValidation("product %q is inactive", in.ProductID)
		}

		settings := defaultCodeSettings
		if manufacturer.CodeSettings != nil {
			settings = *manufacturer.CodeSettings
		}
		producedOn := in.ProducedOn
		if producedOn.IsZero() {
			producedOn = tx.Now()
		}
		producedOn = producedOn.UTC()

		lotNumber := formatLotNumber(settings, producedOn, tx.NextLotSequence(in.ManufacturerID))
		created, err = tx.CreateLot(Lot{
			ProductID:      in.ProductID,
			ManufacturerID: in.ManufacturerID,
			LotNumber:      lotNumber,
			Quantity:       in.Quantity,
			ProducedOn:     producedOn,
			ExpiresOn:      producedOn.AddDate(0, settings.ExpiryMonths, 0),
		})
		if err != nil {
			return err
		}
		for i := 0; i < in.Quantity; i++ {
			seq := tx.NextUnitSequence()
			if _, err := tx.CreateUnit(Unit{
				Code:      formatUnitCode(seq),
				LotID:     created.ID,
				ProductID: in.ProductID,
				OwnerID:   in.ManufacturerID,
				State:     UnitInStock,
				Sequence:  seq,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Lot{}, res, err
	}
	s.logger.Info("lot created",
		"lot_id", created.ID, "lot_number", created.LotNumber,
		"manufacturer_id", in.ManufacturerID, "quantity", in.Quantity)
	return created, res, nil
}

// formatLotNumber renders prefix + date segment + zero-padded per-manufacturer
// sequence, per the manufacturer's code settings.
func formatLotNumber(settings CodeSettings, producedOn time.Time, seq uint64) string {
	var layout string
	switch settings.DateFormat {
	case domain.DateFormatYYMM:
		layout = "0601"
	case domain.DateFormatYYYYMM:
		layout = "200601"
	default:
		layout = "060102"
	}
	return fmt.Sprintf("%s%s%0*d", settings.LotPrefix, producedOn.Format(layout), settings.SequenceDigits, seq)
}

// formatUnitCode renders the system-wide virtual code for a sequence value.
func formatUnitCode(seq uint64) string {
	return fmt.Sprintf("NC%012d", seq)
}
