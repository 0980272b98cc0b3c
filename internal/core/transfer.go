package core

import (
	"context"

	"neocertify/pkg/domain"
)

// TransferInput carries a shipment request.
type TransferInput struct {
	SourceID      string
	DestinationID string
	ProductID     string
	Quantity      int
	LotID         *string
}

// Transfer moves ownership of exactly Quantity in-stock units of a product
// from the source to the destination, selecting units FIFO, and appends one
// transfer event. All-or-nothing: a failed transfer moves zero units.
// Allowed source/destination type pairs are enforced by the transfer policy
// rule at commit.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (TransferEvent, Result, error) {
	if in.Quantity < 1 {
		return TransferEvent{}, Result{}, domain.NewValidation("quantity must be at least 1, got %d", in.Quantity)
	}
	if in.SourceID == in.DestinationID {
		return TransferEvent{}, Result{}, domain.NewValidation("source and destination are the same organization")
	}
	var created TransferEvent
	res, err := s.runInTransaction(ctx, "transfer", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		if _, err := activeOrganization(view, in.SourceID); err != nil {
			return err
		}
		dest, err := activeOrganization(view, in.DestinationID)
		if err != nil {
			return err
		}
		if !dest.ParticipatesInSupplyChain() {
			return domain.NewForbidden("organization %q cannot hold inventory", in.DestinationID)
		}
		product, ok := view.FindProduct(in.ProductID)
		if !ok {
			return domain.NewNotFound(domain.EntityProduct, in.ProductID)
		}
		if !product.Active {
			return domain.NewValidation("product %q is inactive", in.ProductID)
		}
		if in.LotID != nil {
			if _, ok := view.FindLot(*in.LotID); !ok {
				return domain.NewNotFound(domain.EntityLot, *in.LotID)
			}
		}

		selected, err := selectUnits(view, in.SourceID, in.ProductID, in.LotID, in.Quantity)
		if err != nil {
			return err
		}
		for _, unit := range selected {
			if _, err := tx.UpdateUnit(unit.Code, func(u *Unit) error {
				u.OwnerID = in.DestinationID
				return nil
			}); err != nil {
				return err
			}
		}
		created, err = tx.CreateTransferEvent(TransferEvent{
			SourceID:      in.SourceID,
			DestinationID: in.DestinationID,
			ProductID:     in.ProductID,
			LotID:         in.LotID,
			UnitCodes:     unitCodes(selected),
			Quantity:      in.Quantity,
			OccurredAt:    tx.Now(),
		})
		return err
	})
	if err != nil {
		return TransferEvent{}, res, err
	}
	s.logger.Info("transfer recorded",
		"transfer_id", created.ID, "source_id", in.SourceID,
		"destination_id", in.DestinationID, "product_id", in.ProductID,
		"quantity", in.Quantity)
	return created, res, nil
}
