package core

import (
	"context"
	"time"

	"neocertify/pkg/domain"
)

// RecallWindow is how long after a treatment the performing hospital may
// recall it. The bound is exclusive and compared in UTC against the
// transaction timestamp: a recall at exactly OccurredAt+24h is rejected.
const RecallWindow = 24 * time.Hour

// RecallTreatment reverses a treatment within the recall window: the
// consumed units return to stock under the treating hospital's ownership and
// the consumption event is marked recalled. Past the window the operation
// fails terminally; overrides are an out-of-band admin concern.
func (s *Service) RecallTreatment(ctx context.Context, requesterID, eventID string) (ConsumptionEvent, Result, error) {
	var recalled ConsumptionEvent
	res, err := s.runInTransaction(ctx, "recall_treatment", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		event, ok := view.FindConsumptionEvent(eventID)
		if !ok {
			return domain.NewNotFound(domain.EntityConsumptionEvent, eventID)
		}
		if event.Kind != domain.ConsumptionTreatment {
			return domain.NewValidation("consumption event %q is a %s, only treatments can be recalled", eventID, event.Kind)
		}
		if event.OrganizationID != requesterID {
			return domain.NewForbidden("organization %q did not perform treatment %q", requesterID, eventID)
		}
		if event.Recalled() {
			return domain.NewAlreadyReversed(domain.EntityConsumptionEvent, eventID)
		}
		if tx.Now().UTC().Sub(event.OccurredAt.UTC()) >= RecallWindow {
			return domain.NewTimeWindowExceeded(event.OccurredAt.Add(RecallWindow))
		}

		for _, code := range event.UnitCodes {
			unit, ok := view.FindUnit(code)
			if !ok {
				return domain.NewNotFound(domain.EntityUnit, code)
			}
			if unit.State != UnitConsumed || unit.OwnerID != requesterID {
				return domain.NewConflict("unit %q changed state since treatment %q", code, eventID)
			}
			if _, err := tx.UpdateUnit(code, func(u *Unit) error {
				u.State = UnitInStock
				return nil
			}); err != nil {
				return err
			}
		}
		var err error
		recalled, err = tx.UpdateConsumptionEvent(eventID, func(e *ConsumptionEvent) error {
			t := tx.Now()
			e.RecalledAt = &t
			return nil
		})
		return err
	})
	if err != nil {
		return ConsumptionEvent{}, res, err
	}
	s.logger.Info("treatment recalled", "consumption_id", eventID, "hospital_id", requesterID)
	return recalled, res, nil
}

// ReturnShipment reverses a transfer at the receiver's request. There is no
// time limit, but the receiver must still own every unit of the original
// shipment in stock; a single forwarded or consumed unit blocks the whole
// return.
func (s *Service) ReturnShipment(ctx context.Context, requesterID, transferID string) (TransferEvent, Result, error) {
	var returned TransferEvent
	res, err := s.runInTransaction(ctx, "return_shipment", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		event, ok := view.FindTransferEvent(transferID)
		if !ok {
			return domain.NewNotFound(domain.EntityTransferEvent, transferID)
		}
		if event.DestinationID != requesterID {
			return domain.NewForbidden("organization %q is not the receiver of transfer %q", requesterID, transferID)
		}
		if event.Returned() {
			return domain.NewAlreadyReversed(domain.EntityTransferEvent, transferID)
		}
		for _, code := range event.UnitCodes {
			unit, ok := view.FindUnit(code)
			if !ok {
				return domain.NewNotFound(domain.EntityUnit, code)
			}
			if unit.OwnerID != requesterID || unit.State != UnitInStock {
				return domain.NewOwnershipViolation(
					"unit %q is no longer held in stock by %q", code, requesterID)
			}
		}
		for _, code := range event.UnitCodes {
			if _, err := tx.UpdateUnit(code, func(u *Unit) error {
				u.OwnerID = event.SourceID
				return nil
			}); err != nil {
				return err
			}
		}
		var err error
		returned, err = tx.UpdateTransferEvent(transferID, func(e *TransferEvent) error {
			t := tx.Now()
			e.ReturnedAt = &t
			return nil
		})
		return err
	})
	if err != nil {
		return TransferEvent{}, res, err
	}
	s.logger.Info("shipment returned", "transfer_id", transferID, "receiver_id", requesterID)
	return returned, res, nil
}
