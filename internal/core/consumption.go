package core

import (
	"context"
	"time"

	"neocertify/internal/notify"
	"neocertify/pkg/domain"
)

// TreatmentInput carries a treatment consumption request.
type TreatmentInput struct {
	HospitalID   string
	ProductID    string
	Quantity     int
	PatientPhone string
	TreatedOn    time.Time
	LotID        *string
}

// ConsumeForTreatment marks FIFO-selected units consumed by a treatment,
// finding or creating the patient scoped to the hospital by normalized phone
// number. After the transaction commits a certificate message is dispatched
// fire-and-forget: a delivery failure is logged and never fails the
// consumption.
func (s *Service) ConsumeForTreatment(ctx context.Context, in TreatmentInput) (ConsumptionEvent, Result, error) {
	if in.Quantity < 1 {
		return ConsumptionEvent{}, Result{}, domain.NewValidation("quantity must be at least 1, got %d", in.Quantity)
	}
	phone := domain.NormalizePhone(in.PatientPhone)
	if phone == "" {
		return ConsumptionEvent{}, Result{}, domain.NewValidation("patient phone required")
	}

	var (
		created      ConsumptionEvent
		hospitalName string
		productName  string
	)
	res, err := s.runInTransaction(ctx, "consume_treatment", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		hospital, err := activeOrganization(view, in.HospitalID)
		if err != nil {
			return err
		}
		if hospital.Type != OrgHospital {
			return domain.NewForbidden("organization %q is not a hospital", in.HospitalID)
		}
		product, ok := view.FindProduct(in.ProductID)
		if !ok {
			return domain.NewNotFound(domain.EntityProduct, in.ProductID)
		}
		hospitalName = hospital.Name
		productName = product.ModelName

		selected, err := selectUnits(view, in.HospitalID, in.ProductID, in.LotID, in.Quantity)
		if err != nil {
			return err
		}
		patient, ok := view.FindPatientByPhone(in.HospitalID, phone)
		if !ok {
			patient, err = tx.CreatePatient(Patient{HospitalID: in.HospitalID, Phone: phone})
			if err != nil {
				return err
			}
		}
		for _, unit := range selected {
			if _, err := tx.UpdateUnit(unit.Code, func(u *Unit) error {
				u.State = UnitConsumed
				return nil
			}); err != nil {
				return err
			}
		}
		treatedOn := in.TreatedOn
		if treatedOn.IsZero() {
			treatedOn = tx.Now()
		}
		patientID := patient.ID
		created, err = tx.CreateConsumptionEvent(ConsumptionEvent{
			OrganizationID: in.HospitalID,
			ProductID:      in.ProductID,
			Kind:           domain.ConsumptionTreatment,
			UnitCodes:      unitCodes(selected),
			Quantity:       in.Quantity,
			PatientID:      &patientID,
			TreatedOn:      &treatedOn,
			OccurredAt:     tx.Now(),
		})
		return err
	})
	if err != nil {
		return ConsumptionEvent{}, res, err
	}
	s.logger.Info("treatment recorded",
		"consumption_id", created.ID, "hospital_id", in.HospitalID,
		"product_id", in.ProductID, "quantity", in.Quantity)

	cert := notify.NewCertificate(phone, productName, hospitalName, *created.TreatedOn, created.UnitCodes)
	if err := s.dispatcher.Dispatch(ctx, cert); err != nil {
		s.logger.Warn("certificate dispatch failed",
			"consumption_id", created.ID, "message_id", cert.MessageID, "error", err.Error())
	}
	return created, res, nil
}

// DisposalInput carries a disposal request.
type DisposalInput struct {
	OrganizationID string
	ProductID      string
	Quantity       int
	Reason         domain.DisposalReason
	LotID          *string
}

// ConsumeForDisposal marks FIFO-selected units disposed with a reason code.
// Disposal is terminal; there is no reversal window.
func (s *Service) ConsumeForDisposal(ctx context.Context, in DisposalInput) (ConsumptionEvent, Result, error) {
	if in.Quantity < 1 {
		return ConsumptionEvent{}, Result{}, domain.NewValidation("quantity must be at least 1, got %d", in.Quantity)
	}
	if !domain.ValidDisposalReason(in.Reason) {
		return ConsumptionEvent{}, Result{}, domain.NewValidation("unknown disposal reason %q", in.Reason)
	}
	var created ConsumptionEvent
	res, err := s.runInTransaction(ctx, "consume_disposal", func(tx domain.Transaction) error {
		view := tx.Snapshot()
		org, err := activeOrganization(view, in.OrganizationID)
		if err != nil {
			return err
		}
		if !org.ParticipatesInSupplyChain() {
			return domain.NewForbidden("organization %q cannot hold inventory", in.OrganizationID)
		}
		if _, ok := view.FindProduct(in.ProductID); !ok {
			return domain.NewNotFound(domain.EntityProduct, in.ProductID)
		}

		selected, err := selectUnits(view, in.OrganizationID, in.ProductID, in.LotID, in.Quantity)
		if err != nil {
			return err
		}
		for _, unit := range selected {
			if _, err := tx.UpdateUnit(unit.Code, func(u *Unit) error {
				u.State = UnitDisposed
				return nil
			}); err != nil {
				return err
			}
		}
		reason := in.Reason
		created, err = tx.CreateConsumptionEvent(ConsumptionEvent{
			OrganizationID: in.OrganizationID,
			ProductID:      in.ProductID,
			Kind:           domain.ConsumptionDisposal,
			UnitCodes:      unitCodes(selected),
			Quantity:       in.Quantity,
			Reason:         &reason,
			OccurredAt:     tx.Now(),
		})
		return err
	})
	if err != nil {
		return ConsumptionEvent{}, res, err
	}
	s.logger.Info("disposal recorded",
		"consumption_id", created.ID, "organization_id", in.OrganizationID,
		"reason", string(in.Reason), "quantity", in.Quantity)
	return created, res, nil
}
