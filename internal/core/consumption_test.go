package core

import (
	"context"
	"errors"
	"testing"

	"neocertify/pkg/domain"
)

func (f *fixture) stockToHospital(t *testing.T, quantity int) {
	t.Helper()
	ctx := context.Background()
	f.createLot(t, quantity)
	if _, _, err := f.svc.Transfer(ctx, TransferInput{
		SourceID: f.maker.ID, DestinationID: f.hosp.ID, ProductID: f.product.ID, Quantity: quantity,
	}); err != nil {
		t.Fatalf("stock hospital: %v", err)
	}
}

func TestConsumeForTreatment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockToHospital(t, 10)

	event, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 3, PatientPhone: "010-1234-5678",
	})
	if err != nil {
		t.Fatalf("treatment: %v", err)
	}
	if event.Kind != domain.ConsumptionTreatment || len(event.UnitCodes) != 3 {
		t.Fatalf("bad event: %+v", event)
	}
	if event.PatientID == nil || event.TreatedOn == nil {
		t.Fatalf("treatment metadata missing: %+v", event)
	}
	if got := f.stockOf(t, f.hosp.ID); got != 7 {
		t.Fatalf("hospital stock: got %d, want 7", got)
	}
	if err := f.store.View(ctx, func(v domain.TransactionView) error {
		patient, ok := v.FindPatient(*event.PatientID)
		if !ok {
			t.Fatalf("patient not created")
		}
		if patient.Phone != "01012345678" || patient.HospitalID != f.hosp.ID {
			t.Fatalf("patient not normalized/scoped: %+v", patient)
		}
		for _, code := range event.UnitCodes {
			unit, _ := v.FindUnit(code)
			if unit.State != UnitConsumed {
				t.Fatalf("unit %s not consumed: %s", code, unit.State)
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	// Certificate dispatched once with the normalized phone.
	sent := f.dispatcher.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 certificate, got %d", len(sent))
	}
	cert := sent[0]
	if cert.PatientPhone != "01012345678" || cert.MessageID == "" || len(cert.UnitCodes) != 3 {
		t.Fatalf("bad certificate: %+v", cert)
	}
	if cert.ProductName != f.product.ModelName || cert.HospitalName != f.hosp.Name {
		t.Fatalf("certificate names: %+v", cert)
	}
}

func TestTreatmentReusesPatientAcrossPhoneFormats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockToHospital(t, 10)

	first, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 1, PatientPhone: "010-1234-5678",
	})
	if err != nil {
		t.Fatalf("first treatment: %v", err)
	}
	second, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 1, PatientPhone: "+82 10 1234 5678",
	})
	if err != nil {
		t.Fatalf("second treatment: %v", err)
	}
	if *first.PatientID != *second.PatientID {
		t.Fatalf("expected same patient, got %s and %s", *first.PatientID, *second.PatientID)
	}
	if err := f.store.View(ctx, func(v domain.TransactionView) error {
		if got := len(v.ListPatients()); got != 1 {
			t.Fatalf("expected 1 patient, got %d", got)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestTreatmentDispatchFailureDoesNotFailConsumption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockToHospital(t, 5)
	f.dispatcher.FailWith(errors.New("gateway down"))

	if _, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 2, PatientPhone: "010-1234-5678",
	}); err != nil {
		t.Fatalf("treatment should survive dispatch failure: %v", err)
	}
	if got := f.stockOf(t, f.hosp.ID); got != 3 {
		t.Fatalf("hospital stock: got %d, want 3", got)
	}
	if f.dispatcher.Calls() != 1 {
		t.Fatalf("expected 1 dispatch attempt, got %d", f.dispatcher.Calls())
	}
}

func TestTreatmentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockToHospital(t, 2)

	if _, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 1, PatientPhone: "no digits",
	}); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation for bad phone, got %v", err)
	}
	if _, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.dist.ID, ProductID: f.product.ID, Quantity: 1, PatientPhone: "010-1234-5678",
	}); !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("expected forbidden for distributor, got %v", err)
	}
	if _, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 3, PatientPhone: "010-1234-5678",
	}); !domain.IsKind(err, domain.KindInsufficientInventory) {
		t.Fatalf("expected insufficient_inventory, got %v", err)
	}
	// Failed treatment creates no patient.
	if err := f.store.View(ctx, func(v domain.TransactionView) error {
		if got := len(v.ListPatients()); got != 0 {
			t.Fatalf("failed treatments created %d patients", got)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if f.dispatcher.Calls() != 0 {
		t.Fatalf("failed treatments dispatched %d certificates", f.dispatcher.Calls())
	}
}

func TestConsumeForDisposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createLot(t, 6)

	event, _, err := f.svc.ConsumeForDisposal(ctx, DisposalInput{
		OrganizationID: f.maker.ID, ProductID: f.product.ID, Quantity: 2, Reason: domain.DisposalDefective,
	})
	if err != nil {
		t.Fatalf("disposal: %v", err)
	}
	if event.Kind != domain.ConsumptionDisposal || event.Reason == nil || *event.Reason != domain.DisposalDefective {
		t.Fatalf("bad event: %+v", event)
	}
	if got := f.stockOf(t, f.maker.ID); got != 4 {
		t.Fatalf("stock after disposal: got %d, want 4", got)
	}
	if err := f.store.View(ctx, func(v domain.TransactionView) error {
		for _, code := range event.UnitCodes {
			unit, _ := v.FindUnit(code)
			if unit.State != UnitDisposed {
				t.Fatalf("unit %s not disposed: %s", code, unit.State)
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	if _, _, err := f.svc.ConsumeForDisposal(ctx, DisposalInput{
		OrganizationID: f.maker.ID, ProductID: f.product.ID, Quantity: 1, Reason: "melted",
	}); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation for unknown reason, got %v", err)
	}
	if _, _, err := f.svc.ConsumeForDisposal(ctx, DisposalInput{
		OrganizationID: f.maker.ID, ProductID: f.product.ID, Quantity: 5, Reason: domain.DisposalExpired,
	}); !domain.IsKind(err, domain.KindInsufficientInventory) {
		t.Fatalf("expected insufficient_inventory, got %v", err)
	}
}
