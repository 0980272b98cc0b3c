package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"neocertify/pkg/domain"
)

func TestRecallTreatmentWithinWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockToHospital(t, 10)

	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	f.store.SetNowFunc(func() time.Time { return now })

	event, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 3, PatientPhone: "010-1234-5678",
	})
	if err != nil {
		t.Fatalf("treatment: %v", err)
	}
	if got := f.stockOf(t, f.hosp.ID); got != 7 {
		t.Fatalf("stock after treatment: got %d, want 7", got)
	}

	now = now.Add(23*time.Hour + 59*time.Minute)
	recalled, _, err := f.svc.RecallTreatment(ctx, f.hosp.ID, event.ID)
	if err != nil {
		t.Fatalf("recall at 23h59m: %v", err)
	}
	if !recalled.Recalled() {
		t.Fatalf("event not marked recalled")
	}
	if got := f.stockOf(t, f.hosp.ID); got != 10 {
		t.Fatalf("stock after recall: got %d, want 10", got)
	}
	if err := f.store.View(ctx, func(v domain.TransactionView) error {
		for _, code := range event.UnitCodes {
			unit, _ := v.FindUnit(code)
			if unit.State != UnitInStock || unit.OwnerID != f.hosp.ID {
				t.Fatalf("unit %s not reverted: %+v", code, unit)
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestRecallTreatmentWindowBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockToHospital(t, 10)

	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	now := start
	f.store.SetNowFunc(func() time.Time { return now })

	event, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 2, PatientPhone: "010-1234-5678",
	})
	if err != nil {
		t.Fatalf("treatment: %v", err)
	}

	// Exclusive upper bound: exactly 24h is already too late.
	now = start.Add(24 * time.Hour)
	if _, _, err := f.svc.RecallTreatment(ctx, f.hosp.ID, event.ID); !domain.IsKind(err, domain.KindTimeWindowExceeded) {
		t.Fatalf("expected time_window_exceeded at exactly 24h, got %v", err)
	}

	now = start.Add(24*time.Hour + time.Minute)
	_, _, err = f.svc.RecallTreatment(ctx, f.hosp.ID, event.ID)
	if !domain.IsKind(err, domain.KindTimeWindowExceeded) {
		t.Fatalf("expected time_window_exceeded at 24h01m, got %v", err)
	}
	var derr *domain.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected domain error, got %T", err)
	}
	deadline, ok := derr.Details["deadline"].(time.Time)
	if !ok || !deadline.Equal(start.Add(24*time.Hour)) {
		t.Fatalf("expected deadline %v, got %#v", start.Add(24*time.Hour), derr.Details["deadline"])
	}

	// The failed recalls left the units consumed.
	if got := f.stockOf(t, f.hosp.ID); got != 8 {
		t.Fatalf("stock mutated by failed recall: got %d, want 8", got)
	}
}

func TestRecallTreatmentDoubleReversal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockToHospital(t, 5)

	event, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 2, PatientPhone: "010-1234-5678",
	})
	if err != nil {
		t.Fatalf("treatment: %v", err)
	}
	if _, _, err := f.svc.RecallTreatment(ctx, f.hosp.ID, event.ID); err != nil {
		t.Fatalf("first recall: %v", err)
	}
	if _, _, err := f.svc.RecallTreatment(ctx, f.hosp.ID, event.ID); !domain.IsKind(err, domain.KindAlreadyReversed) {
		t.Fatalf("expected already_reversed, got %v", err)
	}
}

func TestRecallTreatmentAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockToHospital(t, 5)

	event, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 1, PatientPhone: "010-1234-5678",
	})
	if err != nil {
		t.Fatalf("treatment: %v", err)
	}
	if _, _, err := f.svc.RecallTreatment(ctx, f.dist.ID, event.ID); !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("expected forbidden for other org, got %v", err)
	}
	if _, _, err := f.svc.RecallTreatment(ctx, f.hosp.ID, "missing"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}

	disposal, _, err := f.svc.ConsumeForDisposal(ctx, DisposalInput{
		OrganizationID: f.hosp.ID, ProductID: f.product.ID, Quantity: 1, Reason: domain.DisposalTreatmentLoss,
	})
	if err != nil {
		t.Fatalf("disposal: %v", err)
	}
	if _, _, err := f.svc.RecallTreatment(ctx, f.hosp.ID, disposal.ID); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation for disposal recall, got %v", err)
	}
}

func TestReturnShipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createLot(t, 10)

	event, _, err := f.svc.Transfer(ctx, TransferInput{
		SourceID: f.maker.ID, DestinationID: f.dist.ID, ProductID: f.product.ID, Quantity: 4,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	returned, _, err := f.svc.ReturnShipment(ctx, f.dist.ID, event.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if !returned.Returned() {
		t.Fatalf("event not marked returned")
	}
	if got := f.stockOf(t, f.maker.ID); got != 10 {
		t.Fatalf("manufacturer stock after return: got %d, want 10", got)
	}
	if got := f.stockOf(t, f.dist.ID); got != 0 {
		t.Fatalf("distributor stock after return: got %d, want 0", got)
	}

	if _, _, err := f.svc.ReturnShipment(ctx, f.dist.ID, event.ID); !domain.IsKind(err, domain.KindAlreadyReversed) {
		t.Fatalf("expected already_reversed on second return, got %v", err)
	}
}

func TestReturnShipmentRequiresReceiver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createLot(t, 4)

	event, _, err := f.svc.Transfer(ctx, TransferInput{
		SourceID: f.maker.ID, DestinationID: f.dist.ID, ProductID: f.product.ID, Quantity: 2,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, _, err := f.svc.ReturnShipment(ctx, f.maker.ID, event.ID); !domain.IsKind(err, domain.KindForbidden) {
		t.Fatalf("expected forbidden for source org, got %v", err)
	}
	if _, _, err := f.svc.ReturnShipment(ctx, f.dist.ID, "missing"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestReturnShipmentOwnershipViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createLot(t, 10)

	event, _, err := f.svc.Transfer(ctx, TransferInput{
		SourceID: f.maker.ID, DestinationID: f.dist.ID, ProductID: f.product.ID, Quantity: 4,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	// Forward a single unit downstream; the whole return must now fail.
	if _, _, err := f.svc.Transfer(ctx, TransferInput{
		SourceID: f.dist.ID, DestinationID: f.hosp.ID, ProductID: f.product.ID, Quantity: 1,
	}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if _, _, err := f.svc.ReturnShipment(ctx, f.dist.ID, event.ID); !domain.IsKind(err, domain.KindOwnershipViolation) {
		t.Fatalf("expected ownership_violation, got %v", err)
	}
	// Nothing moved back.
	if got := f.stockOf(t, f.dist.ID); got != 3 {
		t.Fatalf("distributor stock mutated: got %d, want 3", got)
	}
	if got := f.stockOf(t, f.maker.ID); got != 6 {
		t.Fatalf("manufacturer stock mutated: got %d, want 6", got)
	}
}
