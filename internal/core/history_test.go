package core

import (
	"context"
	"testing"
	"time"

	"neocertify/pkg/domain"
)

func TestHistoryFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	f.store.SetNowFunc(func() time.Time { return now })

	f.createLot(t, 10)
	now = now.Add(time.Hour)
	if _, _, err := f.svc.Transfer(ctx, TransferInput{
		SourceID: f.maker.ID, DestinationID: f.hosp.ID, ProductID: f.product.ID, Quantity: 5,
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	now = now.Add(time.Hour)
	treatment, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 2, PatientPhone: "010-1234-5678",
	})
	if err != nil {
		t.Fatalf("treatment: %v", err)
	}

	feed, err := f.svc.History(ctx, f.hosp.ID, 1, 20, HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if feed.Total != 2 || len(feed.Entries) != 2 {
		t.Fatalf("expected 2 entries, got total=%d len=%d", feed.Total, len(feed.Entries))
	}
	if feed.Entries[0].Kind != HistoryTreated || feed.Entries[1].Kind != HistoryReceived {
		t.Fatalf("expected newest-first treated then received, got %s, %s", feed.Entries[0].Kind, feed.Entries[1].Kind)
	}
	if feed.Entries[0].PatientID != *treatment.PatientID {
		t.Fatalf("treated entry missing patient: %+v", feed.Entries[0])
	}
	if feed.Entries[1].CounterpartyID != f.maker.ID {
		t.Fatalf("received entry counterparty: %+v", feed.Entries[1])
	}

	makerFeed, err := f.svc.History(ctx, f.maker.ID, 1, 20, HistoryFilter{})
	if err != nil {
		t.Fatalf("maker history: %v", err)
	}
	if makerFeed.Total != 1 || makerFeed.Entries[0].Kind != HistoryShipped {
		t.Fatalf("expected single shipped entry for manufacturer, got %+v", makerFeed.Entries)
	}
	if makerFeed.Entries[0].CounterpartyID != f.hosp.ID {
		t.Fatalf("shipped entry counterparty: %+v", makerFeed.Entries[0])
	}
}

func TestHistoryReversalMarkers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	f.store.SetNowFunc(func() time.Time { return now })

	f.createLot(t, 10)
	transfer, _, err := f.svc.Transfer(ctx, TransferInput{
		SourceID: f.maker.ID, DestinationID: f.hosp.ID, ProductID: f.product.ID, Quantity: 5,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	now = now.Add(time.Hour)
	treatment, _, err := f.svc.ConsumeForTreatment(ctx, TreatmentInput{
		HospitalID: f.hosp.ID, ProductID: f.product.ID, Quantity: 1, PatientPhone: "010-1234-5678",
	})
	if err != nil {
		t.Fatalf("treatment: %v", err)
	}
	now = now.Add(time.Hour)
	if _, _, err := f.svc.RecallTreatment(ctx, f.hosp.ID, treatment.ID); err != nil {
		t.Fatalf("recall: %v", err)
	}
	now = now.Add(time.Hour)
	if _, _, err := f.svc.ReturnShipment(ctx, f.hosp.ID, transfer.ID); err != nil {
		t.Fatalf("return: %v", err)
	}

	feed, err := f.svc.History(ctx, f.hosp.ID, 1, 20, HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	kinds := make([]HistoryKind, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		kinds = append(kinds, e.Kind)
	}
	want := []HistoryKind{HistoryReturned, HistoryRecalled, HistoryTreated, HistoryReceived}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("position %d: got %s, want %s (%v)", i, kinds[i], want[i], kinds)
		}
	}
	// The reversal markers carry their own timestamps, not the originals'.
	if !feed.Entries[1].OccurredAt.After(feed.Entries[2].OccurredAt) {
		t.Fatalf("recalled marker should postdate the treatment entry")
	}

	// The source sees the return too.
	makerFeed, err := f.svc.History(ctx, f.maker.ID, 1, 20, HistoryFilter{})
	if err != nil {
		t.Fatalf("maker history: %v", err)
	}
	if makerFeed.Total != 2 || makerFeed.Entries[0].Kind != HistoryReturned || makerFeed.Entries[1].Kind != HistoryShipped {
		t.Fatalf("manufacturer feed: %+v", makerFeed.Entries)
	}
}

func TestHistoryPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	f.store.SetNowFunc(func() time.Time { return now })
	f.createLot(t, 10)
	for i := 0; i < 5; i++ {
		now = now.Add(time.Hour)
		if _, _, err := f.svc.Transfer(ctx, TransferInput{
			SourceID: f.maker.ID, DestinationID: f.dist.ID, ProductID: f.product.ID, Quantity: 1,
		}); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}

	first, err := f.svc.History(ctx, f.maker.ID, 1, 2, HistoryFilter{})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if first.Total != 5 || len(first.Entries) != 2 || first.Page != 1 || first.PageSize != 2 {
		t.Fatalf("page 1: %+v", first)
	}
	third, err := f.svc.History(ctx, f.maker.ID, 3, 2, HistoryFilter{})
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(third.Entries) != 1 {
		t.Fatalf("page 3 should hold the remainder, got %d", len(third.Entries))
	}
	if !first.Entries[0].OccurredAt.After(third.Entries[0].OccurredAt) {
		t.Fatalf("pages not in newest-first order")
	}
	beyond, err := f.svc.History(ctx, f.maker.ID, 4, 2, HistoryFilter{})
	if err != nil {
		t.Fatalf("page 4: %v", err)
	}
	if len(beyond.Entries) != 0 || beyond.Total != 5 {
		t.Fatalf("page past the end: %+v", beyond)
	}

	defaulted, err := f.svc.History(ctx, f.maker.ID, 0, 0, HistoryFilter{})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if defaulted.Page != 1 || defaulted.PageSize != 20 {
		t.Fatalf("expected page 1 size 20 defaults, got %+v", defaulted)
	}
	capped, err := f.svc.History(ctx, f.maker.ID, 1, 500, HistoryFilter{})
	if err != nil {
		t.Fatalf("capped: %v", err)
	}
	if capped.PageSize != 100 {
		t.Fatalf("expected page size capped at 100, got %d", capped.PageSize)
	}
}

func TestHistoryFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 4, 8, 0, 0, 0, time.UTC)
	f.store.SetNowFunc(func() time.Time { return now })
	f.createLot(t, 10)

	if _, _, err := f.svc.Transfer(ctx, TransferInput{
		SourceID: f.maker.ID, DestinationID: f.dist.ID, ProductID: f.product.ID, Quantity: 2,
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	cutoff := now.Add(time.Hour)
	now = cutoff
	if _, _, err := f.svc.ConsumeForDisposal(ctx, DisposalInput{
		OrganizationID: f.maker.ID, ProductID: f.product.ID, Quantity: 1, Reason: domain.DisposalExpired,
	}); err != nil {
		t.Fatalf("disposal: %v", err)
	}

	byKind, err := f.svc.History(ctx, f.maker.ID, 1, 20, HistoryFilter{Kinds: []HistoryKind{HistoryDisposed}})
	if err != nil {
		t.Fatalf("kind filter: %v", err)
	}
	if byKind.Total != 1 || byKind.Entries[0].Kind != HistoryDisposed {
		t.Fatalf("kind filter: %+v", byKind.Entries)
	}

	// From is inclusive: the disposal at the cutoff stays in.
	fromFiltered, err := f.svc.History(ctx, f.maker.ID, 1, 20, HistoryFilter{From: cutoff})
	if err != nil {
		t.Fatalf("from filter: %v", err)
	}
	if fromFiltered.Total != 1 || fromFiltered.Entries[0].Kind != HistoryDisposed {
		t.Fatalf("from filter: %+v", fromFiltered.Entries)
	}

	// To is exclusive: the disposal at the cutoff drops out.
	toFiltered, err := f.svc.History(ctx, f.maker.ID, 1, 20, HistoryFilter{To: cutoff})
	if err != nil {
		t.Fatalf("to filter: %v", err)
	}
	if toFiltered.Total != 1 || toFiltered.Entries[0].Kind != HistoryShipped {
		t.Fatalf("to filter: %+v", toFiltered.Entries)
	}
}

func TestHistoryMissingOrganization(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.History(context.Background(), "missing", 1, 20, HistoryFilter{}); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
