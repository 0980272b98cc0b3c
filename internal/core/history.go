package core

import (
	"context"
	"sort"
	"time"

	"neocertify/pkg/domain"
)

// HistoryKind labels a history feed entry.
type HistoryKind string

// History entry kinds. Reversals appear as their own entries timestamped at
// the reversal, alongside the original entry.
const (
	HistoryShipped  HistoryKind = "shipped"
	HistoryReceived HistoryKind = "received"
	HistoryTreated  HistoryKind = "treated"
	HistoryDisposed HistoryKind = "disposed"
	HistoryReturned HistoryKind = "returned"
	HistoryRecalled HistoryKind = "recalled"
)

// HistoryEntry is one row of an organization's event feed.
type HistoryEntry struct {
	Kind           HistoryKind `json:"kind"`
	EventID        string      `json:"event_id"`
	ProductID      string      `json:"product_id"`
	Quantity       int         `json:"quantity"`
	CounterpartyID string      `json:"counterparty_id,omitempty"`
	PatientID      string      `json:"patient_id,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// HistoryFilter restricts the feed by entry kind and date range. Zero values
// mean no restriction; From is inclusive, To exclusive.
type HistoryFilter struct {
	Kinds []HistoryKind
	From  time.Time
	To    time.Time
}

func (f HistoryFilter) matches(e HistoryEntry) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if e.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && e.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.OccurredAt.Before(f.To) {
		return false
	}
	return true
}

// PaginatedHistory is one page of the reverse-chronological feed.
type PaginatedHistory struct {
	Entries  []HistoryEntry `json:"entries"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int            `json:"total"`
}

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// History projects the organization's event feed from the transfer and
// consumption logs: every event where the organization was source,
// destination, or consumer, newest first. Read-only.
func (s *Service) History(ctx context.Context, orgID string, page, pageSize int, filter HistoryFilter) (PaginatedHistory, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	exists := false
	var entries []HistoryEntry
	err := s.view(ctx, "history", func(view domain.TransactionView) error {
		if _, ok := view.FindOrganization(orgID); !ok {
			return nil
		}
		exists = true
		entries = projectHistory(view, orgID)
		return nil
	})
	if err != nil {
		return PaginatedHistory{}, err
	}
	if !exists {
		return PaginatedHistory{}, domain.NewNotFound(domain.EntityOrganization, orgID)
	}

	filtered := entries[:0]
	for _, e := range entries {
		if filter.matches(e) {
			filtered = append(filtered, e)
		}
	}

	total := len(filtered)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return PaginatedHistory{
		Entries:  append([]HistoryEntry(nil), filtered[start:end]...),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// projectHistory synthesizes the full feed for one organization, sorted
// newest first with the event ID as a deterministic tiebreaker.
func projectHistory(view domain.TransactionView, orgID string) []HistoryEntry {
	var entries []HistoryEntry
	for _, e := range view.ListTransferEvents() {
		switch orgID {
		case e.SourceID:
			entries = append(entries, HistoryEntry{
				Kind: HistoryShipped, EventID: e.ID, ProductID: e.ProductID,
				Quantity: e.Quantity, CounterpartyID: e.DestinationID, OccurredAt: e.OccurredAt,
			})
		case e.DestinationID:
			entries = append(entries, HistoryEntry{
				Kind: HistoryReceived, EventID: e.ID, ProductID: e.ProductID,
				Quantity: e.Quantity, CounterpartyID: e.SourceID, OccurredAt: e.OccurredAt,
			})
		default:
			continue
		}
		if e.Returned() {
			counterparty := e.SourceID
			if orgID == e.SourceID {
				counterparty = e.DestinationID
			}
			entries = append(entries, HistoryEntry{
				Kind: HistoryReturned, EventID: e.ID, ProductID: e.ProductID,
				Quantity: e.Quantity, CounterpartyID: counterparty, OccurredAt: *e.ReturnedAt,
			})
		}
	}
	for _, e := range view.ListConsumptionEvents() {
		if e.OrganizationID != orgID {
			continue
		}
		entry := HistoryEntry{
			EventID: e.ID, ProductID: e.ProductID,
			Quantity: e.Quantity, OccurredAt: e.OccurredAt,
		}
		if e.Kind == domain.ConsumptionTreatment {
			entry.Kind = HistoryTreated
			if e.PatientID != nil {
				entry.PatientID = *e.PatientID
			}
		} else {
			entry.Kind = HistoryDisposed
		}
		entries = append(entries, entry)
		if e.Recalled() {
			entries = append(entries, HistoryEntry{
				Kind: HistoryRecalled, EventID: e.ID, ProductID: e.ProductID,
				Quantity: e.Quantity, PatientID: entry.PatientID, OccurredAt: *e.RecalledAt,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].OccurredAt.After(entries[j].OccurredAt)
		}
		if entries[i].EventID != entries[j].EventID {
			return entries[i].EventID > entries[j].EventID
		}
		return entries[i].Kind > entries[j].Kind
	})
	return entries
}
