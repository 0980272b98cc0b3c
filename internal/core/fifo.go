package core

import (
	"sort"
	"time"

	"neocertify/pkg/domain"
)

// OrderUnitsFIFO sorts units oldest-first: by lot production date, then by the
// global allocation sequence. The input slice is not modified. The ordering is
// total — production dates tie only within a lot, where the sequence is unique
// — so repeated selection over the same ledger state is reproducible for
// audit.
func OrderUnitsFIFO(units []domain.Unit, producedOn func(lotID string) (time.Time, bool)) []domain.Unit {
	sorted := append([]domain.Unit(nil), units...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, iOK := producedOn(sorted[i].LotID)
		pj, jOK := producedOn(sorted[j].LotID)
		if iOK && jOK && !pi.Equal(pj) {
			return pi.Before(pj)
		}
		return sorted[i].Sequence < sorted[j].Sequence
	})
	return sorted
}

// selectUnits picks the next quantity units for an owner and product under the
// FIFO policy, optionally restricted to a single lot. It returns an
// insufficient-inventory error carrying the available count when the stock
// cannot cover the request.
func selectUnits(view domain.TransactionView, ownerID, productID string, lotID *string, quantity int) ([]domain.Unit, error) {
	available := view.InStockUnits(ownerID, productID)
	if lotID != nil {
		filtered := available[:0]
		for _, u := range available {
			if u.LotID == *lotID {
				filtered = append(filtered, u)
			}
		}
		available = filtered
	}
	if len(available) < quantity {
		return nil, domain.NewInsufficientInventory(productID, quantity, len(available))
	}
	ordered := OrderUnitsFIFO(available, func(id string) (time.Time, bool) {
		lot, ok := view.FindLot(id)
		return lot.ProducedOn, ok
	})
	return ordered[:quantity], nil
}

func unitCodes(units []domain.Unit) []string {
	codes := make([]string, len(units))
	for i, u := range units {
		codes[i] = u.Code
	}
	return codes
}
