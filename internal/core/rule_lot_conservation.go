package core

import (
	"context"
	"fmt"

	"neocertify/pkg/domain"
)

// NewLotConservationRule returns the in-transaction rule enforcing that the
// units of every lot, across all custody states, always sum to the lot's
// produced quantity. Any mismatch means units were created or destroyed
// outside the allocator and blocks the commit.
func NewLotConservationRule() domain.Rule {
	return lotConservationRule{}
}

type lotConservationRule struct{}

func (lotConservationRule) Name() string { return "lot_conservation" }

func (lotConservationRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	counts := make(map[string]int)
	for _, unit := range view.ListUnits() {
		counts[unit.LotID]++
	}

	res := domain.Result{}
	for _, lot := range view.ListLots() {
		if counts[lot.ID] != lot.Quantity {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lot_conservation",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("lot %s (%s) holds %d units, produced %d", lot.LotNumber, lot.ID, counts[lot.ID], lot.Quantity),
				Entity:   domain.EntityLot,
				EntityID: lot.ID,
			})
		}
	}
	return res, nil
}
