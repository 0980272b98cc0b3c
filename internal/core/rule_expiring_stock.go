package core

import (
	"context"
	"fmt"
	"time"

	"neocertify/pkg/domain"
)

// NewExpiringStockRule returns the warn-only rule flagging in-stock units
// whose lot expiry date has passed. Expired stock remains transferable for
// disposal routing; the warning surfaces it in every commit result.
func NewExpiringStockRule() domain.Rule {
	return expiringStockRule{now: func() time.Time { return time.Now().UTC() }}
}

// NewExpiringStockRuleAt constructs the rule with an explicit clock for tests.
func NewExpiringStockRuleAt(now func() time.Time) domain.Rule {
	return expiringStockRule{now: now}
}

type expiringStockRule struct {
	now func() time.Time
}

func (expiringStockRule) Name() string { return "expiring_stock" }

func (r expiringStockRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	now := r.now()
	expired := make(map[string]int)
	for _, unit := range view.ListUnits() {
		if unit.State != domain.UnitInStock {
			continue
		}
		lot, ok := view.FindLot(unit.LotID)
		if !ok || lot.ExpiresOn.After(now) {
			continue
		}
		expired[unit.LotID]++
	}

	res := domain.Result{}
	for lotID, count := range expired {
		lot, _ := view.FindLot(lotID)
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "expiring_stock",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("lot %s expired %s; %d units still in stock", lot.LotNumber, lot.ExpiresOn.Format("2006-01-02"), count),
			Entity:   domain.EntityLot,
			EntityID: lotID,
		})
	}
	return res, nil
}
