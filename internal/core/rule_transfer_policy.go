package core

import (
	"context"
	"fmt"

	"neocertify/pkg/domain"
)

// RuleTransferPolicy names the allowed-pairs shipment rule. The service maps
// its blocking violations to forbidden-kind errors.
const RuleTransferPolicy = "transfer_policy"

// NewTransferPolicyRule returns the rule validating every shipment recorded in
// the transaction against the allowed-pairs policy. Returns do not create new
// transfer events, so reversals pass untouched.
func NewTransferPolicyRule(policy domain.TransferPolicy) domain.Rule {
	return transferPolicyRule{policy: policy}
}

type transferPolicyRule struct {
	policy domain.TransferPolicy
}

func (transferPolicyRule) Name() string { return RuleTransferPolicy }

func (r transferPolicyRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityTransferEvent || change.Action != domain.ActionCreate {
			continue
		}
		event, ok := change.After.(domain.TransferEvent)
		if !ok {
			continue
		}
		source, okSrc := view.FindOrganization(event.SourceID)
		dest, okDst := view.FindOrganization(event.DestinationID)
		if !okSrc || !okDst {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     RuleTransferPolicy,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("transfer %s references unknown organization", event.ID),
				Entity:   domain.EntityTransferEvent,
				EntityID: event.ID,
			})
			continue
		}
		if !r.policy.Allows(source.Type, dest.Type) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     RuleTransferPolicy,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("shipment from %s to %s not permitted", source.Type, dest.Type),
				Entity:   domain.EntityTransferEvent,
				EntityID: event.ID,
			})
		}
	}
	return res, nil
}
