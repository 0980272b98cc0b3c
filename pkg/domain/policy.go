package domain

// TransferPolicy is the injectable table of organization types each type may
// ship to. The transfer engine and the transfer_policy rule consult it; it is
// deliberately configuration, not code.
type TransferPolicy map[OrganizationType][]OrganizationType

// Allows reports whether the policy permits a shipment from one organization
// type to another.
func (p TransferPolicy) Allows(from, to OrganizationType) bool {
	for _, t := range p[from] {
		if t == to {
			return true
		}
	}
	return false
}

// DefaultTransferPolicy returns the stock downstream-only policy:
// manufacturers ship to distributors and hospitals, distributors ship to
// other distributors and hospitals, hospitals and admins ship to nobody.
func DefaultTransferPolicy() TransferPolicy {
	return TransferPolicy{
		OrgManufacturer: {OrgDistributor, OrgHospital},
		OrgDistributor:  {OrgDistributor, OrgHospital},
	}
}
