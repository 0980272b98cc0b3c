// Package domain defines the core persistent entities, value types, error
// taxonomy, and rule evaluation primitives of the neocertify supply-chain
// ledger.
package domain

import "time"

// EntityType identifies the type of record stored in the ledger.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityOrganization identifies a supply-chain party record.
	EntityOrganization EntityType = "organization"
	// EntityProduct identifies a catalog entry owned by a manufacturer.
	EntityProduct EntityType = "product"
	// EntityLot identifies a production batch record.
	EntityLot EntityType = "lot"
	// EntityUnit identifies an individually traceable unit record.
	EntityUnit EntityType = "unit"
	// EntityPatient identifies a hospital-scoped patient record.
	EntityPatient EntityType = "patient"
	// EntityTransferEvent identifies a shipment log entry.
	EntityTransferEvent EntityType = "transfer_event"
	// EntityConsumptionEvent identifies a treatment or disposal log entry.
	EntityConsumptionEvent EntityType = "consumption_event"
)

// OrganizationType classifies a party's role in the supply chain.
type OrganizationType string

// Canonical organization types. Admin organizations never hold inventory;
// they approve registrations and drive out-of-band overrides.
const (
	OrgManufacturer OrganizationType = "manufacturer"
	OrgDistributor  OrganizationType = "distributor"
	OrgHospital     OrganizationType = "hospital"
	OrgAdmin        OrganizationType = "admin"
)

// OrganizationStatus tracks the registration lifecycle of a party.
type OrganizationStatus string

// Registration lifecycle states. Only active organizations may produce,
// ship, or consume units.
const (
	OrgPending  OrganizationStatus = "pending"
	OrgActive   OrganizationStatus = "active"
	OrgInactive OrganizationStatus = "inactive"
	OrgDeleted  OrganizationStatus = "deleted"
)

// UnitState enumerates the custody states of a traceable unit.
type UnitState string

// Unit custody states. Transitions are monotonic except for the recall and
// return reversals, which restore consumed or shipped units to in_stock.
const (
	UnitInStock  UnitState = "in_stock"
	UnitConsumed UnitState = "consumed"
	UnitDisposed UnitState = "disposed"
)

// ConsumptionKind distinguishes the two terminal consumption events.
type ConsumptionKind string

// Terminal consumption kinds recorded on ConsumptionEvent.
const (
	ConsumptionTreatment ConsumptionKind = "treatment"
	ConsumptionDisposal  ConsumptionKind = "disposal"
)

// DisposalReason encodes why units were disposed.
type DisposalReason string

// Canonical disposal reason codes.
const (
	DisposalTreatmentLoss DisposalReason = "treatment_loss"
	DisposalExpired       DisposalReason = "expired"
	DisposalDefective     DisposalReason = "defective"
	DisposalOther         DisposalReason = "other"
)

// ValidDisposalReason reports whether the reason is a known code.
func ValidDisposalReason(r DisposalReason) bool {
	switch r {
	case DisposalTreatmentLoss, DisposalExpired, DisposalDefective, DisposalOther:
		return true
	}
	return false
}

// LotDateFormat selects how the production date is rendered inside a lot number.
type LotDateFormat string

// Supported lot number date segments.
const (
	DateFormatYYMM   LotDateFormat = "YYMM"
	DateFormatYYYYMM LotDateFormat = "YYYYMM"
	DateFormatYYMMDD LotDateFormat = "YYMMDD"
)

// ValidLotDateFormat reports whether the format is a known layout.
func ValidLotDateFormat(f LotDateFormat) bool {
	switch f {
	case DateFormatYYMM, DateFormatYYYYMM, DateFormatYYMMDD:
		return true
	}
	return false
}

// Base contains common fields for all ledger records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CodeSettings holds a manufacturer's lot numbering and expiry configuration.
type CodeSettings struct {
	LotPrefix      string        `json:"lot_prefix"`
	DateFormat     LotDateFormat `json:"date_format"`
	SequenceDigits int           `json:"sequence_digits"`
	ExpiryMonths   int           `json:"expiry_months"`
}

// Organization represents a party in the supply chain.
type Organization struct {
	Base
	Name               string             `json:"name"`
	Type               OrganizationType   `json:"type"`
	Status             OrganizationStatus `json:"status"`
	BusinessNumber     string             `json:"business_number"`
	LicenseDocumentKey *string            `json:"license_document_key,omitempty"`
	CodeSettings       *CodeSettings      `json:"code_settings,omitempty"`
}

// ParticipatesInSupplyChain reports whether the organization may hold inventory.
func (o Organization) ParticipatesInSupplyChain() bool {
	return o.Type == OrgManufacturer || o.Type == OrgDistributor || o.Type == OrgHospital
}

// Product is a catalog entry owned by exactly one manufacturer for its lifetime.
type Product struct {
	Base
	ManufacturerID string `json:"manufacturer_id"`
	ModelName      string `json:"model_name"`
	UDI            string `json:"udi"`
	Active         bool   `json:"active"`
}

// Lot is a production batch of a product. Created atomically with its full
// set of units and immutable thereafter.
type Lot struct {
	Base
	ProductID      string    `json:"product_id"`
	ManufacturerID string    `json:"manufacturer_id"`
	LotNumber      string    `json:"lot_number"`
	Quantity       int       `json:"quantity"`
	ProducedOn     time.Time `json:"produced_on"`
	ExpiresOn      time.Time `json:"expires_on"`
}

// Unit is the atomic traceable entity, identified by a virtual code unique
// system-wide. Exactly one owner at any time; the global Sequence records
// allocation order and is the FIFO tiebreaker within a lot.
type Unit struct {
	Code      string    `json:"code"`
	LotID     string    `json:"lot_id"`
	ProductID string    `json:"product_id"`
	OwnerID   string    `json:"owner_id"`
	State     UnitState `json:"state"`
	Sequence  uint64    `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patient is identified by normalized phone number within a hospital's scope.
// Created implicitly on first treatment; never deleted.
type Patient struct {
	Base
	HospitalID string `json:"hospital_id"`
	Phone      string `json:"phone"`
}

// TransferEvent is an immutable log entry recording movement of a specific
// set of units between organizations. ReturnedAt is set when the receiver
// later returns the shipment.
type TransferEvent struct {
	Base
	SourceID      string     `json:"source_id"`
	DestinationID string     `json:"destination_id"`
	ProductID     string     `json:"product_id"`
	LotID         *string    `json:"lot_id,omitempty"`
	UnitCodes     []string   `json:"unit_codes"`
	Quantity      int        `json:"quantity"`
	OccurredAt    time.Time  `json:"occurred_at"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
}

// Returned reports whether the shipment has been returned to its source.
func (e TransferEvent) Returned() bool { return e.ReturnedAt != nil }

// ConsumptionEvent is an immutable log entry recording that a set of units
// was consumed by a terminal event. RecalledAt is set when a treatment is
// recalled within the recall window.
type ConsumptionEvent struct {
	Base
	OrganizationID string          `json:"organization_id"`
	ProductID      string          `json:"product_id"`
	Kind           ConsumptionKind `json:"kind"`
	UnitCodes      []string        `json:"unit_codes"`
	Quantity       int             `json:"quantity"`
	PatientID      *string         `json:"patient_id,omitempty"`
	TreatedOn      *time.Time      `json:"treated_on,omitempty"`
	Reason         *DisposalReason `json:"reason,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
	RecalledAt     *time.Time      `json:"recalled_at,omitempty"`
}

// Recalled reports whether the consumption has been reversed.
func (e ConsumptionEvent) Recalled() bool { return e.RecalledAt != nil }

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
