package core

import "neocertify/pkg/domain"

type (
	EntityType         = domain.EntityType
	Organization       = domain.Organization
	OrganizationType   = domain.OrganizationType
	OrganizationStatus = domain.OrganizationStatus
	CodeSettings       = domain.CodeSettings
	Product            = domain.Product
	Lot                = domain.Lot
	Unit               = domain.Unit
	UnitState          = domain.UnitState
	Patient            = domain.Patient
	TransferEvent      = domain.TransferEvent
	ConsumptionEvent   = domain.ConsumptionEvent
	TransferPolicy     = domain.TransferPolicy
	Change             = domain.Change
	Action             = domain.Action
	Severity           = domain.Severity
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	OrgManufacturer = domain.OrgManufacturer
	OrgDistributor  = domain.OrgDistributor
	OrgHospital     = domain.OrgHospital
	OrgAdmin        = domain.OrgAdmin
)

const (
	OrgPending  = domain.OrgPending
	OrgActive   = domain.OrgActive
	OrgInactive = domain.OrgInactive
	OrgDeleted  = domain.OrgDeleted
)

const (
	UnitInStock  = domain.UnitInStock
	UnitConsumed = domain.UnitConsumed
	UnitDisposed = domain.UnitDisposed
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
)
