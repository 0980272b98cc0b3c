package domain

import (
	"context"
	"time"
)

// Transaction exposes the ledger operations that a persistence implementation
// must support within an atomic scope. Now returns the single clock reading
// taken at transaction start; every time comparison inside the transaction
// uses it, so eligibility checks and mutations share one timestamp.
type Transaction interface {
	Snapshot() TransactionView
	Now() time.Time
	NextUnitSequence() uint64
	NextLotSequence(manufacturerID string) uint64
	CreateOrganization(Organization) (Organization, error)
	UpdateOrganization(id string, mutator func(*Organization) error) (Organization, error)
	CreateProduct(Product) (Product, error)
	UpdateProduct(id string, mutator func(*Product) error) (Product, error)
	CreateLot(Lot) (Lot, error)
	CreateUnit(Unit) (Unit, error)
	UpdateUnit(code string, mutator func(*Unit) error) (Unit, error)
	CreatePatient(Patient) (Patient, error)
	CreateTransferEvent(TransferEvent) (TransferEvent, error)
	UpdateTransferEvent(id string, mutator func(*TransferEvent) error) (TransferEvent, error)
	CreateConsumptionEvent(ConsumptionEvent) (ConsumptionEvent, error)
	UpdateConsumptionEvent(id string, mutator func(*ConsumptionEvent) error) (ConsumptionEvent, error)
}

// TransactionView provides read-only access to snapshot data for rules,
// projections, and in-transaction eligibility checks.
type TransactionView interface {
	RuleView
	// InStockUnits returns the units of productID currently owned by ownerID
	// in state in_stock, in unspecified order. Selection ordering is applied
	// by the caller so it stays a pure, testable function.
	InStockUnits(ownerID, productID string) []Unit
	ListPatients() []Patient
	FindPatient(id string) (Patient, bool)
	FindPatientByPhone(hospitalID, phone string) (Patient, bool)
	ListTransferEvents() []TransferEvent
	FindTransferEvent(id string) (TransferEvent, bool)
	ListConsumptionEvents() []ConsumptionEvent
	FindConsumptionEvent(id string) (ConsumptionEvent, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
