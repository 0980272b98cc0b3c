// Package memory provides an in-memory implementation of the ledger
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"neocertify/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Organization aliases domain.Organization for in-memory persistence operations.
	Organization = domain.Organization
	// Product aliases domain.Product.
	Product = domain.Product
	// Lot aliases domain.Lot.
	Lot = domain.Lot
	// Unit aliases domain.Unit.
	Unit = domain.Unit
	// Patient aliases domain.Patient.
	Patient = domain.Patient
	// TransferEvent aliases domain.TransferEvent.
	TransferEvent = domain.TransferEvent
	// ConsumptionEvent aliases domain.ConsumptionEvent.
	ConsumptionEvent = domain.ConsumptionEvent
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	organizations map[string]Organization
	products      map[string]Product
	lots          map[string]Lot
	units         map[string]Unit
	patients      map[string]Patient
	transfers     map[string]TransferEvent
	consumptions  map[string]ConsumptionEvent
	unitSeq       uint64
	lotSeqs       map[string]uint64
}

// Snapshot captures a point-in-time clone of the store state, including the
// allocation sequences so reopened stores never reissue a virtual code.
type Snapshot struct {
	Organizations map[string]Organization     `json:"organizations"`
	Products      map[string]Product          `json:"products"`
	Lots          map[string]Lot              `json:"lots"`
	Units         map[string]Unit             `json:"units"`
	Patients      map[string]Patient          `json:"patients"`
	Transfers     map[string]TransferEvent    `json:"transfers"`
	Consumptions  map[string]ConsumptionEvent `json:"consumptions"`
	UnitSequence  uint64                      `json:"unit_sequence"`
	LotSequences  map[string]uint64           `json:"lot_sequences"`
}

func newMemoryState() memoryState {
	return memoryState{
		organizations: make(map[string]Organization),
		products:      make(map[string]Product),
		lots:          make(map[string]Lot),
		units:         make(map[string]Unit),
		patients:      make(map[string]Patient),
		transfers:     make(map[string]TransferEvent),
		consumptions:  make(map[string]ConsumptionEvent),
		lotSeqs:       make(map[string]uint64),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Organizations: make(map[string]Organization, len(state.organizations)),
		Products:      make(map[string]Product, len(state.products)),
		Lots:          make(map[string]Lot, len(state.lots)),
		Units:         make(map[string]Unit, len(state.units)),
		Patients:      make(map[string]Patient, len(state.patients)),
		Transfers:     make(map[string]TransferEvent, len(state.transfers)),
		Consumptions:  make(map[string]ConsumptionEvent, len(state.consumptions)),
		UnitSequence:  state.unitSeq,
		LotSequences:  make(map[string]uint64, len(state.lotSeqs)),
	}
	for k, v := range state.organizations {
		s.Organizations[k] = cloneOrganization(v)
	}
	for k, v := range state.products {
		s.Products[k] = v
	}
	for k, v := range state.lots {
		s.Lots[k] = v
	}
	for k, v := range state.units {
		s.Units[k] = v
	}
	for k, v := range state.patients {
		s.Patients[k] = v
	}
	for k, v := range state.transfers {
		s.Transfers[k] = cloneTransferEvent(v)
	}
	for k, v := range state.consumptions {
		s.Consumptions[k] = cloneConsumptionEvent(v)
	}
	for k, v := range state.lotSeqs {
		s.LotSequences[k] = v
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Organizations {
		state.organizations[k] = cloneOrganization(v)
	}
	for k, v := range s.Products {
		state.products[k] = v
	}
	for k, v := range s.Lots {
		state.lots[k] = v
	}
	for k, v := range s.Units {
		state.units[k] = v
	}
	for k, v := range s.Patients {
		state.patients[k] = v
	}
	for k, v := range s.Transfers {
		state.transfers[k] = cloneTransferEvent(v)
	}
	for k, v := range s.Consumptions {
		state.consumptions[k] = cloneConsumptionEvent(v)
	}
	state.unitSeq = s.UnitSequence
	for k, v := range s.LotSequences {
		state.lotSeqs[k] = v
	}
	return state
}

// migrateSnapshot repairs snapshots written by older store versions: nil maps
// are initialized and the sequence counters are raised to cover any unit or
// lot already present, so reopening a snapshot can never reissue a code.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Organizations == nil {
		snapshot.Organizations = map[string]Organization{}
	}
	if snapshot.Products == nil {
		snapshot.Products = map[string]Product{}
	}
	if snapshot.Lots == nil {
		snapshot.Lots = map[string]Lot{}
	}
	if snapshot.Units == nil {
		snapshot.Units = map[string]Unit{}
	}
	if snapshot.Patients == nil {
		snapshot.Patients = map[string]Patient{}
	}
	if snapshot.Transfers == nil {
		snapshot.Transfers = map[string]TransferEvent{}
	}
	if snapshot.Consumptions == nil {
		snapshot.Consumptions = map[string]ConsumptionEvent{}
	}
	if snapshot.LotSequences == nil {
		snapshot.LotSequences = map[string]uint64{}
	}
	for _, unit := range snapshot.Units {
		if unit.Sequence > snapshot.UnitSequence {
			snapshot.UnitSequence = unit.Sequence
		}
	}
	perManufacturer := make(map[string]uint64)
	for _, lot := range snapshot.Lots {
		perManufacturer[lot.ManufacturerID]++
	}
	for id, count := range perManufacturer {
		if snapshot.LotSequences[id] < count {
			snapshot.LotSequences[id] = count
		}
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.organizations {
		cloned.organizations[k] = cloneOrganization(v)
	}
	for k, v := range s.products {
		cloned.products[k] = v
	}
	for k, v := range s.lots {
		cloned.lots[k] = v
	}
	for k, v := range s.units {
		cloned.units[k] = v
	}
	for k, v := range s.patients {
		cloned.patients[k] = v
	}
	for k, v := range s.transfers {
		cloned.transfers[k] = cloneTransferEvent(v)
	}
	for k, v := range s.consumptions {
		cloned.consumptions[k] = cloneConsumptionEvent(v)
	}
	cloned.unitSeq = s.unitSeq
	for k, v := range s.lotSeqs {
		cloned.lotSeqs[k] = v
	}
	return cloned
}

func cloneOrganization(o Organization) Organization {
	cp := o
	if o.LicenseDocumentKey != nil {
		k := *o.LicenseDocumentKey
		cp.LicenseDocumentKey = &k
	}
	if o.CodeSettings != nil {
		cs := *o.CodeSettings
		cp.CodeSettings = &cs
	}
	return cp
}

func cloneTransferEvent(e TransferEvent) TransferEvent {
	cp := e
	cp.UnitCodes = append([]string(nil), e.UnitCodes...)
	if e.LotID != nil {
		id := *e.LotID
		cp.LotID = &id
	}
	if e.ReturnedAt != nil {
		t := *e.ReturnedAt
		cp.ReturnedAt = &t
	}
	return cp
}

func cloneConsumptionEvent(e ConsumptionEvent) ConsumptionEvent {
	cp := e
	cp.UnitCodes = append([]string(nil), e.UnitCodes...)
	if e.PatientID != nil {
		id := *e.PatientID
		cp.PatientID = &id
	}
	if e.TreatedOn != nil {
		t := *e.TreatedOn
		cp.TreatedOn = &t
	}
	if e.Reason != nil {
		r := *e.Reason
		cp.Reason = &r
	}
	if e.RecalledAt != nil {
		t := *e.RecalledAt
		cp.RecalledAt = &t
	}
	return cp
}

// Store provides an in-memory transactional store for the ledger. Transactions
// mutate a clone of the state; the clone replaces the live state only after
// every registered rule passes, so a failed transaction has no effect.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc replaces the time provider. Intended for tests that need a
// deterministic clock; every transaction reads the provider exactly once.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to
// rules and projections.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListOrganizations returns all organizations within the snapshot.
func (v transactionView) ListOrganizations() []Organization {
	out := make([]Organization, 0, len(v.state.organizations))
	for _, o := range v.state.organizations {
		out = append(out, cloneOrganization(o))
	}
	return out
}

// FindOrganization retrieves an organization by ID from the snapshot.
func (v transactionView) FindOrganization(id string) (Organization, bool) {
	o, ok := v.state.organizations[id]
	if !ok {
		return Organization{}, false
	}
	return cloneOrganization(o), true
}

// ListProducts returns all products in the snapshot.
func (v transactionView) ListProducts() []Product {
	out := make([]Product, 0, len(v.state.products))
	for _, p := range v.state.products {
		out = append(out, p)
	}
	return out
}

// FindProduct retrieves a product by ID from the snapshot.
func (v transactionView) FindProduct(id string) (Product, bool) {
	p, ok := v.state.products[id]
	return p, ok
}

// ListLots returns all lots in the snapshot.
func (v transactionView) ListLots() []Lot {
	out := make([]Lot, 0, len(v.state.lots))
	for _, l := range v.state.lots {
		out = append(out, l)
	}
	return out
}

// FindLot retrieves a lot by ID from the snapshot.
func (v transactionView) FindLot(id string) (Lot, bool) {
	l, ok := v.state.lots[id]
	return l, ok
}

// ListUnits returns all units in the snapshot.
func (v transactionView) ListUnits() []Unit {
	out := make([]Unit, 0, len(v.state.units))
	for _, u := range v.state.units {
		out = append(out, u)
	}
	return out
}

// FindUnit retrieves a unit by virtual code from the snapshot.
func (v transactionView) FindUnit(code string) (Unit, bool) {
	u, ok := v.state.units[code]
	return u, ok
}

// InStockUnits returns the in-stock units of a product owned by an organization.
func (v transactionView) InStockUnits(ownerID, productID string) []Unit {
	var out []Unit
	for _, u := range v.state.units {
		if u.OwnerID == ownerID && u.ProductID == productID && u.State == domain.UnitInStock {
			out = append(out, u)
		}
	}
	return out
}

// ListPatients returns all patients in the snapshot.
func (v transactionView) ListPatients() []Patient {
	out := make([]Patient, 0, len(v.state.patients))
	for _, p := range v.state.patients {
		out = append(out, p)
	}
	return out
}

// FindPatient retrieves a patient by ID from the snapshot.
func (v transactionView) FindPatient(id string) (Patient, bool) {
	p, ok := v.state.patients[id]
	return p, ok
}

// FindPatientByPhone retrieves a patient by normalized phone within a hospital's scope.
func (v transactionView) FindPatientByPhone(hospitalID, phone string) (Patient, bool) {
	for _, p := range v.state.patients {
		if p.HospitalID == hospitalID && p.Phone == phone {
			return p, true
		}
	}
	return Patient{}, false
}

// ListTransferEvents returns all transfer events in the snapshot.
func (v transactionView) ListTransferEvents() []TransferEvent {
	out := make([]TransferEvent, 0, len(v.state.transfers))
	for _, e := range v.state.transfers {
		out = append(out, cloneTransferEvent(e))
	}
	return out
}

// FindTransferEvent retrieves a transfer event by ID from the snapshot.
func (v transactionView) FindTransferEvent(id string) (TransferEvent, bool) {
	e, ok := v.state.transfers[id]
	if !ok {
		return TransferEvent{}, false
	}
	return cloneTransferEvent(e), true
}

// ListConsumptionEvents returns all consumption events in the snapshot.
func (v transactionView) ListConsumptionEvents() []ConsumptionEvent {
	out := make([]ConsumptionEvent, 0, len(v.state.consumptions))
	for _, e := range v.state.consumptions {
		out = append(out, cloneConsumptionEvent(e))
	}
	return out
}

// FindConsumptionEvent retrieves a consumption event by ID from the snapshot.
func (v transactionView) FindConsumptionEvent(id string) (ConsumptionEvent, bool) {
	e, ok := v.state.consumptions[id]
	if !ok {
		return ConsumptionEvent{}, false
	}
	return cloneConsumptionEvent(e), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Now returns the clock reading taken at transaction start.
func (tx *transaction) Now() time.Time {
	return tx.now
}

// NextUnitSequence draws the next value from the global virtual-code sequence.
// Draws commit with the transaction; a rolled-back transaction releases them.
func (tx *transaction) NextUnitSequence() uint64 {
	tx.state.unitSeq++
	return tx.state.unitSeq
}

// NextLotSequence draws the next per-manufacturer lot sequence value.
func (tx *transaction) NextLotSequence(manufacturerID string) uint64 {
	tx.state.lotSeqs[manufacturerID]++
	return tx.state.lotSeqs[manufacturerID]
}

// CreateOrganization stores a new organization within the transaction.
func (tx *transaction) CreateOrganization(o Organization) (Organization, error) {
	if o.ID == "" {
		o.ID = tx.store.newID()
	}
	if _, exists := tx.state.organizations[o.ID]; exists {
		return Organization{}, fmt.Errorf("organization %q already exists", o.ID)
	}
	o.CreatedAt = tx.now
	o.UpdatedAt = tx.now
	tx.state.organizations[o.ID] = cloneOrganization(o)
	tx.recordChange(Change{Entity: domain.EntityOrganization, Action: domain.ActionCreate, After: cloneOrganization(o)})
	return cloneOrganization(o), nil
}

// UpdateOrganization mutates an organization using the provided mutator function.
func (tx *transaction) UpdateOrganization(id string, mutator func(*Organization) error) (Organization, error) {
	current, ok := tx.state.organizations[id]
	if !ok {
		return Organization{}, fmt.Errorf("organization %q not found", id)
	}
	before := cloneOrganization(current)
	if err := mutator(&current); err != nil {
		return Organization{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.organizations[id] = cloneOrganization(current)
	tx.recordChange(Change{Entity: domain.EntityOrganization, Action: domain.ActionUpdate, Before: before, After: cloneOrganization(current)})
	return cloneOrganization(current), nil
}

// CreateProduct stores a new product within the transaction.
func (tx *transaction) CreateProduct(p Product) (Product, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.products[p.ID]; exists {
		return Product{}, fmt.Errorf("product %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.products[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionCreate, After: p})
	return p, nil
}

// UpdateProduct mutates a product using the provided mutator function.
func (tx *transaction) UpdateProduct(id string, mutator func(*Product) error) (Product, error) {
	current, ok := tx.state.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Product{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.products[id] = current
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateLot stores a new lot within the transaction.
func (tx *transaction) CreateLot(l Lot) (Lot, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.lots[l.ID]; exists {
		return Lot{}, fmt.Errorf("lot %q already exists", l.ID)
	}
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.lots[l.ID] = l
	tx.recordChange(Change{Entity: domain.EntityLot, Action: domain.ActionCreate, After: l})
	return l, nil
}

// CreateUnit stores a new unit within the transaction. The caller assigns the
// virtual code; units are keyed by code and never receive generated IDs.
func (tx *transaction) CreateUnit(u Unit) (Unit, error) {
	if u.Code == "" {
		return Unit{}, fmt.Errorf("unit code required")
	}
	if _, exists := tx.state.units[u.Code]; exists {
		return Unit{}, fmt.Errorf("unit %q already exists", u.Code)
	}
	u.CreatedAt = tx.now
	u.UpdatedAt = tx.now
	tx.state.units[u.Code] = u
	tx.recordChange(Change{Entity: domain.EntityUnit, Action: domain.ActionCreate, After: u})
	return u, nil
}

// UpdateUnit mutates a unit using the provided mutator function.
func (tx *transaction) UpdateUnit(code string, mutator func(*Unit) error) (Unit, error) {
	current, ok := tx.state.units[code]
	if !ok {
		return Unit{}, fmt.Errorf("unit %q not found", code)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Unit{}, err
	}
	current.Code = code
	current.UpdatedAt = tx.now
	tx.state.units[code] = current
	tx.recordChange(Change{Entity: domain.EntityUnit, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreatePatient stores a new patient within the transaction.
func (tx *transaction) CreatePatient(p Patient) (Patient, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.patients[p.ID]; exists {
		return Patient{}, fmt.Errorf("patient %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.patients[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityPatient, Action: domain.ActionCreate, After: p})
	return p, nil
}

// CreateTransferEvent appends a shipment log entry within the transaction.
func (tx *transaction) CreateTransferEvent(e TransferEvent) (TransferEvent, error) {
	if e.ID == "" {
		e.ID = tx.store.newID()
	}
	if _, exists := tx.state.transfers[e.ID]; exists {
		return TransferEvent{}, fmt.Errorf("transfer event %q already exists", e.ID)
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	tx.state.transfers[e.ID] = cloneTransferEvent(e)
	tx.recordChange(Change{Entity: domain.EntityTransferEvent, Action: domain.ActionCreate, After: cloneTransferEvent(e)})
	return cloneTransferEvent(e), nil
}

// UpdateTransferEvent mutates a transfer event (reversal markers only).
func (tx *transaction) UpdateTransferEvent(id string, mutator func(*TransferEvent) error) (TransferEvent, error) {
	current, ok := tx.state.transfers[id]
	if !ok {
		return TransferEvent{}, fmt.Errorf("transfer event %q not found", id)
	}
	before := cloneTransferEvent(current)
	if err := mutator(&current); err != nil {
		return TransferEvent{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.transfers[id] = cloneTransferEvent(current)
	tx.recordChange(Change{Entity: domain.EntityTransferEvent, Action: domain.ActionUpdate, Before: before, After: cloneTransferEvent(current)})
	return cloneTransferEvent(current), nil
}

// CreateConsumptionEvent appends a consumption log entry within the transaction.
func (tx *transaction) CreateConsumptionEvent(e ConsumptionEvent) (ConsumptionEvent, error) {
	if e.ID == "" {
		e.ID = tx.store.newID()
	}
	if _, exists := tx.state.consumptions[e.ID]; exists {
		return ConsumptionEvent{}, fmt.Errorf("consumption event %q already exists", e.ID)
	}
	e.CreatedAt = tx.now
	e.UpdatedAt = tx.now
	tx.state.consumptions[e.ID] = cloneConsumptionEvent(e)
	tx.recordChange(Change{Entity: domain.EntityConsumptionEvent, Action: domain.ActionCreate, After: cloneConsumptionEvent(e)})
	return cloneConsumptionEvent(e), nil
}

// UpdateConsumptionEvent mutates a consumption event (reversal markers only).
func (tx *transaction) UpdateConsumptionEvent(id string, mutator func(*ConsumptionEvent) error) (ConsumptionEvent, error) {
	current, ok := tx.state.consumptions[id]
	if !ok {
		return ConsumptionEvent{}, fmt.Errorf("consumption event %q not found", id)
	}
	before := cloneConsumptionEvent(current)
	if err := mutator(&current); err != nil {
		return ConsumptionEvent{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.consumptions[id] = cloneConsumptionEvent(current)
	tx.recordChange(Change{Entity: domain.EntityConsumptionEvent, Action: domain.ActionUpdate, Before: before, After: cloneConsumptionEvent(current)})
	return cloneConsumptionEvent(current), nil
}
