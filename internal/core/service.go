// Package core implements the supply-chain ledger kernel: lot allocation,
// FIFO transfers, treatment and disposal consumption, time-boxed reversals,
// and the history projection, all executed through a transactional store.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"neocertify/internal/blob"
	"neocertify/internal/infra/persistence/memory"
	"neocertify/internal/notify"
	"neocertify/pkg/domain"
)

// Service exposes every kernel operation. All mutations run inside a single
// store transaction; a conflict-kind failure is retried once before it
// surfaces to the caller.
type Service struct {
	store      domain.PersistentStore
	blobs      blob.Store
	dispatcher notify.Dispatcher
	logger     Logger
	metrics    MetricsRecorder
	tracer     Tracer
}

// Option customizes Service construction.
type Option func(*Service)

// WithLogger installs a structured logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithDispatcher installs the certificate dispatcher invoked after treatments.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithBlobStore installs the document store used for license uploads.
func WithBlobStore(b blob.Store) Option {
	return func(s *Service) {
		if b != nil {
			s.blobs = b
		}
	}
}

// NewService wraps an already-constructed persistent store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:      store,
		blobs:      blob.NewMemoryStore(),
		dispatcher: notify.NewLogDispatcher(nil),
		logger:     NopLogger{},
		metrics:    nopMetrics{},
		tracer:     nopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService builds a service over a fresh in-memory store with the
// built-in rules registered for the given policy (nil selects the default).
// The store is returned so tests can adjust its clock or export state.
func NewInMemoryService(policy TransferPolicy, opts ...Option) (*Service, *memory.Store) {
	store := memory.NewStore(NewDefaultRulesEngine(policy))
	return NewService(store, opts...), store
}

// runInTransaction executes fn with tracing, metrics, warning propagation,
// and a single retry when the store reports a conflict.
func (s *Service) runInTransaction(ctx context.Context, op string, fn func(domain.Transaction) error) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	if domain.IsKind(err, domain.KindConflict) {
		s.logger.Debug("retrying after conflict", "operation", op)
		res, err = s.store.RunInTransaction(ctx, fn)
	}
	err = mapPolicyViolation(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	span.End(err)
	for _, v := range res.Violations {
		if v.Severity == SeverityWarn {
			s.logger.Warn("rule warning", "operation", op, "rule", v.Rule, "message", v.Message)
		}
	}
	if err != nil {
		s.logger.Info("operation failed", "operation", op, "error", err.Error())
	}
	return res, err
}

// mapPolicyViolation rewrites a blocking transfer-policy violation as a
// forbidden-kind error so callers see "actor not permitted" the same way they
// see every other authorization failure. Other rule violations keep the raw
// RuleViolationError.
func mapPolicyViolation(err error) error {
	verr, ok := err.(domain.RuleViolationError)
	if !ok {
		return err
	}
	for _, v := range verr.Result.Violations {
		if v.Rule == RuleTransferPolicy && v.Severity == domain.SeverityBlock {
			return domain.NewForbidden("%s", v.Message)
		}
	}
	return err
}

// view executes fn against a read-only snapshot.
func (s *Service) view(ctx context.Context, op string, fn func(domain.TransactionView) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	err := s.store.View(ctx, fn)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	span.End(err)
	return err
}

// RegisterOrganizationInput carries the fields of a registration request.
type RegisterOrganizationInput struct {
	Name           string
	Type           OrganizationType
	BusinessNumber string
}

// RegisterOrganization creates an organization in pending status. Admin
// organizations are provisioned active directly; every other type waits for
// admin approval before it may participate in the supply chain.
func (s *Service) RegisterOrganization(ctx context.Context, in RegisterOrganizationInput) (Organization, Result, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Organization{}, Result{}, domain.NewValidation("organization name required")
	}
	switch in.Type {
	case OrgManufacturer, OrgDistributor, OrgHospital, OrgAdmin:
	default:
		return Organization{}, Result{}, domain.NewValidation("unknown organization type %q", in.Type)
	}

	status := OrgPending
	if in.Type == OrgAdmin {
		status = OrgActive
	}
	var created Organization
	res, err := s.runInTransaction(ctx, "register_organization", func(tx domain.Transaction) error {
		org := Organization{
			Name:           name,
			Type:           in.Type,
			Status:         status,
			BusinessNumber: strings.TrimSpace(in.BusinessNumber),
		}
		var err error
		created, err = tx.CreateOrganization(org)
		return err
	})
	if err != nil {
		return Organization{}, res, err
	}
	s.logger.Info("organization registered", "organization_id", created.ID, "type", string(created.Type), "status", string(created.Status))
	return created, res, nil
}

// requireAdmin loads the requesting organization and verifies it is an active
// admin.
func requireAdmin(view domain.TransactionView, adminID string) error {
	admin, ok := view.FindOrganization(adminID)
	if !ok {
		return domain.NewNotFound(domain.EntityOrganization, adminID)
	}
	if admin.Type != OrgAdmin || admin.Status != OrgActive {
		return domain.NewForbidden("organization %q is not an active admin", adminID)
	}
	return nil
}

// ApproveOrganization transitions a pending organization to active.
func (s *Service) ApproveOrganization(ctx context.Context, adminID, orgID string) (Organization, Result, error) {
	var approved Organization
	res, err := s.runInTransaction(ctx, "approve_organization", func(tx domain.Transaction) error {
		if err := requireAdmin(tx.Snapshot(), adminID); err != nil {
			return err
		}
		org, ok := tx.Snapshot().FindOrganization(orgID)
		if !ok {
			return domain.NewNotFound(domain.EntityOrganization, orgID)
		}
		if org.Status != OrgPending {
			return domain.NewValidation("organization %q is %s, expected pending", orgID, org.Status)
		}
		var err error
		approved, err = tx.UpdateOrganization(orgID, func(o *Organization) error {
			o.Status = OrgActive
			return nil
		})
		return err
	})
	if err != nil {
		return Organization{}, res, err
	}
	s.logger.Info("organization approved", "organization_id", orgID, "admin_id", adminID)
	return approved, res, nil
}

// DeactivateOrganization transitions an active organization to inactive.
// Inventory held by the organization stays on the ledger but can no longer
// move until an admin reactivates it out of band.
func (s *Service) DeactivateOrganization(ctx context.Context, adminID, orgID string) (Organization, Result, error) {
	var updated Organization
	res, err := s.runInTransaction(ctx, "deactivate_organization", func(tx domain.Transaction) error {
		if err := requireAdmin(tx.Snapshot(), adminID); err != nil {
			return err
		}
		org, ok := tx.Snapshot().FindOrganization(orgID)
		if !ok {
			return domain.NewNotFound(domain.EntityOrganization, orgID)
		}
		if org.Status != OrgActive {
			return domain.NewValidation("organization %q is %s, expected active", orgID, org.Status)
		}
		var err error
		updated, err = tx.UpdateOrganization(orgID, func(o *Organization) error {
			o.Status = OrgInactive
			return nil
		})
		return err
	})
	return updated, res, err
}

// activeOrganization loads an organization and verifies it is active.
func activeOrganization(view domain.TransactionView, id string) (Organization, error) {
	org, ok := view.FindOrganization(id)
	if !ok {
		return Organization{}, domain.NewNotFound(domain.EntityOrganization, id)
	}
	if org.Status != OrgActive {
		return Organization{}, domain.NewForbidden("organization %q is not active", id)
	}
	return org, nil
}

// ProductInput carries the fields of a catalog entry.
type ProductInput struct {
	ModelName string
	UDI       string
}

// CreateProduct adds a catalog entry owned by the manufacturer.
func (s *Service) CreateProduct(ctx context.Context, manufacturerID string, in ProductInput) (Product, Result, error) {
	if strings.TrimSpace(in.ModelName) == "" {
		return Product{}, Result{}, domain.NewValidation("model name required")
	}
	if strings.TrimSpace(in.UDI) == "" {
		return Product{}, Result{}, domain.NewValidation("device identifier required")
	}
	var created Product
	res, err := s.runInTransaction(ctx, "create_product", func(tx domain.Transaction) error {
		org, err := activeOrganization(tx.Snapshot(), manufacturerID)
		if err != nil {
			return err
		}
		if org.Type != OrgManufacturer {
			return domain.NewForbidden("organization %q is not a manufacturer", manufacturerID)
		}
		for _, p := range tx.Snapshot().ListProducts() {
			if p.ManufacturerID == manufacturerID && p.UDI == in.UDI {
				return domain.NewValidation("device identifier %q already registered", in.UDI)
			}
		}
		created, err = tx.CreateProduct(Product{
			ManufacturerID: manufacturerID,
			ModelName:      strings.TrimSpace(in.ModelName),
			UDI:            strings.TrimSpace(in.UDI),
			Active:         true,
		})
		return err
	})
	return created, res, err
}

// DeactivateProduct retires a catalog entry. Existing units remain traceable;
// new lots of the product can no longer be created.
func (s *Service) DeactivateProduct(ctx context.Context, manufacturerID, productID string) (Product, Result, error) {
	var updated Product
	res, err := s.runInTransaction(ctx, "deactivate_product", func(tx domain.Transaction) error {
		product, ok := tx.Snapshot().FindProduct(productID)
		if !ok {
			return domain.NewNotFound(domain.EntityProduct, productID)
		}
		if product.ManufacturerID != manufacturerID {
			return domain.NewForbidden("product %q is not owned by %q", productID, manufacturerID)
		}
		var err error
		updated, err = tx.UpdateProduct(productID, func(p *Product) error {
			p.Active = false
			return nil
		})
		return err
	})
	return updated, res, err
}

// UpdateCodeSettings replaces a manufacturer's lot numbering configuration.
func (s *Service) UpdateCodeSettings(ctx context.Context, manufacturerID string, settings CodeSettings) (Organization, Result, error) {
	if settings.LotPrefix == "" {
		return Organization{}, Result{}, domain.NewValidation("lot prefix required")
	}
	if !domain.ValidLotDateFormat(settings.DateFormat) {
		return Organization{}, Result{}, domain.NewValidation("unknown date format %q", settings.DateFormat)
	}
	if settings.SequenceDigits < 1 || settings.SequenceDigits > 9 {
		return Organization{}, Result{}, domain.NewValidation("sequence digits must be between 1 and 9, got %d", settings.SequenceDigits)
	}
	if settings.ExpiryMonths < 1 {
		return Organization{}, Result{}, domain.NewValidation("expiry months must be at least 1, got %d", settings.ExpiryMonths)
	}
	var updated Organization
	res, err := s.runInTransaction(ctx, "update_code_settings", func(tx domain.Transaction) error {
		org, err := activeOrganization(tx.Snapshot(), manufacturerID)
		if err != nil {
			return err
		}
		if org.Type != OrgManufacturer {
			return domain.NewForbidden("organization %q is not a manufacturer", manufacturerID)
		}
		updated, err = tx.UpdateOrganization(manufacturerID, func(o *Organization) error {
			cp := settings
			o.CodeSettings = &cp
			return nil
		})
		return err
	})
	return updated, res, err
}

// StoreLicenseDocument uploads a business-license blob and records its key on
// the organization. The blob contents are opaque to the ledger.
func (s *Service) StoreLicenseDocument(ctx context.Context, orgID, filename, contentType string, r io.Reader) (blob.Info, Result, error) {
	if strings.TrimSpace(filename) == "" {
		return blob.Info{}, Result{}, domain.NewValidation("filename required")
	}
	exists := false
	if err := s.view(ctx, "store_license_document", func(view domain.TransactionView) error {
		_, exists = view.FindOrganization(orgID)
		return nil
	}); err != nil {
		return blob.Info{}, Result{}, err
	}
	if !exists {
		return blob.Info{}, Result{}, domain.NewNotFound(domain.EntityOrganization, orgID)
	}

	key := path.Join("licenses", orgID, path.Base(filename))
	info, err := s.blobs.Put(ctx, key, r, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"organization_id": orgID},
	})
	if errors.Is(err, blob.ErrExists) {
		return blob.Info{}, Result{}, domain.NewValidation("license document %q already uploaded", key)
	}
	if err != nil {
		return blob.Info{}, Result{}, fmt.Errorf("store license document: %w", err)
	}
	res, err := s.runInTransaction(ctx, "attach_license_document", func(tx domain.Transaction) error {
		_, err := tx.UpdateOrganization(orgID, func(o *Organization) error {
			k := key
			o.LicenseDocumentKey = &k
			return nil
		})
		return err
	})
	if err != nil {
		return blob.Info{}, res, err
	}
	return info, res, nil
}

// GetOrganization returns an organization by ID.
func (s *Service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	var org Organization
	found := false
	if err := s.view(ctx, "get_organization", func(view domain.TransactionView) error {
		org, found = view.FindOrganization(id)
		return nil
	}); err != nil {
		return Organization{}, err
	}
	if !found {
		return Organization{}, domain.NewNotFound(domain.EntityOrganization, id)
	}
	return org, nil
}

// ListOrganizations returns every organization on the ledger.
func (s *Service) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := s.view(ctx, "list_organizations", func(view domain.TransactionView) error {
		orgs = view.ListOrganizations()
		return nil
	}); err != nil {
		return nil, err
	}
	return orgs, nil
}
