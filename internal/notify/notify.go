// Package notify delivers treatment certificates to patients. Delivery is
// fire-and-forget: the ledger transaction has already committed when a
// dispatcher runs, and a delivery failure never rolls it back.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Certificate is the message handed to a dispatcher after a treatment commits.
type Certificate struct {
	MessageID    string    `json:"message_id"`
	PatientPhone string    `json:"patient_phone"`
	ProductName  string    `json:"product_name"`
	HospitalName string    `json:"hospital_name"`
	TreatedOn    time.Time `json:"treated_on"`
	UnitCodes    []string  `json:"unit_codes"`
}

// NewCertificate assigns a fresh message ID to the given certificate fields.
func NewCertificate(phone, product, hospital string, treatedOn time.Time, codes []string) Certificate {
	return Certificate{
		MessageID:    uuid.NewString(),
		PatientPhone: phone,
		ProductName:  product,
		HospitalName: hospital,
		TreatedOn:    treatedOn,
		UnitCodes:    append([]string(nil), codes...),
	}
}

// Dispatcher sends a certificate over some delivery channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, cert Certificate) error
}

// LogDispatcher writes certificates to the structured log instead of an
// external gateway. Used when no messaging provider is configured.
type LogDispatcher struct {
	log *zap.Logger
}

// NewLogDispatcher wraps the given logger; nil selects a no-op logger.
func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogDispatcher{log: log}
}

// Dispatch logs the certificate at info level and always succeeds.
func (d *LogDispatcher) Dispatch(_ context.Context, cert Certificate) error {
	d.log.Info("treatment certificate dispatched",
		zap.String("message_id", cert.MessageID),
		zap.String("patient_phone", cert.PatientPhone),
		zap.String("product", cert.ProductName),
		zap.String("hospital", cert.HospitalName),
		zap.Time("treated_on", cert.TreatedOn),
		zap.Int("units", len(cert.UnitCodes)),
	)
	return nil
}

// MemoryDispatcher records certificates in memory. Intended for tests.
type MemoryDispatcher struct {
	mu    sync.Mutex
	sent  []Certificate
	fail  error
	calls int
}

// NewMemoryDispatcher constructs an empty in-memory dispatcher.
func NewMemoryDispatcher() *MemoryDispatcher {
	return &MemoryDispatcher{}
}

// FailWith makes every subsequent Dispatch call return err.
func (d *MemoryDispatcher) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = err
}

// Dispatch records the certificate, or returns the configured failure.
func (d *MemoryDispatcher) Dispatch(_ context.Context, cert Certificate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.fail != nil {
		return d.fail
	}
	d.sent = append(d.sent, cert)
	return nil
}

// Sent returns a copy of the certificates recorded so far.
func (d *MemoryDispatcher) Sent() []Certificate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Certificate(nil), d.sent...)
}

// Calls returns how many Dispatch invocations were made.
func (d *MemoryDispatcher) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}
