package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewCertificate(t *testing.T) {
	treated := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	codes := []string{"NC000000000001", "NC000000000002"}
	cert := NewCertificate("01012345678", "Dermaluxe 100U", "Riverside Hospital", treated, codes)

	if cert.MessageID == "" {
		t.Fatalf("missing message ID")
	}
	if cert.PatientPhone != "01012345678" || cert.ProductName != "Dermaluxe 100U" || cert.HospitalName != "Riverside Hospital" {
		t.Fatalf("fields: %+v", cert)
	}
	if !cert.TreatedOn.Equal(treated) || len(cert.UnitCodes) != 2 {
		t.Fatalf("fields: %+v", cert)
	}

	// The certificate holds its own copy of the codes.
	codes[0] = "mutated"
	if cert.UnitCodes[0] != "NC000000000001" {
		t.Fatalf("unit codes aliased: %+v", cert.UnitCodes)
	}

	other := NewCertificate("01012345678", "Dermaluxe 100U", "Riverside Hospital", treated, nil)
	if other.MessageID == cert.MessageID {
		t.Fatalf("message IDs must be unique")
	}
}

func TestLogDispatcher(t *testing.T) {
	zcore, logs := observer.New(zap.InfoLevel)
	d := NewLogDispatcher(zap.New(zcore))

	cert := NewCertificate("01012345678", "Dermaluxe 100U", "Riverside Hospital", time.Now().UTC(), []string{"NC000000000001"})
	if err := d.Dispatch(context.Background(), cert); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.ContextMap()["message_id"] != cert.MessageID {
		t.Fatalf("fields: %v", entry.ContextMap())
	}

	// Nil logger degrades to a no-op.
	if err := NewLogDispatcher(nil).Dispatch(context.Background(), cert); err != nil {
		t.Fatalf("nop dispatch: %v", err)
	}
}

func TestMemoryDispatcher(t *testing.T) {
	d := NewMemoryDispatcher()
	ctx := context.Background()
	cert := NewCertificate("01012345678", "Dermaluxe 100U", "Riverside Hospital", time.Now().UTC(), nil)

	if err := d.Dispatch(ctx, cert); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	boom := errors.New("gateway down")
	d.FailWith(boom)
	if err := d.Dispatch(ctx, cert); !errors.Is(err, boom) {
		t.Fatalf("expected configured failure, got %v", err)
	}
	if d.Calls() != 2 {
		t.Fatalf("calls: got %d, want 2", d.Calls())
	}
	sent := d.Sent()
	if len(sent) != 1 || sent[0].MessageID != cert.MessageID {
		t.Fatalf("sent: %+v", sent)
	}
}
