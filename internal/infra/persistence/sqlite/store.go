// Package sqlite provides a SQLite-backed persistent store that mirrors the
// in-memory semantics and snapshots committed state to a single-file database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"neocertify/internal/infra/persistence/memory"
	"neocertify/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Store persists the ledger state to a single SQLite table as JSON blobs.
// It snapshots the full state after every successful transaction.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "neocertify.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	mem := memory.NewStore(engine)
	s := &Store{Store: mem, db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

var sqliteBuckets = []string{
	"organizations",
	"products",
	"lots",
	"units",
	"patients",
	"transfers",
	"consumptions",
	"sequences",
}

type sequenceBucket struct {
	UnitSequence uint64            `json:"unit_sequence"`
	LotSequences map[string]uint64 `json:"lot_sequences"`
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		loaded = true
		switch bucket {
		case "organizations":
			err = json.Unmarshal(payload, &snapshot.Organizations)
		case "products":
			err = json.Unmarshal(payload, &snapshot.Products)
		case "lots":
			err = json.Unmarshal(payload, &snapshot.Lots)
		case "units":
			err = json.Unmarshal(payload, &snapshot.Units)
		case "patients":
			err = json.Unmarshal(payload, &snapshot.Patients)
		case "transfers":
			err = json.Unmarshal(payload, &snapshot.Transfers)
		case "consumptions":
			err = json.Unmarshal(payload, &snapshot.Consumptions)
		case "sequences":
			var seq sequenceBucket
			if err = json.Unmarshal(payload, &seq); err == nil {
				snapshot.UnitSequence = seq.UnitSequence
				snapshot.LotSequences = seq.LotSequences
			}
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if !loaded {
		return nil
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		var data []byte
		switch bucket {
		case "organizations":
			data, err = json.Marshal(snapshot.Organizations)
		case "products":
			data, err = json.Marshal(snapshot.Products)
		case "lots":
			data, err = json.Marshal(snapshot.Lots)
		case "units":
			data, err = json.Marshal(snapshot.Units)
		case "patients":
			data, err = json.Marshal(snapshot.Patients)
		case "transfers":
			data, err = json.Marshal(snapshot.Transfers)
		case "consumptions":
			data, err = json.Marshal(snapshot.Consumptions)
		case "sequences":
			data, err = json.Marshal(sequenceBucket{
				UnitSequence: snapshot.UnitSequence,
				LotSequences: snapshot.LotSequences,
			})
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then
// snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
