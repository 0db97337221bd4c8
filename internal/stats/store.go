package stats

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotStored is returned by a Store when no record exists yet.
var ErrNotStored = errors.New("no stats record stored")

// Store is the durable key-value backend for the stats payload.
type Store interface {
	Get() ([]byte, error)
	Put([]byte) error
	Close() error
}

const statsKey = "burn_stats"

// SQLiteStore keeps the payload in a single-row key-value table.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL mode so dashboard reads don't block engine writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS merit_kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var value string
	err := s.db.QueryRow("SELECT value FROM merit_kv WHERE key = ?", statsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotStored
	}
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}
	return []byte(value), nil
}

func (s *SQLiteStore) Put(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO merit_kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		statsKey, string(b),
	)
	if err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// MemStore is the in-memory fallback and test double.
type MemStore struct {
	payload []byte
	GetErr  error
	PutErr  error
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Get() ([]byte, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.payload == nil {
		return nil, ErrNotStored
	}
	return m.payload, nil
}

func (m *MemStore) Put(b []byte) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.payload = append([]byte(nil), b...)
	return nil
}

func (m *MemStore) Close() error { return nil }
