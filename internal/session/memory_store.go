package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
)

const sessionTable = "session"

func memorySchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			sessionTable: {
				Name: sessionTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"user": {
						Name:    "user",
						Indexer: &memdb.StringFieldIndex{Field: "UserID"},
					},
				},
			},
		},
	}
}

// MemoryStore keeps sessions in process. Used when no Redis is configured.
type MemoryStore struct {
	db  *memdb.MemDB
	now func() time.Time
}

func NewMemoryStore() (*MemoryStore, error) {
	db, err := memdb.NewMemDB(memorySchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create session table: %w", err)
	}
	return &MemoryStore{db: db, now: time.Now}, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	stored := *s
	txn := m.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(sessionTable, &stored); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	txn.Commit()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	txn := m.db.Txn(false)
	raw, err := txn.First(sessionTable, "id", id)
	txn.Abort()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if raw == nil {
		return nil, ErrNotFound
	}

	s := *raw.(*Session)
	if s.Expired(m.now()) {
		_ = m.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	txn := m.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(sessionTable, "id", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	txn.Commit()
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, userID string) (int, error) {
	txn := m.db.Txn(true)
	defer txn.Abort()

	n, err := txn.DeleteAll(sessionTable, "user", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}
	txn.Commit()
	return n, nil
}
