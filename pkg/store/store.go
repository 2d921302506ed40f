// Package store is the repository layer over the ent client: one method
// group per entity, each following the teacher's per-service Tx/Create
// idiom (client.Tx(ctx) / defer tx.Rollback() / builder.Save(ctx) /
// tx.Commit()) rather than one do-everything god object.
package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shared-memory/memoryd/ent"
)

// ErrNotFound is returned when a lookup by id finds no row, mirroring the
// teacher's ent.IsNotFound(err) -> ErrNotFound translation in its service
// layer.
var ErrNotFound = errors.New("store: not found")

// Store wraps the ent client with tenant-scoped repository methods.
type Store struct {
	client *ent.Client
}

// New builds a Store over client.
func New(client *ent.Client) *Store {
	return &Store{client: client}
}

// Client exposes the underlying ent client for packages (pkg/retrieval's
// raw-SQL GIN query, pkg/database's migrations) that must drop below the
// builder API, the same escape hatch the teacher uses for
// CreateGINIndexes.
func (s *Store) Client() *ent.Client {
	return s.client
}

func translateNotFound(err error) error {
	if ent.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

func requireField(name, value string) error {
	if value == "" {
		return fmt.Errorf("store: %s is required", name)
	}
	return nil
}
