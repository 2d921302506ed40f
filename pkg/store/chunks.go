package store

import (
	"context"
	"fmt"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/chunk"
)

// CreateChunkParams is the insert shape for a chunk derived from an event
// by pkg/recorder's chunker; it is not part of the tool-surface DTOs in
// pkg/models since chunks are never created directly by a caller.
type CreateChunkParams struct {
	TenantID    string
	EventID     string
	SessionID   string
	Kind        string
	Channel     string
	Sensitivity string
	Tags        []string
	TokenEst    int
	Importance  float64
	Pinned      bool
	Text        string
	ContentHash string
	SimHash     uint64
}

// CreateChunkInTx inserts one Chunk row within the recorder's open
// transaction, mirroring CreateEventInTx.
func CreateChunkInTx(ctx context.Context, tx *ent.Tx, p CreateChunkParams) (*ent.Chunk, error) {
	if err := requireField("tenant_id", p.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("event_id", p.EventID); err != nil {
		return nil, err
	}

	sensitivity := p.Sensitivity
	if sensitivity == "" {
		sensitivity = string(chunk.SensitivityNone)
	}

	c, err := tx.Chunk.Create().
		SetID(newID("chk")).
		SetTenantID(p.TenantID).
		SetEventID(p.EventID).
		SetSessionID(p.SessionID).
		SetKind(chunk.Kind(p.Kind)).
		SetChannel(chunk.Channel(p.Channel)).
		SetSensitivity(chunk.Sensitivity(sensitivity)).
		SetTags(p.Tags).
		SetTokenEst(p.TokenEst).
		SetImportance(p.Importance).
		SetPinned(p.Pinned).
		SetText(p.Text).
		SetContentHash(p.ContentHash).
		SetSimhash(p.SimHash).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create chunk: %w", err)
	}
	return c, nil
}

// SetChunkEmbedding persists a backfilled embedding for an existing chunk.
func (s *Store) SetChunkEmbedding(ctx context.Context, id string, embedding []byte) error {
	n, err := s.client.Chunk.Update().
		Where(chunk.IDEQ(id)).
		SetEmbedding(embedding).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: set chunk embedding: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetChunkPinned flips a chunk's pinned flag, the effect of a MemoryEdit
// "retract"/unpin-style operation landing on a chunk target.
func (s *Store) SetChunkPinned(ctx context.Context, tenantID, id string, pinned bool) error {
	n, err := s.client.Chunk.Update().
		Where(chunk.IDEQ(id), chunk.TenantID(tenantID)).
		SetPinned(pinned).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: set chunk pinned: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetChunkSensitivity overrides a chunk's sensitivity, the effect of a
// MemoryEdit "quarantine" operation landing on a chunk target: bumping it
// to secret removes it from every channel's privacy matrix per spec §6.4.
func (s *Store) SetChunkSensitivity(ctx context.Context, tenantID, id, sensitivity string) error {
	n, err := s.client.Chunk.Update().
		Where(chunk.IDEQ(id), chunk.TenantID(tenantID)).
		SetSensitivity(chunk.Sensitivity(sensitivity)).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: set chunk sensitivity: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetChunkText overwrites a chunk's excerpt text, the effect of a
// MemoryEdit "amend" operation with a patch_text.
func (s *Store) SetChunkText(ctx context.Context, tenantID, id, text string) error {
	n, err := s.client.Chunk.Update().
		Where(chunk.IDEQ(id), chunk.TenantID(tenantID)).
		SetText(text).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: set chunk text: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetChunkImportance overwrites a chunk's importance with an absolute
// value, clamped to [0, 1], the effect of a MemoryEdit "amend" operation
// with a patch_importance.
func (s *Store) SetChunkImportance(ctx context.Context, tenantID, id string, importance float64) error {
	if importance < 0 {
		importance = 0
	} else if importance > 1 {
		importance = 1
	}
	n, err := s.client.Chunk.Update().
		Where(chunk.IDEQ(id), chunk.TenantID(tenantID)).
		SetImportance(importance).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: set chunk importance: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustChunkImportance nudges a chunk's importance by delta, clamped to
// [0, 1], the effect of a MemoryEdit "attenuate" operation.
func (s *Store) AdjustChunkImportance(ctx context.Context, tenantID, id string, delta float64) error {
	c, err := s.GetChunk(ctx, tenantID, id)
	if err != nil {
		return err
	}
	next := c.Importance + delta
	if next < 0 {
		next = 0
	} else if next > 1 {
		next = 1
	}
	n, err := s.client.Chunk.Update().
		Where(chunk.IDEQ(id), chunk.TenantID(tenantID)).
		SetImportance(next).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: adjust chunk importance: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddChunkBlockedTag appends a "blocked:<channel>" tag to a chunk, the
// effect of a MemoryEdit "block" operation: pkg/retrieval's privacy
// suppression drops any chunk carrying this tag for that channel,
// regardless of the channel's normal sensitivity policy.
func (s *Store) AddChunkBlockedTag(ctx context.Context, tenantID, id, channel string) error {
	c, err := s.GetChunk(ctx, tenantID, id)
	if err != nil {
		return err
	}
	tag := "blocked:" + channel
	for _, t := range c.Tags {
		if t == tag {
			return nil
		}
	}
	n, err := s.client.Chunk.Update().
		Where(chunk.IDEQ(id), chunk.TenantID(tenantID)).
		SetTags(append(append([]string{}, c.Tags...), tag)).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: add chunk blocked tag: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ChunksBySession returns every chunk derived from events in one session,
// oldest first, for export_thread.
func (s *Store) ChunksBySession(ctx context.Context, tenantID, sessionID string) ([]*ent.Chunk, error) {
	chunks, err := s.client.Chunk.Query().
		Where(chunk.TenantID(tenantID), chunk.SessionID(sessionID)).
		Order(ent.Asc(chunk.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list chunks by session: %w", err)
	}
	return chunks, nil
}

// ChunksByTenant returns every chunk owned by a tenant, oldest first, for
// export_all.
func (s *Store) ChunksByTenant(ctx context.Context, tenantID string) ([]*ent.Chunk, error) {
	chunks, err := s.client.Chunk.Query().
		Where(chunk.TenantID(tenantID)).
		Order(ent.Asc(chunk.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list chunks by tenant: %w", err)
	}
	return chunks, nil
}

// ChunksWithoutEmbedding returns up to limit chunks missing an embedding,
// for the async backfill loop.
func (s *Store) ChunksWithoutEmbedding(ctx context.Context, tenantID string, limit int) ([]*ent.Chunk, error) {
	chunks, err := s.client.Chunk.Query().
		Where(chunk.TenantID(tenantID), chunk.EmbeddingIsNil()).
		Order(ent.Asc(chunk.FieldCreatedAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list chunks without embedding: %w", err)
	}
	return chunks, nil
}

// ChunkByContentHash looks up an existing chunk with the same exact-match
// content hash, for dedupe at recording time.
func (s *Store) ChunkByContentHash(ctx context.Context, tenantID, hash string) (*ent.Chunk, error) {
	c, err := s.client.Chunk.Query().
		Where(chunk.TenantID(tenantID), chunk.ContentHash(hash)).
		First(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return c, nil
}

// GetChunk fetches a single chunk by id, scoped to tenant.
func (s *Store) GetChunk(ctx context.Context, tenantID, id string) (*ent.Chunk, error) {
	c, err := s.client.Chunk.Query().
		Where(chunk.IDEQ(id), chunk.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return c, nil
}
