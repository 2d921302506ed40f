package store

import (
	"context"
	"fmt"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/knowledgenote"
	"github.com/shared-memory/memoryd/pkg/models"
)

// CreateKnowledgeNote inserts a new KnowledgeNote row.
func (s *Store) CreateKnowledgeNote(ctx context.Context, req models.CreateKnowledgeNoteRequest) (*ent.KnowledgeNote, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("text", req.Text); err != nil {
		return nil, err
	}

	builder := s.client.KnowledgeNote.Create().
		SetID(newID("kn")).
		SetTenantID(req.TenantID).
		SetText(req.Text).
		SetTags(req.Tags).
		SetWithWhom(req.WithWhom)

	if req.AgentID != "" {
		builder = builder.SetAgentID(req.AgentID)
	}
	if req.Channel != "" {
		builder = builder.SetChannel(knowledgenote.Channel(req.Channel))
	}

	n, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create knowledge note: %w", err)
	}
	return n, nil
}

// GetKnowledgeNotes returns notes matching filters, newest first.
func (s *Store) GetKnowledgeNotes(ctx context.Context, filters models.KnowledgeNoteFilters) ([]*ent.KnowledgeNote, error) {
	if err := requireField("tenant_id", filters.TenantID); err != nil {
		return nil, err
	}

	q := s.client.KnowledgeNote.Query().Where(knowledgenote.TenantID(filters.TenantID))
	if filters.AgentID != "" {
		q = q.Where(knowledgenote.AgentID(filters.AgentID))
	}
	if filters.Channel != "" {
		q = q.Where(knowledgenote.ChannelEQ(knowledgenote.Channel(filters.Channel)))
	}

	notes, err := q.Order(ent.Desc(knowledgenote.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list knowledge notes: %w", err)
	}
	return notes, nil
}

// SetKnowledgeNoteEmbedding persists a backfilled embedding.
func (s *Store) SetKnowledgeNoteEmbedding(ctx context.Context, id string, embedding []byte) error {
	n, err := s.client.KnowledgeNote.Update().
		Where(knowledgenote.IDEQ(id)).
		SetEmbedding(embedding).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: set knowledge note embedding: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
