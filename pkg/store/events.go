package store

import (
	"context"
	"fmt"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/event"
	"github.com/shared-memory/memoryd/pkg/models"
)

// DistinctTenantIDs returns every tenant with at least one event, for the
// Consolidator's scheduled sweep to iterate over; there is no standalone
// Tenant entity in the schema, so activity on Event is the source of truth
// for "which tenants exist".
func (s *Store) DistinctTenantIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.Event.Query().
		Unique(true).
		Select(event.FieldTenantID).
		Strings(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: distinct tenant ids: %w", err)
	}
	return ids, nil
}

// DistinctAgentIDs returns every agent_id that has recorded at least one
// event for a tenant, the closest thing to an agent registry this schema
// has — used by the Capsule service to validate that an audience names
// real agents rather than typos.
func (s *Store) DistinctAgentIDs(ctx context.Context, tenantID string) ([]string, error) {
	ids, err := s.client.Event.Query().
		Where(event.TenantID(tenantID)).
		Unique(true).
		Select(event.FieldAgentID).
		Strings(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: distinct agent ids: %w", err)
	}
	return ids, nil
}

// CreateEventInTx inserts one Event row within an already-open
// transaction; pkg/recorder drives the single atomic transaction that
// spans the event plus its derived chunk(s), so event creation does not
// open its own Tx the way the other Create* helpers below do. tokenEst
// is the recorder's step-4 estimate over the event's (possibly
// normalized) content text — it is not part of the caller-facing
// RecordEventRequest since callers never supply it themselves.
func CreateEventInTx(ctx context.Context, tx *ent.Tx, req models.RecordEventRequest, tokenEst int) (*ent.Event, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("session_id", req.SessionID); err != nil {
		return nil, err
	}
	if err := requireField("agent_id", req.AgentID); err != nil {
		return nil, err
	}
	if err := requireField("actor_id", req.ActorID); err != nil {
		return nil, err
	}

	sensitivity := req.Sensitivity
	if sensitivity == "" {
		sensitivity = string(event.SensitivityNone)
	}

	ev, err := tx.Event.Create().
		SetID(newID("evt")).
		SetTenantID(req.TenantID).
		SetSessionID(req.SessionID).
		SetAgentID(req.AgentID).
		SetChannel(event.Channel(req.Channel)).
		SetActorType(event.ActorType(req.ActorType)).
		SetActorID(req.ActorID).
		SetKind(event.Kind(req.Kind)).
		SetSensitivity(event.Sensitivity(sensitivity)).
		SetTags(req.Tags).
		SetContent(req.Content).
		SetRefs(req.Refs).
		SetTokenEst(tokenEst).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create event: %w", err)
	}
	return ev, nil
}

// GetEvent fetches a single event by id, scoped to tenant.
func (s *Store) GetEvent(ctx context.Context, tenantID, id string) (*ent.Event, error) {
	ev, err := s.client.Event.Query().
		Where(event.IDEQ(id), event.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return ev, nil
}

// ListEvents returns events matching filters, oldest first, bounded by
// filters.Limit (default 100).
func (s *Store) ListEvents(ctx context.Context, filters models.EventFilters) ([]*ent.Event, error) {
	if err := requireField("tenant_id", filters.TenantID); err != nil {
		return nil, err
	}

	q := s.client.Event.Query().Where(event.TenantID(filters.TenantID))
	if filters.SessionID != "" {
		q = q.Where(event.SessionID(filters.SessionID))
	}
	if filters.AgentID != "" {
		q = q.Where(event.AgentID(filters.AgentID))
	}
	if filters.SinceID != "" {
		q = q.Where(event.IDGT(filters.SinceID))
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}

	events, err := q.Order(ent.Asc(event.FieldCreatedAt)).Limit(limit).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	return events, nil
}
