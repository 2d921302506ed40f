package store

import (
	"context"
	"fmt"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/artifact"
	"github.com/shared-memory/memoryd/pkg/models"
)

// CreateArtifactInTx inserts one Artifact row within the recorder's open
// transaction, mirroring CreateEventInTx/CreateChunkInTx — an oversized
// tool-result event spills its payload here in the same atomic write.
func CreateArtifactInTx(ctx context.Context, tx *ent.Tx, req models.CreateArtifactRequest) (*ent.Artifact, error) {
	if err := requireField("tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireField("kind", req.Kind); err != nil {
		return nil, err
	}
	if len(req.Bytes) == 0 && req.URI == "" {
		return nil, fmt.Errorf("store: artifact requires exactly one of bytes or uri")
	}
	if len(req.Bytes) > 0 && req.URI != "" {
		return nil, fmt.Errorf("store: artifact requires exactly one of bytes or uri")
	}

	builder := tx.Artifact.Create().
		SetID(newID("art")).
		SetTenantID(req.TenantID).
		SetKind(req.Kind).
		SetMetadata(req.Metadata).
		SetRefs(req.Refs)

	if len(req.Bytes) > 0 {
		builder = builder.SetBytes(req.Bytes)
	}
	if req.URI != "" {
		builder = builder.SetURI(req.URI)
	}

	a, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create artifact: %w", err)
	}
	return a, nil
}

// GetArtifact fetches a single artifact by id, scoped to tenant.
func (s *Store) GetArtifact(ctx context.Context, tenantID, id string) (*ent.Artifact, error) {
	a, err := s.client.Artifact.Query().
		Where(artifact.IDEQ(id), artifact.TenantID(tenantID)).
		Only(ctx)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return a, nil
}
