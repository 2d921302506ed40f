package models

import "github.com/shared-memory/memoryd/ent"

// CreateArtifactRequest spills oversized tool output out of the event body.
// Exactly one of Bytes or URI must be set.
type CreateArtifactRequest struct {
	TenantID string         `json:"tenant_id"`
	Kind     string         `json:"kind"`
	Bytes    []byte         `json:"bytes,omitempty"`
	URI      string         `json:"uri,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Refs     []string       `json:"refs,omitempty"`
}

// ArtifactResponse wraps an Artifact for get_artifact reads. Bytes is
// streamed separately by the daemon above MaxInlineArtifactBytes.
type ArtifactResponse struct {
	*ent.Artifact
}
