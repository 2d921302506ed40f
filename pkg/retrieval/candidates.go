package retrieval

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"strings"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/chunk"
	"github.com/shared-memory/memoryd/pkg/store"
)

// tagHeadScanWindow bounds how many of the tenant's most recent chunks
// are scanned in Go for a tag intersection, since JSON tag arrays have no
// native overlap predicate in ent. Kept in the same order of magnitude as
// spec.md's hotset_recent_events_max (200) rather than an unbounded scan.
const tagHeadScanWindow = 500

// pinnedCandidates returns every pinned chunk for the tenant — spec §4.2
// names "pinned chunk ids" as its own unconditional union member, with
// highest priority when the pool must be capped.
func pinnedCandidates(ctx context.Context, st *store.Store, tenantID string) ([]*ent.Chunk, error) {
	chunks, err := st.Client().Chunk.Query().
		Where(chunk.TenantID(tenantID), chunk.PinnedEQ(true)).
		Order(ent.Desc(chunk.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieval: pinned candidates: %w", err)
	}
	return chunks, nil
}

// sessionRecentCandidates returns the active session's last-N chunks.
func sessionRecentCandidates(ctx context.Context, st *store.Store, tenantID, sessionID string, n int) ([]*ent.Chunk, error) {
	if sessionID == "" || n <= 0 {
		return nil, nil
	}
	chunks, err := st.Client().Chunk.Query().
		Where(chunk.TenantID(tenantID), chunk.SessionID(sessionID)).
		Order(ent.Desc(chunk.FieldCreatedAt)).
		Limit(n).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieval: session-recent candidates: %w", err)
	}
	return chunks, nil
}

// tagHeadCandidates returns recent chunks whose tags intersect queryTags,
// i.e. "hot topics" the caller is already asking about. Scanned over the
// tenant's tagHeadScanWindow most recent chunks since JSON tag arrays
// have no native containment index in ent.
func tagHeadCandidates(ctx context.Context, st *store.Store, tenantID string, queryTags []string, limit int) ([]*ent.Chunk, error) {
	if len(queryTags) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(queryTags))
	for _, t := range queryTags {
		wanted[t] = true
	}

	recent, err := st.Client().Chunk.Query().
		Where(chunk.TenantID(tenantID)).
		Order(ent.Desc(chunk.FieldCreatedAt)).
		Limit(tagHeadScanWindow).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieval: tag-head scan: %w", err)
	}

	matched := make([]*ent.Chunk, 0, limit)
	for _, c := range recent {
		if len(matched) >= limit {
			break
		}
		for _, tag := range c.Tags {
			if wanted[tag] {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched, nil
}

// recencyTailCandidates returns the newest window chunks for the tenant.
func recencyTailCandidates(ctx context.Context, st *store.Store, tenantID string, window int) ([]*ent.Chunk, error) {
	chunks, err := st.Client().Chunk.Query().
		Where(chunk.TenantID(tenantID)).
		Order(ent.Desc(chunk.FieldCreatedAt)).
		Limit(window).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieval: recency-tail candidates: %w", err)
	}
	return chunks, nil
}

// lexicalCandidates runs a Postgres full-text match against the GIN index
// pkg/database.CreateGINIndexes builds over chunks.text, returning chunk
// ids in rank order alongside their ts_rank scores. Dropping below ent's
// query builder here is the same escape hatch CreateGINIndexes itself
// uses, since ent has no tsvector field type to build this query with.
func lexicalCandidates(ctx context.Context, db *stdsql.DB, tenantID string, terms []string, limit int) ([]string, map[string]float64, error) {
	if len(terms) == 0 || db == nil {
		return nil, nil, nil
	}

	query := strings.Join(terms, " ")
	rows, err := db.QueryContext(ctx, `
		SELECT chunk_id, ts_rank(to_tsvector('english', text), plainto_tsquery('english', $1)) AS rank
		FROM chunks
		WHERE tenant_id = $2
		  AND to_tsvector('english', text) @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
		LIMIT $3`, query, tenantID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieval: lexical query: %w", err)
	}
	defer rows.Close()

	var ids []string
	raw := make(map[string]float64)
	var maxRank float64
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, nil, fmt.Errorf("retrieval: scan lexical row: %w", err)
		}
		ids = append(ids, id)
		raw[id] = rank
		if rank > maxRank {
			maxRank = rank
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("retrieval: lexical rows: %w", err)
	}

	// ts_rank is not bounded to [0,1]; min-max normalize against the top
	// hit in this result set so lexical scores satisfy spec §4.2's
	// lexical ∈ [0,1] contract.
	scores := make(map[string]float64, len(raw))
	for id, rank := range raw {
		if maxRank > 0 {
			scores[id] = rank / maxRank
		} else {
			scores[id] = 0
		}
	}
	return ids, scores, nil
}

// candidatePool is the deduplicated, priority-capped union of every
// generation source, in spec §4.2's priority order: pinned ->
// session-recent -> tag-head -> lexical -> recency-tail.
type candidatePool struct {
	chunks       []*ent.Chunk
	lexicalScore map[string]float64
}

func buildCandidatePool(ctx context.Context, st *store.Store, db *stdsql.DB, req poolRequest) (*candidatePool, error) {
	seen := make(map[string]bool)
	pool := &candidatePool{lexicalScore: make(map[string]float64)}

	add := func(chunks []*ent.Chunk) {
		for _, c := range chunks {
			if len(pool.chunks) >= req.candidatePoolMax {
				return
			}
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			pool.chunks = append(pool.chunks, c)
		}
	}

	pinned, err := pinnedCandidates(ctx, st, req.tenantID)
	if err != nil {
		return nil, err
	}
	add(pinned)

	sessionRecent, err := sessionRecentCandidates(ctx, st, req.tenantID, req.sessionID, req.sessionWindow)
	if err != nil {
		return nil, err
	}
	add(sessionRecent)

	tagHead, err := tagHeadCandidates(ctx, st, req.tenantID, req.tags, req.tagHeadLimit)
	if err != nil {
		return nil, err
	}
	add(tagHead)

	terms := NormalizeQueryTerms(req.queryText)
	lexIDs, lexScores, err := lexicalCandidates(ctx, db, req.tenantID, terms, req.candidatePoolMax)
	if err != nil {
		return nil, err
	}
	for id, score := range lexScores {
		pool.lexicalScore[id] = score
	}
	if len(lexIDs) > 0 {
		lexChunks, err := st.Client().Chunk.Query().
			Where(chunk.TenantID(req.tenantID), chunk.IDIn(lexIDs...)).
			All(ctx)
		if err != nil {
			return nil, fmt.Errorf("retrieval: load lexical chunks: %w", err)
		}
		byID := make(map[string]*ent.Chunk, len(lexChunks))
		for _, c := range lexChunks {
			byID[c.ID] = c
		}
		ordered := make([]*ent.Chunk, 0, len(lexIDs))
		for _, id := range lexIDs {
			if c, ok := byID[id]; ok {
				ordered = append(ordered, c)
			}
		}
		add(ordered)
	}

	recencyTail, err := recencyTailCandidates(ctx, st, req.tenantID, req.recencyTailWindow)
	if err != nil {
		return nil, err
	}
	add(recencyTail)

	return pool, nil
}

// poolRequest is buildCandidatePool's input, distinct from
// models.RetrieveRequest so candidate generation doesn't need to know
// about response shaping.
type poolRequest struct {
	tenantID          string
	sessionID         string
	queryText         string
	tags              []string
	candidatePoolMax  int
	sessionWindow     int
	tagHeadLimit      int
	recencyTailWindow int
}
