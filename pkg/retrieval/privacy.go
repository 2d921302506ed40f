package retrieval

import (
	"context"
	"fmt"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/store"
)

// suppressCandidates applies spec §4.2 step 2 ("apply channel-based
// privacy suppression to all candidate material") before scoring: a
// chunk whose sensitivity the requesting channel doesn't allow, or whose
// tags the channel suppresses, never reaches scoring. Chunks a capsule
// restricts to an audience the caller isn't part of are dropped too.
func suppressCandidates(ctx context.Context, st *store.Store, privacy *config.PrivacyConfig, tenantID, channel, agentID string, candidates []*ent.Chunk) ([]*ent.Chunk, error) {
	policy, ok := privacy.ChannelSuppression[channel]
	if !ok {
		return nil, fmt.Errorf("retrieval: no privacy policy configured for channel %q", channel)
	}

	restricted, err := st.RestrictedChunkIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	permitted := make(map[string]bool)
	if len(restricted) > 0 {
		available, err := st.AvailableCapsules(ctx, models.AvailableCapsulesRequest{TenantID: tenantID, AgentID: agentID})
		if err != nil {
			return nil, err
		}
		for _, c := range available {
			for _, id := range c.ChunkRefs {
				permitted[id] = true
			}
		}
	}

	allowed := make(map[string]bool, len(policy.AllowedSensitivity))
	for _, s := range policy.AllowedSensitivity {
		allowed[s] = true
	}
	suppressedTags := make(map[string]bool, len(policy.SuppressTags))
	for _, t := range policy.SuppressTags {
		suppressedTags[t] = true
	}

	blockedTag := "blocked:" + channel

	out := make([]*ent.Chunk, 0, len(candidates))
	for _, c := range candidates {
		if !allowed[string(c.Sensitivity)] {
			continue
		}
		if hasSuppressedTag(c.Tags, suppressedTags) {
			continue
		}
		if hasTag(c.Tags, blockedTag) {
			continue
		}
		if restricted[c.ID] && !permitted[c.ID] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func hasSuppressedTag(tags []string, suppressed map[string]bool) bool {
	for _, t := range tags {
		if suppressed[t] {
			return true
		}
	}
	return false
}
