package consolidator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shared-memory/memoryd/ent"
	"github.com/shared-memory/memoryd/ent/handoff"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/retrieval"
	"github.com/shared-memory/memoryd/pkg/store"
	"github.com/shared-memory/memoryd/pkg/tokenest"
)

// Job type names, matching the ConsolidationReport.job_type enum exactly.
const (
	jobIdentity  = "identity"
	jobHandoffs  = "handoffs"
	jobDecisions = "decisions"
	jobAll       = "all"
)

// identityOverlapThreshold is the fraction of a handoff's keyword set
// that must already appear in a principle (or an in-progress cluster) for
// the two to be treated as "similar" — spec §9's Open Question resolution
// naming naive keyword overlap rather than embedding-based clustering.
const identityOverlapThreshold = 0.3

func (s *Service) runJob(ctx context.Context, tenantID, jobType string) (*ent.ConsolidationReport, error) {
	started := time.Now()

	var (
		processed, affected, tokensSaved int
		details                          map[string]any
		jobErr                           error
	)

	switch jobType {
	case jobIdentity:
		processed, affected, tokensSaved, details, jobErr = s.runIdentityJob(ctx, tenantID)
	case jobHandoffs:
		processed, affected, tokensSaved, details, jobErr = s.runHandoffTieringJob(ctx, tenantID)
	case jobDecisions:
		processed, affected, tokensSaved, details, jobErr = s.runDecisionArchivalJob(ctx, tenantID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, jobType)
	}

	params := store.CreateReportParams{
		TenantID:       tenantID,
		JobType:        jobType,
		ItemsProcessed: processed,
		ItemsAffected:  affected,
		TokensSaved:    tokensSaved,
		Details:        details,
		StartedAt:      started,
		FinishedAt:     time.Now(),
	}
	if jobErr != nil {
		params.Error = jobErr.Error()
	}

	report, err := s.store.CreateReport(ctx, params)
	if err != nil {
		return nil, err
	}
	return report, jobErr
}

// runHandoffTieringJob advances handoffs through full -> summary ->
// quick_ref -> integrated as they cross each configured age threshold,
// compressing their text a step further at each tier and recording the
// tokens the compression saved.
func (s *Service) runHandoffTieringJob(ctx context.Context, tenantID string) (processed, affected, tokensSaved int, details map[string]any, err error) {
	transitions := []struct {
		from, to string
		days     int
	}{
		{string(handoff.CompressionLevelFull), string(handoff.CompressionLevelSummary), s.cfg.SummaryThresholdDays},
		{string(handoff.CompressionLevelSummary), string(handoff.CompressionLevelQuickRef), s.cfg.QuickRefThresholdDays},
		{string(handoff.CompressionLevelQuickRef), string(handoff.CompressionLevelIntegrated), s.cfg.IntegrationThresholdDays},
	}

	for _, t := range transitions {
		cutoff := time.Now().AddDate(0, 0, -t.days)
		hs, listErr := s.store.HandoffsOlderThan(ctx, tenantID, t.from, cutoff)
		if listErr != nil {
			return processed, affected, tokensSaved, details, listErr
		}

		for _, h := range hs {
			processed++
			before := tokenest.Estimate(handoffSourceText(h))
			summary, quickRef := tierText(h, t.to)
			after := tokenest.Estimate(summary + quickRef)

			if tierErr := s.store.TierHandoff(ctx, h.ID, t.to, summary, quickRef, []string{h.ID}); tierErr != nil {
				return processed, affected, tokensSaved, details, tierErr
			}
			affected++
			if before > after {
				tokensSaved += before - after
			}
		}
	}
	return processed, affected, tokensSaved, nil, nil
}

// handoffSourceText is the full-tier text a handoff's compressed forms
// are derived from.
func handoffSourceText(h *ent.Handoff) string {
	parts := []string{h.Experienced, h.Noticed, h.Learned, h.Story, h.Becoming, h.Remember}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ". ")
}

// tierText compresses a handoff's existing text one step further for the
// target tier: summary keeps the fullest available prior text truncated
// to a paragraph, quick_ref to a sentence, integrated to a clause.
func tierText(h *ent.Handoff, toTier string) (summary, quickRef string) {
	switch toTier {
	case string(handoff.CompressionLevelSummary):
		return truncateWords(handoffSourceText(h), 60), ""
	case string(handoff.CompressionLevelQuickRef):
		return "", truncateWords(derefString(h.Summary), 15)
	case string(handoff.CompressionLevelIntegrated):
		return "", truncateWords(derefString(h.QuickRef), 8)
	default:
		return "", ""
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ") + "..."
}

// runDecisionArchivalJob archives unpinned decisions older than
// decision_archive_threshold_days, regardless of active/superseded status.
func (s *Service) runDecisionArchivalJob(ctx context.Context, tenantID string) (processed, affected, tokensSaved int, details map[string]any, err error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.DecisionArchiveThresholdDays)
	decisions, listErr := s.store.ArchivableDecisions(ctx, tenantID, cutoff)
	if listErr != nil {
		return 0, 0, 0, nil, listErr
	}

	for _, d := range decisions {
		processed++
		if archiveErr := s.store.ArchiveDecision(ctx, d.ID); archiveErr != nil {
			return processed, affected, tokensSaved, nil, archiveErr
		}
		affected++
	}
	return processed, affected, 0, nil, nil
}

// runIdentityJob is the identity-thread pass: handoffs whose becoming
// field is set are either folded into an existing, textually-similar
// principle (reinforcing its confidence) or grouped with other
// unmatched handoffs; a group reaching identity_consolidation_min_count
// becomes a new principle. Principles unreinforced past
// confidence_decay_period_days decay multiplicatively, floored at
// confidence_floor.
func (s *Service) runIdentityJob(ctx context.Context, tenantID string) (processed, affected, tokensSaved int, details map[string]any, err error) {
	thread, listErr := s.store.IdentityThread(ctx, tenantID)
	if listErr != nil {
		return 0, 0, 0, nil, listErr
	}
	principles, listErr := s.store.ListPrinciples(ctx, models.SemanticPrincipleFilters{TenantID: tenantID})
	if listErr != nil {
		return 0, 0, 0, nil, listErr
	}

	sourced := make(map[string]bool)
	for _, p := range principles {
		for _, id := range p.SourceHandoffIds {
			sourced[id] = true
		}
	}

	var unclustered []*ent.Handoff
	var created, reinforced int

	for _, h := range thread {
		processed++
		if sourced[h.ID] || h.Becoming == "" {
			continue
		}
		if match := findSimilarPrinciple(principles, h.Becoming); match != nil {
			newConfidence := match.Confidence + s.cfg.ConfidenceIncrement
			if newConfidence > 1.0 {
				newConfidence = 1.0
			}
			if reinforceErr := s.store.ReinforcePrinciple(ctx, match.ID, newConfidence, h.ID); reinforceErr != nil {
				return processed, affected, tokensSaved, nil, reinforceErr
			}
			match.Confidence = newConfidence
			reinforced++
			continue
		}
		unclustered = append(unclustered, h)
	}

	for _, group := range clusterByKeywordOverlap(unclustered) {
		if len(group) < s.cfg.IdentityConsolidationMinCount {
			continue
		}
		ids := make([]string, 0, len(group))
		for _, h := range group {
			ids = append(ids, h.ID)
		}
		if _, createErr := s.createPrinciple(ctx, tenantID, group[0].Becoming, ids); createErr != nil {
			return processed, affected, tokensSaved, nil, createErr
		}
		created++
	}

	decayCutoff := time.Now().AddDate(0, 0, -s.cfg.ConfidenceDecayPeriodDays)
	decayable, listErr := s.store.DecayablePrinciples(ctx, tenantID, decayCutoff)
	if listErr != nil {
		return processed, affected, tokensSaved, nil, listErr
	}
	var decayed int
	for _, p := range decayable {
		newConfidence := p.Confidence * s.cfg.ConfidenceDecayFactor
		if newConfidence < s.cfg.ConfidenceFloor {
			newConfidence = s.cfg.ConfidenceFloor
		}
		if decayErr := s.store.DecayPrinciple(ctx, p.ID, newConfidence); decayErr != nil {
			return processed, affected, tokensSaved, nil, decayErr
		}
		decayed++
	}

	affected = created + reinforced + decayed
	details = map[string]any{"created": created, "reinforced": reinforced, "decayed": decayed}
	return processed, affected, 0, details, nil
}

func (s *Service) createPrinciple(ctx context.Context, tenantID, principleText string, sourceHandoffIDs []string) (*ent.SemanticPrinciple, error) {
	return s.store.CreatePrinciple(ctx, store.CreatePrincipleParams{
		TenantID:         tenantID,
		Principle:        principleText,
		Confidence:       0.3,
		SourceHandoffIDs: sourceHandoffIDs,
	})
}

func findSimilarPrinciple(principles []*ent.SemanticPrinciple, text string) *ent.SemanticPrinciple {
	terms := keywordSet(text)
	for _, p := range principles {
		if overlapRatio(terms, keywordSet(p.Principle)) >= identityOverlapThreshold {
			return p
		}
	}
	return nil
}

// clusterByKeywordOverlap greedily groups handoffs whose becoming text
// shares at least identityOverlapThreshold of its keywords with a
// cluster's growing keyword set.
func clusterByKeywordOverlap(handoffs []*ent.Handoff) [][]*ent.Handoff {
	var groups [][]*ent.Handoff
	var groupTerms []map[string]bool

	for _, h := range handoffs {
		terms := keywordSet(h.Becoming)
		placed := false
		for i, gt := range groupTerms {
			if overlapRatio(terms, gt) >= identityOverlapThreshold {
				groups[i] = append(groups[i], h)
				for t := range terms {
					gt[t] = true
				}
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []*ent.Handoff{h})
			groupTerms = append(groupTerms, terms)
		}
	}
	return groups
}

func keywordSet(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, t := range retrieval.NormalizeQueryTerms(text) {
		terms[t] = true
	}
	return terms
}

// overlapRatio is |a ∩ b| / |a|, i.e. how much of a is covered by b.
func overlapRatio(a, b map[string]bool) float64 {
	if len(a) == 0 {
		return 0
	}
	var hits int
	for t := range a {
		if b[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(a))
}
