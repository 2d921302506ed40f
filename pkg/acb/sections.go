package acb

import (
	"sort"

	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/simhash"
)

// dedupeState is the bundle-wide fingerprint set packSection checks every
// candidate against and grows with whatever it accepts, so a duplicate
// that already appeared in a higher-priority section is dropped here
// rather than packed twice.
type dedupeState struct {
	hashes   map[string]bool
	simhashes []uint64
}

func newDedupeState() *dedupeState {
	return &dedupeState{hashes: make(map[string]bool)}
}

func (d *dedupeState) seen(c candidate) bool {
	if d.hashes[c.contentHash] {
		return true
	}
	if c.simhash == 0 {
		return false
	}
	for _, s := range d.simhashes {
		if simhash.HammingDistance(c.simhash, s) <= dedupeSimhashThreshold {
			return true
		}
	}
	return false
}

func (d *dedupeState) accept(c candidate) {
	d.hashes[c.contentHash] = true
	if c.simhash != 0 {
		d.simhashes = append(d.simhashes, c.simhash)
	}
}

// packSection greedily packs candidates into a section by descending
// score, skipping anything already represented elsewhere in the bundle
// (exact content-hash match, or a SimHash within dedupeSimhashThreshold of
// something already accepted) and anything that would overflow cap. It
// returns the packed items, the tokens they used, and one omission per
// drop reason with the refs that fell into it.
func packSection(candidates []candidate, cap int, dedupe *dedupeState) ([]models.ACBItem, int, []models.ACBOmission) {
	ordered := make([]candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].item.Score > ordered[j].item.Score })

	var items []models.ACBItem
	var used int
	var dedupeDrops, budgetDrops []string

	for _, c := range ordered {
		if dedupe.seen(c) {
			dedupeDrops = append(dedupeDrops, c.item.Ref)
			continue
		}
		if used+c.item.TokenEst > cap {
			budgetDrops = append(budgetDrops, c.item.Ref)
			continue
		}
		items = append(items, c.item)
		used += c.item.TokenEst
		dedupe.accept(c)
	}

	var omissions []models.ACBOmission
	if len(dedupeDrops) > 0 {
		omissions = append(omissions, models.ACBOmission{Reason: "dedupe", Candidates: dedupeDrops})
	}
	if len(budgetDrops) > 0 {
		omissions = append(omissions, models.ACBOmission{Reason: "section_budget", Candidates: budgetDrops})
	}
	return items, used, omissions
}
