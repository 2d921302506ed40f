package retrieval

import "strings"

// stopwords is the ~100-entry English stopword list the source's
// filesystem micro-indexes used for lexical normalisation (N1), retained
// here per spec §8's note that the normalisation rule is backend-
// independent: lowercase, split on non-alphanumeric, length >= 3,
// stopword-removed, no stemming.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true,
	"and": true, "or": true, "but": true, "nor": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "about": true, "into": true,
	"through": true, "during": true, "before": true, "after": true,
	"above": true, "below": true, "between": true, "under": true, "over": true,
	"again": true, "further": true, "then": true, "once": true, "there": true,
	"here": true, "when": true, "where": true, "why": true, "all": true,
	"any": true, "both": true, "few": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "only": true, "own": true,
	"same": true, "than": true, "too": true, "very": true, "just": true,
	"also": true, "can": true, "will": true, "should": true, "would": true,
	"could": true, "ought": true, "shall": true, "may": true, "might": true,
	"must": true,
	"is": true, "am": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"not": true, "no": true,
	"i": true, "me": true, "my": true, "myself": true,
	"we": true, "our": true, "ours": true, "ourselves": true,
	"you": true, "your": true, "yours": true, "yourself": true, "yourselves": true,
	"he": true, "him": true, "his": true, "himself": true,
	"she": true, "her": true, "hers": true, "herself": true,
	"it": true, "its": true, "itself": true,
	"they": true, "them": true, "their": true, "theirs": true, "themselves": true,
	"what": true, "which": true, "who": true, "whom": true,
	"this": true, "that": true, "these": true, "those": true,
	"as": true, "if": true, "each": true, "how": true,
}

// NormalizeQueryTerms applies N1: lowercase, split on non-alphanumeric,
// drop terms under 3 characters, drop stopwords. No stemming. Exported so
// pkg/acb can reuse the same rule for its provenance.query_terms field
// rather than duplicating the stopword list.
func NormalizeQueryTerms(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		return !isAlnum
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
