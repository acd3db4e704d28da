package resolver

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Resolver maps a free-text name reference, possibly misspelled, to the
// canonical user name it most likely refers to. It holds no state beyond
// the acceptance threshold and performs no I/O.
type Resolver struct {
	threshold int // minimum 0-100 similarity; a score equal to it is accepted
}

func New(threshold int) *Resolver {
	return &Resolver{threshold: threshold}
}

// Resolve finds the canonical name referenced by the question. A canonical
// name spelled out in the question wins outright; otherwise every question
// token is scored against each candidate's first name and the best score at
// or above the threshold wins. Ties prefer the candidate whose name starts
// with the matched token, then the earlier candidate, so identical inputs
// always produce identical output. The second return value is false when
// nothing qualifies; an empty candidate list never matches.
func (r *Resolver) Resolve(question string, names []string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return "", false
	}

	for _, name := range names {
		lower := strings.ToLower(name)
		if lower == "" {
			continue
		}
		if strings.Contains(q, lower) || strings.Contains(lower, q) {
			return name, true
		}
	}

	tokens := strings.Fields(q)
	var (
		best       string
		bestScore  int
		bestPrefix bool
	)
	for _, name := range names {
		lower := strings.ToLower(name)
		parts := strings.Fields(lower)
		if len(parts) == 0 {
			continue
		}
		first := parts[0]

		for _, tok := range tokens {
			tok = strings.Trim(tok, ".,!?;:'\"")
			if tok == "" {
				continue
			}
			score := fuzzy.Ratio(first, tok)
			prefix := strings.HasPrefix(lower, tok)
			if score > bestScore || (score == bestScore && prefix && !bestPrefix) {
				best, bestScore, bestPrefix = name, score, prefix
			}
		}
	}

	if bestScore >= r.threshold {
		return best, true
	}
	return "", false
}
