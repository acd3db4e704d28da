package retrieval

import (
	"sort"
	"strings"

	"github.com/xaenox/member-qa/internal/corpus"
	"github.com/xaenox/member-qa/internal/models"
)

const (
	DefaultMaxContext = 20
	DefaultMinOverlap = 1
)

// Selector picks the bounded message subset handed to the answer generator.
// It is a pure function of its inputs and the immutable corpus.
type Selector struct {
	maxContext int // hard cap on returned messages
	minOverlap int // minimum tokens shared with the question
}

func New(maxContext, minOverlap int) *Selector {
	if maxContext <= 0 {
		maxContext = DefaultMaxContext
	}
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}
	return &Selector{maxContext: maxContext, minOverlap: minOverlap}
}

// Select ranks candidates by case-insensitive token overlap with the
// question, newer messages breaking ties, and truncates to the context cap.
// With a resolved user the candidates are that user's messages, and they
// are returned (capped) even when nothing meets the overlap threshold, so
// the generator still sees the user's history rather than an empty context.
// Without a resolved user an overlap-free corpus yields nil.
func (s *Selector) Select(question string, c *corpus.Corpus, user string) []models.Message {
	candidates := c.Messages()
	if user != "" {
		candidates = c.ByUser(user)
	}

	qTokens := tokenSet(question)

	type scored struct {
		overlap int
		msg     models.Message
	}
	ranked := make([]scored, 0, len(candidates))
	for _, m := range candidates {
		overlap := 0
		for tok := range tokenSet(m.Text) {
			if _, ok := qTokens[tok]; ok {
				overlap++
			}
		}
		if overlap >= s.minOverlap {
			ranked = append(ranked, scored{overlap: overlap, msg: m})
		}
	}

	if len(ranked) == 0 {
		if user == "" {
			return nil
		}
		limit := len(candidates)
		if limit > s.maxContext {
			limit = s.maxContext
		}
		return append([]models.Message(nil), candidates[:limit]...)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].overlap != ranked[j].overlap {
			return ranked[i].overlap > ranked[j].overlap
		}
		return ranked[i].msg.Timestamp.After(ranked[j].msg.Timestamp)
	})

	if len(ranked) > s.maxContext {
		ranked = ranked[:s.maxContext]
	}
	out := make([]models.Message, len(ranked))
	for i, r := range ranked {
		out[i] = r.msg
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,!?;:'\"()")
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}
