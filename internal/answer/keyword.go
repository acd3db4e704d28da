package answer

import (
	"context"
	"strings"

	"github.com/xaenox/member-qa/internal/models"
)

const maxQuotedMessages = 3

// Keyword is the deterministic fallback answerer used when no generative
// backend is configured or the backend call fails. It quotes the context
// messages that share a substantive keyword with the question.
type Keyword struct{}

func NewKeyword() *Keyword { return &Keyword{} }

func (k *Keyword) Answer(_ context.Context, question string, msgs []models.Message) (string, error) {
	if len(msgs) == 0 {
		return InsufficientAnswer, nil
	}

	keywords := questionKeywords(question)
	var hits []string
	for _, m := range msgs {
		text := strings.ToLower(m.Text)
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits = append(hits, m.Text)
				break
			}
		}
		if len(hits) == maxQuotedMessages {
			break
		}
	}

	if len(hits) == 0 {
		return InsufficientAnswer, nil
	}
	return "Based on the messages: " + strings.Join(hits, "; "), nil
}

// questionKeywords keeps tokens of four or more characters, which drops most
// stop words without a word list.
func questionKeywords(question string) []string {
	var keywords []string
	for _, tok := range strings.Fields(strings.ToLower(question)) {
		tok = strings.Trim(tok, ".,!?;:'\"()")
		if len(tok) >= 4 {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}
