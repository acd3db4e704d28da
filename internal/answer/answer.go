package answer

import (
	"context"

	"github.com/xaenox/member-qa/internal/models"
)

// InsufficientAnswer is returned whenever the retrieved context cannot
// support an answer.
const InsufficientAnswer = "I don't have enough information to answer that question."

// Answerer turns a question plus retrieved context into a natural-language
// answer.
type Answerer interface {
	Answer(ctx context.Context, question string, msgs []models.Message) (string, error)
}
