package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/member-qa/internal/models"
)

// GPT generates answers with an OpenAI chat model, falling back to the
// keyword answerer when the API call fails.
type GPT struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	fallback    *Keyword
	logger      *zap.Logger
}

func NewGPT(apiKey string, model string, maxTokens int, temperature float64, logger *zap.Logger) *GPT {
	return &GPT{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		fallback:    NewKeyword(),
		logger:      logger,
	}
}

func (g *GPT) Answer(ctx context.Context, question string, msgs []models.Message) (string, error) {
	if len(msgs) == 0 {
		return InsufficientAnswer, nil
	}

	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a helpful assistant that answers questions based on provided context.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildPrompt(question, msgs),
				},
			},
			MaxTokens:   g.maxTokens,
			Temperature: float32(g.temperature),
		},
	)
	if err != nil {
		g.logger.Error("Failed to get GPT response", zap.Error(err))
		return g.fallback.Answer(ctx, question, msgs)
	}
	if len(resp.Choices) == 0 {
		g.logger.Error("GPT response contained no choices")
		return g.fallback.Answer(ctx, question, msgs)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(question string, msgs []models.Message) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant answering questions about member messages from a concierge service.\n\n")
	sb.WriteString("Context (member messages):\n")
	for _, m := range msgs {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.Timestamp.Format("2006-01-02"), m.UserName, m.Text)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString(`

Instructions:
- Answer based ONLY on the provided context above
- If the answer is not clearly stated in the context, say "` + InsufficientAnswer + `"
- Be concise and specific
- For temporal questions (when/what date), look for dates, days of the week, or relative time expressions
- For quantitative questions (how many), count carefully or state if the information is not available
- For preference questions (favorite/preferred), infer from positive mentions or explicit statements
- Include relevant details from the messages to support your answer
- Do not make up information that is not in the context

Answer:`)
	return sb.String()
}
