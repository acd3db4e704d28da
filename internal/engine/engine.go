package engine

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/xaenox/member-qa/internal/answer"
	"github.com/xaenox/member-qa/internal/corpus"
	"github.com/xaenox/member-qa/internal/models"
	"github.com/xaenox/member-qa/internal/resolver"
	"github.com/xaenox/member-qa/internal/retrieval"
)

// Engine answers natural-language questions about the loaded corpus by
// resolving the referenced member, selecting relevant messages and handing
// them to the answerer.
type Engine struct {
	corpus   *corpus.Corpus
	resolver *resolver.Resolver
	selector *retrieval.Selector
	answerer answer.Answerer
	logger   *zap.Logger
	ready    atomic.Bool
}

func New(c *corpus.Corpus, r *resolver.Resolver, s *retrieval.Selector, a answer.Answerer, logger *zap.Logger) *Engine {
	return &Engine{
		corpus:   c,
		resolver: r,
		selector: s,
		answerer: a,
		logger:   logger,
	}
}

// SetReady marks startup as finished. The corpus may be partial.
func (e *Engine) SetReady() { e.ready.Store(true) }

func (e *Engine) Ready() bool { return e.ready.Load() }

// AnswerQuestion runs resolve, select, answer. A question that names nobody,
// or matches no messages, still produces an explicit answer rather than an
// error.
func (e *Engine) AnswerQuestion(ctx context.Context, question string) (string, error) {
	user, matched := e.resolver.Resolve(question, e.corpus.Users())
	if matched {
		e.logger.Info("resolved member", zap.String("user", user))
	} else {
		user = ""
		e.logger.Info("no member resolved, searching whole corpus")
	}

	msgs := e.selector.Select(question, e.corpus, user)
	e.logger.Info("selected context", zap.Int("messages", len(msgs)))

	return e.answerer.Answer(ctx, question, msgs)
}

func (e *Engine) Stats() models.Stats {
	return models.Stats{
		MessageCount:    e.corpus.Len(),
		UserCount:       len(e.corpus.Users()),
		Users:           e.corpus.Users(),
		MessagesPerUser: e.corpus.MessagesPerUser(),
	}
}
