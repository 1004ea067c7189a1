// ABOUTME: Ordered model fallback: try each generator until one answers
// ABOUTME: Authentication failures stop the chain at once, other failures move on
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/leadgen/metrics"
	"go.uber.org/zap"
)

var (
	ErrAuth      = errors.New("AI authentication failed")
	ErrNoModels  = errors.New("no AI models configured")
	ErrExhausted = errors.New("all AI models failed")
)

// Attempt records one failed model call.
type Attempt struct {
	Model string
	Err   error
}

// ExhaustedError lists every model tried when none succeeded.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Model, a.Err)
	}
	return "all AI models failed: " + strings.Join(parts, "; ")
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

type Chain struct {
	generators []Generator
	logger     *zap.Logger
}

type ChainOption func(*Chain)

func WithLogger(logger *zap.Logger) ChainOption {
	return func(c *Chain) { c.logger = logger }
}

func NewChain(generators []Generator, opts ...ChainOption) *Chain {
	c := &Chain{generators: generators, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model names the chain by its first entry.
func (c *Chain) Model() string {
	if len(c.generators) == 0 {
		return ""
	}
	return c.generators[0].Model()
}

// Generate is not a retry loop: each model is tried once, in order.
func (c *Chain) Generate(ctx context.Context, req Request) (string, error) {
	if len(c.generators) == 0 {
		return "", ErrNoModels
	}

	var attempts []Attempt
	for _, g := range c.generators {
		out, err := g.Generate(ctx, req)
		if err == nil {
			metrics.RecordAIAttempt(g.Model(), "ok")
			return out, nil
		}

		if errors.Is(err, ErrAuth) {
			metrics.RecordAIAttempt(g.Model(), "auth")
			c.logger.Error("AI authentication rejected", zap.String("model", g.Model()), zap.Error(err))
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		metrics.RecordAIAttempt(g.Model(), "error")
		c.logger.Warn("AI model failed, trying next", zap.String("model", g.Model()), zap.Error(err))
		attempts = append(attempts, Attempt{Model: g.Model(), Err: err})
	}
	return "", &ExhaustedError{Attempts: attempts}
}
