// Package resilient wraps an LLM backend with a client-side rate limit and a
// circuit breaker. An open breaker fails calls with ErrLLMUnavailable.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Breaker defaults.
const (
	DefaultMaxRequests  = 1
	DefaultInterval     = 60 * time.Second
	DefaultOpenTimeout  = 30 * time.Second
	DefaultFailureTrip  = 5
	DefaultFailureRatio = 0.6
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("LLM circuit open")

// Config tunes the wrapper. Zero values fall back to the defaults.
type Config struct {
	// RequestsPerMinute caps calls. Zero or less disables the limit.
	RequestsPerMinute int

	// MaxRequests is how many probes pass while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts.
	Interval time.Duration

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration

	// FailureTrip is the number of consecutive failures that opens the breaker.
	FailureTrip uint32
}

// LLMService decorates another LLMService.
type LLMService struct {
	next    driven.LLMService
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// New wraps next.
func New(next driven.LLMService, cfg Config) *LLMService {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.FailureTrip == 0 {
		cfg.FailureTrip = DefaultFailureTrip
	}

	s := &LLMService{next: next}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm:" + next.ModelName(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.FailureTrip {
				return true
			}
			ratio := float64(counts.TotalFailures) / float64(max(counts.Requests, 1))
			return counts.Requests >= 2*cfg.FailureTrip && ratio >= DefaultFailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Warn("%s: circuit breaker %s -> %s", name, from, to)
				return
			}
			logger.Info("%s: circuit breaker %s -> %s", name, from, to)
		},
	})
	if cfg.RequestsPerMinute > 0 {
		perSecond := float64(cfg.RequestsPerMinute) / 60
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(cfg.RequestsPerMinute/10, 1))
	}
	return s
}

func (s *LLMService) call(ctx context.Context, fn func() (string, error)) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	out, err := s.breaker.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w: %w", domain.ErrLLMUnavailable, ErrCircuitOpen, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.call(ctx, func() (string, error) {
		return s.next.Generate(ctx, prompt, opts)
	})
}

// Chat conducts a multi-turn conversation.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return s.call(ctx, func() (string, error) {
		return s.next.Chat(ctx, messages, opts)
	})
}

// State reports the breaker state.
func (s *LLMService) State() gobreaker.State {
	return s.breaker.State()
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.next.ModelName()
}

// Ping bypasses the breaker and the limiter.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.next.Close()
}
