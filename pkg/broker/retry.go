package broker

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy decides whether a failed publish is retried and how long to wait.
type RetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewRetryPolicy(maxRetries int, baseDelay time.Duration) *RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	return &RetryPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   baseDelay * 16,
	}
}

// ShouldRetry reports whether another attempt is allowed after `attempt` failed
// attempts, and the delay before it.
func (p *RetryPolicy) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if attempt > p.maxRetries {
		return false, 0
	}
	if !isRetryableError(err) {
		return false, 0
	}
	return true, p.backoff(attempt)
}

// Non-retryable error patterns
var nonRetryableErrors = []string{
	"invalid",
	"not found",
	"permission denied",
	"validation failed",
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range nonRetryableErrors {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}
	return true
}

// backoff is base * 2^(attempt-1) with ±25% jitter, capped at maxDelay.
func (p *RetryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return p.baseDelay
	}

	shift := attempt - 1
	if shift > 4 {
		shift = 4
	}
	backoff := p.baseDelay * time.Duration(1<<shift)

	if quarter := int64(backoff / 4); quarter > 0 {
		jitter := time.Duration(rand.Int63n(quarter))
		if rand.Intn(2) == 0 {
			backoff += jitter
		} else {
			backoff -= jitter
		}
	}

	if backoff > p.maxDelay {
		backoff = p.maxDelay
	}
	return backoff
}

type retryingPublisher struct {
	next   Publisher
	policy *RetryPolicy
}

func NewRetryingPublisher(next Publisher, policy *RetryPolicy) Publisher {
	return &retryingPublisher{next: next, policy: policy}
}

func (p *retryingPublisher) Publish(ctx context.Context, key string, message interface{}) error {
	for attempt := 1; ; attempt++ {
		err := p.next.Publish(ctx, key, message)
		if err == nil {
			return nil
		}

		retry, delay := p.policy.ShouldRetry(attempt, err)
		if !retry {
			return fmt.Errorf("publish failed after %d attempt(s): %w", attempt, err)
		}

		logrus.WithFields(logrus.Fields{
			"key":     key,
			"attempt": attempt,
			"delay":   delay,
			"error":   err,
		}).Warn("Publish failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("publish cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}

func (p *retryingPublisher) Close() error {
	return p.next.Close()
}
