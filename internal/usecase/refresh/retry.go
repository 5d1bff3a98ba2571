package refresh

import (
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"mpc-refresher/internal/domain/entity"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

const DefaultRetryDelay = time.Second

// RetryPolicy decides how refresh navigations are retried. The zero
// MaxAttempts retries forever; the run is then bounded only by context
// cancellation.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int
	// Retryable classifies errors. Nil means IsTransient.
	Retryable func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Delay:     DefaultRetryDelay,
		Retryable: IsTransient,
	}
}

// IsTransient reports whether err is a navigation failure worth retrying.
// Closed browsers, bad URLs and cancellations are not.
func IsTransient(err error) bool {
	return errors.Is(err, entity.ErrNavigation)
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsTransient(err)
	}
	return p.Retryable(err)
}

// backoff builds the constant backoff for the policy. retry.NewConstant
// rejects non-positive delays, so a zero Delay retries back to back.
func (p RetryPolicy) backoff() retry.Backoff {
	var b retry.Backoff
	if p.Delay > 0 {
		b = retry.NewConstant(p.Delay)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}

	if p.MaxAttempts > 0 {
		b = retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
	}
	return b
}
