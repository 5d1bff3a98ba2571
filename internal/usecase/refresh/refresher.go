package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/domain/entity"
)

type Refresher struct {
	browser   output.BrowserPort
	site      Site
	policy    RetryPolicy
	pause     Pauser
	stepDelay time.Duration
	progress  output.ProgressPort
	logger    output.LoggerPort
}

func NewRefresher(
	browser output.BrowserPort,
	site Site,
	policy RetryPolicy,
	pause Pauser,
	stepDelay time.Duration,
	progress output.ProgressPort,
	logger output.LoggerPort,
) *Refresher {
	if pause == nil {
		pause = Sleep
	}
	return &Refresher{
		browser:   browser,
		site:      site,
		policy:    policy,
		pause:     pause,
		stepDelay: stepDelay,
		progress:  progress,
		logger:    logger,
	}
}

// Refresh visits the project's parse URL, which makes the site rebuild the
// project. Transient navigation failures are retried per the policy. It
// returns the number of navigation attempts made.
func (r *Refresher) Refresh(ctx context.Context, id entity.ProjectID) (int, error) {
	target := r.site.RefreshURL(id)
	log := r.logger.WithField("project_id", id.String())

	var (
		attempts int
		lastErr  error
	)

	policy := r.policy.backoff()
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := policy.Next()
		if !stop {
			log.Warn("Refresh failed, retrying", "attempt", attempts, "error", lastErr)
			r.progress.Retrying(id, lastErr)
		}
		return next, stop
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := r.browser.Navigate(ctx, target); err != nil {
			lastErr = err
			if r.policy.retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})

	switch {
	case err == nil:
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return attempts, err
	case r.policy.retryable(err):
		return attempts, fmt.Errorf("refresh project %s: %w after %d attempts: %w", id, ErrRetriesExhausted, attempts, err)
	default:
		return attempts, fmt.Errorf("refresh project %s: %w", id, err)
	}

	log.Debug("Project refreshed", "attempt", attempts)

	// The site has already rebuilt the project, so an interrupted settle
	// pause does not undo the refresh.
	if err := r.pause(ctx, r.stepDelay); err != nil {
		log.Debug("Settle pause interrupted", "error", err)
	}
	return attempts, nil
}
