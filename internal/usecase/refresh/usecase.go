package refresh

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"mpc-refresher/internal/application/port/input"
	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/domain/entity"
)

var _ input.ProjectRefresher = (*UseCase)(nil)

type Config struct {
	Credentials entity.Credentials
	// Interval is the minimum spacing between two project refreshes.
	// Zero disables pacing.
	Interval time.Duration
}

type UseCase struct {
	auth      *Authenticator
	enum      *Enumerator
	refresher *Refresher
	browser   output.BrowserPort
	snapshots output.SnapshotStore
	progress  output.ProgressPort
	logger    output.LoggerPort
	limiter   *rate.Limiter
	creds     entity.Credentials
}

func New(
	auth *Authenticator,
	enum *Enumerator,
	refresher *Refresher,
	browser output.BrowserPort,
	snapshots output.SnapshotStore,
	progress output.ProgressPort,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}

	return &UseCase{
		auth:      auth,
		enum:      enum,
		refresher: refresher,
		browser:   browser,
		snapshots: snapshots,
		progress:  progress,
		logger:    logger,
		limiter:   rate.NewLimiter(limit, 1),
		creds:     cfg.Credentials,
	}
}

// Execute logs in, then refreshes either the requested project or every
// project on the listing, in listing order.
func (uc *UseCase) Execute(ctx context.Context, req entity.RefreshRequest) (*entity.RefreshResult, error) {
	uc.progress.Status("login")
	if err := uc.auth.Login(ctx, uc.creds); err != nil {
		uc.captureFailure(ctx, "login")
		return nil, fmt.Errorf("login failed: %w", err)
	}

	result := &entity.RefreshResult{}

	if req.ProjectID != "" {
		uc.logger.Info("Refreshing single project", "project_id", req.ProjectID.String())
		if err := uc.refreshOne(ctx, req.ProjectID, result); err != nil {
			return result, err
		}
		uc.progress.Done(result)
		return result, nil
	}

	uc.progress.Status("finding projects")
	ids, err := uc.enum.FindProjects(ctx)
	if err != nil {
		uc.captureFailure(ctx, "listing")
		return nil, fmt.Errorf("finding projects failed: %w", err)
	}

	for i, id := range ids {
		uc.progress.Refreshing(i+1, len(ids), id)
		if err := uc.refreshOne(ctx, id, result); err != nil {
			return result, err
		}
	}

	uc.logger.Info("Run completed", "refreshed", len(result.Refreshed), "attempts", result.Attempts)
	uc.progress.Done(result)
	return result, nil
}

func (uc *UseCase) refreshOne(ctx context.Context, id entity.ProjectID, result *entity.RefreshResult) error {
	if err := uc.limiter.Wait(ctx); err != nil {
		return err
	}

	attempts, err := uc.refresher.Refresh(ctx, id)
	result.Attempts += attempts
	if err != nil {
		return err
	}
	result.Refreshed = append(result.Refreshed, id)
	return nil
}

// captureFailure stores a screenshot of the page a failed phase ended on.
// Errors here are only logged; the phase error is what the caller sees.
func (uc *UseCase) captureFailure(ctx context.Context, phase string) {
	if uc.snapshots == nil || ctx.Err() != nil {
		return
	}

	shot, err := uc.browser.Screenshot(ctx)
	if err != nil {
		uc.logger.Warn("Failure screenshot not taken", "phase", phase, "error", err)
		return
	}

	path, err := uc.snapshots.Save(ctx, phase, shot)
	if err != nil {
		uc.logger.Warn("Failure screenshot not saved", "phase", phase, "error", err)
		return
	}
	uc.logger.Error("Phase failed, screenshot saved", "phase", phase, "path", path, "url", uc.browser.CurrentURL())
}
