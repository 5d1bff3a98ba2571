package di

import (
	"context"
	"fmt"

	"mpc-refresher/internal/application/port/input"
	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/infrastructure/browser/rod"
	"mpc-refresher/internal/infrastructure/config"
	"mpc-refresher/internal/infrastructure/logger"
	"mpc-refresher/internal/infrastructure/snapshot"
	"mpc-refresher/internal/infrastructure/userinteraction"
	"mpc-refresher/internal/usecase/refresh"
)

// Container owns the browser session for one run. Close must be deferred
// right after NewContainer succeeds so the browser is released on every
// exit path.
type Container struct {
	Browser   output.BrowserPort
	Logger    output.LoggerPort
	Progress  output.ProgressPort
	Refresher input.ProjectRefresher
}

func NewContainer(ctx context.Context, runName string, cfg config.Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(runName, logger.Config{
		Level:       cfg.Logging.Level,
		Dir:         cfg.Logging.Dir,
		Development: cfg.Logging.Development.Bool(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	browserCfg := BrowserConfig(cfg)
	browserCfg.Logger = log.WithField("component", "browser")
	log.Info("Launching browser",
		"headless", browserCfg.Headless,
		"no_sandbox", browserCfg.NoSandbox,
		"webgl", browserCfg.WebGL,
		"stealth", browserCfg.Stealth,
		"custom_bin", browserCfg.ChromePath != "",
	)

	browser, err := rod.NewBrowserAdapter(ctx, browserCfg)
	if err != nil {
		log.Error("Browser launch failed", "error", err)
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	return NewContainerWithBrowser(cfg, browser, log, userinteraction.NewConsoleProgress()), nil
}

// NewContainerWithBrowser wires the use case around an already acquired
// browser session.
func NewContainerWithBrowser(cfg config.Config, browser output.BrowserPort, log output.LoggerPort, progress output.ProgressPort) *Container {
	site := refresh.NewSite(cfg.Refresh.BaseURL)

	uc := refresh.New(
		refresh.NewAuthenticator(browser, site, refresh.Sleep, cfg.Refresh.StepDelay, log),
		refresh.NewEnumerator(browser, site, refresh.Sleep, cfg.Refresh.PageDelay, log),
		refresh.NewRefresher(browser, site, RetryPolicy(cfg), refresh.Sleep, cfg.Refresh.StepDelay, progress, log),
		browser,
		SnapshotStore(cfg),
		progress,
		log,
		refresh.Config{
			Credentials: cfg.EntityCredentials(),
			Interval:    cfg.Refresh.Interval,
		},
	)

	return &Container{
		Browser:   browser,
		Logger:    log,
		Progress:  progress,
		Refresher: uc,
	}
}

func BrowserConfig(cfg config.Config) rod.BrowserConfig {
	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.Browser.Headless.Bool()
	browserCfg.NoSandbox = cfg.Browser.Sandbox.Bool()
	browserCfg.WebGL = cfg.Browser.WebGL.Bool()
	browserCfg.UserAgent = cfg.Browser.UserAgent
	browserCfg.ChromePath = cfg.Browser.ChromePath
	browserCfg.Stealth = cfg.Browser.Stealth.Bool()
	browserCfg.SlowMotion = cfg.Browser.SlowMotion
	if cfg.Browser.Timeout > 0 {
		browserCfg.Timeout = cfg.Browser.Timeout
	}
	if cfg.Browser.NavigationWait > 0 {
		browserCfg.NavigationWait = cfg.Browser.NavigationWait
	}
	return browserCfg
}

func RetryPolicy(cfg config.Config) refresh.RetryPolicy {
	policy := refresh.DefaultRetryPolicy()
	if cfg.Refresh.RetryDelay > 0 {
		policy.Delay = cfg.Refresh.RetryDelay
	}
	policy.MaxAttempts = cfg.Refresh.MaxAttempts
	return policy
}

// SnapshotStore returns nil when failure screenshots are disabled.
func SnapshotStore(cfg config.Config) output.SnapshotStore {
	if cfg.Refresh.SnapshotDir == "" {
		return nil
	}
	return snapshot.NewFileStore(cfg.Refresh.SnapshotDir)
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
