package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"mpc-refresher/internal/domain/entity"
	"mpc-refresher/internal/infrastructure/env"
)

// Config holds all application configuration. It is built once at startup
// and passed by value afterwards.
type Config struct {
	Browser     BrowserConfig
	Credentials CredentialsConfig
	Refresh     RefreshConfig
	Logging     LogConfig
}

// BrowserConfig holds Chrome launch options. The PYDOLL_ names are kept so
// existing deployments keep working.
type BrowserConfig struct {
	Headless   env.Flag      `envconfig:"PYDOLL_HEADLESS" default:"false"`
	Sandbox    env.Flag      `envconfig:"PYDOLL_SANDBOX" default:"false"`
	WebGL      env.Flag      `envconfig:"PYDOLL_WEBGL" default:"false"`
	UserAgent  string        `envconfig:"PYDOLL_USERAGENT"`
	ChromePath string        `envconfig:"PYDOLL_CHROME_PATH"`
	Stealth    env.Flag      `envconfig:"BROWSER_STEALTH" default:"false"`
	Timeout    time.Duration `envconfig:"BROWSER_TIMEOUT" default:"30s"`
	SlowMotion time.Duration `envconfig:"BROWSER_SLOW_MOTION" default:"0s"`
	// NavigationWait bounds the wait for a page load after clicking "Next".
	NavigationWait time.Duration `envconfig:"BROWSER_NAVIGATION_WAIT" default:"10s"`
}

type CredentialsConfig struct {
	Username string `envconfig:"MPC_USERNAME" required:"true"`
	Password string `envconfig:"MPC_PASSWORD" required:"true"`
}

type RefreshConfig struct {
	BaseURL       string        `envconfig:"MPC_BASE_URL" default:"https://www.makeplayingcards.com"`
	StepDelay     time.Duration `envconfig:"REFRESH_STEP_DELAY" default:"1s"`
	PageDelay     time.Duration `envconfig:"REFRESH_PAGE_DELAY" default:"500ms"`
	RetryDelay    time.Duration `envconfig:"REFRESH_RETRY_DELAY" default:"1s"`
	MaxAttempts   int           `envconfig:"REFRESH_MAX_ATTEMPTS"`
	Interval      time.Duration `envconfig:"REFRESH_INTERVAL" default:"0s"`
	ShutdownDelay time.Duration `envconfig:"REFRESH_SHUTDOWN_DELAY" default:"0s"`
	SnapshotDir   string        `envconfig:"REFRESH_SNAPSHOT_DIR"`
}

type LogConfig struct {
	Level       string   `envconfig:"LOG_LEVEL" default:"info"`
	Dir         string   `envconfig:"LOG_DIR" default:"log"`
	Development env.Flag `envconfig:"LOG_DEV" default:"false"`
}

// Load reads the configuration from environment variables. Each section is
// processed on its own so the variable names stay unprefixed.
func Load() (Config, error) {
	var cfg Config

	sections := []struct {
		name   string
		target any
	}{
		{"credentials", &cfg.Credentials},
		{"browser", &cfg.Browser},
		{"refresh", &cfg.Refresh},
		{"logging", &cfg.Logging},
	}

	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", entity.ErrInvalidConfig, s.name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Refresh.BaseURL == "" {
		return fmt.Errorf("%w: MPC_BASE_URL must not be empty", entity.ErrInvalidConfig)
	}
	if c.Refresh.MaxAttempts < 0 {
		return fmt.Errorf("%w: REFRESH_MAX_ATTEMPTS must be >= 0, got %d", entity.ErrInvalidConfig, c.Refresh.MaxAttempts)
	}
	if c.Browser.Timeout <= 0 {
		return fmt.Errorf("%w: BROWSER_TIMEOUT must be positive", entity.ErrInvalidConfig)
	}
	return nil
}

func (c Config) EntityCredentials() entity.Credentials {
	return entity.Credentials{
		Username: c.Credentials.Username,
		Password: c.Credentials.Password,
	}
}
