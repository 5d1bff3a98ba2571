package refresh

import (
	"context"
	"fmt"
	"time"

	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/domain/entity"
)

type Authenticator struct {
	browser   output.BrowserPort
	site      Site
	pause     Pauser
	stepDelay time.Duration
	logger    output.LoggerPort
}

func NewAuthenticator(browser output.BrowserPort, site Site, pause Pauser, stepDelay time.Duration, logger output.LoggerPort) *Authenticator {
	if pause == nil {
		pause = Sleep
	}
	return &Authenticator{
		browser:   browser,
		site:      site,
		pause:     pause,
		stepDelay: stepDelay,
		logger:    logger,
	}
}

// Login signs in through the two-step email/password form and ends on the
// project listing. Success is not verified here; a failed login shows up
// later as a listing without projects.
func (a *Authenticator) Login(ctx context.Context, creds entity.Credentials) error {
	a.logger.Info("Opening login page", "url", a.site.LoginURL())
	if err := a.browser.Navigate(ctx, a.site.LoginURL()); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	if err := a.submitField(ctx, emailFieldID, creds.Username); err != nil {
		return fmt.Errorf("submit email: %w", err)
	}
	if err := a.submitField(ctx, passwordFieldID, creds.Password); err != nil {
		return fmt.Errorf("submit password: %w", err)
	}

	if err := a.browser.Navigate(ctx, a.site.ListingURL()); err != nil {
		return fmt.Errorf("open project listing: %w", err)
	}

	a.logger.Info("Login submitted", "url", a.browser.CurrentURL())
	return nil
}

func (a *Authenticator) submitField(ctx context.Context, elementID, value string) error {
	if err := a.browser.Fill(ctx, elementID, value); err != nil {
		return err
	}
	if err := a.browser.PressEnter(ctx, elementID); err != nil {
		return err
	}
	a.logger.Debug("Field submitted", "field", elementID)
	return a.pause(ctx, a.stepDelay)
}
