package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/domain/entity"
	"mpc-refresher/internal/infrastructure/logger"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	defaultTimeout        = 30 * time.Second
	defaultNavigationWait = 10 * time.Second
	defaultSlowMotion     = 0
)

var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidSelector = errors.New("invalid selector")
)

type BrowserAdapter struct {
	browser        *rod.Browser
	launcher       *launcher.Launcher
	page           *rod.Page
	timeout        time.Duration
	navigationWait time.Duration
	logger         output.LoggerPort
	closed         bool
}

type BrowserConfig struct {
	Headless bool
	// NoSandbox passes --no-sandbox, needed when Chrome runs as root or in
	// a container.
	NoSandbox  bool
	WebGL      bool
	UserAgent  string
	ChromePath string
	Stealth    bool
	SlowMotion time.Duration
	Timeout    time.Duration
	// NavigationWait bounds how long Click waits for the page load a click
	// may start. Links that only run script never trigger one.
	NavigationWait time.Duration
	Trace          bool
	Logger         output.LoggerPort
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:       false,
		NoSandbox:      false,
		SlowMotion:     defaultSlowMotion,
		Timeout:        defaultTimeout,
		NavigationWait: defaultNavigationWait,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.NavigationWait <= 0 {
		cfg.NavigationWait = defaultNavigationWait
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	l := newLauncher(cfg).Context(ctx)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		Trace(cfg.Trace).
		SlowMotion(cfg.SlowMotion)

	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:        browser,
		launcher:       l,
		page:           page,
		timeout:        cfg.Timeout,
		navigationWait: cfg.NavigationWait,
		logger:         cfg.Logger,
	}, nil
}

// newLauncher turns the config into Chrome command-line flags.
func newLauncher(cfg BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Set("disable-save-password-bubble").
		Set("password-store", "basic").
		Set("disable-features", "PasswordManagerOnboarding,PasswordLeakDetection")

	if cfg.NoSandbox {
		l = l.Set("disable-setuid-sandbox")
	}
	if cfg.WebGL {
		l = l.Set("enable-webgl")
	}
	if cfg.UserAgent != "" {
		l = l.Set(flags.Flag("user-agent"), cfg.UserAgent)
	}
	if cfg.ChromePath != "" {
		l = l.Bin(cfg.ChromePath)
	}

	return l
}

func (b *BrowserAdapter) IsReady() bool {
	return !b.closed && b.page != nil
}

// pageFor binds the page to ctx and the per-operation timeout. Callers must
// release it with CancelTimeout.
func (b *BrowserAdapter) pageFor(ctx context.Context) (*rod.Page, error) {
	if !b.IsReady() {
		return nil, entity.ErrBrowserClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.page.Context(ctx).Timeout(b.timeout), nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}

	p, err := b.pageFor(ctx)
	if err != nil {
		return err
	}
	defer p.CancelTimeout()

	if err := p.Navigate(rawURL); err != nil {
		return navigationError(ctx, rawURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return navigationError(ctx, rawURL, err)
	}
	return nil
}

func (b *BrowserAdapter) Fill(ctx context.Context, elementID, text string) error {
	el, release, err := b.elementByID(ctx, elementID)
	if err != nil {
		return err
	}
	defer release()

	if err := el.Input(text); err != nil {
		return fmt.Errorf("input into #%s failed: %w", elementID, err)
	}
	return nil
}

func (b *BrowserAdapter) PressEnter(ctx context.Context, elementID string) error {
	el, release, err := b.elementByID(ctx, elementID)
	if err != nil {
		return err
	}
	defer release()

	if err := el.Type(input.Enter); err != nil {
		return fmt.Errorf("failed to press Enter on #%s: %w", elementID, err)
	}
	return nil
}

// elementByID waits until the element shows up, up to the adapter timeout.
func (b *BrowserAdapter) elementByID(ctx context.Context, elementID string) (*rod.Element, func(), error) {
	if elementID == "" {
		return nil, nil, fmt.Errorf("%w: empty element id", ErrInvalidSelector)
	}

	p, err := b.pageFor(ctx)
	if err != nil {
		return nil, nil, err
	}

	el, err := p.Element("#" + elementID)
	if err != nil {
		p.CancelTimeout()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, fmt.Errorf("%w: #%s: %w", entity.ErrElementNotFound, elementID, err)
	}

	return el, func() { p.CancelTimeout() }, nil
}

// Click clicks the element matched by xpath and waits, up to the navigation
// wait, for the navigation it starts to reach the load event. A click that
// starts no navigation is not an error.
func (b *BrowserAdapter) Click(ctx context.Context, xpath string) error {
	if xpath == "" {
		return fmt.Errorf("%w: empty xpath", ErrInvalidSelector)
	}

	p, err := b.pageFor(ctx)
	if err != nil {
		return err
	}
	defer p.CancelTimeout()

	el, err := p.ElementX(xpath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %w", entity.ErrElementNotFound, xpath, err)
	}

	nav := p.Timeout(b.navigationWait)
	defer nav.CancelTimeout()

	wait := nav.WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	wait()

	if ctx.Err() == nil && errors.Is(nav.GetContext().Err(), context.DeadlineExceeded) {
		b.logger.Debug("No page load after click", "xpath", xpath, "waited", b.navigationWait.String())
	}
	return nil
}

func (b *BrowserAdapter) WaitLoad(ctx context.Context) error {
	p, err := b.pageFor(ctx)
	if err != nil {
		return err
	}
	defer p.CancelTimeout()

	if err := p.WaitLoad(); err != nil {
		return navigationError(ctx, b.CurrentURL(), err)
	}
	return nil
}

func (b *BrowserAdapter) HTML(ctx context.Context) (string, error) {
	p, err := b.pageFor(ctx)
	if err != nil {
		return "", err
	}
	defer p.CancelTimeout()

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	if !b.IsReady() {
		return ""
	}
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	return nil
}

// navigationError marks transport and rendering failures as retryable
// navigation errors. Cancellation of the caller's context is passed through
// unchanged so it is never retried.
func navigationError(ctx context.Context, rawURL string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %w", entity.ErrNavigation, rawURL, err)
}
