package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/domain/entity"
	"mpc-refresher/internal/infrastructure/listing"
	"mpc-refresher/internal/infrastructure/logger"
)

const testBaseURL = "https://shop.test"

// fakeBrowser imitates the storefront: listing pages are served in order as
// "Next" is clicked, and navigations can be told to fail.
type fakeBrowser struct {
	mu sync.Mutex

	calls      []string
	url        string
	pages      []string
	pageIndex  int
	failures   map[string][]error
	fillErr    map[string]error
	screenshot *entity.Screenshot
	closed     bool
}

func newFakeBrowser(pages ...string) *fakeBrowser {
	return &fakeBrowser{
		pages:    pages,
		failures: make(map[string][]error),
		fillErr:  make(map[string]error),
	}
}

// failNavigation queues errors returned by the next navigations to url.
func (f *fakeBrowser) failNavigation(url string, errs ...error) {
	f.failures[url] = append(f.failures[url], errs...)
}

func (f *fakeBrowser) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBrowser) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// navigations returns the URLs passed to Navigate, in order.
func (f *fakeBrowser) navigations() []string {
	var urls []string
	for _, c := range f.Calls() {
		if u, ok := strings.CutPrefix(c, "navigate "); ok {
			urls = append(urls, u)
		}
	}
	return urls
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	f.record("navigate " + url)

	if errs := f.failures[url]; len(errs) > 0 {
		f.failures[url] = errs[1:]
		return errs[0]
	}

	f.url = url
	if strings.HasSuffix(url, listingPath) {
		f.pageIndex = 0
	}
	return nil
}

func (f *fakeBrowser) Fill(ctx context.Context, elementID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("fill %s=%s", elementID, text))
	return f.fillErr[elementID]
}

func (f *fakeBrowser) PressEnter(ctx context.Context, elementID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("enter " + elementID)
	return nil
}

func (f *fakeBrowser) Click(ctx context.Context, xpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("click " + xpath)
	if xpath != listing.NextPageXPath {
		return fmt.Errorf("%w: %s", entity.ErrElementNotFound, xpath)
	}
	f.pageIndex++
	return nil
}

func (f *fakeBrowser) WaitLoad(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("waitload")
	return nil
}

func (f *fakeBrowser) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("html")
	if f.pageIndex >= len(f.pages) {
		return "", fmt.Errorf("no listing page %d", f.pageIndex+1)
	}
	return f.pages[f.pageIndex], nil
}

func (f *fakeBrowser) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.screenshot == nil {
		return nil, fmt.Errorf("no screenshot")
	}
	return f.screenshot, nil
}

func (f *fakeBrowser) CurrentURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

func (f *fakeBrowser) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// listingPage renders a listing page with the given checkbox ids. An empty
// next renders the "Next" link without an href.
func listingPage(next string, checkboxIDs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table>`)
	for _, id := range checkboxIDs {
		if id == "" {
			b.WriteString(`<tr><td><div class="bmcheckbox"><input type="checkbox" /></div></td></tr>`)
			continue
		}
		fmt.Fprintf(&b, `<tr><td><div class="bmcheckbox"><input type="checkbox" id="%s" /></div></td></tr>`, id)
	}
	b.WriteString(`</table><div id="div_navPage">`)
	if next != "" {
		fmt.Fprintf(&b, `<a href="%s">Next</a>`, next)
	} else {
		b.WriteString(`<a>Next</a>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// pauseRecorder is a Pauser that returns immediately and remembers what it
// was asked to wait.
type pauseRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (p *pauseRecorder) Pause(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.delays = append(p.delays, d)
	p.mu.Unlock()
	return ctx.Err()
}

func (p *pauseRecorder) Delays() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]time.Duration, len(p.delays))
	copy(out, p.delays)
	return out
}

var _ output.ProgressPort = (*progressRecorder)(nil)

type progressRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (p *progressRecorder) add(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line)
}

func (p *progressRecorder) Status(msg string) { p.add(msg) }

func (p *progressRecorder) Refreshing(current, total int, id entity.ProjectID) {
	p.add(fmt.Sprintf("Refreshing %d/%d", current, total))
}

func (p *progressRecorder) Retrying(id entity.ProjectID, err error) {
	p.add(fmt.Sprintf("Retrying %s", id))
}

func (p *progressRecorder) Done(result *entity.RefreshResult) {
	p.add(fmt.Sprintf("done %d", len(result.Refreshed)))
}

func (p *progressRecorder) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

// cancelingProgress cancels the run once it has seen cancelAfter retries.
type cancelingProgress struct {
	progressRecorder
	retries     int
	cancelAfter int
	cancel      context.CancelFunc
}

func (p *cancelingProgress) Retrying(id entity.ProjectID, err error) {
	p.progressRecorder.Retrying(id, err)
	p.retries++
	if p.retries == p.cancelAfter {
		p.cancel()
	}
}

func testLogger() output.LoggerPort {
	return logger.NewNop()
}

func transientErr(url string) error {
	return fmt.Errorf("%w: %s: net::ERR_CONNECTION_RESET", entity.ErrNavigation, url)
}
