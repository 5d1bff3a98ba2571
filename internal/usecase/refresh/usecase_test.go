package refresh

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpc-refresher/internal/domain/entity"
)

type snapshotRecorder struct {
	names []string
}

func (s *snapshotRecorder) Save(ctx context.Context, name string, shot *entity.Screenshot) (string, error) {
	s.names = append(s.names, name)
	return "/tmp/" + name + ".jpeg", nil
}

type harness struct {
	browser   *fakeBrowser
	pauses    *pauseRecorder
	progress  *progressRecorder
	snapshots *snapshotRecorder
	uc        *UseCase
}

func newHarness(browser *fakeBrowser, policy RetryPolicy) *harness {
	h := &harness{
		browser:   browser,
		pauses:    &pauseRecorder{},
		progress:  &progressRecorder{},
		snapshots: &snapshotRecorder{},
	}

	site := NewSite(testBaseURL)
	log := testLogger()

	h.uc = New(
		NewAuthenticator(browser, site, h.pauses.Pause, time.Second, log),
		NewEnumerator(browser, site, h.pauses.Pause, 500*time.Millisecond, log),
		NewRefresher(browser, site, policy, h.pauses.Pause, time.Second, h.progress, log),
		browser,
		h.snapshots,
		h.progress,
		log,
		Config{Credentials: entity.Credentials{Username: "alice", Password: "secret"}},
	)
	return h
}

func (h *harness) refreshedURLs() []string {
	var urls []string
	for _, u := range h.browser.navigations() {
		if strings.HasPrefix(u, testBaseURL+parsePath) {
			urls = append(urls, u)
		}
	}
	return urls
}

func (h *harness) count(call string) int {
	n := 0
	for _, c := range h.browser.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func TestUseCase_RefreshesAllProjectsAcrossPages(t *testing.T) {
	browser := newFakeBrowser(
		listingPage("javascript:__doPostBack('pager','2')", "chk_1001", "chk_1002"),
		listingPage("", "chk_2001"),
	)
	h := newHarness(browser, DefaultRetryPolicy())

	result, err := h.uc.Execute(context.Background(), entity.RefreshRequest{})
	require.NoError(t, err)

	assert.Equal(t, []entity.ProjectID{"1001", "1002", "2001"}, result.Refreshed)
	assert.Equal(t, 3, result.Attempts)

	assert.Equal(t, 1, h.count("fill txt_email=alice"), "authenticates once")
	assert.Equal(t, 1, h.count("fill txt_password=secret"))

	site := NewSite(testBaseURL)
	assert.Equal(t, []string{
		site.RefreshURL("1001"),
		site.RefreshURL("1002"),
		site.RefreshURL("2001"),
	}, h.refreshedURLs())

	assert.Equal(t, []string{
		"login",
		"finding projects",
		"Refreshing 1/3",
		"Refreshing 2/3",
		"Refreshing 3/3",
		"done 3",
	}, h.progress.Lines())
	assert.Empty(t, h.snapshots.names)
}

func TestUseCase_SingleProjectSkipsEnumeration(t *testing.T) {
	browser := newFakeBrowser(listingPage("", "chk_1001"))
	h := newHarness(browser, DefaultRetryPolicy())

	result, err := h.uc.Execute(context.Background(), entity.RefreshRequest{ProjectID: "9999"})
	require.NoError(t, err)

	assert.Equal(t, []entity.ProjectID{"9999"}, result.Refreshed)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, []string{NewSite(testBaseURL).RefreshURL("9999")}, h.refreshedURLs())
	assert.Zero(t, h.count("html"), "listing is never read")
	assert.NotContains(t, h.progress.Lines(), "finding projects")
}

func TestUseCase_SingleProjectRetriesOnFailure(t *testing.T) {
	browser := newFakeBrowser()
	target := NewSite(testBaseURL).RefreshURL("9999")
	browser.failNavigation(target, transientErr(target), transientErr(target))
	h := newHarness(browser, RetryPolicy{Delay: time.Millisecond})

	result, err := h.uc.Execute(context.Background(), entity.RefreshRequest{ProjectID: "9999"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempts)
	assert.Len(t, h.refreshedURLs(), 3)
	assert.Equal(t, []string{"login", "Retrying 9999", "Retrying 9999", "done 1"}, h.progress.Lines())
}

func TestUseCase_NoProjects(t *testing.T) {
	h := newHarness(newFakeBrowser(listingPage("")), DefaultRetryPolicy())

	result, err := h.uc.Execute(context.Background(), entity.RefreshRequest{})
	require.NoError(t, err)
	assert.Empty(t, result.Refreshed)
	assert.Empty(t, h.refreshedURLs())
}

func TestUseCase_LoginFailureAborts(t *testing.T) {
	browser := newFakeBrowser(listingPage("", "chk_1001"))
	browser.screenshot = &entity.Screenshot{Data: []byte{1}, Format: "jpeg"}
	site := NewSite(testBaseURL)
	browser.failNavigation(site.LoginURL(), transientErr(site.LoginURL()))
	h := newHarness(browser, DefaultRetryPolicy())

	result, err := h.uc.Execute(context.Background(), entity.RefreshRequest{})
	assert.ErrorIs(t, err, entity.ErrNavigation)
	assert.Nil(t, result)
	assert.Empty(t, h.refreshedURLs())
	assert.Equal(t, []string{"login"}, h.snapshots.names)
}

func TestUseCase_EnumerationFailureAborts(t *testing.T) {
	browser := newFakeBrowser(listingPage("?page=2", "chk_1001"))
	h := newHarness(browser, DefaultRetryPolicy())

	_, err := h.uc.Execute(context.Background(), entity.RefreshRequest{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "finding projects failed")
	assert.Empty(t, h.refreshedURLs())
	assert.Empty(t, h.snapshots.names, "no screenshot available from the fake")
}

func TestUseCase_StopsOnExhaustedRefresh(t *testing.T) {
	browser := newFakeBrowser(listingPage("", "chk_1001", "chk_1002"))
	target := NewSite(testBaseURL).RefreshURL("1001")
	browser.failNavigation(target, transientErr(target), transientErr(target))
	h := newHarness(browser, RetryPolicy{Delay: time.Millisecond, MaxAttempts: 2})

	result, err := h.uc.Execute(context.Background(), entity.RefreshRequest{})
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	require.NotNil(t, result)
	assert.Empty(t, result.Refreshed)
	assert.Equal(t, 2, result.Attempts)
}

func TestUseCase_IntervalPacesRefreshes(t *testing.T) {
	browser := newFakeBrowser(listingPage("", "chk_1001", "chk_1002", "chk_1003"))
	site := NewSite(testBaseURL)
	log := testLogger()
	pause := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	progress := &progressRecorder{}

	uc := New(
		NewAuthenticator(browser, site, pause, 0, log),
		NewEnumerator(browser, site, pause, 0, log),
		NewRefresher(browser, site, DefaultRetryPolicy(), pause, 0, progress, log),
		browser, nil, progress, log,
		Config{
			Credentials: entity.Credentials{Username: "alice", Password: "secret"},
			Interval:    30 * time.Millisecond,
		},
	)

	start := time.Now()
	result, err := uc.Execute(context.Background(), entity.RefreshRequest{})
	require.NoError(t, err)
	assert.Len(t, result.Refreshed, 3)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
