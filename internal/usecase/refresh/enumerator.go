package refresh

import (
	"context"
	"fmt"
	"time"

	"mpc-refresher/internal/application/port/output"
	"mpc-refresher/internal/domain/entity"
	"mpc-refresher/internal/infrastructure/listing"
)

type Enumerator struct {
	browser   output.BrowserPort
	site      Site
	pause     Pauser
	pageDelay time.Duration
	logger    output.LoggerPort
}

func NewEnumerator(browser output.BrowserPort, site Site, pause Pauser, pageDelay time.Duration, logger output.LoggerPort) *Enumerator {
	if pause == nil {
		pause = Sleep
	}
	return &Enumerator{
		browser:   browser,
		site:      site,
		pause:     pause,
		pageDelay: pageDelay,
		logger:    logger,
	}
}

// FindProjects walks the listing pages in order and collects every project
// id. It follows "Next" until the link has no href; a listing whose pages
// link in a cycle is never left.
func (e *Enumerator) FindProjects(ctx context.Context) ([]entity.ProjectID, error) {
	if err := e.browser.Navigate(ctx, e.site.ListingURL()); err != nil {
		return nil, fmt.Errorf("open project listing: %w", err)
	}

	ids := []entity.ProjectID{}
	for pageNum := 1; ; pageNum++ {
		html, err := e.browser.HTML(ctx)
		if err != nil {
			return nil, fmt.Errorf("read listing page %d: %w", pageNum, err)
		}

		page, err := listing.Parse(html)
		if err != nil {
			return nil, fmt.Errorf("parse listing page %d: %w", pageNum, err)
		}

		ids = append(ids, page.ProjectIDs...)
		e.logger.Debug("Listing page parsed", "page", pageNum, "projects", len(page.ProjectIDs))

		if !page.HasNext() {
			break
		}

		if err := e.browser.Click(ctx, listing.NextPageXPath); err != nil {
			return nil, fmt.Errorf("open listing page %d: %w", pageNum+1, err)
		}
		if err := e.pause(ctx, e.pageDelay); err != nil {
			return nil, err
		}
		if err := e.browser.WaitLoad(ctx); err != nil {
			return nil, fmt.Errorf("load listing page %d: %w", pageNum+1, err)
		}
	}

	e.logger.Info("Projects found", "count", len(ids))
	return ids, nil
}
