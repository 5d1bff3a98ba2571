// Package listing extracts project ids and the pagination link from the
// storefront's "temporary designs" page.
package listing

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"mpc-refresher/internal/domain/entity"
)

const (
	CheckboxXPath = "//div[@class='bmcheckbox']/input"
	NextPageXPath = "//div[@id='div_navPage']//a[text()='Next']"

	// checkbox ids look like "chk_1001"
	checkboxPrefixLen = 4
)

type Page struct {
	ProjectIDs []entity.ProjectID
	// NextHref is the href of the "Next" link, empty on the last page or
	// when the link is missing.
	NextHref string
}

func (p *Page) HasNext() bool {
	return p.NextHref != ""
}

func Parse(rawHTML string) (*Page, error) {
	doc, err := htmlquery.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	checkboxes, err := htmlquery.QueryAll(doc, CheckboxXPath)
	if err != nil {
		return nil, fmt.Errorf("query checkboxes: %w", err)
	}

	page := &Page{ProjectIDs: make([]entity.ProjectID, 0, len(checkboxes))}
	for _, node := range checkboxes {
		id, ok := attr(node, "id")
		if !ok {
			continue
		}
		page.ProjectIDs = append(page.ProjectIDs, ProjectIDFromCheckbox(id))
	}

	next, err := htmlquery.Query(doc, NextPageXPath)
	if err != nil {
		return nil, fmt.Errorf("query next link: %w", err)
	}
	if next != nil {
		page.NextHref, _ = attr(next, "href")
	}

	return page, nil
}

// ProjectIDFromCheckbox strips the fixed checkbox prefix. Ids shorter than
// the prefix collapse to an empty id rather than being rejected.
func ProjectIDFromCheckbox(checkboxID string) entity.ProjectID {
	if len(checkboxID) <= checkboxPrefixLen {
		return ""
	}
	return entity.ProjectID(checkboxID[checkboxPrefixLen:])
}

// attr distinguishes a missing attribute from an empty one, which
// htmlquery.SelectAttr does not.
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
