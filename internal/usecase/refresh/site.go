package refresh

import (
	"fmt"
	"net/url"
	"strings"

	"mpc-refresher/internal/domain/entity"
)

const (
	DefaultBaseURL = "https://www.makeplayingcards.com"

	loginPath   = "/login.aspx"
	listingPath = "/design/dn_temporary_designes.aspx"
	parsePath   = "/design/dn_temporary_parse.aspx"

	emailFieldID    = "txt_email"
	passwordFieldID = "txt_password"
)

// Site builds the storefront URLs the refresher visits.
type Site struct {
	BaseURL string
}

func NewSite(baseURL string) Site {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Site{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s Site) LoginURL() string {
	return s.BaseURL + loginPath
}

func (s Site) ListingURL() string {
	return s.BaseURL + listingPath
}

// RefreshURL keeps the id-then-edit parameter order the site uses.
func (s Site) RefreshURL(id entity.ProjectID) string {
	return fmt.Sprintf("%s%s?id=%s&edit=Y", s.BaseURL, parsePath, url.QueryEscape(id.String()))
}
