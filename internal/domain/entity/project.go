package entity

// ProjectID identifies a saved design on the storefront. It is the checkbox
// element id from the listing page with its fixed prefix removed.
type ProjectID string

func (id ProjectID) String() string {
	return string(id)
}

type Credentials struct {
	Username string
	Password string
}

type RefreshRequest struct {
	// ProjectID limits the run to a single project. Empty means every
	// project found on the listing.
	ProjectID ProjectID
}

type RefreshResult struct {
	Refreshed []ProjectID
	Attempts  int
}
