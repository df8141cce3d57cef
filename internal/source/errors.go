package source

import "errors"

var (
	// ErrRoster indicates the athlete roster could not be retrieved.
	// Nothing downstream can run without it.
	ErrRoster = errors.New("roster fetch failed")

	// ErrAccounts indicates the account listing could not be retrieved.
	ErrAccounts = errors.New("account listing failed")

	// ErrAPIKey indicates the API key bootstrap call failed.
	ErrAPIKey = errors.New("api key fetch failed")
)
