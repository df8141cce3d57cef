package dest

import (
	"errors"
	"fmt"
)

var (
	// ErrUserSync indicates the destination user listing failed.
	ErrUserSync = errors.New("user synchronisation failed")

	// ErrExistingEvents indicates the existing-event scan failed in a
	// way that cannot be narrowed to individual users.
	ErrExistingEvents = errors.New("existing event scan failed")

	// ErrMissingRequired indicates a record reached the uploader
	// without its composite id. Uploading it would create an
	// undeduplicatable event, so the run stops.
	ErrMissingRequired = errors.New("record missing required fields")
)

func wrap(sentinel, err error) error {
	return fmt.Errorf("%w: %v", sentinel, err)
}
