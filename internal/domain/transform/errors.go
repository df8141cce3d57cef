package transform

import "errors"

// Sentinel kinds for transformation errors.
var (
	ErrBadTimestamp = errors.New("unparseable vendor timestamp")
)
