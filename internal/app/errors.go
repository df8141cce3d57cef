package service

import "errors"

// ErrNotConfigured indicates the pipeline was built without a source
// or destination.
var ErrNotConfigured = errors.New("pipeline not configured")
