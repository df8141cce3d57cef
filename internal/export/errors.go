package export

import "errors"

var (
	// ErrUnsupportedFormat indicates the output extension is neither
	// .xlsx nor .csv.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrWriteFailed indicates the export file could not be produced.
	ErrWriteFailed = errors.New("export write failed")
)
