package constants

import "errors"

// Command-line errors.
var (
	ErrInvalidKeyValue     = errors.New("expected key=value")
	ErrNoMappingFile       = errors.New("no mapping file configured, use --mapping or mapping_file")
	ErrNoBaseURL           = errors.New("no base URL configured, use --base-url or base_url")
	ErrUnsupportedFormat   = errors.New("unsupported output format")
	ErrNotTerminal         = errors.New("token prompt requires a terminal")
	ErrEndpointNotCallable = errors.New("path does not name an endpoint")
)
