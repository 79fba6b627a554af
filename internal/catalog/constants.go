package catalog

// File operation error messages
const (
	ErrMsgReadConfigFileFailed = "failed to read items config file: %w"
	ErrMsgParseConfigFailed    = "failed to parse items config: %w"
)

// Validation error messages (fragments used with error wrapping)
const (
	ErrMsgConfigNil        = "config is nil"
	ErrMsgNoItemsDefined   = "no items defined"
	ErrFmtItemAtIndexEmpty = "%w: item at index %d has empty id"
	ErrFmtUnknownCategory  = "%w: item '%s' has unknown category '%s'"
	ErrFmtBadMaxStack      = "%w: item '%s' has max stack %d"
	ErrFmtSingleUnitStack  = "%w: item '%s' is not stackable but has max stack %d"
)

// Log messages
const (
	LogMsgCatalogLoaded = "Item catalog loaded"
)
