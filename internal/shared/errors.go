package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingAPIKey = fmt.Errorf("missing steam api key")

	// Profile resolution errors
	ErrInvalidProfileFormat = fmt.Errorf("unrecognized profile format")
	ErrProfileNotFound      = fmt.Errorf("profile not found")
	ErrPrivateLibrary       = fmt.Errorf("library is private")

	// Fetch errors
	ErrRateLimited      = fmt.Errorf("rate budget exhausted")
	ErrTransientNetwork = fmt.Errorf("transient network failure")
	ErrAPIRequest       = fmt.Errorf("steam API request failed")

	// Sync errors
	ErrSyncInProgress   = fmt.Errorf("sync already in progress")
	ErrPartialImport    = fmt.Errorf("import completed with failures")
	ErrAccountNotLinked = fmt.Errorf("no steam account linked")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrNotFound        = fmt.Errorf("record not found")
)
