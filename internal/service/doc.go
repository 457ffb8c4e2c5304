// Package service contains the application use cases.
//
// AggregatedWordService turns validated request parameters into query plans
// (internal/aggregate), hands them to a store.AggregatedWordStore and wraps
// failures with operation context. Validation errors are returned unchanged
// so that the API layer can report them as bad requests; store errors keep
// their chain, so errors.Is(err, store.ErrNotFound) and
// errors.Is(err, store.ErrStoreUnavailable) still hold.
//
// The service depends on store interfaces only, never on a database driver.
package service
