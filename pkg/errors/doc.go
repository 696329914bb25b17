// Package errors provides structured error handling with error codes for foodpal.
//
// This package standardizes error handling across all services with typed error
// codes, error wrapping, HTTP status code mapping, and a failure classification
// used by the login flow to decide what the client should do next.
//
// # Basic Usage
//
// Creating errors with codes:
//
//	import "github.com/foodpal/foodpal/pkg/errors"
//
//	// Create a simple error
//	err := errors.New(errors.ErrCodeUnknownKey, "key id not in provider key set")
//
//	// Wrap an existing error
//	err := errors.Wrap(httpErr, errors.ErrCodeKeyFetchFailed, "failed to fetch provider JWKS")
//
//	// Inspect errors
//	if errors.IsCode(err, errors.ErrCodeTokenExpired) { ... }
//
// # Failure classification
//
// Every authentication error maps to one of three client-facing classes:
//
//   - ClassRetryLogin: transient provider failures (key fetch, code exchange);
//     the same login attempt may be retried.
//   - ClassRestartLogin: the presented token or code is unusable (malformed,
//     bad signature, expired, claim mismatch); start a fresh login.
//   - ClassInternal: failures on our side (user store).
//
// The classification is the only detail exposed to clients; provider-internal
// error text never leaves the server.
package errors
