// Package idcache stores provider identification results keyed by a
// deterministic segment fingerprint so repeated runs over the same audio
// never re-contact providers for segments already resolved.
//
// The cache degrades rather than fails: backend errors are logged and
// treated as misses on read and as no-ops on write, so an unavailable
// backend never aborts a pipeline run.
package idcache
