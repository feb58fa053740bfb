// Package ratelimit implements the per-provider token bucket applied ahead
// of every external identification request. Acquire never drops a request;
// it blocks the caller until a token is available or the context ends.
package ratelimit
