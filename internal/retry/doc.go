// Package retry holds the single backoff decision table applied to provider
// identification attempts. The policy is a pure function of the attempt
// number and failure classification so it can be unit tested in isolation.
package retry
