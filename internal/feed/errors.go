package feed

import "errors"

// Sentinel errors for feed access and catalog matching.
var (
	// ErrFeedUnavailable indicates the release feed could not be reached and
	// no usable cached data exists.
	ErrFeedUnavailable = errors.New("release feed unavailable")
	// ErrRateLimited indicates the feed kept rate-limiting us after the
	// retry budget was exhausted. Supplying a GitHub token raises the limit.
	ErrRateLimited = errors.New("rate limited by release feed")
	// ErrReleaseNotFound indicates the requested release tag does not exist
	// upstream.
	ErrReleaseNotFound = errors.New("release not found")
	// ErrDistributionNotFound indicates no catalog asset carries the exact
	// requested distribution string for the chosen version.
	ErrDistributionNotFound = errors.New("distribution not found")
	// ErrUnknownHost indicates no default distribution is known for this
	// host platform and architecture.
	ErrUnknownHost = errors.New("no default distribution for this host")
)
