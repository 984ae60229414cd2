package weather

import "errors"

var (
	// ErrInvalidCoordinates is returned before any network call for NaN or out-of-range input.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrCurrentUnavailable aborts a composition: nothing renders without current conditions.
	ErrCurrentUnavailable = errors.New("current weather unavailable")

	// ErrLocationNotFound is returned when a free-text query resolves to nothing.
	ErrLocationNotFound = errors.New("location not found")

	// ErrSuperseded marks a cycle whose result was dropped because a newer one started.
	ErrSuperseded = errors.New("fetch cycle superseded")

	// ErrNoSession is returned when the session has no coordinates to refetch.
	ErrNoSession = errors.New("no active location")

	// ErrUnauthorized and ErrRateLimited classify upstream HTTP 401 and 429.
	ErrUnauthorized = errors.New("upstream rejected api key")
	ErrRateLimited  = errors.New("upstream rate limited")
)
