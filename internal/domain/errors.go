package domain

import "errors"

var (
	// ErrDataUnavailable is returned when the catalog failed to load or cannot serve a request
	ErrDataUnavailable = errors.New("catalog data unavailable")

	// ErrMissingColumn is returned when a column required by an operation is absent from the catalog
	ErrMissingColumn = errors.New("required catalog column missing")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrSimilarityUnavailable is returned when no similarity backend is configured
	ErrSimilarityUnavailable = errors.New("similarity backend not configured")

	// ErrSimilarityAPIFailure is returned when a similarity backend request fails
	ErrSimilarityAPIFailure = errors.New("similarity backend request failed")
)
