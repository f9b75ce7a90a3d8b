package errors

import "net/http"

var (
	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrUnknownInfrastructureKind = New(
		"UNKNOWN_INFRASTRUCTURE_KIND",
		"Infrastructure object has unrecognized kind",
		http.StatusUnprocessableEntity,
	)

	ErrOverpassUnavailable = New(
		"OVERPASS_ERROR",
		"Failed to fetch data from Overpass API",
		http.StatusBadGateway,
	)

	ErrRunNotFound = New(
		"RUN_NOT_FOUND",
		"Detection run not found",
		http.StatusNotFound,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
