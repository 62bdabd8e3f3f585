package errors

import "net/http"

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNoLocation    = "NO_LOCATION"
	CodeIndexBuild    = "INDEX_BUILD_ERROR"
	CodeStore         = "STORE_ERROR"
	CodeSpotNotFound  = "SPOT_NOT_FOUND"
	CodeImportUnknown = "IMPORT_NOT_FOUND"
	CodeInvalidInput  = "INVALID_REQUEST"
	CodeFeed          = "FEED_ERROR"
	CodeInternalError = "INTERNAL_SERVER_ERROR"
)

var (
	ErrValidation = New(
		CodeValidation,
		"Parking spot failed validation",
		http.StatusUnprocessableEntity,
	)

	ErrNoLocation = New(
		CodeNoLocation,
		"No fresh location fix available",
		http.StatusConflict,
	)

	ErrIndexBuild = New(
		CodeIndexBuild,
		"Spatial index rebuild failed",
		http.StatusInternalServerError,
	)

	ErrStore = New(
		CodeStore,
		"Record store operation failed",
		http.StatusServiceUnavailable,
	)

	ErrSpotNotFound = New(
		CodeSpotNotFound,
		"Parking spot not found",
		http.StatusNotFound,
	)

	ErrImportNotFound = New(
		CodeImportUnknown,
		"Import batch not found",
		http.StatusNotFound,
	)

	ErrInvalidRequest = New(
		CodeInvalidInput,
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrFeed = New(
		CodeFeed,
		"Availability feed request failed",
		http.StatusBadGateway,
	)

	ErrInternalServer = New(
		CodeInternalError,
		"Internal server error",
		http.StatusInternalServerError,
	)
)
