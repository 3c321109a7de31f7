package domain

import "errors"

var (
	// ErrNotConfigured is returned when a collaborator is missing credentials.
	ErrNotConfigured = errors.New("data source not configured")
	// ErrNoData is returned when an upstream answered but had nothing for the request.
	ErrNoData = errors.New("no data available")
)
