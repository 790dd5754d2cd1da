// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfiguration marks a credential or option that cannot work for
	// the requested transport. Never retryable.
	ErrConfiguration = errors.New("takapi: configuration error")

	// ErrInvalidCredentials is returned when the Server rejects a username
	// and password during token exchange.
	ErrInvalidCredentials = errors.New("takapi: invalid username or password")

	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("takapi: unauthorized")

	// ErrNotFound matches 404 responses and the mission/layer sentinels below.
	ErrNotFound = errors.New("takapi: not found")

	// ErrMissionNotFound is returned when a mission lookup yields no entries.
	ErrMissionNotFound = fmt.Errorf("%w: mission", ErrNotFound)

	// ErrLayerNotFound is returned by MissionLayers.Get. Only top-level
	// layers are searched.
	ErrLayerNotFound = fmt.Errorf("%w: mission layer (nested layers are not searched)", ErrNotFound)
)

// APIError is a non-success response from the Server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tak server: %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match the status-derived sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// StatusCode extracts the HTTP status from an *APIError chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
