package apperrors

import "errors"

var (
	ErrInvalidRegistration = errors.New("invalid registration format")
	ErrNotConfigured       = errors.New("DVSA API credentials not configured")
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrUpstreamAuth        = errors.New("DVSA API authentication failed")
	ErrUpstreamForbidden   = errors.New("DVSA API access denied")
	ErrRateLimited         = errors.New("DVSA API rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("DVSA API unavailable")
	ErrInvalidUpstreamData = errors.New("invalid vehicle data received from DVSA API")
)
