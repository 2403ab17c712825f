package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/motcheck/motcheck-engine/pkg/apperrors"
	"github.com/motcheck/motcheck-engine/pkg/registration"
	"github.com/motcheck/motcheck-engine/pkg/services"
)

// VehiclesHandler handles vehicle lookup HTTP requests.
type VehiclesHandler struct {
	lookup  services.VehicleLookupService
	fetcher services.Fetcher
	logger  *zap.Logger
}

// NewVehiclesHandler creates a new vehicles handler. The fetcher is used only
// by the raw DVSA passthrough endpoint; normal lookups go through the service.
func NewVehiclesHandler(lookup services.VehicleLookupService, fetcher services.Fetcher, logger *zap.Logger) *VehiclesHandler {
	return &VehiclesHandler{
		lookup:  lookup,
		fetcher: fetcher,
		logger:  logger,
	}
}

// RegisterRoutes registers the vehicles handler's routes on the given mux.
// The registration route is more specific than the uuid route, so the mux
// dispatches /api/vehicle/registration/... ahead of /api/vehicle/{uuid}.
func (h *VehiclesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/vehicle/registration/{registration}", h.LookupByRegistration)
	mux.HandleFunc("GET /api/vehicle/{uuid}", h.LookupByUUID)
	mux.HandleFunc("GET /api/dvsa/vehicle/{registration}", h.FetchRaw)
}

// LookupByRegistration handles GET /api/vehicle/registration/{registration}.
// Runs the full ingestion workflow and returns the aggregated report; the
// response includes the vehicle's shareable uuid for redirection.
func (h *VehiclesHandler) LookupByRegistration(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("registration")

	report, err := h.lookup.LookupByRegistration(r.Context(), raw)
	if err != nil {
		h.writeError(w, err, zap.String("registration", raw))
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// LookupByUUID handles GET /api/vehicle/{uuid}, the read-only path for
// shareable links.
func (h *VehiclesHandler) LookupByUUID(w http.ResponseWriter, r *http.Request) {
	lookupKey := r.PathValue("uuid")

	report, err := h.lookup.LookupByUUID(r.Context(), lookupKey)
	if err != nil {
		h.writeError(w, err, zap.String("uuid", lookupKey))
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// FetchRaw handles GET /api/dvsa/vehicle/{registration}: a diagnostic
// passthrough of the raw upstream payload, bypassing storage and predictions.
func (h *VehiclesHandler) FetchRaw(w http.ResponseWriter, r *http.Request) {
	reg, err := registration.Normalize(r.PathValue("registration"))
	if err != nil {
		h.writeError(w, err, zap.String("registration", r.PathValue("registration")))
		return
	}

	record, err := h.fetcher.Fetch(r.Context(), reg)
	if err != nil {
		h.writeError(w, err, zap.String("registration", reg))
		return
	}

	if err := WriteJSON(w, http.StatusOK, record); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeError maps workflow errors onto response codes. Known error kinds keep
// their human-readable message; anything unrecognized is logged and collapsed
// to a generic 500 so internal detail never leaks.
func (h *VehiclesHandler) writeError(w http.ResponseWriter, err error, fields ...zap.Field) {
	var status int
	var code string

	switch {
	case errors.Is(err, apperrors.ErrInvalidRegistration):
		status, code = http.StatusBadRequest, "invalid_registration"
	case errors.Is(err, apperrors.ErrNotConfigured):
		status, code = http.StatusServiceUnavailable, "dvsa_not_configured"
	case errors.Is(err, apperrors.ErrVehicleNotFound):
		status, code = http.StatusNotFound, "vehicle_not_found"
	case errors.Is(err, apperrors.ErrUpstreamAuth):
		status, code = http.StatusUnauthorized, "dvsa_auth_failed"
	case errors.Is(err, apperrors.ErrUpstreamForbidden):
		status, code = http.StatusForbidden, "dvsa_access_denied"
	case errors.Is(err, apperrors.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "dvsa_rate_limited"
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		status, code = http.StatusServiceUnavailable, "dvsa_unavailable"
	case errors.Is(err, apperrors.ErrInvalidUpstreamData):
		status, code = http.StatusInternalServerError, "invalid_upstream_data"
	default:
		h.logger.Error("Vehicle lookup failed", append(fields, zap.Error(err))...)
		if writeErr := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to fetch vehicle data"); writeErr != nil {
			h.logger.Error("Failed to write error response", zap.Error(writeErr))
		}
		return
	}

	h.logger.Warn("Vehicle lookup rejected", append(fields, zap.Error(err))...)
	if writeErr := ErrorResponse(w, status, code, err.Error()); writeErr != nil {
		h.logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
