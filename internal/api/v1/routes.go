// Package v1 provides the REST API handlers for add-on update resolution.
package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediahubhq/addon-registry-server/internal/addons"
	"github.com/mediahubhq/addon-registry-server/internal/service"
	"github.com/mediahubhq/addon-registry-server/pkg/logger"
)

// UpdateCheckRequest is the payload of an update-check call: the add-ons
// currently installed on the calling system, including their disabled state.
type UpdateCheckRequest struct {
	Installed []*addons.Addon `json:"installed"`
}

// UpdateCheckResponse lists the add-on versions available for installation,
// in the order the installed add-ons were submitted.
type UpdateCheckResponse struct {
	Updates []*addons.Addon `json:"updates"`
}

// LatestVersionsResponse lists the highest installable version per add-on.
type LatestVersionsResponse struct {
	Addons []*addons.Addon `json:"addons"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the registry API with dependency injection
type Routes struct {
	service service.UpdateService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.UpdateService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the registry API
func Router(svc service.UpdateService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Post("/updates", routes.checkUpdates)
	r.Get("/addons/latest", routes.listLatestVersions)
	r.Get("/addons/{id}/latest", routes.getLatestVersion)

	return r
}

// HealthRouter creates a router for health and readiness probes.
func HealthRouter(svc service.UpdateService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/health", routes.health)
	r.Get("/readiness", routes.readiness)

	return r
}

// checkUpdates resolves updates for the submitted installed add-ons.
func (routes *Routes) checkUpdates(w http.ResponseWriter, r *http.Request) {
	var req UpdateCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates, err := routes.service.CheckUpdates(r.Context(), req.Installed)
	if err != nil {
		logger.Errorf("Failed to check updates: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to check updates")
		return
	}

	writeJSON(w, http.StatusOK, UpdateCheckResponse{Updates: updates})
}

// listLatestVersions returns the highest installable version of every
// known add-on.
func (routes *Routes) listLatestVersions(w http.ResponseWriter, r *http.Request) {
	latest, err := routes.service.LatestVersions(r.Context())
	if err != nil {
		logger.Errorf("Failed to list latest versions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list latest versions")
		return
	}

	writeJSON(w, http.StatusOK, LatestVersionsResponse{Addons: latest})
}

// getLatestVersion returns the highest installable version of one add-on.
func (routes *Routes) getLatestVersion(w http.ResponseWriter, r *http.Request) {
	addonID := chi.URLParam(r, "id")

	latest, err := routes.service.LatestVersion(r.Context(), addonID)
	if err != nil {
		if errors.Is(err, service.ErrAddonNotFound) {
			writeError(w, http.StatusNotFound, "addon not found")
			return
		}
		logger.Errorf("Failed to get latest version of %s: %v", addonID, err)
		writeError(w, http.StatusInternalServerError, "failed to get latest version")
		return
	}

	writeJSON(w, http.StatusOK, latest)
}

// health is a liveness probe.
func (*Routes) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness reports whether the service can reach its catalog database.
func (routes *Routes) readiness(w http.ResponseWriter, r *http.Request) {
	if err := routes.service.CheckReadiness(r.Context()); err != nil {
		logger.Errorf("Readiness check failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
