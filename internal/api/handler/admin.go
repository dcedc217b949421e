package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcoot/liveclass/internal/api/apierr"
	"github.com/mcoot/liveclass/internal/api/middleware"
	"github.com/mcoot/liveclass/internal/api/request"
	"github.com/mcoot/liveclass/internal/api/response"
	"github.com/mcoot/liveclass/internal/services/eviction"
	"github.com/mcoot/liveclass/internal/session"
)

// Evicter is the eviction gateway used by the admin endpoints
type Evicter interface {
	Evict(ctx context.Context, req eviction.Request) (eviction.Result, error)
}

// Snapshotter reads a consistent view of the session
type Snapshotter interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

// AdminHandler handles admin endpoints
type AdminHandler struct {
	evicter     Evicter
	snapshotter Snapshotter
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(evicter Evicter, snapshotter Snapshotter) *AdminHandler {
	return &AdminHandler{
		evicter:     evicter,
		snapshotter: snapshotter,
	}
}

// Evict handles POST /admin/evict
func (h *AdminHandler) Evict(w http.ResponseWriter, r *http.Request) {
	var req request.EvictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("Invalid request body"))
		return
	}

	// The header is accepted as an alternative to the body field
	if req.Secret == "" {
		req.Secret = r.Header.Get(middleware.AdminSecretHeader)
	}

	result, err := h.evicter.Evict(r.Context(), eviction.Request{
		Secret:   req.Secret,
		Identity: req.Identity,
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EvictFromResult(result))
}

// Roster handles GET /admin/roster
func (h *AdminHandler) Roster(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshotter.Snapshot(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RosterFromSnapshot(snapshot))
}
