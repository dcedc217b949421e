package handler

import (
	"bytes"
	"context"
	"net/http"

	"github.com/mcoot/liveclass/internal/session"
	"github.com/mcoot/liveclass/internal/web/templates/pages"
)

// Snapshotter reads a consistent view of the session
type Snapshotter interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

// HomeHandler handles the status page
type HomeHandler struct {
	snapshotter Snapshotter
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(snapshotter Snapshotter) *HomeHandler {
	return &HomeHandler{snapshotter: snapshotter}
}

// Home renders the status page. Names are not shown; the roster is admin-only.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := pages.HomeData{Title: "Live Class"}

	status := http.StatusOK
	snapshot, err := h.snapshotter.Snapshot(r.Context())
	if err != nil {
		status = http.StatusServiceUnavailable
	} else {
		data.Running = true
		data.Participants = snapshot.Total
		data.Connections = snapshot.Connections
		data.Live = snapshot.BroadcasterID != ""
	}

	// Rendered up front so a failure can still become a 500
	var buf bytes.Buffer
	if err := pages.Home(data).Render(r.Context(), &buf); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
