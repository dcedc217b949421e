package handler

import (
	"net/http"

	"github.com/pion/webrtc/v4"

	"github.com/mcoot/liveclass/internal/api/response"
)

// ICEHandler serves the configured STUN/TURN servers to browsers
type ICEHandler struct {
	servers []webrtc.ICEServer
}

// NewICEHandler creates a new ICEHandler
func NewICEHandler(servers []webrtc.ICEServer) *ICEHandler {
	if servers == nil {
		servers = []webrtc.ICEServer{}
	}
	return &ICEHandler{servers: servers}
}

// List handles GET /ice-servers
func (h *ICEHandler) List(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.ICEServers{ICEServers: h.servers})
}
