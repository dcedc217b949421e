package request

// EvictRequest is the request body for evicting an identity
type EvictRequest struct {
	Secret   string `json:"secret"`
	Identity string `json:"identity"`
}
