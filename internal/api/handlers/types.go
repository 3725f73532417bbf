package handlers

// ErrorResponse is the body of every JSON error
//
//	@Description	Error response. Debug requests add diagnostic fields.
type ErrorResponse struct {
	Error    string `json:"error" example:"industry required"`
	Category string `json:"category" example:"input_error"`
	Details  string `json:"details,omitempty"`
	URL      string `json:"url,omitempty"`
}

// HealthResponse is the liveness probe body
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp" example:"2025-01-01T00:00:00Z"`
}
