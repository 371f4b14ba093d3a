package types

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Number of children in the live set.
	// example: 2
	Live int `json:"live" example:"2"`
	// True once the supervisor has been closed.
	Closed bool `json:"closed"`
	// Live children ordered by start time.
	Processes []ProcessInfo `json:"processes"`
}

// ProcessesResponse wraps the list returned by GET /processes.
type ProcessesResponse struct {
	Processes []ProcessInfo `json:"processes"`
}

// TerminateResponse is returned by POST /processes/terminate.
type TerminateResponse struct {
	// Number of children the termination signal was delivered to.
	// example: 2
	Signalled int `json:"signalled" example:"2"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: supervisor closed
	Error string `json:"error" example:"supervisor closed"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
}
