package models

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	Renderer     string       `json:"renderer"`
	Stores       []string     `json:"stores"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports rendering session usage.
type SessionStats struct {
	// Active is the number of sessions currently open. With sequential
	// batches this is 0 or 1 per in-flight request.
	Active int `json:"active"`

	// Total is the number of sessions launched since startup.
	Total int64 `json:"total"`

	// BrowserPID is the Chromium process id (browser renderer only).
	BrowserPID int `json:"browser_pid,omitempty"`
}
