package models

// UploadResponse is returned by POST /api/upload
type UploadResponse struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
}

// DeleteResponse is returned by DELETE /api/upload/{filename}
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Message string `json:"message"`
}
