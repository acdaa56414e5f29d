package models

// APIResponse is the JSON envelope every endpoint replies with.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// FieldErrorResponse carries the per-field validation error for the step the
// client is on. At most one field error surfaces per submission attempt.
type FieldErrorResponse struct {
	FieldErrors map[string]string `json:"field_errors"`
}
