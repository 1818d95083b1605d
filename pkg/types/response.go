package types

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SuccessMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
