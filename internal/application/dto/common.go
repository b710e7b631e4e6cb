package dto

// ErrorResponse cuerpo de error HTTP. Details lista cada campo rechazado por la validación.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
