package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Detail contexto adicional del error (línea y campo faltante, por ej.).
	Detail string `json:"detail,omitempty"`
}
