package core

// Endpoint is a framework-agnostic route description. Adapters bind their own
// handler to each OperationID.
type Endpoint struct {
	Path     string
	Method   string
	Metadata EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
	// RequiresAuth routes resolve the caller identity before the handler runs.
	RequiresAuth bool
}

// ErrorResponse is the JSON error body. Errors is only set for 422.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
