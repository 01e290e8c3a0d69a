package httpdto

// Response is the envelope every gatepass endpoint returns. Data carries the
// payload on success; Error holds human-readable text and Code a stable
// machine tag (NOT_FOUND, LOCKED, ...) otherwise.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// NewSuccessResponse wraps a payload for a 2xx reply.
func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse builds a failure envelope for a non-2xx reply.
func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}
