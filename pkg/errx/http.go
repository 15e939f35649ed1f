package errx

import (
	"encoding/json"
	"net/http"
)

// HTTPErrorResponse is the wire shape for failures. Every authentication and
// authorization failure in the API renders to this: success is always false,
// Code is machine-readable, ErrorMsg is for humans.
type HTTPErrorResponse struct {
	Success  bool                   `json:"success"`
	ErrorMsg string                 `json:"error"`
	Code     string                 `json:"code"`
	Type     string                 `json:"type,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// ToHTTPResponse converts an Error to an HTTPErrorResponse
func (e *Error) ToHTTPResponse() HTTPErrorResponse {
	return HTTPErrorResponse{
		Success:  false,
		ErrorMsg: e.Message,
		Code:     e.Code,
		Type:     string(e.Type),
		Details:  e.Details,
	}
}

// WriteHTTP writes the error as an HTTP response
func (e *Error) WriteHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus)
	json.NewEncoder(w).Encode(e.ToHTTPResponse())
}

// HandleError is a helper to write arbitrary errors to HTTP responses.
// Unknown errors collapse to a generic 500 so internal detail never leaks.
func HandleError(w http.ResponseWriter, err error) {
	var customErr *Error
	if As(err, &customErr) {
		customErr.WriteHTTP(w)
		return
	}

	Internal("An unexpected error occurred").WriteHTTP(w)
}
