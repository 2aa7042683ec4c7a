// Package dispatch executes tool invocations: it builds the downstream HTTP
// request from a tool definition and conversation arguments, performs the
// call, and formats the response into the outbound result string.
package dispatch

import (
	"errors"
	"fmt"
)

// ErrUnsupportedMethod is returned before any network I/O when a tool
// declares an HTTP method other than GET or POST. The sentinel text is part
// of the platform-visible error contract.
var ErrUnsupportedMethod = errors.New("Unsupported HTTP method")

// ErrPathNotFound is returned when a tool's response_path does not exist in
// the downstream response.
var ErrPathNotFound = errors.New("response path not found in API response")

// ErrMissingParameter is returned when a declared required parameter is
// absent from the call arguments. Argument values are otherwise not
// validated against the parameter schema.
var ErrMissingParameter = errors.New("missing required parameter")

// DownstreamError captures a non-2xx response or transport failure from the
// tool backend. Status is zero for transport failures.
type DownstreamError struct {
	Status  int
	Message string
}

func (e *DownstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("API call failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}
