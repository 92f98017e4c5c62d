package dispatch

import "fmt"

// DefaultClientErrorCode is used when a ClientError carries no explicit code
const DefaultClientErrorCode = 400

// ClientError is an expected, client-caused failure: invalid input or a
// violated business rule. Its message is safe to show to the client.
// Anything else that escapes a handler is treated as a server error and is
// never surfaced verbatim.
type ClientError struct {
	Message string
	Code    int
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.Code, e.Message)
}

// NewClientError creates a ClientError with the default code
func NewClientError(message string) *ClientError {
	return &ClientError{Message: message, Code: DefaultClientErrorCode}
}

// NewClientErrorWithCode creates a ClientError with an explicit code
func NewClientErrorWithCode(message string, code int) *ClientError {
	return &ClientError{Message: message, Code: code}
}
