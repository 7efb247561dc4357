package apierror

import "errors"

// Error is an API failure carrying the HTTP status it should surface as.
type Error struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, message string) *Error {
	return &Error{StatusCode: status, Message: message}
}

// BadRequest covers malformed or missing input and failed uploads (400).
func BadRequest(message string) *Error {
	return New(400, message)
}

// Conflict covers duplicate username/email (409).
func Conflict(message string) *Error {
	return New(409, message)
}

// Unauthorized covers bad credentials and bad/expired/reused tokens (401).
func Unauthorized(message string) *Error {
	return New(401, message)
}

// NotFound covers missing users/channels (404).
func NotFound(message string) *Error {
	return New(404, message)
}

// Internal covers unexpected persistence failures (500).
func Internal(message string) *Error {
	return New(500, message)
}

// Status returns the HTTP status for err: its own code for *Error, 500 for
// anything else.
func Status(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 500
}
