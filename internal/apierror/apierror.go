// Package apierror holds the JSON bodies of every 4xx/5xx response, so
// handlers and middleware never hand a raw Go error to the client.
package apierror

// APIError is the plain error envelope.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}

// CommitError is returned when a stock adjustment failed to commit. The
// adjustment is echoed back still pending so the client can retry it as is.
type CommitError struct {
	Detail     string      `json:"detail"`
	Adjustment interface{} `json:"adjustment"`
}

func NewCommit(msg string, adjustment interface{}) *CommitError {
	return &CommitError{Detail: msg, Adjustment: adjustment}
}
