package gateway

import (
	"errors"
	"fmt"
)

// DefaultErrorMessage is shown when the backend gives no usable message
const DefaultErrorMessage = "Hubo un problema al enviar los datos. Intenta nuevamente."

var ErrNoIdentifier = errors.New("response carries no user identifier")

// errorEnvelope is the canonical backend error body
type errorEnvelope struct {
	Message string `json:"message"`
}

// APIError is the single failure signal of a gateway call: a transport failure,
// a non-success status or an unreadable body
type APIError struct {
	Op         string
	StatusCode int    // 0 when the request never completed
	Message    string // backend message, may be empty
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Op + ": request failed"
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// UserMessage returns the backend message or the generic fallback
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return DefaultErrorMessage
}

// UserMessage extracts a displayable message from any gateway error
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return DefaultErrorMessage
}
