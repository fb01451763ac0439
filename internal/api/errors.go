package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusSessionExpired is the status the backend uses when the linked Resy
// session is no longer valid.
const StatusSessionExpired = 419

// ErrSessionExpired means the user has to reconnect their Resy account.
var ErrSessionExpired = errors.New("resy session expired")

// APIError is a failed backend call.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status=%d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsSessionExpired reports whether err came from an expired upstream session.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// sessionExpired applies the backend's conventions: a 419, or a 500 whose
// body carries the upstream 419/Unauthorized.
func sessionExpired(status int, body []byte) bool {
	if status == StatusSessionExpired {
		return true
	}
	if status != http.StatusInternalServerError {
		return false
	}
	s := string(body)
	return strings.Contains(s, "419") || strings.Contains(s, "Unauthorized")
}
