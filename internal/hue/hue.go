package hue

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrNotAuthenticated is returned when a bridge call needs a username and
	// the bridge has not issued one yet.
	ErrNotAuthenticated = errors.New("hue: bridge not authenticated")

	// ErrLightNotFound is returned when no bridge owns the requested light.
	ErrLightNotFound = errors.New("hue: light not found")

	// ErrBridgeNotFound is returned when no discovered bridge has the requested id.
	ErrBridgeNotFound = errors.New("hue: bridge not found")
)

// TransportError is a failed outbound call (connection refused, timeout, ...).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hue: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is an unexpected status code or body from a bridge or the
// discovery server.
type ProtocolError struct {
	Op     string
	Status int
	Msg    string
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("hue: %s: %s (status %d)", e.Op, e.Msg, e.Status)
	}
	return fmt.Sprintf("hue: %s: %s", e.Op, e.Msg)
}

// NewHTTPClient returns the client used for discovery and bridge calls.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

func execute(req *resty.Request, method string, url string) ([]byte, error) {
	op := fmt.Sprintf("%s %s", method, url)

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &ProtocolError{Op: op, Status: resp.StatusCode(), Msg: "unexpected response: " + resp.Status()}
	}

	return resp.Body(), nil
}
