package module

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// request bodies larger than this are rejected
const maxBodyBytes = 1 << 20

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// DecodeJSON reads the request body into dst. Anything that is not a single JSON
// value matching dst is a ValidationError.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &ValidationError{Msg: "empty request body"}
		}
		return &ValidationError{Msg: fmt.Sprintf("malformed request body: %v", err)}
	}
	if dec.More() {
		return &ValidationError{Msg: "request body must hold a single JSON value"}
	}
	return nil
}
