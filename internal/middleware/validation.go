package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"
)

// MaxBodyBytes bounds request bodies accepted by the API.
const MaxBodyBytes = 1 << 20

// ErrNoJSON is returned when a request carries no usable JSON object.
var ErrNoJSON = errors.New("no JSON data provided")

// LimitBody caps the size of request bodies.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DecodeJSON decodes the request body into dst. An empty body, malformed JSON,
// anything other than an object, and an empty object all yield ErrNoJSON.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrNoJSON
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return ErrNoJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return ErrNoJSON
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return ErrNoJSON
	}
	return nil
}

// ValidateText validates free text submitted for chat or synthesis.
func ValidateText(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}
