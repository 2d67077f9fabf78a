package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"
)

// ErrMalformedInput is returned when a request body does not hold exactly
// one well-formed JSON value.
var ErrMalformedInput = errors.New("malformed input")

var (
	errEmptyBody       = errors.New("request body is empty")
	errTrailingInput   = errors.New("request body must contain a single JSON value")
	errInvalidEncoding = errors.New("request body is not valid UTF-8")
)

// ParsePayload reads one JSON value from body. The value is returned as the
// raw bytes the caller sent so that echoing it back does not reshape it.
// Any failure is wrapped in ErrMalformedInput.
func ParsePayload(body io.Reader) (json.RawMessage, error) {
	if body == nil || body == http.NoBody {
		return nil, malformed(errEmptyBody)
	}

	dec := json.NewDecoder(body)

	var payload json.RawMessage
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, malformed(errEmptyBody)
		}
		return nil, malformed(err)
	}

	// Anything other than whitespace after the first value is rejected
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil && !isSyntaxError(err) {
			return nil, malformed(err)
		}
		return nil, malformed(errTrailingInput)
	}

	// The decoder leaves invalid bytes inside strings untouched
	if !utf8.Valid(payload) {
		return nil, malformed(errInvalidEncoding)
	}

	return payload, nil
}

// ErrorMessage returns the description shown to callers for a parse
// failure, without the ErrMalformedInput prefix.
func ErrorMessage(err error) string {
	var me *malformedError
	if errors.As(err, &me) {
		return me.cause.Error()
	}
	return err.Error()
}

type malformedError struct {
	cause error
}

func (e *malformedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedInput, e.cause)
}

func (e *malformedError) Is(target error) bool {
	return target == ErrMalformedInput
}

func (e *malformedError) Unwrap() error {
	return e.cause
}

func malformed(cause error) error {
	return &malformedError{cause: cause}
}

func isSyntaxError(err error) bool {
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr)
}
