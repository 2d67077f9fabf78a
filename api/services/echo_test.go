package services

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestParsePayload_ValidValues(t *testing.T) {
	tests := []struct {
		body     string
		expected string
	}{
		{body: `{"key": "value"}`, expected: `{"key": "value"}`},
		{body: `[1, 2, 3]`, expected: `[1, 2, 3]`},
		{body: `{}`, expected: `{}`},
		{body: `null`, expected: `null`},
		{body: `true`, expected: `true`},
		{body: `"text"`, expected: `"text"`},
		{body: "\n  {\"a\": 1}\n\n", expected: `{"a": 1}`},
	}

	for _, tt := range tests {
		payload, err := ParsePayload(strings.NewReader(tt.body))
		require.NoError(t, err, tt.body)
		assert.Equal(t, tt.expected, string(payload))
	}
}

func TestParsePayload_MalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		body    io.Reader
		message string
	}{
		{name: "nil body", body: nil, message: "request body is empty"},
		{name: "no body", body: http.NoBody, message: "request body is empty"},
		{name: "empty", body: strings.NewReader(""), message: "request body is empty"},
		{name: "raw text", body: strings.NewReader("not valid json"), message: "invalid character 'o' in literal null (expecting 'u')"},
		{name: "truncated", body: strings.NewReader(`{"key": `), message: "unexpected EOF"},
		{name: "two values", body: strings.NewReader(`1 2`), message: "request body must contain a single JSON value"},
		{name: "trailing brace", body: strings.NewReader(`{} }`), message: "request body must contain a single JSON value"},
		{name: "unreadable", body: failingReader{}, message: "connection reset"},
		{name: "invalid utf-8", body: strings.NewReader("{\"k\": \"\xff\xfe\"}"), message: "request body is not valid UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ParsePayload(tt.body)

			assert.Nil(t, payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
			assert.Equal(t, tt.message, ErrorMessage(err))
		})
	}
}

func TestParsePayload_WrapsCause(t *testing.T) {
	_, err := ParsePayload(strings.NewReader(`{"key": `))

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "malformed input: unexpected EOF", err.Error())
}

func TestErrorMessage_PlainError(t *testing.T) {
	assert.Equal(t, "boom", ErrorMessage(errors.New("boom")))
}
