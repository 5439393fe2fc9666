// Package testutil holds shared helpers for handler and router tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewJSONRequest builds a request whose body is the JSON encoding of v.
// A nil v produces a bodyless request with the JSON content type set.
func NewJSONRequest(t *testing.T, method, path string, v any) *http.Request {
	t.Helper()

	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		require.NoError(t, err, "encode request body")
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewRequest builds a bodyless request.
func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// NewRequestWithBody builds a request from a raw body string, useful for
// feeding handlers malformed JSON.
func NewRequestWithBody(t *testing.T, method, path, raw string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest runs req through handler and returns the recorded response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// ReadBody drains the recorded response body.
func ReadBody(t *testing.T, rec *httptest.ResponseRecorder) []byte {
	t.Helper()
	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err, "read response body")
	return raw
}

// UnmarshalResponse decodes the recorded body into T and fails the test on
// any decoding problem.
func UnmarshalResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) *T {
	t.Helper()
	out := new(T)
	require.NoError(t, json.Unmarshal(ReadBody(t, rec), out), "decode response body")
	return out
}

// UnmarshalErrorResponse decodes the recorded body as the flat error
// envelope handlers write on failure.
func UnmarshalErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	out := map[string]string{}
	require.NoError(t, json.Unmarshal(ReadBody(t, rec), &out), "decode error envelope")
	return out
}
