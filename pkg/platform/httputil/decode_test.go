package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "stewardship/pkg/domain-errors"
)

type levelRequest struct {
	Level string `json:"level"`
}

func (r *levelRequest) Normalize() { r.Level = strings.ToLower(strings.TrimSpace(r.Level)) }

func (r *levelRequest) Validate() error {
	if r.Level == "" {
		return errors.New("level is required")
	}
	return nil
}

type stateRequest struct {
	Status string `json:"status"`
}

func (r *stateRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeBadRequest, "status is required")
	}
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("normalizes before validating", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"level":"  Restricted "}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[levelRequest](w, req, logger, ctx, "req-1")

		require.True(t, ok)
		assert.Equal(t, "restricted", result.Level)
	})

	t.Run("plain validation error maps to validation_error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"level":" "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[levelRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeError(t, w)["error"])
	})

	t.Run("domain error code is preserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"status":""}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[stateRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"level":"public","levle":"x"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[levelRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{nope`))
		w := httptest.NewRecorder()

		_, ok := DecodeJSON[levelRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
		name   string
	}{
		{dErrors.CodeNotFound, http.StatusNotFound, "not_found"},
		{dErrors.CodeInvalidReference, http.StatusNotFound, "invalid_reference"},
		{dErrors.CodeInvalidState, http.StatusConflict, "invalid_state"},
		{dErrors.CodeConflict, http.StatusConflict, "conflict"},
		{dErrors.CodeForbidden, http.StatusForbidden, "forbidden"},
		{dErrors.CodeInvalidInput, http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "msg"))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.name, decodeError(t, w)["error"])
		})
	}

	t.Run("unknown errors are internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("db exploded"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", decodeError(t, w)["error"])
	})
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	w := httptest.NewRecorder()

	result, ok := DecodeJSON[stateRequest](w, req, logger, context.Background(), "req-1")

	require.True(t, ok)
	assert.Empty(t, result.Status)
}
