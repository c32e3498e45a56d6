package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "stewardship/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// Request bodies may opt into either step of DecodeAndPrepare.
type (
	Normalizable interface{ Normalize() }
	Validatable  interface{ Validate() error }
)

// DecodeJSON reads at most 1 MiB of JSON into a fresh T. Unknown fields are
// an error and an empty body yields the zero T. On failure a 400 has already
// been written when ok is false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(req)
	if err == nil || errors.Is(err, io.EOF) {
		return req, true
	}
	logger.WarnContext(ctx, "undecodable request body", "error", err, "request_id", requestID)
	WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
	return nil, false
}

// DecodeAndPrepare is DecodeJSON followed by Normalize and Validate. Plain
// validation errors are reported as validation_failed; coded ones keep their
// code.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}
	if n, isN := any(req).(Normalizable); isN {
		n.Normalize()
	}
	v, isV := any(req).(Validatable)
	if !isV {
		return req, true
	}
	if err := v.Validate(); err != nil {
		logger.WarnContext(ctx, "request rejected", "error", err, "request_id", requestID)
		if !errors.As(err, new(*dErrors.Error)) {
			err = dErrors.New(dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
