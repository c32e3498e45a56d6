// Package httputil holds the JSON response and request helpers shared by
// every handler.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	id "stewardship/pkg/domain"
	dErrors "stewardship/pkg/domain-errors"
	"stewardship/pkg/requestcontext"
)

type errorMapping struct {
	status int
	name   string
}

var errorMappings = map[dErrors.Code]errorMapping{
	dErrors.CodeNotFound:         {http.StatusNotFound, "not_found"},
	dErrors.CodeInvalidReference: {http.StatusNotFound, "invalid_reference"},
	dErrors.CodeBadRequest:       {http.StatusBadRequest, "bad_request"},
	dErrors.CodeInvalidInput:     {http.StatusBadRequest, "bad_request"},
	dErrors.CodeValidation:       {http.StatusBadRequest, "validation_error"},
	dErrors.CodeConflict:         {http.StatusConflict, "conflict"},
	dErrors.CodeInvalidState:     {http.StatusConflict, "invalid_state"},
	dErrors.CodeUnauthorized:     {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeForbidden:        {http.StatusForbidden, "forbidden"},
	dErrors.CodeTimeout:          {http.StatusGatewayTimeout, "timeout"},
}

var internalMapping = errorMapping{http.StatusInternalServerError, "internal_error"}

func mappingFor(code dErrors.Code) errorMapping {
	if m, ok := errorMappings[code]; ok {
		return m
	}
	return internalMapping
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError writes err as {"error": ..., "error_description": ...}. Errors
// without a code become a bare 500 so internals never leak to the client.
func WriteError(w http.ResponseWriter, err error) {
	var coded *dErrors.Error
	if !errors.As(err, &coded) {
		WriteJSON(w, internalMapping.status, map[string]string{"error": internalMapping.name})
		return
	}
	m := mappingFor(coded.Code)
	body := map[string]string{"error": m.name}
	if coded.Message != "" && m != internalMapping {
		body["error_description"] = coded.Message
	}
	WriteJSON(w, m.status, body)
}

// RequireActorID returns the authenticated actor. Behind the auth middleware
// a missing actor means broken wiring, so it is reported as internal.
func RequireActorID(ctx context.Context, logger *slog.Logger, requestID string) (id.ActorID, error) {
	actorID := requestcontext.ActorID(ctx)
	if !actorID.IsNil() {
		return actorID, nil
	}
	if logger != nil {
		logger.ErrorContext(ctx, "no actor in request context", "request_id", requestID)
	}
	return id.ActorID{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
}
