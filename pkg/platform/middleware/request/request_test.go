package request

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"stewardship/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	capture := func(header string) (string, string) {
		var captured string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = requestcontext.RequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		if header != "" {
			req.Header.Set("X-Request-ID", header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return captured, w.Header().Get("X-Request-ID")
	}

	t.Run("generates an ID when none is sent", func(t *testing.T) {
		ctxID, headerID := capture("")
		assert.Len(t, ctxID, 36)
		assert.Equal(t, ctxID, headerID)
	})

	t.Run("keeps a valid client ID", func(t *testing.T) {
		ctxID, headerID := capture("trace.span_1234")
		assert.Equal(t, "trace.span_1234", ctxID)
		assert.Equal(t, "trace.span_1234", headerID)
	})

	t.Run("replaces unsafe client IDs", func(t *testing.T) {
		for _, bad := range []string{"has space", "line\nbreak", `quo"te`, strings.Repeat("a", MaxRequestIDLength+1)} {
			ctxID, _ := capture(bad)
			assert.NotEqual(t, bad, ctxID)
			assert.Len(t, ctxID, 36)
		}
	})
}

func TestRequestTime(t *testing.T) {
	var first, second = requestcontext.Now, requestcontext.Now
	handler := RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, first(r.Context()), second(r.Context()))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestContentTypeJSON(t *testing.T) {
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
