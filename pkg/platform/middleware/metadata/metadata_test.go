package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stewardship/pkg/requestcontext"
)

func TestMiddlewareHandler(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trusted    []string
		expectedIP string
	}{
		{
			name:       "ignores XFF from untrusted peer",
			remoteAddr: "192.168.1.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			expectedIP: "192.168.1.1",
		},
		{
			name:       "takes first XFF hop from trusted proxy",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"},
			trusted:    []string{"10.0.0.0/8"},
			expectedIP: "203.0.113.1",
		},
		{
			name:       "falls back to X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			trusted:    []string{"10.0.0.0/8"},
			expectedIP: "198.51.100.7",
		},
		{
			name:       "rejects malformed XFF",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			trusted:    []string{"10.0.0.0/8"},
			expectedIP: "10.0.0.1",
		},
		{
			name:       "handles IPv6 peers",
			remoteAddr: "[::1]:8080",
			expectedIP: "::1",
		},
		{
			name:       "reports unknown for garbage peer",
			remoteAddr: "garbage",
			expectedIP: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefixes, err := ParseTrustedProxies(tt.trusted)
			require.NoError(t, err)
			m := NewMiddleware(&Config{TrustedProxies: prefixes})

			var ip, ua string
			handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ip = requestcontext.ClientIP(r.Context())
				ua = requestcontext.UserAgent(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("User-Agent", "curl/8.0")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.expectedIP, ip)
			assert.Equal(t, "curl/8.0", ua)
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	_, err := ParseTrustedProxies([]string{"10.0.0.0/8", "bogus"})
	assert.Error(t, err)

	prefixes, err := ParseTrustedProxies([]string{" ", "10.0.0.0/8"})
	require.NoError(t, err)
	assert.Len(t, prefixes, 1)
}
