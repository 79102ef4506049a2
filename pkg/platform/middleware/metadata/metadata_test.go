package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"nicgate/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"first forwarded address wins", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"single forwarded address", map[string]string{"X-Forwarded-For": " 203.0.113.8 "}, "10.0.0.2:1234", "203.0.113.8"},
		{"real ip header", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"ipv4 remote addr", nil, "192.0.2.10:5555", "192.0.2.10"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:5555", "2001:db8::1"},
		{"empty remote addr", nil, "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r))
		})
	}
}

func TestClientMetadata(t *testing.T) {
	var gotIP, gotUA, gotReqID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = requestcontext.ClientIP(r.Context())
		gotUA = requestcontext.UserAgent(r.Context())
		gotReqID = requestcontext.RequestID(r.Context())
	})

	r := httptest.NewRequest(http.MethodPost, "/nic/validate", nil)
	r.RemoteAddr = "192.0.2.10:5555"
	r.Header.Set("User-Agent", "curl/8.0")

	rec := httptest.NewRecorder()
	chimw.RequestID(ClientMetadata(next)).ServeHTTP(rec, r)

	assert.Equal(t, "192.0.2.10", gotIP)
	assert.Equal(t, "curl/8.0", gotUA)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, gotReqID, rec.Header().Get(RequestIDHeader))
}

func TestClientMetadata_WithoutRequestID(t *testing.T) {
	var gotReqID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReqID = requestcontext.RequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	ClientMetadata(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, gotReqID)
	assert.Empty(t, rec.Header().Get(RequestIDHeader))
}
