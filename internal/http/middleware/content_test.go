package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
)

func TestAllowContentType(t *testing.T) {
	gate := middleware.AllowContentType("application/json")
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
	}{
		{name: "JSON", body: "{}", contentType: "application/json", wantStatus: http.StatusNoContent},
		{name: "JSONWithCharset", body: "{}", contentType: "Application/JSON; charset=utf-8", wantStatus: http.StatusNoContent},
		{name: "NoBody", contentType: "text/plain", wantStatus: http.StatusNoContent},
		{name: "Form", body: "a=b", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType},
		{name: "Missing", body: "{}", wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusUnsupportedMediaType {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), `"message":"unsupported content type`)
			}
		})
	}
}
