package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/obelenko/lurelab/internal/token"
)

func TestSessionAuth(t *testing.T) {
	mgr := token.NewManager([]byte("test-secret"))

	session, err := mgr.Issue("u1", "alice@example.com", token.PurposeSession, time.Hour)
	if err != nil {
		t.Fatalf("issue session token: %v", err)
	}
	reset, err := mgr.Issue("u1", "alice@example.com", token.PurposeReset, time.Hour)
	if err != nil {
		t.Fatalf("issue reset token: %v", err)
	}
	expired, err := mgr.Issue("u1", "", token.PurposeSession, -time.Minute)
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}

	tests := []struct {
		name         string
		header       string
		expectedCode int
		expectedUser string
	}{
		{"no header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized, ""},
		{"reset token rejected", "Bearer " + reset, http.StatusUnauthorized, ""},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"valid session", "Bearer " + session, http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetUserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/password/change", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			SessionAuth(mgr)(next).ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("status = %d; want %d", rec.Code, tt.expectedCode)
			}
			if gotUser != tt.expectedUser {
				t.Errorf("user in context = %q; want %q", gotUser, tt.expectedUser)
			}
		})
	}
}

func TestGetUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := GetUserIDFromContext(req.Context()); got != "" {
		t.Errorf("GetUserIDFromContext = %q; want empty", got)
	}
}
