package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// okHandler answers 200 "ok".
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func call(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyMiddleware_ModeNone_PassesThrough(t *testing.T) {
	rec := call(t, APIKeyMiddleware("none", "x-api-key", "secret"), "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKeyMiddleware_EmptyKey_PassesThrough(t *testing.T) {
	// key="" means auth is not configured, so everything is allowed.
	rec := call(t, APIKeyMiddleware("apikey", "x-api-key", ""), "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestAPIKeyMiddleware_CorrectKey_Passes(t *testing.T) {
	rec := call(t, APIKeyMiddleware("apikey", "x-api-key", "supersecret"), "x-api-key", "supersecret")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rec.Body.String())
	}
}

func TestAPIKeyMiddleware_WrongKey_Unauthorized(t *testing.T) {
	rec := call(t, APIKeyMiddleware("apikey", "x-api-key", "supersecret"), "x-api-key", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestAPIKeyMiddleware_MissingHeader_Unauthorized(t *testing.T) {
	rec := call(t, APIKeyMiddleware("apikey", "x-api-key", "supersecret"), "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestAPIKeyMiddleware_CustomHeader(t *testing.T) {
	mw := APIKeyMiddleware("apikey", "X-Reliastat-Token", "mytoken")
	if rec := call(t, mw, "x-reliastat-token", "mytoken"); rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if rec := call(t, mw, "x-api-key", "mytoken"); rec.Code != http.StatusUnauthorized {
		t.Errorf("key in wrong header: got %d, want 401", rec.Code)
	}
}
