package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atrium/cmd/internal/auth/api"
	"atrium/cmd/internal/auth/session"
)

func newDegradedMux(t *testing.T, cfg Config) *http.ServeMux {
	t.Helper()

	auth, err := api.NewHandler(slog.Default(), nil, api.Config{}, session.Config{}, false, nil)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	registerHTTP(mux, cfg, nil, auth, NewAppMetrics())
	return mux
}

func TestHealthz(t *testing.T) {
	mux := newDegradedMux(t, Config{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("healthz body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("healthz status field = %q", body["status"])
	}
}

func TestReadyzWithoutDBRequirement(t *testing.T) {
	mux := newDegradedMux(t, Config{ReadinessRequireDB: false})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d, want 200", rec.Code)
	}
}

func TestReadyzRequiresDB(t *testing.T) {
	mux := newDegradedMux(t, Config{ReadinessRequireDB: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpointRegistered(t *testing.T) {
	mux := newDegradedMux(t, Config{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body empty")
	}
}

func TestAuthRoutesRegistered(t *testing.T) {
	mux := newDegradedMux(t, Config{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

	// DB disabled, so the route exists but reports unavailable.
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("login status = %d, want 503", rec.Code)
	}
}

func TestNonZeroFallbacks(t *testing.T) {
	if got := nonZeroDuration(0, 5*time.Second); got != 5*time.Second {
		t.Errorf("nonZeroDuration zero = %v", got)
	}
	if got := nonZeroDuration(time.Second, 5*time.Second); got != time.Second {
		t.Errorf("nonZeroDuration set = %v", got)
	}
	if got := nonZeroInt(0, 1024); got != 1024 {
		t.Errorf("nonZeroInt zero = %d", got)
	}
	if got := nonZeroInt(7, 1024); got != 7 {
		t.Errorf("nonZeroInt set = %d", got)
	}
}

func TestValidateSecurityConfig(t *testing.T) {
	t.Setenv("ATRIUM_TOKEN_HMAC_KEY", "")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: false}); err != nil {
		t.Fatalf("policy off should pass: %v", err)
	}
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err == nil {
		t.Fatal("policy on with no key should fail")
	}

	t.Setenv("ATRIUM_TOKEN_HMAC_KEY", "short")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err == nil {
		t.Fatal("policy on with short key should fail")
	}

	t.Setenv("ATRIUM_TOKEN_HMAC_KEY", "0123456789abcdef0123456789abcdef")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err != nil {
		t.Fatalf("policy on with 32-byte key should pass: %v", err)
	}
}
