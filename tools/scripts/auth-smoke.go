// Package main provides a CI-friendly smoke test for the Atrium auth core.
//
// It validates, against a running server with a seeded staff account:
//   - login -> token pair
//   - /auth/me with the access token
//   - refresh rotation (stable session id, fresh refresh token)
//   - replay of the rotated-out refresh token -> 401
//   - the replay response body is byte-identical to a bad-password 401
//   - the successor token is dead after the cascade
//   - fresh login, then logout-all kills refresh
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type sessionPayload struct {
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Session sessionPayload `json:"session"`
}

var (
	baseURL *string
	timeout *time.Duration
	verbose *bool
)

func main() {
	baseURL = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
	email := flag.String("email", "", "Staff account email (required)")
	password := flag.String("password", "", "Staff account password (required)")
	timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
	verbose = flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	if strings.TrimSpace(*email) == "" || *password == "" {
		fatalf("-email and -password are required")
	}

	first := mustLogin(*email, *password)
	if *verbose {
		fmt.Printf("login: user=%s session=%s\n", first.User.ID, first.Session.SessionID)
	}

	mustMe(first.Session.AccessToken, first.User.ID)

	rotated := mustRefresh(first.Session.RefreshToken)
	if rotated.Session.SessionID != first.Session.SessionID {
		fatalf("rotation changed session id: %s -> %s", first.Session.SessionID, rotated.Session.SessionID)
	}
	if rotated.Session.RefreshToken == first.Session.RefreshToken {
		fatalf("rotation returned the same refresh token")
	}

	// Replay of the rotated-out token must fail, and its body must be
	// indistinguishable from any other credential failure.
	replayBody := mustRefreshRejected(first.Session.RefreshToken)
	badPwBody := mustLoginRejected(*email, *password+"-wrong")
	if !bytes.Equal(replayBody, badPwBody) {
		fatalf("replay 401 body differs from bad-password 401 body:\n  replay: %s\n  badpw:  %s", replayBody, badPwBody)
	}

	// Reuse cascades: the successor is dead too.
	mustRefreshRejected(rotated.Session.RefreshToken)

	second := mustLogin(*email, *password)
	mustLogoutAll(second.Session.AccessToken)
	mustRefreshRejected(second.Session.RefreshToken)

	fmt.Printf("OK: user=%s session=%s\n", first.User.ID, first.Session.SessionID)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func mustLogin(email, password string) authResponse {
	status, body := doJSON(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if status != http.StatusOK {
		fatalf("login: status=%d body=%s", status, body)
	}
	var out authResponse
	mustDecode(body, &out, "login")
	if out.Session.AccessToken == "" || out.Session.RefreshToken == "" || out.Session.SessionID == "" {
		fatalf("login: incomplete session payload: %s", body)
	}
	return out
}

func mustLoginRejected(email, password string) []byte {
	status, body := doJSON(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if status != http.StatusUnauthorized {
		fatalf("bad-password login: status=%d, want 401; body=%s", status, body)
	}
	return body
}

func mustMe(accessToken, wantUserID string) {
	status, body := doJSON(http.MethodGet, "/auth/me", nil, accessToken)
	if status != http.StatusOK {
		fatalf("me: status=%d body=%s", status, body)
	}
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	mustDecode(body, &out, "me")
	if out.User.ID != wantUserID {
		fatalf("me: user id mismatch: got=%q want=%q", out.User.ID, wantUserID)
	}
}

func mustRefresh(refreshToken string) authResponse {
	status, body := doJSON(http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, "")
	if status != http.StatusOK {
		fatalf("refresh: status=%d body=%s", status, body)
	}
	var out authResponse
	mustDecode(body, &out, "refresh")
	return out
}

func mustRefreshRejected(refreshToken string) []byte {
	status, body := doJSON(http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, "")
	if status != http.StatusUnauthorized {
		fatalf("rejected refresh: status=%d, want 401; body=%s", status, body)
	}
	return body
}

func mustLogoutAll(accessToken string) {
	status, body := doJSON(http.MethodPost, "/auth/logout-all", struct{}{}, accessToken)
	if status != http.StatusNoContent {
		fatalf("logout-all: status=%d body=%s", status, body)
	}
}

func doJSON(method, path string, payload any, bearer string) (int, []byte) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			fatalf("marshal %s payload: %v", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, strings.TrimRight(*baseURL, "/")+path, body)
	if err != nil {
		fatalf("build %s request: %v", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fatalf("read %s response: %v", path, err)
	}
	if *verbose {
		fmt.Printf("%s %s -> %d\n", method, path, resp.StatusCode)
	}
	return resp.StatusCode, data
}

func mustDecode(body []byte, v any, step string) {
	if err := json.Unmarshal(body, v); err != nil {
		fatalf("unmarshal %s response: %v (%s)", step, err, body)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
