package api

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"atrium/cmd/identity"
	"atrium/cmd/internal/auth/audit"
	"atrium/cmd/internal/auth/session"
)

// Handler wires HTTP auth endpoints to the identity store and session service.
type Handler struct {
	log *slog.Logger
	cfg Config

	dbEnabled bool
	pool      *pgxpool.Pool

	identity *identity.PostgresStore
	sessions *session.Service
	sessCfg  session.Config
	audit    *audit.Dispatcher

	dummyHash string
}

// NewHandler constructs an auth Handler. If dbEnabled is false, handlers
// return 503. metrics may be nil.
func NewHandler(log *slog.Logger, pool *pgxpool.Pool, cfg Config, sessCfg session.Config, dbEnabled bool, metrics *session.Metrics) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:       log,
		cfg:       cfg,
		dbEnabled: dbEnabled,
		pool:      pool,
		sessCfg:   sessCfg,
	}

	if !dbEnabled {
		return h, nil
	}
	if pool == nil {
		return nil, errors.New("auth: nil db pool")
	}

	idStore, err := identity.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}
	h.identity = idStore

	tokens, err := session.NewPasetoV4PublicManager(sessCfg)
	if err != nil {
		return nil, err
	}
	sessStore := session.NewPostgresStore(pool)
	h.sessions = session.NewService(sessCfg, pool, sessStore, tokens, metrics)

	h.audit = audit.NewDispatcher(log, audit.NewPostgresRecorder(pool))

	// Dummy hash for timing-resistant login checks.
	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/logout-all", h.handleLogoutAll)
	mux.HandleFunc("/auth/sessions", h.handleSessions)
	mux.HandleFunc("/auth/sessions/", h.handleSessionByID)
	mux.HandleFunc("/auth/invalidate", h.handleInvalidate)
	mux.HandleFunc("/auth/me", h.handleMe)
}

// SessionService returns the underlying session service (nil when DB is
// disabled).
func (h *Handler) SessionService() *session.Service {
	if h == nil {
		return nil
	}
	return h.sessions
}

// DrainAudit waits for in-flight audit writes. Called during shutdown.
func (h *Handler) DrainAudit() {
	if h == nil {
		return
	}
	h.audit.Drain()
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	userAuth, err := h.identity.GetUserAuthByEmail(ctx, email)
	if err != nil {
		// Timing resistance: perform a dummy verify when the user is missing.
		if h.dummyHash != "" {
			_, _ = identity.VerifyPassword(req.Password, h.dummyHash)
		}
		if !identity.IsNotFound(err) {
			h.log.Error("auth.login.lookup.fail", "err", err)
		}
		h.audit.Submit(now, audit.Event{
			Action: audit.ActionLoginFailed, IP: ip, UserAgent: ua,
			Details: map[string]any{"email": identity.NormalizeEmail(email), "reason": "not_found"},
		})
		writeAuthError(w)
		return
	}

	okPw, err := identity.VerifyPassword(req.Password, userAuth.PasswordHash)
	if err != nil || !okPw {
		h.audit.Submit(now, audit.Event{
			ActorID: userAuth.User.ID, Action: audit.ActionLoginFailed, IP: ip, UserAgent: ua,
			Details: map[string]any{"reason": "bad_password"},
		})
		writeAuthError(w)
		return
	}
	if !userAuth.User.IsActive {
		h.audit.Submit(now, audit.Event{
			ActorID: userAuth.User.ID, Action: audit.ActionLoginFailed, IP: ip, UserAgent: ua,
			Details: map[string]any{"reason": "account_disabled"},
		})
		writeAuthError(w)
		return
	}

	issued, err := h.sessions.Issue(ctx, now, userAuth.User, session.Client{IP: ip, UserAgent: ua})
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.audit.Submit(now, audit.Event{
		ActorID: userAuth.User.ID, SessionID: issued.SessionID,
		Action: audit.ActionLogin, IP: ip, UserAgent: ua,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(userAuth.User),
		Session: toSessionResponse(issued),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	issued, user, err := h.sessions.Rotate(ctx, now, req.RefreshToken, session.Client{IP: ip, UserAgent: ua})
	if err != nil {
		var re session.ReuseError
		switch {
		case errors.As(err, &re):
			// Theft signal. The client sees the same 401 as any other failure;
			// severity lives in the audit trail.
			h.log.Warn("auth.refresh.reuse_detected", "user_id", re.UserID, "token_id", re.TokenID)
			h.audit.Submit(now, audit.Event{
				ActorID: re.UserID, Action: audit.ActionReuseDetected, IP: ip, UserAgent: ua,
				Details: map[string]any{"token_id": re.TokenID, "severity": "high"},
			})
			writeAuthError(w)
		case errors.Is(err, session.ErrInvalidToken),
			errors.Is(err, session.ErrTokenExpired),
			errors.Is(err, session.ErrAccountDisabled):
			writeAuthError(w)
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.audit.Submit(now, audit.Event{
		ActorID: user.ID, SessionID: issued.SessionID,
		Action: audit.ActionRefresh, IP: ip, UserAgent: ua,
	})

	writeJSON(w, http.StatusOK, refreshResponse{
		User:    toUserResponse(user),
		Session: toSessionResponse(issued),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	claims, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var req logoutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// Prefer the presented refresh token; fall back to the caller's own
	// session when the body carries none.
	var err error
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		err = h.sessions.RevokeByRefreshToken(ctx, now, token, claims.UserID)
	} else {
		err = h.sessions.RevokeSessionByID(ctx, now, claims.UserID, claims.SessionID)
	}
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrSessionNotFound):
			writeAuthError(w)
		default:
			h.log.Error("auth.logout.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.audit.Submit(now, audit.Event{
		ActorID: claims.UserID, SessionID: claims.SessionID,
		Action: audit.ActionLogout,
		IP:     clientIP(r, h.cfg.TrustProxy), UserAgent: strings.TrimSpace(r.UserAgent()),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	claims, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	if err := h.sessions.RevokeAll(ctx, now, claims.UserID); err != nil {
		h.log.Error("auth.logout_all.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.audit.Submit(now, audit.Event{
		ActorID: claims.UserID, Action: audit.ActionLogoutAll,
		IP: clientIP(r, h.cfg.TrustProxy), UserAgent: strings.TrimSpace(r.UserAgent()),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	claims, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	views, err := h.sessions.ListSessions(ctx, now, claims.UserID)
	if err != nil {
		h.log.Error("auth.sessions.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	// Viewing the session list is activity.
	if err := h.sessions.TouchSession(ctx, now, claims.SessionID); err != nil {
		h.log.Warn("auth.sessions.touch.fail", "err", err)
	}

	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: views})
}

func (h *Handler) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/auth/sessions/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	claims, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	if err := h.sessions.RevokeSessionByID(ctx, now, claims.UserID, sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			// Foreign and unknown ids answer identically.
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		h.log.Error("auth.sessions.revoke.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.audit.Submit(now, audit.Event{
		ActorID: claims.UserID, SessionID: sessionID,
		Action: audit.ActionSessionRevoked,
		IP:     clientIP(r, h.cfg.TrustProxy), UserAgent: strings.TrimSpace(r.UserAgent()),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	claims, actor, ok := h.requireAuth(w, r)
	if !ok {
		return
	}
	if !actor.Permissions.Has(identity.PermManageStaff) {
		writeError(w, http.StatusForbidden, "forbidden", "staff management permission required")
		return
	}

	var req invalidateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	targetID := strings.TrimSpace(req.UserID)
	if targetID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	if _, err := h.identity.GetUserByID(ctx, targetID); err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		h.log.Error("auth.invalidate.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	if err := h.sessions.InvalidateUserTokens(ctx, now, targetID); err != nil {
		h.log.Error("auth.invalidate.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.audit.Submit(now, audit.Event{
		ActorID: claims.UserID, Action: audit.ActionInvalidate,
		IP: clientIP(r, h.cfg.TrustProxy), UserAgent: strings.TrimSpace(r.UserAgent()),
		Details: map[string]any{"target_user_id": targetID},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	_, user, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(user)})
}

// ---- middleware ----

// requireAuth authenticates a bearer request: stateless token verification,
// then a credential-store check that the account is still active and the
// token's version is current. Every failure is the same 401.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (session.AccessClaims, identity.User, bool) {
	token := bearerToken(r)
	if token == "" {
		writeAuthError(w)
		return session.AccessClaims{}, identity.User{}, false
	}

	now := time.Now().UTC()
	claims, err := h.sessions.VerifyAccessToken(token, now)
	if err != nil {
		writeAuthError(w)
		return session.AccessClaims{}, identity.User{}, false
	}

	user, err := h.identity.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if !identity.IsNotFound(err) {
			h.log.Error("auth.require.lookup.fail", "err", err)
		}
		writeAuthError(w)
		return session.AccessClaims{}, identity.User{}, false
	}
	if !user.IsActive || user.TokenVersion != claims.TokenVersion {
		writeAuthError(w)
		return session.AccessClaims{}, identity.User{}, false
	}

	return claims, user, true
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
