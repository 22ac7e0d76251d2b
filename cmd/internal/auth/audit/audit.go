package audit

import (
	"context"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Actions recorded by the auth core. Kept as stable strings so log queries
// survive refactors.
const (
	ActionLogin          = "auth.login"
	ActionLoginFailed    = "auth.login_failed"
	ActionRefresh        = "auth.refresh"
	ActionReuseDetected  = "auth.refresh_reuse_detected"
	ActionLogout         = "auth.logout"
	ActionLogoutAll      = "auth.logout_all"
	ActionSessionRevoked = "auth.session_revoked"
	ActionInvalidate     = "auth.forced_invalidation"
)

// Event is one audit record. ActorID and SessionID are empty when the event
// has no authenticated subject, such as a failed login.
type Event struct {
	ActorID   string
	SessionID string
	Action    string

	IP        net.IP
	UserAgent string

	// Details carries action-specific context, stored as JSONB. Never put
	// secrets or raw tokens in here.
	Details map[string]any
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, now time.Time, ev Event) error
}

// PostgresRecorder writes events to atrium.audit_log.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a Postgres-backed audit recorder.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

func (r *PostgresRecorder) Record(ctx context.Context, now time.Time, ev Event) error {
	var ip *string
	if ev.IP != nil {
		s := ev.IP.String()
		ip = &s
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO atrium.audit_log
			(actor_id, session_id, action, entity_type, created_at, ip, user_agent, details)
		VALUES ($1, $2, $3, 'auth', $4, $5, $6, $7)
	`,
		nullIfEmpty(ev.ActorID),
		nullIfEmpty(ev.SessionID),
		ev.Action,
		now,
		ip,
		nullIfEmpty(ev.UserAgent),
		ev.Details,
	)
	return err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
