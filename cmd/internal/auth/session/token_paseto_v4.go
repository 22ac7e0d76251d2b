package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"atrium/cmd/identity"
)

// AccessClaims is the self-contained identity envelope carried by every
// access token. Everything the authorization middleware needs is embedded so
// request-path verification requires no store lookup; staleness is bounded by
// the short access TTL plus the token-version check.
type AccessClaims struct {
	UserID       string
	SessionID    string
	Email        string
	Role         identity.Role
	Permissions  identity.Permissions
	TokenVersion int64

	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// AccessTokenManager issues and verifies short-lived access tokens.
type AccessTokenManager interface {
	Issue(user identity.User, sessionID string, now time.Time) (token string, exp time.Time, err error)
	Verify(token string, now time.Time) (AccessClaims, error)
	PublicKeyHex() string
}

type pasetoV4PublicManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// NewPasetoV4PublicManager builds an AccessTokenManager based on PASETO
// v4.public (Ed25519). Invalid or missing key material fails construction,
// which callers must treat as a fatal startup fault: a service that cannot
// sign must not serve.
func NewPasetoV4PublicManager(cfg Config) (AccessTokenManager, error) {
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.PasetoV4SecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4PublicManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.AccessTokenTTL,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
		public:    secret.Public(),
	}, nil
}

func (m *pasetoV4PublicManager) PublicKeyHex() string {
	return m.public.ExportHex()
}

func (m *pasetoV4PublicManager) Issue(user identity.User, sessionID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)

	_ = tok.Set("uid", user.ID)
	_ = tok.Set("sid", sessionID)
	_ = tok.Set("email", user.Email)
	_ = tok.Set("role", string(user.Role))
	_ = tok.Set("ver", user.TokenVersion)
	_ = tok.Set("prm", user.Permissions.Mask())

	return tok.V4Sign(m.secret, nil), exp, nil
}

// Verify checks signature and claims and reports expiry distinctly from all
// other failures, so callers can decide between a refresh exchange and an
// outright reject.
func (m *pasetoV4PublicManager) Verify(token string, now time.Time) (AccessClaims, error) {
	// Expiry is checked by hand below against the caller-supplied now, so an
	// expired-but-authentic token maps to ErrTokenExpired, not
	// ErrInvalidToken. The expiry-free parser is required here: the default
	// parser preloads a wall-clock NotExpired rule that would reject expired
	// tokens before the hand check runs. The parser still rejects bad
	// signatures, malformed envelopes, and foreign issuers.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.issuer))

	parsed, err := p.ParseV4Public(m.public, token, nil)
	if err != nil {
		return AccessClaims{}, ErrInvalidToken
	}

	exp, err := parsed.GetExpiration()
	if err != nil {
		return AccessClaims{}, ErrInvalidToken
	}
	// Exclusive boundary: a token expiring exactly now is already dead.
	if !exp.After(now) {
		return AccessClaims{}, ErrTokenExpired
	}

	if nbf, err := parsed.GetNotBefore(); err == nil {
		if nbf.After(now.Add(m.clockSkew)) {
			return AccessClaims{}, ErrInvalidToken
		}
	}

	iss, _ := parsed.GetIssuer()
	iat, _ := parsed.GetIssuedAt()

	uid, err := parsed.GetString("uid")
	if err != nil || uid == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	sid, err := parsed.GetString("sid")
	if err != nil || sid == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	email, err := parsed.GetString("email")
	if err != nil {
		return AccessClaims{}, ErrInvalidToken
	}
	role, err := parsed.GetString("role")
	if err != nil || role == "" {
		return AccessClaims{}, ErrInvalidToken
	}

	var ver int64
	if err := parsed.Get("ver", &ver); err != nil {
		return AccessClaims{}, ErrInvalidToken
	}
	var mask int64
	if err := parsed.Get("prm", &mask); err != nil {
		return AccessClaims{}, ErrInvalidToken
	}

	return AccessClaims{
		UserID:       uid,
		SessionID:    sid,
		Email:        email,
		Role:         identity.Role(role),
		Permissions:  identity.PermissionsFromMask(mask),
		TokenVersion: ver,
		ExpiresAt:    exp,
		IssuedAt:     iat,
		Issuer:       iss,
	}, nil
}
