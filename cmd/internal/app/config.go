package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, ATRIUM_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and
	// refresh-token hashing must be HMAC-based.
	RequireTokenHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("ATRIUM_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("ATRIUM_LOG_LEVEL", "info"),
		LogFormat: EnvString("ATRIUM_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("ATRIUM_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("ATRIUM_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("ATRIUM_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("ATRIUM_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("ATRIUM_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("ATRIUM_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("ATRIUM_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("ATRIUM_DB_MIN_CONNS", 0),

		CORSAllowedOrigins:   EnvStringList("ATRIUM_CORS_ALLOWED_ORIGINS"),
		CORSAllowCredentials: EnvBool("ATRIUM_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("ATRIUM_CORS_MAX_AGE_SECONDS", 600),

		ReadinessRequireDB: EnvBool("ATRIUM_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("ATRIUM_REQUIRE_TOKEN_HMAC", false),
	}
}
