package identity

import (
	"atrium/cmd/security/password"
)

// Password hashing delegates to cmd/security/password as the single source of
// truth for Argon2id parameters and policy; identity must not drift from it.

// HashPassword returns a PHC-style Argon2id hash string using the effective
// (env-overridable) configuration.
func HashPassword(plain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		cfg = password.DefaultConfig()
	}
	return cfg.Hash(plain)
}

// VerifyPassword checks plain against an encoded hash. (false, nil) means a
// clean mismatch; an error means the stored hash is malformed or hostile.
func VerifyPassword(plain, encodedHash string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		cfg = password.DefaultConfig()
	}
	return cfg.Verify(encodedHash, plain)
}
