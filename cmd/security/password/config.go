package password

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Config is the single configuration surface for this package.
type Config struct {
	Params    Argon2idParams
	MinLength int
	MaxLength int
}

// DefaultConfig returns a strong baseline for interactive staff logins.
// Parallelism is CPU-aware but clamped to [1..4] to keep resource usage
// predictable in containers.
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		MinLength: 12,
		MaxLength: 256,
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
//   - ATRIUM_PASSWORD_MIN_LEN
//   - ATRIUM_PASSWORD_MAX_LEN
//   - ATRIUM_ARGON2_MEMORY_KIB
//   - ATRIUM_ARGON2_ITERATIONS
//   - ATRIUM_ARGON2_PARALLELISM
//   - ATRIUM_ARGON2_SALT_LEN
//   - ATRIUM_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("ATRIUM_PASSWORD_MIN_LEN"); ok {
		n, err := envUint(v, 1, 1024)
		if err != nil {
			return Config{}, fmt.Errorf("ATRIUM_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.MinLength = int(n)
	}
	if v, ok := os.LookupEnv("ATRIUM_PASSWORD_MAX_LEN"); ok {
		n, err := envUint(v, 1, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("ATRIUM_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.MaxLength = int(n)
	}
	if v, ok := os.LookupEnv("ATRIUM_ARGON2_MEMORY_KIB"); ok {
		n, err := envUint(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		if err != nil {
			return Config{}, fmt.Errorf("ATRIUM_ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Params.MemoryKiB = n
	}
	if v, ok := os.LookupEnv("ATRIUM_ARGON2_ITERATIONS"); ok {
		n, err := envUint(v, 1, 20)
		if err != nil {
			return Config{}, fmt.Errorf("ATRIUM_ARGON2_ITERATIONS: %w", err)
		}
		cfg.Params.Iterations = n
	}
	if v, ok := os.LookupEnv("ATRIUM_ARGON2_PARALLELISM"); ok {
		n, err := envUint(v, 1, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ATRIUM_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Params.Parallelism = uint8(n) // #nosec G115 -- envUint bounds to <= 64.
	}
	if v, ok := os.LookupEnv("ATRIUM_ARGON2_SALT_LEN"); ok {
		n, err := envUint(v, 8, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ATRIUM_ARGON2_SALT_LEN: %w", err)
		}
		cfg.Params.SaltLength = n
	}
	if v, ok := os.LookupEnv("ATRIUM_ARGON2_KEY_LEN"); ok {
		n, err := envUint(v, 16, 64)
		if err != nil {
			return Config{}, fmt.Errorf("ATRIUM_ARGON2_KEY_LEN: %w", err)
		}
		cfg.Params.KeyLength = n
	}

	if cfg.MinLength > cfg.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.MinLength, cfg.MaxLength,
		)
	}

	return cfg, nil
}

func envUint(s string, minVal, maxVal uint32) (uint32, error) {
	u64, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}
	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}
