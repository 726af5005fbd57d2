package goSession

import (
	"bytes"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/token"
)

// Config defines the tunable surface of the session manager.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable. Numeric values here are deployment policy, not
// algorithm: ceilings and TTLs are expected to differ per environment.
type Config struct {
	Token   TokenConfig
	Refresh RefreshConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures the access/refresh token codecs. AccessSecret and
// RefreshSecret must differ: a leaked access key must never be able to mint
// refresh tokens.
type TokenConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	AccessSecret  []byte
	RefreshSecret []byte
	// Public keys are required for ed25519 and ignored for hs256.
	AccessPublicKey  []byte
	RefreshPublicKey []byte
	Issuer           string
	Audience         string
	Leeway           time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig configures refresh-token lifetimes and the sliding-renewal
// ceilings. Each rotation resets the token's own TTL but never the chain's
// origin, so RenewalCeiling bounds the absolute session age regardless of
// activity.
type RefreshConfig struct {
	TTL                      time.Duration
	RememberMeTTL            time.Duration
	RenewalCeiling           time.Duration
	RememberMeRenewalCeiling time.Duration
	RedisPrefix              string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events under backpressure instead of blocking the
	// request path; drops are counted and exported.
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: string(token.MethodHS256),
		},
		Refresh: RefreshConfig{
			TTL:                      7 * 24 * time.Hour,
			RememberMeTTL:            30 * 24 * time.Hour,
			RenewalCeiling:           30 * 24 * time.Hour,
			RememberMeRenewalCeiling: 90 * 24 * time.Hour,
			RedisPrefix:              "gs",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the baseline configuration. Secrets are left empty
// and must be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

// HardenedConfig returns a configuration with shorter access TTLs and tighter
// renewal ceilings, suitable for deployments that prefer forced re-login over
// long-lived sessions.
func HardenedConfig() Config {
	cfg := defaultConfig()
	cfg.Token.AccessTTL = 5 * time.Minute
	cfg.Refresh.TTL = 24 * time.Hour
	cfg.Refresh.RememberMeTTL = 7 * 24 * time.Hour
	cfg.Refresh.RenewalCeiling = 7 * 24 * time.Hour
	cfg.Refresh.RememberMeRenewalCeiling = 30 * 24 * time.Hour
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = bytes.Clone(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = bytes.Clone(cfg.Token.RefreshSecret)
	out.Token.AccessPublicKey = bytes.Clone(cfg.Token.AccessPublicKey)
	out.Token.RefreshPublicKey = bytes.Clone(cfg.Token.RefreshPublicKey)
	return out
}

// Validate checks internal consistency. It is called by [Builder.Build];
// callers normally do not need to invoke it directly.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("access TTL must be positive")
	}
	if c.Refresh.TTL <= 0 || c.Refresh.RememberMeTTL <= 0 {
		return errors.New("refresh TTLs must be positive")
	}
	if c.Refresh.RememberMeTTL < c.Refresh.TTL {
		return errors.New("remember-me refresh TTL must not be shorter than the normal TTL")
	}
	if c.Refresh.RenewalCeiling <= 0 || c.Refresh.RememberMeRenewalCeiling <= 0 {
		return errors.New("renewal ceilings must be positive")
	}
	if c.Refresh.RenewalCeiling < c.Refresh.TTL {
		return errors.New("renewal ceiling must not be shorter than the refresh TTL")
	}
	if c.Refresh.RememberMeRenewalCeiling < c.Refresh.RememberMeTTL {
		return errors.New("remember-me renewal ceiling must not be shorter than the remember-me TTL")
	}
	if len(c.Token.AccessSecret) == 0 || len(c.Token.RefreshSecret) == 0 {
		return errors.New("access and refresh signing secrets are required")
	}
	if bytes.Equal(c.Token.AccessSecret, c.Token.RefreshSecret) {
		return errors.New("access and refresh signing secrets must differ")
	}
	switch token.SigningMethod(c.Token.SigningMethod) {
	case token.MethodHS256, token.MethodEd25519:
	default:
		return errors.New("unsupported signing method")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}
