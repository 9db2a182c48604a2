package autologin

import (
	"errors"
	"time"
)

// Config defines a public type used by autologin APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session    SessionConfig
	Reconciler ReconcilerConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by autologin APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix         string
	ForceCleanScanCount int64
}

/*
====================================
RECONCILER CONFIG
====================================
*/

// ReconcilerConfig defines a public type used by autologin APIs.
//
// ReconcilerConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ReconcilerConfig struct {
	// SettleDelay is an optional pause (through the injected clock) after
	// each clear before the confirming read-back. Zero means read back
	// immediately; convergence is established by the read-back, not the
	// delay.
	SettleDelay time.Duration

	// CleanupRetries bounds how many ForceCleanAll passes may run when a
	// cleared session is still observed on read-back.
	CleanupRetries int

	// StrictPostSaveVerify turns the post-save email check from a logged
	// integrity event into a hard failure.
	StrictPostSaveVerify bool

	// CheckBearerExpiry makes duplicate suppression require that a stored
	// JWT bearer has not expired before short-circuiting.
	CheckBearerExpiry bool

	// Advisory delays carried on the Result for the host to honor.
	LoginRedirectDelay     time.Duration
	FailureRedirectDelay   time.Duration
	DashboardRedirectDelay time.Duration
}

// AuditConfig defines a public type used by autologin APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by autologin APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the Builder starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:         "ca",
			ForceCleanScanCount: 500,
		},
		Reconciler: ReconcilerConfig{
			SettleDelay:            0,
			CleanupRetries:         2,
			StrictPostSaveVerify:   false,
			CheckBearerExpiry:      true,
			LoginRedirectDelay:     2 * time.Second,
			FailureRedirectDelay:   3 * time.Second,
			DashboardRedirectDelay: time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.ForceCleanScanCount < 0 {
		return errors.New("Session ForceCleanScanCount must be >= 0")
	}

	// Reconciler
	if c.Reconciler.SettleDelay < 0 {
		return errors.New("Reconciler SettleDelay must be >= 0")
	}
	if c.Reconciler.CleanupRetries < 1 {
		return errors.New("Reconciler CleanupRetries must be >= 1")
	}
	if c.Reconciler.LoginRedirectDelay < 0 ||
		c.Reconciler.FailureRedirectDelay < 0 ||
		c.Reconciler.DashboardRedirectDelay < 0 {
		return errors.New("Reconciler redirect delays must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
