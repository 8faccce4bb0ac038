package types

import "time"

// Config is the merged client configuration.
type Config struct {
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	// BackendURL is the sync backend base URL. Empty runs the client
	// against the in-memory backend.
	BackendURL string `json:"backendURL,omitempty" yaml:"backendURL,omitempty"`
	AuthToken  string `json:"authToken,omitempty" yaml:"authToken,omitempty"`

	// DataDir overrides where preferences and logs are kept.
	DataDir  string `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	Heartbeat *HeartbeatConfig `json:"heartbeat,omitempty" yaml:"heartbeat,omitempty"`
	Retry     *RetryConfig     `json:"retry,omitempty" yaml:"retry,omitempty"`
	Status    *StatusConfig    `json:"status,omitempty" yaml:"status,omitempty"`
}

// HeartbeatConfig tunes the session liveness signal.
type HeartbeatConfig struct {
	IntervalSeconds int `json:"intervalSeconds,omitempty" yaml:"intervalSeconds,omitempty"`
}

// Interval returns the configured cadence, or zero when unset.
func (h *HeartbeatConfig) Interval() time.Duration {
	if h == nil || h.IntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(h.IntervalSeconds) * time.Second
}

// RetryConfig tunes the network retry policy.
type RetryConfig struct {
	MaxRetries  int `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	BaseDelayMS int `json:"baseDelayMS,omitempty" yaml:"baseDelayMS,omitempty"`
	MaxDelayMS  int `json:"maxDelayMS,omitempty" yaml:"maxDelayMS,omitempty"`
}

// StatusConfig controls the local status HTTP surface.
type StatusConfig struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Port    int   `json:"port,omitempty" yaml:"port,omitempty"`
}

// StatusEnabled reports whether the status server should run. It defaults
// to on.
func (c *Config) StatusEnabled() bool {
	if c.Status == nil || c.Status.Enabled == nil {
		return true
	}
	return *c.Status.Enabled
}
