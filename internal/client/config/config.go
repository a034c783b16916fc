// Package config handles configuration for the exporter CLI, including
// defaults, environment variables, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventexport/internal/common"
)

// Config holds runtime settings for one exporter invocation. It is captured
// once at startup and passed down through constructors; nothing re-reads the
// environment mid-flow, so a long poll is unaffected by environment changes.
//
// Fields:
//   - APIHost: API hostname (no scheme).
//   - APIKey: bearer token for the job service.
//   - PollInterval: cadence of status polls, measured from the end of the
//     previous request.
//   - MaxWait: overall poll budget; zero means no limit.
//   - SSECKey: base64 SSE-C key material; empty means none supplied.
//   - NoSSEC: disables encryption entirely (it is on by default for export).
type Config struct {
	APIHost       string
	APIKey        string
	PollInterval  time.Duration
	MaxWait       time.Duration
	SSECKey       string
	SSECAlgorithm string
	ExportFields  []string
	OutputPath    string
	NoDownload    bool
	NoSSEC        bool
	Verbose       bool

	// Optional customer-owned destination bucket for the export.
	S3Bucket          string
	S3Prefix          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3EndpointURL     string
	S3Region          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIHost = "api.sekoia.io"
	c.PollInterval = 2 * time.Second
	c.SSECAlgorithm = common.DefaultSSECAlgorithm
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, a JSON file (if present) and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate enforces the pre-flight invariants the CLI cannot run without.
// Key-length validation is deliberately not done here; the key manager owns
// that invariant.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API_KEY is not set", common.ErrConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", common.ErrConfig)
	}
	return nil
}

// HasS3Destination reports whether a customer-owned destination bucket is
// configured.
func (c *Config) HasS3Destination() bool {
	return c.S3Bucket != ""
}
