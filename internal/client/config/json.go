package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/eventexport/internal/flagx"
	"github.com/dmitrijs2005/eventexport/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "2s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config.
type JsonConfig struct {
	APIHost       string         `json:"api_host"`
	PollInterval  timex.Duration `json:"poll_interval"`
	MaxWait       timex.Duration `json:"max_wait"`
	SSECAlgorithm string         `json:"sse_c_algorithm"`
	ExportFields  []string       `json:"export_fields"`

	S3Bucket      string `json:"s3_bucket"`
	S3Prefix      string `json:"s3_prefix"`
	S3EndpointURL string `json:"s3_endpoint_url"`
	S3Region      string `json:"s3_region"`
}

// parseJson overlays Config with values loaded from a JSON file whose path
// is given via -c or -config. Absent flags mean no JSON is loaded. Secrets
// (API key, SSE-C key, bucket credentials) deliberately have no JSON fields;
// they come from the environment or flags only.
//
// Intended usage is: defaults -> env -> parseJson -> parseFlags, where later
// stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIHost != "" {
		cfg.APIHost = jc.APIHost
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = time.Duration(jc.PollInterval.Duration)
	}
	if jc.MaxWait.Duration > 0 {
		cfg.MaxWait = time.Duration(jc.MaxWait.Duration)
	}
	if jc.SSECAlgorithm != "" {
		cfg.SSECAlgorithm = jc.SSECAlgorithm
	}
	if len(jc.ExportFields) > 0 {
		cfg.ExportFields = jc.ExportFields
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3Prefix != "" {
		cfg.S3Prefix = jc.S3Prefix
	}
	if jc.S3EndpointURL != "" {
		cfg.S3EndpointURL = jc.S3EndpointURL
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
}
