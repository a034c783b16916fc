package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonConfig_Unmarshal(t *testing.T) {
	data := []byte(`{
		"api_host": "api.example.org",
		"poll_interval": "5s",
		"max_wait": 600000000000,
		"sse_c_algorithm": "AES256",
		"export_fields": ["timestamp", "message"],
		"s3_bucket": "my-exports",
		"s3_region": "eu-west-1"
	}`)

	var jc JsonConfig
	require.NoError(t, json.Unmarshal(data, &jc))

	assert.Equal(t, "api.example.org", jc.APIHost)
	assert.Equal(t, 5*time.Second, jc.PollInterval.Duration)
	assert.Equal(t, 10*time.Minute, jc.MaxWait.Duration)
	assert.Equal(t, []string{"timestamp", "message"}, jc.ExportFields)
	assert.Equal(t, "my-exports", jc.S3Bucket)
	assert.Equal(t, "eu-west-1", jc.S3Region)
}

func TestParseJson_NoFileConfigured(t *testing.T) {
	var c Config
	c.LoadDefaults()

	// no -c/-config flag in the test args, so this must be a no-op
	parseJson(&c)

	assert.Equal(t, "api.sekoia.io", c.APIHost)
	assert.Equal(t, 2*time.Second, c.PollInterval)
}
