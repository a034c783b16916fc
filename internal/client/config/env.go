package config

import "os"

// parseEnv overlays Config with values from the environment. Recognized
// variables match the names the hosted exporter has always used.
func parseEnv(cfg *Config) {
	setIfPresent := func(dst *string, name string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	setIfPresent(&cfg.APIHost, "API_HOST")
	setIfPresent(&cfg.APIKey, "API_KEY")

	setIfPresent(&cfg.SSECKey, "S3_SSE_C_KEY")
	setIfPresent(&cfg.SSECAlgorithm, "S3_SSE_C_ALGORITHM")

	setIfPresent(&cfg.S3Bucket, "S3_BUCKET")
	setIfPresent(&cfg.S3Prefix, "S3_PREFIX")
	setIfPresent(&cfg.S3AccessKeyID, "S3_ACCESS_KEY_ID")
	setIfPresent(&cfg.S3SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setIfPresent(&cfg.S3EndpointURL, "S3_ENDPOINT_URL")
	setIfPresent(&cfg.S3Region, "S3_REGION_NAME")
}
