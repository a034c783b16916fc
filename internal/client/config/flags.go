package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventexport/internal/flagx"
)

// configFlags are the flags this package owns, in both single- and
// double-dash form. Subcommand arguments and the -c/-config flags (handled
// by parseJson) are filtered out before parsing.
var configFlags = []string{
	"-api-host", "--api-host", "-interval", "--interval", "-max-wait", "--max-wait",
	"-o", "-output", "--output", "-no-download", "--no-download",
	"-no-sse-c", "--no-sse-c", "-sse-c-key", "--sse-c-key", "-sse-c-algorithm", "--sse-c-algorithm",
	"-fields", "--fields", "-v",
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-api-host string       API host (overrides API_HOST env var)
//	-interval int          polling interval in seconds
//	-max-wait int          max wait time in seconds (0 = no limit)
//	-o, -output string     output filename for the downloaded file
//	-no-download           don't download the file, just print the URL
//	-no-sse-c              disable SSE-C encryption
//	-sse-c-key string      SSE-C key, base64 (overrides S3_SSE_C_KEY)
//	-sse-c-algorithm string SSE-C algorithm (default AES256)
//	-fields string         comma-separated list of fields to export
//	-v                     verbose logging
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so subcommand names and positional ids pass
// through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], configFlags)

	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.APIHost, "api-host", cfg.APIHost, "API host")
	interval := fs.Int("interval", int(cfg.PollInterval.Seconds()), "polling interval in seconds")
	maxWait := fs.Int("max-wait", int(cfg.MaxWait.Seconds()), "max wait time in seconds (0 = no limit)")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "output filename for the downloaded file")
	fs.StringVar(&cfg.OutputPath, "o", cfg.OutputPath, "output filename (short)")
	fs.BoolVar(&cfg.NoDownload, "no-download", cfg.NoDownload, "don't download the file, just print the URL")
	fs.BoolVar(&cfg.NoSSEC, "no-sse-c", cfg.NoSSEC, "disable SSE-C encryption")
	fs.StringVar(&cfg.SSECKey, "sse-c-key", cfg.SSECKey, "SSE-C encryption key, base64 encoded")
	fs.StringVar(&cfg.SSECAlgorithm, "sse-c-algorithm", cfg.SSECAlgorithm, "SSE-C algorithm")
	fields := fs.String("fields", "", "comma-separated list of fields to include in the export")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*interval) * time.Second
	cfg.MaxWait = time.Duration(*maxWait) * time.Second

	if *fields != "" {
		parts := strings.Split(*fields, ",")
		cfg.ExportFields = cfg.ExportFields[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.ExportFields = append(cfg.ExportFields, p)
			}
		}
	}
}
