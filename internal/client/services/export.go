// Package services composes the poller, the download streamer and the key
// manager into the user-facing export, status and download flows.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventexport/internal/client/api"
	"github.com/dmitrijs2005/eventexport/internal/client/config"
	"github.com/dmitrijs2005/eventexport/internal/client/download"
	"github.com/dmitrijs2005/eventexport/internal/client/models"
	"github.com/dmitrijs2005/eventexport/internal/common"
	"github.com/dmitrijs2005/eventexport/internal/cryptox"
	"github.com/dmitrijs2005/eventexport/internal/filex"
	"github.com/dmitrijs2005/eventexport/internal/logging"
)

// UI is the textual-outcome side of the display sink. Progress rendering
// goes through the poller's and streamer's own renderer interfaces.
type UI interface {
	// Line renders one outcome/info line.
	Line(format string, args ...any)

	// KeyBanner warns the user that a key was auto-generated and must be
	// saved to decrypt the export later.
	KeyBanner(encodedKey string)
}

// Poller is the task-lifecycle surface the service consumes.
type Poller interface {
	PollUntilTerminal(ctx context.Context, taskID string, interval, maxWait time.Duration) (*models.Task, error)
	Snapshot(ctx context.Context, taskID string) (*models.Task, error)
}

// Streamer retrieves a finished result into a local file.
type Streamer interface {
	Download(ctx context.Context, resultURL, dest string, key *cryptox.SSECKey) (int64, error)
	DownloadS3(ctx context.Context, src *download.S3Source, dest string, key *cryptox.SSECKey) (int64, error)
}

type ExportService struct {
	cfg      *config.Config
	api      api.Client
	poller   Poller
	streamer Streamer
	ui       UI
	log      logging.Logger
	now      func() time.Time
}

func NewExportService(cfg *config.Config, client api.Client, p Poller, s Streamer, ui UI, log logging.Logger) *ExportService {
	return &ExportService{cfg: cfg, api: client, poller: p, streamer: s, ui: ui, log: log, now: time.Now}
}

// Export triggers an export for jobID, polls the resulting task to a
// terminal state and downloads the result. Encryption is on by default: when
// no key is configured and SSE-C is not disabled, a fresh key is generated
// and shown to the user once.
func (s *ExportService) Export(ctx context.Context, jobID string) error {

	key, generated, err := s.resolveKey(true)
	if err != nil {
		return err
	}
	if key != nil {
		defer key.Wipe()
	}
	if generated {
		s.ui.KeyBanner(key.Encoded())
	}

	taskID, err := s.api.TriggerExport(ctx, jobID, s.buildTriggerRequest(key))
	if err != nil {
		// triggering is not idempotent-safe to retry blindly; fail fast,
		// no polling
		return err
	}
	s.ui.Line("Export task triggered with UUID: %s", taskID)

	task, err := s.poller.PollUntilTerminal(ctx, taskID, s.cfg.PollInterval, s.cfg.MaxWait)
	if err != nil {
		return err
	}
	s.ui.Line("Export ready! Download URL: %s", task.ResultLocation)

	if s.cfg.NoDownload {
		return nil
	}
	return s.retrieve(ctx, task, key)
}

// Status performs a single status fetch and renders it once. It never
// downloads anything.
func (s *ExportService) Status(ctx context.Context, taskID string) error {

	task, err := s.poller.Snapshot(ctx, taskID)
	if err != nil {
		return err
	}

	if task.Status == models.StatusFinished {
		if task.ResultLocation == "" {
			s.ui.Line("Export finished but no download URL found.")
		} else {
			s.ui.Line("Export ready! Download URL: %s", task.ResultLocation)
		}
	}
	return nil
}

// Download fetches the task once to obtain the result location and retrieves
// it directly, without polling. It never generates a key: key generation
// only makes sense at trigger time, so an encrypted export requires the
// caller to supply the matching key.
func (s *ExportService) Download(ctx context.Context, taskID string) error {

	key, _, err := s.resolveKey(false)
	if err != nil {
		return err
	}
	if key != nil {
		defer key.Wipe()
	}

	task, err := s.poller.Snapshot(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != models.StatusFinished {
		return fmt.Errorf("task %s is not finished yet (status=%s); use the status command to poll it", taskID, task.Status)
	}
	if task.ResultLocation == "" {
		return common.ErrNoResultLocation
	}

	return s.retrieve(ctx, task, key)
}

// resolveKey turns the configured key material into an SSECKey. With
// allowGenerate (trigger flow only) a missing key is generated; the second
// return value reports that. NoSSEC disables keys entirely.
func (s *ExportService) resolveKey(allowGenerate bool) (*cryptox.SSECKey, bool, error) {
	if s.cfg.NoSSEC {
		return nil, false, nil
	}

	if s.cfg.SSECKey != "" {
		key, err := cryptox.Parse(s.cfg.SSECKey)
		if err != nil {
			return nil, false, err
		}
		if s.cfg.SSECAlgorithm != "" {
			key.Algorithm = s.cfg.SSECAlgorithm
		}
		return key, false, nil
	}

	if !allowGenerate {
		return nil, false, nil
	}

	key, err := cryptox.Generate()
	if err != nil {
		return nil, false, err
	}
	if s.cfg.SSECAlgorithm != "" {
		key.Algorithm = s.cfg.SSECAlgorithm
	}
	return key, true, nil
}

// buildTriggerRequest assembles the trigger body from the configured
// destination and the key. All three SSE-C values come from the same key
// instance.
func (s *ExportService) buildTriggerRequest(key *cryptox.SSECKey) *api.TriggerRequest {
	req := &api.TriggerRequest{Fields: s.cfg.ExportFields}

	var dst *api.S3Destination
	if s.cfg.HasS3Destination() {
		dst = &api.S3Destination{
			BucketName:      s.cfg.S3Bucket,
			Prefix:          s.cfg.S3Prefix,
			AccessKeyID:     s.cfg.S3AccessKeyID,
			SecretAccessKey: s.cfg.S3SecretAccessKey,
			EndpointURL:     s.cfg.S3EndpointURL,
			RegionName:      s.cfg.S3Region,
		}
	}
	if key != nil {
		if dst == nil {
			dst = &api.S3Destination{}
		}
		dst.SSECustomerKey = key.Encoded()
		dst.SSECustomerKeyMD5 = key.Fingerprint()
		dst.SSECustomerAlgorithm = key.Algorithm
	}
	req.S3 = dst

	return req
}

// retrieve downloads a finished task's result into the configured (or a
// generated) output path.
func (s *ExportService) retrieve(ctx context.Context, task *models.Task, key *cryptox.SSECKey) error {

	if task.Encrypted && key == nil {
		return common.ErrKeyRequired
	}

	dest := s.cfg.OutputPath
	if dest == "" {
		dest = filex.DefaultOutputName(s.now())
	}
	if err := filex.EnsureParentDir(dest); err != nil {
		return err
	}

	s.ui.Line("Downloading to: %s", dest)
	if key != nil {
		s.log.Debug(ctx, "using SSE-C encryption headers for download")
	}

	var written int64
	var err error
	if bucket, objectKey, ok := parseS3Location(task.ResultLocation); ok {
		written, err = s.streamer.DownloadS3(ctx, &download.S3Source{
			Bucket:          bucket,
			Key:             objectKey,
			Region:          s.cfg.S3Region,
			EndpointURL:     s.cfg.S3EndpointURL,
			AccessKeyID:     s.cfg.S3AccessKeyID,
			SecretAccessKey: s.cfg.S3SecretAccessKey,
		}, dest, key)
	} else {
		written, err = s.streamer.Download(ctx, task.ResultLocation, dest, key)
	}
	if err != nil {
		return err
	}

	s.ui.Line("Download complete: %s (%d bytes)", dest, written)
	return nil
}

// parseS3Location splits an s3://bucket/key location. Anything else (notably
// https pre-signed URLs) is not an S3 location.
func parseS3Location(loc string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(loc, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
