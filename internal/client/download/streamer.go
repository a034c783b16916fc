// Package download retrieves finished export results over a streaming
// transfer, decrypting in transit via customer-supplied SSE-C keys.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventexport/internal/client/progress"
	"github.com/dmitrijs2005/eventexport/internal/common"
	"github.com/dmitrijs2005/eventexport/internal/cryptox"
	"github.com/dmitrijs2005/eventexport/internal/logging"
)

// ProgressRenderer receives byte-level progress during a transfer.
type ProgressRenderer interface {
	TransferProgress(dest string, v progress.View)
}

// FailedError reports a download that could not complete. BytesWritten is
// what made it to disk before the failure; the partial file is left in place
// for inspection, no automatic resume is attempted.
type FailedError struct {
	URL          string
	StatusCode   int
	Body         string
	BytesWritten int64
	Err          error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to download file: %v", e.Err)
	}
	return fmt.Sprintf("failed to download file: %d %s", e.StatusCode, e.Body)
}

func (e *FailedError) Unwrap() error { return e.Err }

const copyBufferSize = 64 * 1024

// renderEvery throttles progress rendering during a transfer. Var so tests
// can disable the throttle.
var renderEvery = 100 * time.Millisecond

type Streamer struct {
	http     *http.Client
	renderer ProgressRenderer
	log      logging.Logger
	now      func() time.Time
}

func New(renderer ProgressRenderer, log logging.Logger) *Streamer {
	// No overall client timeout: large exports legitimately take long. The
	// header timeout still bounds a dead connection.
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = 60 * time.Second
	return &Streamer{
		http:     &http.Client{Transport: t},
		renderer: renderer,
		log:      log,
		now:      time.Now,
	}
}

// Download streams resultURL into dest. When key is non-nil the three SSE-C
// headers are attached, all derived from that one key instance.
//
// The result location is a pre-authorized (typically pre-signed) URL whose
// query-embedded credentials are sufficient; no Authorization header is
// attached, a bearer token would conflict with the pre-signed signature.
//
// Returns the number of bytes written to dest.
func (s *Streamer) Download(ctx context.Context, resultURL, dest string, key *cryptox.SSECKey) (int64, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return 0, &FailedError{URL: resultURL, Err: err}
	}
	if key != nil {
		req.Header.Set(common.HeaderSSECAlgorithm, key.Algorithm)
		req.Header.Set(common.HeaderSSECKey, key.Encoded())
		req.Header.Set(common.HeaderSSECKeyMD5, key.Fingerprint())
	}

	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, common.ErrInterrupted
		}
		return 0, &FailedError{URL: resultURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		body := readBodyForError(resp.Body)
		if key == nil && indicatesEncryption(resp.StatusCode, body) {
			return 0, common.ErrKeyRequired
		}
		return 0, &FailedError{URL: resultURL, StatusCode: resp.StatusCode, Body: body}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	written, err := s.writeStream(ctx, resp.Body, dest, total)
	if err != nil {
		if ctx.Err() != nil {
			return written, common.ErrInterrupted
		}
		return written, &FailedError{URL: resultURL, BytesWritten: written, Err: err}
	}

	s.log.Debug(ctx, "download complete", "dest", dest, "bytes", written)
	return written, nil
}

// writeStream copies body to a freshly created dest in bounded-memory chunks,
// reporting byte progress after each chunk. The destination handle is
// acquired immediately before the first write and closed on every exit path.
func (s *Streamer) writeStream(ctx context.Context, body io.Reader, dest string, total int64) (written int64, err error) {

	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var est progress.Estimator
	est.Observe(progress.Sample{At: s.now(), Completed: 0, Total: total})
	lastRender := time.Time{}

	buf := make([]byte, copyBufferSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)

			v := est.Observe(progress.Sample{At: s.now(), Completed: written, Total: total})
			if s.renderer != nil && (s.now().Sub(lastRender) >= renderEvery || (total > 0 && written == total)) {
				s.renderer.TransferProgress(dest, v)
				lastRender = s.now()
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// indicatesEncryption reports whether an error response looks like S3
// rejecting an un-keyed request for an SSE-C object.
func indicatesEncryption(status int, body string) bool {
	if status != http.StatusBadRequest {
		return false
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "server-side encryption") || strings.Contains(lower, "ssecustomer")
}

func readBodyForError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return strings.TrimSpace(string(b))
}
