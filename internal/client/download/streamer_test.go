package download

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eventexport/internal/client/progress"
	"github.com/dmitrijs2005/eventexport/internal/common"
	"github.com/dmitrijs2005/eventexport/internal/cryptox"
	"github.com/dmitrijs2005/eventexport/internal/logging"
)

type recordingRenderer struct {
	views []progress.View
}

func (r *recordingRenderer) TransferProgress(dest string, v progress.View) {
	r.views = append(r.views, v)
}

func newTestStreamer(r ProgressRenderer) *Streamer {
	s := New(r, logging.NewCLI(io.Discard, false))
	return s
}

func disableRenderThrottle(t *testing.T) {
	t.Helper()
	orig := renderEvery
	renderEvery = 0
	t.Cleanup(func() { renderEvery = orig })
}

func TestDownload_StreamsAllBytes(t *testing.T) {
	disableRenderThrottle(t)

	const chunk = 1024 * 1024
	const totalSize = 15 * chunk // 15,728,640
	payload := make([]byte, totalSize)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "15728640")
		flusher := w.(http.Flusher)
		for off := 0; off < totalSize; off += chunk {
			_, _ = w.Write(payload[off : off+chunk])
			flusher.Flush()
		}
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "export.json.gz")
	rec := &recordingRenderer{}

	written, err := newTestStreamer(rec).Download(context.Background(), srv.URL, dest, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(totalSize), written)

	fi, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, int64(totalSize), fi.Size())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))

	// byte progress is monotonically increasing and ends at the total
	require.NotEmpty(t, rec.views)
	var last int64 = -1
	for _, v := range rec.views {
		assert.Greater(t, v.Completed, last)
		last = v.Completed
	}
	assert.Equal(t, int64(totalSize), last)
}

func TestDownload_AttachesExactlyThreeEncryptionHeaders(t *testing.T) {
	key, err := cryptox.Generate()
	require.NoError(t, err)

	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	_, err = newTestStreamer(nil).Download(context.Background(), srv.URL, dest, key)
	require.NoError(t, err)

	assert.Equal(t, key.Algorithm, gotHeaders.Get(common.HeaderSSECAlgorithm))
	assert.Equal(t, key.Encoded(), gotHeaders.Get(common.HeaderSSECKey))
	assert.Equal(t, key.Fingerprint(), gotHeaders.Get(common.HeaderSSECKeyMD5))

	// the pre-signed URL carries its own credentials; a bearer token would
	// conflict with them
	assert.Empty(t, gotHeaders.Get("Authorization"))
}

func TestDownload_NoKeyOnEncryptedObjectFailsBeforeWriting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<Error><Code>InvalidRequest</Code><Message>The object was stored using a form of Server-Side Encryption. The correct parameters must be provided to retrieve the object.</Message></Error>`))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	written, err := newTestStreamer(nil).Download(context.Background(), srv.URL, dest, nil)

	assert.ErrorIs(t, err, common.ErrKeyRequired)
	assert.Zero(t, written)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no bytes may be written before the key check")
}

func TestDownload_HTTPErrorWithKeyIsNotKeyRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("expired"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	_, err := newTestStreamer(nil).Download(context.Background(), srv.URL, dest, nil)

	var fe *FailedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusForbidden, fe.StatusCode)
}

func TestDownload_MidStreamErrorRetainsPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		_, _ = w.Write(bytes.Repeat([]byte{0xaa}, 1000))
		// abort mid-body
		conn, _, _ := w.(http.Hijacker).Hijack()
		conn.Close()
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out")
	written, err := newTestStreamer(nil).Download(context.Background(), srv.URL, dest, nil)

	var fe *FailedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, written, fe.BytesWritten)

	fi, statErr := os.Stat(dest)
	require.NoError(t, statErr, "partial file must be left in place")
	assert.Equal(t, written, fi.Size())
}

func TestDownload_CancellationMapsToInterrupted(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		_, _ = w.Write(bytes.Repeat([]byte{0xaa}, 1000))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	dest := filepath.Join(t.TempDir(), "out")
	_, err := newTestStreamer(nil).Download(ctx, srv.URL, dest, nil)

	assert.ErrorIs(t, err, common.ErrInterrupted)
	_, statErr := os.Stat(dest)
	assert.NoError(t, statErr, "partial file is left for manual inspection")
}
