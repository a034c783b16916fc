package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/dmitrijs2005/eventexport/internal/client/models"
	"github.com/dmitrijs2005/eventexport/internal/client/progress"
)

// Display renders progress views and outcome messages. When interactive, a
// progress line is rewritten in place; otherwise each update is printed on
// its own line so logs stay readable.
type Display struct {
	w           io.Writer
	interactive bool
	lineDirty   bool
	now         func() time.Time
}

func NewDisplay(w io.Writer, interactive bool) *Display {
	return &Display{w: w, interactive: interactive, now: time.Now}
}

// AutoDisplay detects whether f is an interactive terminal.
func AutoDisplay(f *os.File) *Display {
	return NewDisplay(f, term.IsTerminal(int(f.Fd())))
}

// TaskProgress renders one poll observation.
func (d *Display) TaskProgress(task *models.Task, v progress.View) {
	stamp := d.now().Format("15:04:05")

	var line string
	if v.FractionKnown {
		line = fmt.Sprintf("%s %.2f%% (%d/%d) completed... ETA: %s (status=%s)",
			stamp, v.Fraction*100, v.Completed, v.Total, formatETA(v), task.Status)
	} else {
		line = fmt.Sprintf("%s status=%s (progress unavailable)", stamp, task.Status)
	}

	d.progressLine(line)
}

// TransferProgress renders byte-level download progress.
func (d *Display) TransferProgress(dest string, v progress.View) {
	var line string
	switch {
	case v.FractionKnown:
		line = fmt.Sprintf("%3.0f%% | %s / %s | %s | ETA %s",
			v.Fraction*100, formatBytes(v.Completed), formatBytes(v.Total), formatThroughput(v), formatETA(v))
	default:
		line = fmt.Sprintf("%s | %s", formatBytes(v.Completed), formatThroughput(v))
	}

	d.progressLine(line)
}

// Line prints one outcome/info line, first terminating any in-place progress
// line.
func (d *Display) Line(format string, args ...any) {
	d.finishProgress()
	fmt.Fprintf(d.w, format+"\n", args...)
}

// KeyBanner prints the auto-generated key warning. The key appears here and
// nowhere else; it is never logged.
func (d *Display) KeyBanner(encodedKey string) {
	d.finishProgress()
	sep := "================================================================================"
	fmt.Fprintln(d.w)
	fmt.Fprintln(d.w, sep)
	fmt.Fprintln(d.w, "SSE-C ENCRYPTION KEY AUTO-GENERATED")
	fmt.Fprintln(d.w, sep)
	fmt.Fprintf(d.w, "Encryption Key: %s\n", encodedKey)
	fmt.Fprintln(d.w)
	fmt.Fprintln(d.w, "IMPORTANT: Save this key securely!")
	fmt.Fprintln(d.w, "   You will need it to download this export later.")
	fmt.Fprintln(d.w, "   If you lose this key, you will NOT be able to decrypt your data.")
	fmt.Fprintln(d.w, sep)
	fmt.Fprintln(d.w)
}

func (d *Display) progressLine(line string) {
	if d.interactive {
		fmt.Fprintf(d.w, "\r\033[K%s", line)
		d.lineDirty = true
		return
	}
	fmt.Fprintln(d.w, line)
}

func (d *Display) finishProgress() {
	if d.lineDirty {
		fmt.Fprintln(d.w)
		d.lineDirty = false
	}
}

func formatETA(v progress.View) string {
	if !v.RemainingKnown {
		return "calculating..."
	}
	r := v.Remaining.Round(time.Second)
	switch {
	case r < time.Minute:
		return fmt.Sprintf("%ds", int(r.Seconds()))
	case r < time.Hour:
		return fmt.Sprintf("%dm%ds", int(r.Minutes()), int(r.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(r.Hours()), int(r.Minutes())%60)
	}
}

func formatThroughput(v progress.View) string {
	if !v.RateKnown || v.Rate <= 0 {
		return "-- B/s"
	}
	return formatBytes(int64(v.Rate)) + "/s"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
