// Package filex contains filesystem helpers for the exporter.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultOutputName generates a timestamped filename for a downloaded
// export, used when the user does not supply one.
func DefaultOutputName(now time.Time) string {
	return fmt.Sprintf("export_%s.json.gz", now.Format("20060102_150405"))
}

// EnsureParentDir creates the parent directory of path if it does not exist
// yet, so a download into a nested output path does not fail on the first
// write.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
