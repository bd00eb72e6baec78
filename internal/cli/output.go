package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/medreport/internal/format"
)

// warnExtensionMismatch writes a warning to w if path has an extension that
// does not match f. The output is rendered as f whatever the extension.
func warnExtensionMismatch(w io.Writer, path string, f format.Format) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" || ext == f.Extension() {
		return
	}
	if f == format.Markdown && ext == ".markdown" || f == format.YAML && ext == ".yml" {
		return
	}
	_, _ = fmt.Fprintf(w, "Warning: output is %s regardless of %s extension\n", f, ext)
}

// defaultReportFilename names an output file after the generation time.
// Example: "reports_20260126_143052.md"
func defaultReportFilename(now time.Time, f format.Format) string {
	return "reports_" + now.Format("20060102_150405") + f.Extension()
}

// writeFileAtomic writes content to path atomically.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}
