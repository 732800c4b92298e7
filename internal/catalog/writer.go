package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Writer persists per-service catalog artifacts: a pretty-printed JSON array
// for inspection and a minified one for serving. Prior artifacts are
// overwritten unconditionally.
type Writer struct {
	outDir string
	logger zerolog.Logger
}

// NewWriter creates a Writer rooted at outDir.
func NewWriter(outDir string, logger zerolog.Logger) *Writer {
	return &Writer{outDir: outDir, logger: logger}
}

// Write serializes products to <service>.json and <service>.min.json. Both
// files independently represent the same data. Each file is written to a
// temp file and renamed, so a reader never observes a partial artifact.
func (w *Writer) Write(service string, products []*Product) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	pretty, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog for %s: %w", service, err)
	}
	minified, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal minified catalog for %s: %w", service, err)
	}

	if err := w.writeFileAtomic(service+".json", pretty); err != nil {
		return err
	}
	if err := w.writeFileAtomic(service+".min.json", minified); err != nil {
		return err
	}

	w.logger.Info().
		Str("service", service).
		Int("products", len(products)).
		Int("bytes", len(minified)).
		Msg("catalog written")

	return nil
}

func (w *Writer) writeFileAtomic(name string, data []byte) error {
	path := filepath.Join(w.outDir, name)

	tmp, err := os.CreateTemp(w.outDir, ".catalog-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", name, err)
	}

	success = true
	return nil
}
