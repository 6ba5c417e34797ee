package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// ExportVersion is written into every export file.
const ExportVersion = 1

const exportName = "armies.json"

type exportFile struct {
	Version int               `json:"version"`
	SavedAt time.Time         `json:"savedAt"`
	Armies  []core.ArmyRecord `json:"armies"`
}

// ExportedFilePath returns the file written by the last Close.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func (b *Backend) exportPath() string {
	if b.cfg.CompressOutput {
		return filepath.Join(b.cfg.OutputDir, exportName+".gz")
	}
	return filepath.Join(b.cfg.OutputDir, exportName)
}

// exportJSON writes every army sorted by player id.
func (b *Backend) exportJSON() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ids := make([]string, 0, len(b.armies))
	for id := range b.armies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := exportFile{Version: ExportVersion, SavedAt: b.now().UTC()}
	for _, id := range ids {
		out.Armies = append(out.Armies, b.armies[id])
	}

	path := b.exportPath()
	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(path, out)
	} else {
		err = writeJSON(path, out)
	}
	if err != nil {
		return err
	}
	b.lastExportPath = path
	return nil
}

// importJSON reads armies.json.gz, falling back to armies.json. A missing
// file yields no records.
func (b *Backend) importJSON() ([]core.ArmyRecord, error) {
	for _, name := range []string{exportName + ".gz", exportName} {
		path := filepath.Join(b.cfg.OutputDir, name)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		var r io.Reader = f
		if filepath.Ext(name) == ".gz" {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			defer gz.Close()
			r = gz
		}

		var in exportFile
		if err := json.NewDecoder(r).Decode(&in); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return in.Armies, nil
	}
	return nil, nil
}

func writeJSON(path string, data exportFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data exportFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	return json.NewEncoder(gzWriter).Encode(data)
}
