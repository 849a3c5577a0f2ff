package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Disk stores image blobs under baseDir/<catID>/{original,processed}/.
type Disk struct {
	baseDir string
}

func NewDisk(baseDir string) (*Disk, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Disk{baseDir: baseDir}, nil
}

func (d *Disk) SaveOriginal(catID int64, filename string, data []byte) (string, error) {
	return d.save(catID, "original", filename, data)
}

func (d *Disk) SaveProcessed(catID int64, filename string, data []byte) (string, error) {
	return d.save(catID, "processed", filename, data)
}

func (d *Disk) save(catID int64, kind, filename string, data []byte) (string, error) {
	dir := filepath.Join(d.baseDir, strconv.FormatInt(catID, 10), kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	finalName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename))
	path := filepath.Join(dir, finalName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}
	return path, nil
}
