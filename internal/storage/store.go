// Package storage writes rendered artifacts and keeps a record of every run.
//
// Images, sidecar listings and videos are written directly under the base
// directory. Each run additionally leaves runs/<id>/metadata.json so that
// past runs can be listed and inspected.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(filepath.Join(s.baseDir, "runs"), 0755)
}

// Dir is the base directory.
func (s *Store) Dir() string { return s.baseDir }

// Path returns where an artifact called name is stored.
func (s *Store) Path(name string) string {
	return filepath.Join(s.baseDir, name)
}

// WritePNG encodes img to name and returns the written path.
func (s *Store) WritePNG(name string, img image.Image) (string, error) {
	path := s.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSidecar writes one line per entry.
func (s *Store) WriteSidecar(name string, lines []string) (string, error) {
	path := s.Path(name)
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// RunMetadata describes one invocation and what it produced.
type RunMetadata struct {
	ID          string             `json:"id"`
	Mode        string             `json:"mode"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Family      string             `json:"family"`
	Colour      string             `json:"colour"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Quality     int                `json:"quality"`
	Params      []string           `json:"params,omitempty"`
	Coefficient string             `json:"coefficient,omitempty"`
	Interval    []float64          `json:"interval,omitempty"`
	Frames      int                `json:"frames,omitempty"`
	Failed      int                `json:"failed,omitempty"`
	Artifacts   []string           `json:"artifacts"`
	Elapsed     time.Duration      `json:"elapsed"`
	Stats       map[string]float64 `json:"stats,omitempty"`
}

// SaveRun records meta, assigning an ID and timestamp when missing.
func (s *Store) SaveRun(meta *RunMetadata) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Mode, meta.Timestamp.UnixNano())
	}

	runDir := filepath.Join(s.baseDir, "runs", meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns every recorded run, oldest first. Unreadable entries are
// skipped.
func (s *Store) List() ([]RunMetadata, error) {
	runsDir := filepath.Join(s.baseDir, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, "runs", runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}
