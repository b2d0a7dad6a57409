package session

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/riconcilia/riconcilia/internal/importer"
)

const (
	filePrefix = "session-"
	fileExt    = ".json"
	stampFmt   = "20060102T150405.000000000Z"
)

// Store saves and retrieves snapshots.
type Store interface {
	Save(snap Snapshot) (*Payload, error)
	LoadLatest() (*Payload, error)
}

// FileStore keeps one JSON file per saved session in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}
}

// Save writes snap as a new session file.
func (s *FileStore) Save(snap Snapshot) (*Payload, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	p := NewPayload(snap, s.now())
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return nil, err
	}

	name := filePrefix + p.SavedAt.Format(stampFmt) + "-" + p.SessionID[:8] + fileExt
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("writing session: %w", err)
	}

	s.logger.Info("session saved", "id", p.SessionID, "path", path)
	return &p, nil
}

// LoadLatest returns the most recently saved session, or nil when none
// exist. Unreadable files are skipped.
func (s *FileStore) LoadLatest() (*Payload, error) {
	files, err := importer.Scan(s.dir, fileExt)
	if err != nil {
		return nil, err
	}

	var latest *Payload
	for _, fi := range files {
		if !strings.HasPrefix(fi.Name, filePrefix) {
			continue
		}
		p, err := readPayload(fi.Path)
		if err != nil {
			s.logger.Warn("skipping session file", "path", fi.Path, "error", err)
			continue
		}
		if latest == nil || !p.SavedAt.Before(latest.SavedAt) {
			latest = p
		}
	}
	return latest, nil
}

func readPayload(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
