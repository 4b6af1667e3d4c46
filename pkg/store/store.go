package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/stefanpenner/quest/pkg/quest"
)

// DefaultProgressFile is the progress file name used when none is configured.
// It is YAML so streaks and checklist counts survive between runs; the text
// format is still read and written for any path without a .yaml extension.
const DefaultProgressFile = "progress.yaml"

// Store manages the progress file inside a data directory.
type Store struct {
	Root string // e.g., ~/.local/share/quest
	File string // progress file name or absolute path
}

// NewStore creates a Store rooted at the given directory, creating the
// directory if it doesn't exist. An empty file selects DefaultProgressFile.
func NewStore(root, file string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if file == "" {
		file = DefaultProgressFile
	}
	return &Store{Root: root, File: file}, nil
}

// ProgressPath returns the path of the progress file.
func (s *Store) ProgressPath() string {
	if filepath.IsAbs(s.File) {
		return s.File
	}
	return filepath.Join(s.Root, s.File)
}

// Exists reports whether the progress file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.ProgressPath())
	return err == nil
}

// Save writes l to the progress file.
func (s *Store) Save(l *quest.Ledger) error {
	return Save(s.ProgressPath(), l)
}

// Load reads the progress file.
func (s *Store) Load() (*quest.Ledger, error) {
	return Load(s.ProgressPath())
}

// Save encodes l with the codec chosen by CodecFor and overwrites path.
// The ledger is encoded in full before the file is touched, so an encode
// error leaves any existing file as it was.
func Save(path string, l *quest.Ledger) error {
	var buf bytes.Buffer
	if err := CodecFor(path).Encode(&buf, l); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, path, err)
	}
	return nil
}

// Load decodes the ledger stored at path. It returns ErrNotFound when the
// file does not exist and an error wrapping ErrFormat when it cannot be
// parsed. On error no ledger is returned.
func Load(path string) (*quest.Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	l, err := CodecFor(path).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return l, nil
}

// Fingerprint returns a hash of the file at path, used to tell a file this
// process wrote apart from one changed by someone else. A missing file
// yields ErrNotFound.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
