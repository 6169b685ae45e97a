package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/chronica-app/chronica/internal/model"
)

// AudioStore keeps recorded clips in a single directory. A clip belongs to an
// entry only when its name matches the persisted audio file name, which is
// always "<entryID>.3gp". Temp uploads that are never attached stay behind;
// nothing reconciles them.
type AudioStore struct {
	dir string
}

// NewAudioStore creates the clip directory if needed.
func NewAudioStore(dir string) (*AudioStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio dir: %w", err)
	}
	return &AudioStore{dir: dir}, nil
}

// Dir returns the clip directory.
func (s *AudioStore) Dir() string { return s.dir }

// SaveTemp writes an uploaded clip to a temp file and returns its path.
func (s *AudioStore) SaveTemp(r io.Reader) (string, error) {
	name := fmt.Sprintf("AUDIO_%s_*%s", time.Now().Format("20060102_150405"), model.AudioExt)
	f, err := os.CreateTemp(s.dir, name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Attach renames a temp clip to its entry-scoped name and returns the
// persisted file name. A failed rename drops the audio reference: the entry
// is saved without it and no error is surfaced to the caller.
func (s *AudioStore) Attach(tempPath string, entryID uuid.UUID) (string, bool) {
	name := entryID.String() + model.AudioExt
	if err := os.Rename(tempPath, filepath.Join(s.dir, name)); err != nil {
		return "", false
	}
	return name, true
}

// Remove deletes a clip by its persisted name. Callers treat failures as
// best-effort cleanup.
func (s *AudioStore) Remove(fileName string) error {
	p, err := s.resolve(fileName)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// Open opens a clip for reading.
func (s *AudioStore) Open(fileName string) (*os.File, error) {
	p, err := s.resolve(fileName)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// resolve maps a persisted file name onto the clip directory, refusing
// anything that would escape it.
func (s *AudioStore) resolve(fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return "", fmt.Errorf("bad audio file name %q", fileName)
	}
	return filepath.Join(s.dir, fileName), nil
}
