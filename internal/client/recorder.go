package client

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// MaxClipDuration caps a recording; the recorder stops itself when reached.
const MaxClipDuration = 2 * time.Minute

var (
	// ErrNotRecording is returned by operations that need an active recording.
	ErrNotRecording = errors.New("recorder: not recording")
	// ErrAlreadyRecording is returned by Start while a recording is active.
	ErrAlreadyRecording = errors.New("recorder: already recording")
)

// Recorder captures an audio clip into a temp file in the media directory.
// At most one recording is active at a time; a clip that reaches
// MaxClipDuration is finalized as if the user had pressed stop.
type Recorder struct {
	mu sync.Mutex

	dir    string
	maxDur time.Duration

	recording   bool
	autoStopped bool
	f           *os.File
	path        string
	timer       *time.Timer
}

// NewRecorder returns a recorder writing clips under dir.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &Recorder{dir: dir, maxDur: MaxClipDuration}, nil
}

// Start begins a new recording.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}

	name := fmt.Sprintf("AUDIO_%d_*.3gp", time.Now().UnixMilli())
	f, err := os.CreateTemp(r.dir, name)
	if err != nil {
		return err
	}
	r.f = f
	r.path = f.Name()
	r.recording = true
	r.autoStopped = false
	r.timer = time.AfterFunc(r.maxDur, r.autoStop)
	return nil
}

// Write appends captured audio data to the active clip.
func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return 0, ErrNotRecording
	}
	return r.f.Write(p)
}

// Stop finalizes the recording and returns the clip path. Stopping after the
// duration cap fired returns the already-finalized clip.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		if r.autoStopped && r.path != "" {
			return r.path, nil
		}
		return "", ErrNotRecording
	}
	return r.stopLocked()
}

// Recording reports whether a clip is being captured.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Discard stops any active recording and deletes the clip.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		if _, err := r.stopLocked(); err != nil {
			return err
		}
	}
	if r.path == "" {
		return nil
	}
	err := os.Remove(r.path)
	r.path = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (r *Recorder) autoStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	if _, err := r.stopLocked(); err == nil {
		r.autoStopped = true
	}
}

// stopLocked cancels the cap timer and closes the file. Callers hold r.mu.
func (r *Recorder) stopLocked() (string, error) {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.recording = false
	err := r.f.Close()
	r.f = nil
	if err != nil {
		return "", err
	}
	return r.path, nil
}

// setMaxDuration shortens the cap for tests.
func (r *Recorder) setMaxDuration(d time.Duration) { r.maxDur = d }
