package client

import (
	"errors"
	"sync"
	"time"
)

// PlayerState names the playback states.
type PlayerState int

const (
	PlayerStopped PlayerState = iota
	PlayerPlaying
	PlayerPaused
)

func (s PlayerState) String() string {
	switch s {
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// ErrNoClip is returned when playback is requested without a loaded clip.
var ErrNoClip = errors.New("player: no clip loaded")

// Player tracks playback position over a loaded clip. It models the
// controls only; decoding and output are left to the surrounding tooling.
type Player struct {
	mu sync.Mutex

	clip     string
	duration time.Duration

	state     PlayerState
	base      time.Duration // position when playback last started or sought
	startedAt time.Time     // wall instant playback last resumed

	now func() time.Time
}

// NewPlayer returns an empty player.
func NewPlayer() *Player {
	return &Player{now: time.Now}
}

// Load sets the active clip and resets playback to the start.
func (p *Player) Load(path string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clip = path
	p.duration = duration
	p.state = PlayerStopped
	p.base = 0
}

// Play starts or restarts playback from the current position.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clip == "" {
		return ErrNoClip
	}
	if p.state == PlayerPlaying {
		return nil
	}
	p.startedAt = p.now()
	p.state = PlayerPlaying
	return nil
}

// Pause freezes the position; a later Play resumes from it.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PlayerPlaying {
		return
	}
	p.base = p.positionLocked()
	p.state = PlayerPaused
}

// Stop halts playback and rewinds to the start.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = PlayerStopped
	p.base = 0
}

// Seek moves the position, clamped to [0, duration].
func (p *Player) Seek(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if pos > p.duration {
		pos = p.duration
	}
	p.base = pos
	if p.state == PlayerPlaying {
		p.startedAt = p.now()
	}
}

// Position returns the current playback position. Reaching the end of the
// clip resets the player to stopped at position zero.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos := p.positionLocked()
	if p.state == PlayerPlaying && pos >= p.duration {
		p.state = PlayerStopped
		p.base = 0
		return 0
	}
	return pos
}

// State returns the current playback state, accounting for completion.
func (p *Player) State() PlayerState {
	p.Position()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) positionLocked() time.Duration {
	if p.state != PlayerPlaying {
		return p.base
	}
	return p.base + p.now().Sub(p.startedAt)
}
