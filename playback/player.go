// Package playback is the transport boundary of the library: load a track's
// transient audio handle, then play/pause/seek/volume with an ended
// notification for the layer that drives advance logic.
package playback

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tunecrate/models"
)

var (
	// ErrNoTrack is returned when Play is called before a successful Load.
	ErrNoTrack = errors.New("playback: no track loaded")
	// ErrNoAudio is returned when the track's transient handle is missing,
	// i.e. it was never rederived from the durable payload.
	ErrNoAudio = errors.New("playback: track has no audio handle")
	// ErrInvalidVolume is returned for volumes outside [0, 1].
	ErrInvalidVolume = errors.New("playback: volume out of range")
)

// Transport is what the rendering layer drives. The library core only ever
// hands it tracks; everything downstream of the decoded bytes is outside the
// core.
type Transport interface {
	Load(track models.Track) error
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64) error
	Position() float64
	Duration() float64
	Notifications() <-chan Notification
}

const tickInterval = 50 * time.Millisecond

// Player is a clock-driven Transport: it treats the loaded bytes as opaque
// and advances a play clock against the track's reported duration, emitting
// EventCompleted when the clock passes it. Good enough for advance logic and
// for tests; it produces no sound.
type Player struct {
	notifications chan Notification
	logger        *log.Entry

	mu       sync.Mutex
	trackID  string
	duration float64
	position float64
	volume   float64
	playing  bool
	stop     chan struct{}
}

var _ Transport = (*Player)(nil)

func NewPlayer() *Player {
	return &Player{
		notifications: make(chan Notification, 100),
		volume:        1.0,
		logger: log.WithFields(log.Fields{
			"module": "playback",
		}),
	}
}

// Load points the transport at a track. Any current playback stops.
func (p *Player) Load(track models.Track) error {
	if len(track.Audio) == 0 {
		return ErrNoAudio
	}

	p.mu.Lock()
	p.stopLocked()
	p.trackID = track.ID
	p.duration = track.Duration
	p.position = 0
	p.mu.Unlock()

	p.logger.Debugf("loaded track %s (%.1fs)", track.ID, track.Duration)
	p.notify(Notification{Event: EventLoaded, TrackID: track.ID})
	return nil
}

// Play starts or resumes the clock. Playing while already playing is a no-op.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.trackID == "" {
		return ErrNoTrack
	}
	if p.playing {
		return nil
	}

	if p.position >= p.duration {
		// Replaying a finished track starts over.
		p.position = 0
	}

	resumed := p.position > 0
	p.playing = true
	p.stop = make(chan struct{})
	go p.run(p.stop)

	event := EventStarted
	if resumed {
		event = EventResumed
	}
	p.notify(Notification{Event: event, TrackID: p.trackID})
	return nil
}

// Pause halts the clock, keeping the position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return
	}
	p.stopLocked()
	p.notify(Notification{Event: EventPaused, TrackID: p.trackID})
}

// Seek moves the clock, clamped to [0, duration]. A no-op when nothing is
// loaded.
func (p *Player) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.trackID == "" {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if seconds > p.duration {
		seconds = p.duration
	}
	p.position = seconds
	p.notify(Notification{Event: EventSeeked, TrackID: p.trackID})
}

// SetVolume accepts 0..1.
func (p *Player) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return ErrInvalidVolume
	}
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
	return nil
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Notifications is the transport's event stream. The channel is buffered and
// never closed; slow consumers drop events rather than block playback.
func (p *Player) Notifications() <-chan Notification {
	return p.notifications
}

func (p *Player) run(stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			if !p.playing {
				p.mu.Unlock()
				return
			}
			p.position += tickInterval.Seconds()
			if p.position >= p.duration {
				p.position = p.duration
				p.playing = false
				p.stop = nil
				trackID := p.trackID
				p.mu.Unlock()
				p.logger.Debugf("track %s completed", trackID)
				p.notify(Notification{Event: EventCompleted, TrackID: trackID})
				return
			}
			p.mu.Unlock()
		}
	}
}

// stopLocked halts the play loop. Caller holds p.mu.
func (p *Player) stopLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.playing = false
}

func (p *Player) notify(n Notification) {
	select {
	case p.notifications <- n:
	default:
		p.logger.Warnf("playback notifications channel is full, dropping %s", n.Event)
	}
}
