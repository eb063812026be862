// Package library owns the authoritative in-memory track collection and the
// currently selected track, and keeps both durable through the database
// package.
package library

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"tunecrate/categorize"
	"tunecrate/database"
	"tunecrate/models"
	"tunecrate/sentry"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateHydrating     State = "hydrating"
	StateReady         State = "ready"
)

var (
	// ErrNotHydrated is returned by mutations before Hydrate has completed.
	ErrNotHydrated = errors.New("library: not hydrated")
	// ErrAlreadyHydrated is returned when Hydrate is called twice.
	ErrAlreadyHydrated = errors.New("library: already hydrated")
	// ErrNotFound is returned when a track id does not exist in the library.
	ErrNotFound = errors.New("library: track not found")
)

// TrackPatch carries the editable fields of a track. Nil means "leave as is".
type TrackPatch struct {
	Title  *string
	Artist *string
}

// Manager mediates every mutation of the track collection. Each collection
// change rewrites the full tracks collection in the store; each selection
// change rewrites the selection slot. The two triggers are independent.
type Manager struct {
	store  *database.Store
	logger *log.Entry

	mu      sync.Mutex
	state   State
	tracks  []models.Track
	current string // selected track id, "" when none
}

func NewManager(store *database.Store) *Manager {
	return &Manager{
		store: store,
		state: StateUninitialized,
		logger: log.WithFields(log.Fields{
			"module": "library",
		}),
	}
}

// Hydrate performs the one-time startup load: tracks, then the persisted
// selection resolved against them. Tracks missing a category get one from the
// classifier, once. On a storage failure the library comes up Ready but
// empty, and the error is still returned so the caller can surface it.
func (m *Manager) Hydrate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUninitialized {
		return ErrAlreadyHydrated
	}
	m.state = StateHydrating

	tracks, err := m.store.LoadAllTracks()
	if err != nil {
		sentry.ReportError(err)
		m.logger.Errorf("hydration failed, starting with an empty library: %v", err)
		m.tracks = nil
		m.current = ""
		m.state = StateReady
		return err
	}

	for i := range tracks {
		if tracks[i].Category == "" {
			tracks[i].Category = categorize.Classify(tracks[i])
		}
	}
	m.tracks = tracks

	lastID, lastErr := m.store.LoadLastSelectedID()
	if lastErr != nil {
		sentry.ReportError(lastErr)
		m.logger.Errorf("could not load last selection: %v", lastErr)
		lastID = ""
	}

	m.current = ""
	if lastID != "" {
		for _, t := range m.tracks {
			if t.ID == lastID {
				m.current = lastID
				break
			}
		}
	}

	// The library still comes up Ready (with the selection unset) on a slot
	// failure, but the storage error reaches the caller.
	m.state = StateReady
	m.logger.Infof("library hydrated with %d tracks", len(m.tracks))
	return lastErr
}

// State reports the manager's lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Tracks returns a snapshot copy of the collection.
func (m *Manager) Tracks() []models.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CloneTracks(m.tracks)
}

// Current returns a copy of the selected track, if any.
func (m *Manager) Current() (models.Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == "" {
		return models.Track{}, false
	}
	for _, t := range m.tracks {
		if t.ID == m.current {
			return t.Clone(), true
		}
	}
	return models.Track{}, false
}

// AddTracks classifies any uncategorized incoming track, appends the batch,
// and selects the batch's first track when nothing was selected before.
func (m *Manager) AddTracks(newTracks []models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return ErrNotHydrated
	}
	if len(newTracks) == 0 {
		return nil
	}

	batch := models.CloneTracks(newTracks)
	for i := range batch {
		if batch[i].Category == "" {
			batch[i].Category = categorize.Classify(batch[i])
		}
	}

	m.tracks = append(m.tracks, batch...)
	m.logger.Debugf("added %d tracks, library now holds %d", len(batch), len(m.tracks))

	if err := m.persistTracks(); err != nil {
		return err
	}

	if m.current == "" {
		return m.setSelection(batch[0].ID)
	}
	return nil
}

// RemoveTrack drops the track with the given id. Removing the selected track
// reselects the first remaining track, or clears the selection when the
// library is now empty.
func (m *Manager) RemoveTrack(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return ErrNotHydrated
	}

	idx := -1
	for i, t := range m.tracks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}

	m.tracks = append(m.tracks[:idx], m.tracks[idx+1:]...)
	m.logger.Debugf("removed track %s, %d remaining", id, len(m.tracks))

	if err := m.persistTracks(); err != nil {
		return err
	}

	if m.current == id {
		next := ""
		if len(m.tracks) > 0 {
			next = m.tracks[0].ID
		}
		return m.setSelection(next)
	}
	return nil
}

// SelectTrack moves the selection pointer to the track with the given id.
func (m *Manager) SelectTrack(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return ErrNotHydrated
	}

	for _, t := range m.tracks {
		if t.ID == id {
			return m.setSelection(id)
		}
	}
	return ErrNotFound
}

// UpdateTrack applies the patch to the track with the given id and returns
// the updated copy. Callers never hold a mutable alias into the collection.
func (m *Manager) UpdateTrack(id string, patch TrackPatch) (models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return models.Track{}, ErrNotHydrated
	}

	for i := range m.tracks {
		if m.tracks[i].ID != id {
			continue
		}
		if patch.Title != nil {
			m.tracks[i].Title = *patch.Title
		}
		if patch.Artist != nil {
			m.tracks[i].Artist = *patch.Artist
		}
		if err := m.persistTracks(); err != nil {
			return models.Track{}, err
		}
		return m.tracks[i].Clone(), nil
	}
	return models.Track{}, ErrNotFound
}

// ReplaceCollection swaps in a whole new collection, as when a playlist is
// activated. The prior collection is superseded by whatever the new one
// persists; selection moves to the new first track or clears.
func (m *Manager) ReplaceCollection(tracks []models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return ErrNotHydrated
	}

	m.tracks = models.CloneTracks(tracks)
	m.logger.Debugf("collection replaced with %d tracks", len(m.tracks))

	if err := m.persistTracks(); err != nil {
		return err
	}

	next := ""
	if len(m.tracks) > 0 {
		next = m.tracks[0].ID
	}
	return m.setSelection(next)
}

// persistTracks rewrites the full tracks collection. Failures are reported
// and propagated, never retried: in-memory and durable state may diverge
// until the next successful rewrite.
func (m *Manager) persistTracks() error {
	if err := m.store.ReplaceAllTracks(m.tracks); err != nil {
		sentry.ReportError(err)
		m.logger.Errorf("failed to persist tracks: %v", err)
		return err
	}
	return nil
}

func (m *Manager) setSelection(id string) error {
	m.current = id
	if err := m.store.SaveLastSelectedID(id); err != nil {
		sentry.ReportError(err)
		m.logger.Errorf("failed to persist selection: %v", err)
		return err
	}
	return nil
}
