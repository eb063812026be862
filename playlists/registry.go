// Package playlists owns the named playlist collection. Playlists are
// immutable after creation and hold full track snapshots, so later library
// edits never reach them.
package playlists

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"tunecrate/categorize"
	"tunecrate/database"
	"tunecrate/models"
	"tunecrate/sentry"
)

// CreateResult says what CreateFromCategory did. The original behavior was a
// silent no-op on any invalid input; an explicit result lets callers give
// feedback without guessing.
type CreateResult string

const (
	Created               CreateResult = "created"
	RejectedEmptyName     CreateResult = "rejected_empty_name"
	RejectedEmptyCategory CreateResult = "rejected_empty_category"
	RejectedNoMatches     CreateResult = "rejected_no_matches"
)

// ErrNotFound is returned when a playlist id does not exist.
var ErrNotFound = errors.New("playlists: playlist not found")

// Registry keeps the in-memory playlist collection and rewrites the whole
// playlists collection in the store after every change. It shares the store
// with the track library but never a transaction: the two collections never
// mutate together atomically.
type Registry struct {
	store  *database.Store
	logger *log.Entry

	mu        sync.Mutex
	hydrated  bool
	playlists []models.Playlist
}

func NewRegistry(store *database.Store) *Registry {
	return &Registry{
		store: store,
		logger: log.WithFields(log.Fields{
			"module": "playlists",
		}),
	}
}

// Hydrate loads the persisted playlists once at startup. A storage failure
// leaves the registry usable but empty; the error is still returned.
func (r *Registry) Hydrate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hydrated {
		return nil
	}
	r.hydrated = true

	playlists, err := r.store.LoadAllPlaylists()
	if err != nil {
		sentry.ReportError(err)
		r.logger.Errorf("hydration failed, starting with no playlists: %v", err)
		return err
	}

	r.playlists = playlists
	r.logger.Infof("loaded %d playlists", len(playlists))
	return nil
}

// Playlists returns a snapshot copy of the collection.
func (r *Registry) Playlists() []models.Playlist {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Playlist, len(r.playlists))
	for i, p := range r.playlists {
		out[i] = models.Playlist{ID: p.ID, Name: p.Name, Songs: models.CloneTracks(p.Songs)}
	}
	return out
}

// CreateFromCategory snapshots the tracks whose category matches and appends
// a new playlist holding those copies. Name and category must be non-empty
// and at least one track must match, otherwise nothing is created and the
// result says why.
func (r *Registry) CreateFromCategory(tracks []models.Track, category, name string) (models.Playlist, CreateResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, RejectedEmptyName, nil
	}
	if category == "" {
		return models.Playlist{}, RejectedEmptyCategory, nil
	}

	matched := categorize.FilterByCategory(tracks, category)
	if len(matched) == 0 {
		return models.Playlist{}, RejectedNoMatches, nil
	}

	playlist := models.Playlist{
		ID:    uuid.NewString(),
		Name:  name,
		Songs: models.CloneTracks(matched),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.playlists = append(r.playlists, playlist)
	if err := r.persist(); err != nil {
		// The playlist was created in memory even though the write failed, so
		// the caller gets both it and the error.
		return playlist, Created, err
	}

	r.logger.Debugf("created playlist %q with %d songs", name, len(playlist.Songs))
	return playlist, Created, nil
}

// Delete removes the playlist with the given id and rewrites the collection.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.playlists {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}

	r.playlists = append(r.playlists[:idx], r.playlists[idx+1:]...)
	r.logger.Debugf("deleted playlist %s, %d remaining", id, len(r.playlists))
	return r.persist()
}

// Activate returns a deep copy of the playlist's song snapshots for the
// caller to hand to the library's ReplaceCollection. The registry never calls
// the library itself.
func (r *Registry) Activate(id string) ([]models.Track, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.playlists {
		if p.ID == id {
			return models.CloneTracks(p.Songs), true
		}
	}
	return nil, false
}

func (r *Registry) persist() error {
	if err := r.store.ReplaceAllPlaylists(r.playlists); err != nil {
		sentry.ReportError(err)
		r.logger.Errorf("failed to persist playlists: %v", err)
		return err
	}
	return nil
}
