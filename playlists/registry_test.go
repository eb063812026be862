package playlists

import (
	"errors"
	"path/filepath"
	"testing"

	"tunecrate/database"
	"tunecrate/models"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := database.Open(filepath.Join(dir, "library.db"), filepath.Join(dir, "current_track"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newReadyRegistry(t *testing.T) (*Registry, *database.Store) {
	t.Helper()
	store := newTestStore(t)
	r := NewRegistry(store)
	if err := r.Hydrate(); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	return r, store
}

func categorized(id, title, category string) models.Track {
	tr := models.Track{ID: id, Title: title, Artist: "Artist", Category: category, Duration: 10}
	tr.SetAudio([]byte("audio-" + id))
	return tr
}

func TestCreateFromCategory(t *testing.T) {
	r, store := newReadyRegistry(t)

	tracks := []models.Track{
		categorized("a", "Song A", "Rock"),
		categorized("b", "Song B", "Jazz"),
		categorized("c", "Song C", "Rock"),
	}

	playlist, result, err := r.CreateFromCategory(tracks, "Rock", "My Rock")
	if err != nil {
		t.Fatalf("CreateFromCategory: %v", err)
	}
	if result != Created {
		t.Fatalf("result = %s, want created", result)
	}
	if playlist.ID == "" || playlist.Name != "My Rock" {
		t.Errorf("playlist = %+v, want a fresh id and name My Rock", playlist)
	}
	if len(playlist.Songs) != 2 || playlist.Songs[0].ID != "a" || playlist.Songs[1].ID != "c" {
		t.Errorf("songs = %v, want a and c in order", playlist.Songs)
	}

	persisted, err := store.LoadAllPlaylists()
	if err != nil {
		t.Fatalf("LoadAllPlaylists: %v", err)
	}
	if len(persisted) != 1 || persisted[0].Name != "My Rock" {
		t.Errorf("persisted = %v, want My Rock", persisted)
	}
}

func TestCreateFromCategoryRejections(t *testing.T) {
	r, _ := newReadyRegistry(t)
	tracks := []models.Track{categorized("a", "Song A", "Rock")}

	tests := []struct {
		name     string
		category string
		plName   string
		want     CreateResult
	}{
		{"empty_name", "Rock", "", RejectedEmptyName},
		{"whitespace_name", "Rock", "   ", RejectedEmptyName},
		{"empty_category", "", "List", RejectedEmptyCategory},
		{"no_matches", "Jazz", "My Jazz", RejectedNoMatches},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result, err := r.CreateFromCategory(tracks, tt.category, tt.plName)
			if err != nil {
				t.Fatalf("CreateFromCategory: %v", err)
			}
			if result != tt.want {
				t.Errorf("result = %s, want %s", result, tt.want)
			}
		})
	}

	if got := r.Playlists(); len(got) != 0 {
		t.Errorf("rejected creations still appended: %v", got)
	}
}

// TestSnapshotIsolation verifies the deliberate snapshot-not-reference
// semantics: editing a library track after creating a playlist leaves the
// playlist's stored copy untouched.
func TestSnapshotIsolation(t *testing.T) {
	r, _ := newReadyRegistry(t)

	tracks := []models.Track{
		categorized("a", "Original Title", "Rock"),
		categorized("b", "Second Song", "Rock"),
	}
	playlist, result, err := r.CreateFromCategory(tracks, "Rock", "Rock Snapshot")
	if err != nil || result != Created {
		t.Fatalf("CreateFromCategory: %v %s", err, result)
	}

	// Edit the live library copy.
	tracks[0].Title = "Edited Title"

	stored, ok := r.Activate(playlist.ID)
	if !ok {
		t.Fatal("Activate: playlist not found")
	}
	if stored[0].Title != "Original Title" {
		t.Errorf("snapshot title = %q, want Original Title", stored[0].Title)
	}
}

func TestActivateReturnsCopies(t *testing.T) {
	r, _ := newReadyRegistry(t)

	playlist, _, err := r.CreateFromCategory(
		[]models.Track{categorized("a", "Song A", "Rock")}, "Rock", "Rock")
	if err != nil {
		t.Fatalf("CreateFromCategory: %v", err)
	}

	first, ok := r.Activate(playlist.ID)
	if !ok {
		t.Fatal("Activate: playlist not found")
	}
	first[0].Title = "Mutated"

	second, _ := r.Activate(playlist.ID)
	if second[0].Title != "Song A" {
		t.Errorf("activation handed out a mutable alias: %q", second[0].Title)
	}

	if _, ok := r.Activate("ghost"); ok {
		t.Error("Activate(ghost) = ok, want not found")
	}
}

func TestDelete(t *testing.T) {
	r, store := newReadyRegistry(t)

	playlist, _, err := r.CreateFromCategory(
		[]models.Track{categorized("a", "Song A", "Rock")}, "Rock", "Rock")
	if err != nil {
		t.Fatalf("CreateFromCategory: %v", err)
	}

	if err := r.Delete(playlist.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := r.Playlists(); len(got) != 0 {
		t.Errorf("playlists after delete = %v, want none", got)
	}

	persisted, err := store.LoadAllPlaylists()
	if err != nil {
		t.Fatalf("LoadAllPlaylists: %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("persisted playlists after delete = %v, want none", persisted)
	}

	if err := r.Delete("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(ghost) = %v, want ErrNotFound", err)
	}
}

// TestHydrateLoadsPersisted verifies a second session sees playlists created
// in the first.
func TestHydrateLoadsPersisted(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "library.db")
	prefsPath := filepath.Join(dir, "current_track")

	store, err := database.Open(dbPath, prefsPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r := NewRegistry(store)
	if err := r.Hydrate(); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if _, _, err := r.CreateFromCategory(
		[]models.Track{categorized("a", "Song A", "Rock")}, "Rock", "Keeper"); err != nil {
		t.Fatalf("CreateFromCategory: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err = database.Open(dbPath, prefsPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	r2 := NewRegistry(store)
	if err := r2.Hydrate(); err != nil {
		t.Fatalf("second Hydrate: %v", err)
	}
	got := r2.Playlists()
	if len(got) != 1 || got[0].Name != "Keeper" {
		t.Fatalf("playlists after reopen = %v, want Keeper", got)
	}
	if len(got[0].Songs) != 1 || string(got[0].Songs[0].Audio) != "audio-a" {
		t.Errorf("snapshot audio handle not restored after reopen: %+v", got[0].Songs)
	}
}

func TestHydrateTwiceIsNoop(t *testing.T) {
	r, _ := newReadyRegistry(t)
	if err := r.Hydrate(); err != nil {
		t.Errorf("second Hydrate = %v, want nil no-op", err)
	}
}

func TestCreateFromCategoryPersistFailureReturnsPlaylist(t *testing.T) {
	r, store := newReadyRegistry(t)
	store.Close()

	tracks := []models.Track{categorized("a", "Song A", "Rock")}
	playlist, result, err := r.CreateFromCategory(tracks, "Rock", "My Rock")
	if err == nil {
		t.Fatal("CreateFromCategory on a closed store returned nil error")
	}
	if result != Created {
		t.Errorf("result = %s, want created", result)
	}
	if playlist.ID == "" || playlist.Name != "My Rock" || len(playlist.Songs) != 1 {
		t.Errorf("playlist = %+v, want the created playlist despite the write failure", playlist)
	}
}
