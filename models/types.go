package models

import (
	"encoding/base64"
	"fmt"
)

// Track is a single importable audio item. AudioData and CoverArtData are
// self-contained base64 payloads and the only durable source of the bytes;
// Audio and CoverArt are session-scoped decoded handles that are never
// persisted and must be rederived from the payloads after every load.
type Track struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Album        string  `json:"album,omitempty"`
	Category     string  `json:"category,omitempty"`
	Duration     float64 `json:"duration"`
	AudioData    string  `json:"audioData"`
	CoverArtData string  `json:"coverArtData,omitempty"`

	Audio    []byte `json:"-"`
	CoverArt []byte `json:"-"`
}

// Playlist is a named snapshot of tracks. Songs holds full copies, not
// references: later edits or removals in the live library do not reach a
// playlist created before them.
type Playlist struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Songs []Track `json:"songs"`
}

// RestoreHandles decodes the durable payloads into the transient handles.
// Called once per track per hydration.
func (t *Track) RestoreHandles() error {
	audio, err := base64.StdEncoding.DecodeString(t.AudioData)
	if err != nil {
		return fmt.Errorf("decoding audio payload for track %s: %w", t.ID, err)
	}
	t.Audio = audio

	if t.CoverArtData != "" {
		art, err := base64.StdEncoding.DecodeString(t.CoverArtData)
		if err != nil {
			return fmt.Errorf("decoding cover art payload for track %s: %w", t.ID, err)
		}
		t.CoverArt = art
	}
	return nil
}

// SetAudio stores raw audio bytes as both the transient handle and the
// durable payload so the two can never denote different content.
func (t *Track) SetAudio(raw []byte) {
	t.Audio = raw
	t.AudioData = base64.StdEncoding.EncodeToString(raw)
}

// SetCoverArt mirrors SetAudio for cover art bytes.
func (t *Track) SetCoverArt(raw []byte) {
	t.CoverArt = raw
	t.CoverArtData = base64.StdEncoding.EncodeToString(raw)
}

// Clone returns a deep copy of the track, including the transient handles.
func (t Track) Clone() Track {
	c := t
	if t.Audio != nil {
		c.Audio = make([]byte, len(t.Audio))
		copy(c.Audio, t.Audio)
	}
	if t.CoverArt != nil {
		c.CoverArt = make([]byte, len(t.CoverArt))
		copy(c.CoverArt, t.CoverArt)
	}
	return c
}

// CloneTracks deep-copies a slice of tracks.
func CloneTracks(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = t.Clone()
	}
	return out
}
