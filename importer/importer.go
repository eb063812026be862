// Package importer turns local audio files into library tracks: duration and
// tag extraction, payload encoding, and per-file failure isolation.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"

	"tunecrate/config"
	"tunecrate/models"
)

var (
	// ErrUnsupportedFormat marks files whose duration cannot be extracted.
	// Duration is the one hard requirement of an import.
	ErrUnsupportedFormat = errors.New("importer: unsupported audio format")
	// ErrFileTooLarge marks files over the configured size cap. Payloads are
	// held in memory and stored inline, so the cap is enforced up front.
	ErrFileTooLarge = errors.New("importer: file exceeds size cap")
)

const fallbackArtist = "Unknown"

// ImportFile builds a Track from a single audio file. Tag extraction is best
// effort: a missing or unreadable tag falls back to the filename stem and
// "Unknown". A duration extraction failure fails the file.
func ImportFile(path string) (models.Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Track{}, fmt.Errorf("importer: stat %s: %w", path, err)
	}
	if info.Size() > maxFileBytes() {
		return models.Track{}, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, info.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Track{}, fmt.Errorf("importer: read %s: %w", path, err)
	}

	duration, err := extractDuration(path, raw)
	if err != nil {
		return models.Track{}, err
	}

	track := models.Track{
		ID:       uuid.NewString(),
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Artist:   fallbackArtist,
		Duration: duration,
	}
	track.SetAudio(raw)

	meta, err := tag.ReadFrom(bytes.NewReader(raw))
	if err != nil {
		log.Warnf("no readable tags in %s: %v", path, err)
		return track, nil
	}

	if title := strings.TrimSpace(meta.Title()); title != "" {
		track.Title = title
	}
	if artist := strings.TrimSpace(meta.Artist()); artist != "" {
		track.Artist = artist
	}
	track.Album = strings.TrimSpace(meta.Album())
	if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
		track.SetCoverArt(pic.Data)
	}

	return track, nil
}

// ImportBatch imports every path it can, skipping the ones that fail. The
// returned errors are per-file; a failed file never aborts the batch.
func ImportBatch(paths []string) ([]models.Track, []error) {
	var tracks []models.Track
	var errs []error

	for _, path := range paths {
		track, err := ImportFile(path)
		if err != nil {
			log.Warnf("skipping %s: %v", path, err)
			errs = append(errs, err)
			continue
		}
		tracks = append(tracks, track)
	}

	return tracks, errs
}

// extractDuration walks MP3 frames to total up the play time. Only MP3 input
// carries a decodable duration here; everything else is rejected up front.
func extractDuration(path string, raw []byte) (float64, error) {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	decoder := mp3.NewDecoder(bytes.NewReader(raw))
	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, path, err)
		}
		total += frame.Duration().Seconds()
	}

	if total <= 0 {
		return 0, fmt.Errorf("%w: %s: no audio frames", ErrUnsupportedFormat, path)
	}
	return total, nil
}

func maxFileBytes() int64 {
	capMB := 50
	if config.Config != nil && config.Config.Options.ImportMaxFileMB > 0 {
		capMB = config.Config.Options.ImportMaxFileMB
	}
	return int64(capMB) * 1024 * 1024
}
