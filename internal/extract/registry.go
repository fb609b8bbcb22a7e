package extract

import (
	"fmt"
	"sort"

	"github.com/TheMaksoo/karting/internal/core/domain"
)

// Registry maps track names to their vendor extractor. It replaces the
// per-vendor branching the importer grew out of: the detector names a
// track, the registry names the implementation.
type Registry struct {
	byTrack map[string]Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{byTrack: make(map[string]Extractor)}
}

// Register adds an extractor for every track it declares.
// Later registrations win, which lets callers override a family handler
// for a single track.
func (r *Registry) Register(e Extractor) {
	for _, track := range e.Tracks() {
		r.byTrack[track] = e
	}
}

// For returns the extractor responsible for a track.
func (r *Registry) For(track string) (Extractor, error) {
	e, ok := r.byTrack[track]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for track %q", domain.ErrUnrecognizedFormat, track)
	}
	return e, nil
}

// Tracks returns all registered track names, sorted.
func (r *Registry) Tracks() []string {
	tracks := make([]string, 0, len(r.byTrack))
	for t := range r.byTrack {
		tracks = append(tracks, t)
	}
	sort.Strings(tracks)
	return tracks
}
