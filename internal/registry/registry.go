package registry

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scmmishra/geolink/internal/models"
	"github.com/scmmishra/geolink/internal/slug"
	"github.com/scmmishra/geolink/internal/store"
)

const maxIDAttempts = 10

// Registry owns the link state. Writers are serialized on mu and replace
// the committed snapshot only after the store accepted it; readers load
// the snapshot without locking.
type Registry struct {
	store store.Store

	mu       sync.Mutex
	snapshot atomic.Pointer[snapshot]

	// Overridable in tests.
	Now        func() time.Time
	GenerateID func() (string, error)
}

type snapshot struct {
	state *models.State
	index map[string]int
}

func New(s store.Store) *Registry {
	return &Registry{
		store:      s,
		Now:        func() time.Time { return time.Now().UTC() },
		GenerateID: slug.Generate,
	}
}

// Load reads the full state from the store.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	r.snapshot.Store(newSnapshot(state))
	log.Info().Int("links", len(state.Links)).Msg("registry loaded")
	return nil
}

func (r *Registry) Loaded() bool {
	return r.snapshot.Load() != nil
}

func (r *Registry) Len() int {
	snap := r.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.state.Links)
}

// Create registers a new link for originalURL.
func (r *Registry) Create(originalURL string) (models.Link, error) {
	originalURL = strings.TrimSpace(originalURL)
	if originalURL == "" {
		return models.Link{}, fmt.Errorf("%w: originalUrl is required", ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshot.Load()
	if snap == nil {
		return models.Link{}, ErrUninitialized
	}

	id, err := r.uniqueID(snap)
	if err != nil {
		return models.Link{}, err
	}

	link := models.Link{
		OriginalURL:     originalURL,
		TrackingID:      id,
		CreatedAt:       r.Now(),
		Clicks:          []models.ClickEvent{},
		LocationEntries: []models.LocationEntry{},
	}

	next := &models.State{Links: append(slices.Clip(snap.state.Links), link)}
	if err := r.commit(next); err != nil {
		return models.Link{}, err
	}
	return link, nil
}

func (r *Registry) uniqueID(snap *snapshot) (string, error) {
	for range maxIDAttempts {
		id, err := r.GenerateID()
		if err != nil {
			return "", fmt.Errorf("generate tracking id: %w", err)
		}
		if _, taken := snap.index[id]; !taken {
			return id, nil
		}
		log.Warn().Str("tracking_id", id).Msg("tracking id collision, retrying")
	}
	return "", fmt.Errorf("failed to generate unique tracking id after %d attempts", maxIDAttempts)
}

// Find returns the link with the given tracking ID, if any. The returned
// link shares its event slices with the snapshot and must not be modified.
func (r *Registry) Find(id string) (models.Link, bool) {
	snap := r.snapshot.Load()
	if snap == nil {
		return models.Link{}, false
	}
	i, ok := snap.index[id]
	if !ok {
		return models.Link{}, false
	}
	return snap.state.Links[i], true
}

// List returns all links, most recently created first.
func (r *Registry) List() []models.Link {
	snap := r.snapshot.Load()
	if snap == nil {
		return []models.Link{}
	}
	links := slices.Clone(snap.state.Links)
	slices.SortStableFunc(links, func(a, b models.Link) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	if links == nil {
		links = []models.Link{}
	}
	return links
}

// AppendClick adds a click event to the link's history.
func (r *Registry) AppendClick(id string, click models.ClickEvent) (models.Link, error) {
	return r.update(id, func(l *models.Link) {
		l.Clicks = append(slices.Clip(l.Clicks), click)
	})
}

// AppendLocation adds a location entry to the link's history.
func (r *Registry) AppendLocation(id string, entry models.LocationEntry) (models.Link, error) {
	return r.update(id, func(l *models.Link) {
		l.LocationEntries = append(slices.Clip(l.LocationEntries), entry)
	})
}

// update applies fn to a copy of the link and commits a new state holding it.
func (r *Registry) update(id string, fn func(*models.Link)) (models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshot.Load()
	if snap == nil {
		return models.Link{}, ErrUninitialized
	}
	i, ok := snap.index[id]
	if !ok {
		return models.Link{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	links := slices.Clone(snap.state.Links)
	fn(&links[i])

	if err := r.commit(&models.State{Links: links}); err != nil {
		return models.Link{}, err
	}
	return links[i], nil
}

// commit persists next and publishes it. Must be called with mu held.
func (r *Registry) commit(next *models.State) error {
	if err := r.store.Save(next); err != nil {
		log.Error().Err(err).Msg("registry save failed")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	r.snapshot.Store(newSnapshot(next))
	return nil
}

func newSnapshot(state *models.State) *snapshot {
	index := make(map[string]int, len(state.Links))
	for i, l := range state.Links {
		index[l.TrackingID] = i
	}
	return &snapshot{state: state, index: index}
}
