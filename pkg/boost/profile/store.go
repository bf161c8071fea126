package profile

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/logging"
)

// DefaultQuickLimit is how many favorites QuickProfiles returns.
const DefaultQuickLimit = 7

// Repository loads and saves the full profile list.
type Repository interface {
	LoadProfiles() ([]Profile, error)
	SaveProfiles([]Profile) error
}

// Options configures Open.
type Options struct {
	Repository Repository

	// QuickLimit caps QuickProfiles; zero means DefaultQuickLimit.
	QuickLimit int

	// EnforceFavoriteCap makes ToggleFavorite refuse to exceed QuickLimit
	// favorites.
	EnforceFavoriteCap bool

	// SeedDefaults stores Defaults() when the repository is empty.
	SeedDefaults bool

	Clock func() time.Time
}

// Store is the concurrency-safe profile collection. Every mutation is
// saved through the repository before it becomes visible; a failed save
// leaves the store unchanged.
type Store struct {
	mu       sync.RWMutex
	profiles []Profile

	repo       Repository
	gw         gateway.Gateway
	log        *activity.Log
	logger     *logging.Logger
	now        func() time.Time
	quickLimit int
	enforceCap bool
}

// Open loads profiles from opts.Repository.
func Open(gw gateway.Gateway, log *activity.Log, opts Options) (*Store, error) {
	s := &Store{
		repo:       opts.Repository,
		gw:         gw,
		log:        log,
		logger:     logging.Get("profile"),
		now:        opts.Clock,
		quickLimit: opts.QuickLimit,
		enforceCap: opts.EnforceFavoriteCap,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.quickLimit <= 0 {
		s.quickLimit = DefaultQuickLimit
	}
	if s.repo == nil {
		s.repo = nopRepository{}
	}

	loaded, err := s.repo.LoadProfiles()
	if err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}
	if loaded == nil && opts.SeedDefaults {
		loaded = Defaults()
		if err := s.repo.SaveProfiles(loaded); err != nil {
			return nil, fmt.Errorf("seeding default profiles: %w", err)
		}
		s.logger.Info("seeded default profiles", "count", len(loaded))
	}
	s.profiles = loaded
	return s, nil
}

type nopRepository struct{}

func (nopRepository) LoadProfiles() ([]Profile, error) { return nil, nil }
func (nopRepository) SaveProfiles([]Profile) error     { return nil }

// List returns a copy of every profile in insertion order.
func (s *Store) List() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.profiles)
}

// Get returns the profile with id.
func (s *Store) Get(id int64) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return Profile{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return s.profiles[i].clone(), nil
}

// Favorites returns every favorite in list order.
func (s *Store) Favorites() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Profile
	for _, p := range s.profiles {
		if p.IsFavorite {
			out = append(out, p.clone())
		}
	}
	return out
}

// QuickProfiles returns the first QuickLimit favorites.
func (s *Store) QuickProfiles() []Profile {
	return Quick(s.List(), s.quickLimit)
}

// Quick returns the favorites of ps in order, capped at limit.
func Quick(ps []Profile, limit int) []Profile {
	var out []Profile
	for _, p := range ps {
		if len(out) == limit {
			break
		}
		if p.IsFavorite {
			out = append(out, p)
		}
	}
	return out
}

// Create validates f, assigns an id and stores a new profile.
func (s *Store) Create(f Fields) (Profile, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	p := Profile{
		ID:           s.nextID(),
		Name:         f.Name,
		MainProcess:  f.MainProcess,
		SubProcesses: f.SubProcesses,
		Status:       Idle,
	}
	next := append(cloneAll(s.profiles), p)
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return Profile{}, err
	}
	s.mu.Unlock()

	s.log.Appendf("Created profile '%s'", p.Name)
	return p.clone(), nil
}

// Update replaces the editable fields of the profile with id. Favorite
// flag, status and last-applied time are kept.
func (s *Store) Update(id int64, f Fields) (Profile, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return Profile{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	next := cloneAll(s.profiles)
	next[i].Name = f.Name
	next[i].MainProcess = f.MainProcess
	next[i].SubProcesses = f.SubProcesses
	updated := next[i].clone()
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return Profile{}, err
	}
	s.mu.Unlock()

	s.log.Appendf("Updated profile '%s'", updated.Name)
	return updated, nil
}

// DeleteConfirmation identifies a pending deletion. It is produced by
// RequestDelete and consumed by ConfirmDelete.
type DeleteConfirmation struct {
	ID   int64
	Name string
}

// RequestDelete starts a deletion; nothing is removed until ConfirmDelete.
func (s *Store) RequestDelete(id int64) (DeleteConfirmation, error) {
	p, err := s.Get(id)
	if err != nil {
		return DeleteConfirmation{}, err
	}
	return DeleteConfirmation{ID: p.ID, Name: p.Name}, nil
}

// ConfirmDelete removes the profile named in c.
func (s *Store) ConfirmDelete(c DeleteConfirmation) error {
	s.mu.Lock()
	i := s.index(c.ID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNotFound, c.ID)
	}
	next := slices.Delete(cloneAll(s.profiles), i, i+1)
	if err := s.commit(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.log.Appendf("Deleted profile '%s'", c.Name)
	return nil
}

// ToggleFavorite flips the favorite flag and returns the updated profile.
func (s *Store) ToggleFavorite(id int64) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Profile{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if s.enforceCap && !s.profiles[i].IsFavorite && s.favoriteCount() >= s.quickLimit {
		return Profile{}, fmt.Errorf("%w: at most %d favorites", ErrFavoriteLimit, s.quickLimit)
	}
	next := cloneAll(s.profiles)
	next[i].IsFavorite = !next[i].IsFavorite
	if err := s.commit(next); err != nil {
		return Profile{}, err
	}
	return next[i].clone(), nil
}

// SetStatus records a display status. Unknown ids are ignored; detection
// races with deletion and losing that race is harmless.
func (s *Store) SetStatus(id int64, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 || s.profiles[i].Status == st {
		return nil
	}
	next := cloneAll(s.profiles)
	next[i].Status = st
	return s.commit(next)
}

// Replace swaps in a whole profile list, as done by import. Profiles
// failing validation are skipped and reported. Missing or duplicate ids
// are reassigned.
func (s *Store) Replace(ps []Profile) (skipped []string, err error) {
	clean := make([]Profile, 0, len(ps))
	seen := map[int64]bool{}
	var maxID int64
	for _, p := range ps {
		f := FieldsOf(p).Normalize()
		if verr := f.Validate(); verr != nil {
			skipped = append(skipped, fmt.Sprintf("%q: %v", p.Name, verr))
			continue
		}
		p.Name, p.MainProcess, p.SubProcesses = f.Name, f.MainProcess, f.SubProcesses
		if p.ID <= 0 || seen[p.ID] {
			p.ID = 0
		} else {
			seen[p.ID] = true
			maxID = max(maxID, p.ID)
		}
		clean = append(clean, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := max(maxID, s.now().UnixMilli())
	for i := range clean {
		if clean[i].ID == 0 {
			next++
			clean[i].ID = next
		}
	}
	if err := s.commit(clean); err != nil {
		return skipped, err
	}
	return skipped, nil
}

// MatchProcess returns the profiles whose main process pattern satisfies
// match.
func (s *Store) MatchProcess(match func(pattern string) bool) []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Profile
	for _, p := range s.profiles {
		if match(p.MainProcess.Name) {
			out = append(out, p.clone())
		}
	}
	return out
}

// commit saves next and installs it. Must hold mu.
func (s *Store) commit(next []Profile) error {
	if err := s.repo.SaveProfiles(next); err != nil {
		return fmt.Errorf("saving profiles: %w", err)
	}
	s.profiles = next
	return nil
}

// nextID returns a millisecond timestamp, bumped past every existing id.
// Must hold mu.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	for _, p := range s.profiles {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	return id
}

func (s *Store) favoriteCount() int {
	n := 0
	for _, p := range s.profiles {
		if p.IsFavorite {
			n++
		}
	}
	return n
}

func (s *Store) index(id int64) int {
	return slices.IndexFunc(s.profiles, func(p Profile) bool { return p.ID == id })
}

func cloneAll(ps []Profile) []Profile {
	out := make([]Profile, len(ps))
	for i, p := range ps {
		out[i] = p.clone()
	}
	return out
}
