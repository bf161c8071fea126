package tweak

import (
	"slices"
	"sync"
)

// Registry is the live, concurrency-safe set of tweaks.
type Registry struct {
	mu       sync.RWMutex
	tweaks   []Tweak
	onChange []func([]Tweak)

	// changeMu serializes a change together with its hooks, so hooks see
	// lists in the order the changes were made.
	changeMu sync.Mutex
}

// NewRegistry builds a registry from the built-in catalog.
func NewRegistry() *Registry {
	return &Registry{tweaks: Catalog()}
}

// NewRegistryFrom builds a registry over an explicit tweak list. The slice
// is copied.
func NewRegistryFrom(ts []Tweak) *Registry {
	return &Registry{tweaks: slices.Clone(ts)}
}

// List returns a copy of all tweaks in registry order.
func (r *Registry) List() []Tweak {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.tweaks)
}

// Get looks a tweak up by id.
func (r *Registry) Get(id string) (Tweak, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		return r.tweaks[i], true
	}
	return Tweak{}, false
}

// Label returns the tweak's label, or id itself when the tweak is unknown.
func (r *Registry) Label(id string) string {
	if t, ok := r.Get(id); ok {
		return t.Label
	}
	return id
}

// Enabled returns the enabled tweaks in registry order.
func (r *Registry) Enabled() []Tweak {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Tweak
	for _, t := range r.tweaks {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// SetEnabled flips one tweak and returns the updated list. An unknown id
// leaves the registry untouched and fires no change hooks.
func (r *Registry) SetEnabled(id string, enabled bool) []Tweak {
	return r.change(func() bool {
		i := r.index(id)
		if i < 0 || r.tweaks[i].Enabled == enabled {
			return false
		}
		r.tweaks[i].Enabled = enabled
		return true
	})
}

// Restore overlays persisted flags onto the catalog. Ids the registry does
// not know are ignored; tweaks missing from states keep their current flag.
// Change hooks are not fired.
func (r *Registry) Restore(states []State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlay(states)
}

// Import overlays states like Restore but fires the change hooks when any
// flag changed. It returns the updated list.
func (r *Registry) Import(states []State) []Tweak {
	return r.change(func() bool { return r.overlay(states) })
}

// change runs mutate under the registry lock and, when it reports a
// change, calls every hook with the new list before the next change may
// start. Hooks run outside the registry lock so they may read it.
func (r *Registry) change(mutate func() bool) []Tweak {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	r.mu.Lock()
	changed := mutate()
	out := slices.Clone(r.tweaks)
	hooks := slices.Clone(r.onChange)
	r.mu.Unlock()

	if changed {
		for _, fn := range hooks {
			fn(slices.Clone(out))
		}
	}
	return out
}

func (r *Registry) overlay(states []State) bool {
	changed := false
	for _, s := range states {
		if i := r.index(s.ID); i >= 0 && r.tweaks[i].Enabled != s.Enabled {
			r.tweaks[i].Enabled = s.Enabled
			changed = true
		}
	}
	return changed
}

// OnChange registers fn to run after every effective SetEnabled or Import.
// Hooks run on the caller's goroutine, outside the registry lock, one change
// at a time.
func (r *Registry) OnChange(fn func([]Tweak)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.tweaks, func(t Tweak) bool { return t.ID == id })
}

// IDs returns the ids of ts in order.
func IDs(ts []Tweak) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}
