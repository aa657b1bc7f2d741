package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultEnvironment is the reserved name of the baseline bundle.
const DefaultEnvironment = "default"

var (
	// ErrUnknownEnvironment is returned by strict lookups of unregistered names.
	ErrUnknownEnvironment = errors.New("unknown environment")
	// ErrInvalidEnvironmentName indicates an empty or malformed environment name.
	ErrInvalidEnvironmentName = errors.New("environment name must be a non-empty token without whitespace")
)

// Registry maps environment names to their parameter inputs. It is safe for
// concurrent use and hands out copies, never its own state.
type Registry struct {
	mu   sync.RWMutex
	envs map[string]Input
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{envs: make(map[string]Input)}
}

// Set registers (or replaces) the input for name.
func (r *Registry) Set(name string, in Input) error {
	if err := checkName(name); err != nil {
		return err
	}

	r.mu.Lock()
	r.envs[name] = in.Clone()
	r.mu.Unlock()
	return nil
}

// MustSet is Set for static registration; it panics on an invalid name.
func (r *Registry) MustSet(name string, in Input) {
	if err := r.Set(name, in); err != nil {
		panic(err)
	}
}

// Get returns a copy of the input registered for name.
func (r *Registry) Get(name string) (Input, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, ok := r.envs[name]
	if !ok {
		return Input{}, false
	}
	return in.Clone(), true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.envs[name]
	return ok
}

// Delete removes name from the registry.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	delete(r.envs, name)
	r.mu.Unlock()
}

// Names returns the registered environment names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.envs))
	for name := range r.envs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered environments.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.envs)
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := &Registry{envs: make(map[string]Input, len(r.envs))}
	for name, in := range r.envs {
		out.envs[name] = in.Clone()
	}
	return out
}

// Overlay copies every entry of other into r, replacing entries with the same name.
func (r *Registry) Overlay(other *Registry) {
	if other == nil || other == r {
		return
	}
	src := other.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, in := range src.envs {
		r.envs[name] = in
	}
}

func checkName(name string) error {
	if name == "" || strings.ContainsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		return fmt.Errorf("%w: %q", ErrInvalidEnvironmentName, name)
	}
	return nil
}
