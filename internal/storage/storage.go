package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eugenenazirov/stackctl/internal/buildconfig"
	"github.com/eugenenazirov/stackctl/internal/cdkcontext"
	"github.com/eugenenazirov/stackctl/internal/params"
)

var (
	// ErrNilRegistry indicates an attempt to store a nil parameter registry.
	ErrNilRegistry = errors.New("parameter registry must not be nil")
	// ErrNilBuildConfig indicates an attempt to store a nil build configuration.
	ErrNilBuildConfig = errors.New("build configuration must not be nil")
)

// Snapshot is a consistent copy of the loaded configuration inputs.
type Snapshot struct {
	Registry *params.Registry
	Build    *buildconfig.Config
	// CDK is nil when no cdk.json was found.
	CDK       *cdkcontext.File
	UpdatedAt time.Time
}

// FileContext returns the cdk.json parameters, or nil when there is no cdk.json.
func (s Snapshot) FileContext() *params.Input {
	if s.CDK == nil {
		return nil
	}
	in := s.CDK.Parameters.Clone()
	return &in
}

// Storage provides access to the configuration served by the preview server.
type Storage interface {
	Snapshot() Snapshot
	Replace(snap Snapshot) error
}

// MemoryStorage keeps the inputs in memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu        sync.RWMutex
	registry  *params.Registry
	build     *buildconfig.Config
	cdk       *cdkcontext.File
	updatedAt time.Time
	clock     func() time.Time
}

// Option configures MemoryStorage.
type Option func(*MemoryStorage)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// NewMemoryStorage initialises storage with the compiled-in parameter bundles
// and the default build configuration.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		registry: params.Builtin(),
		build:    buildconfig.Default(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updatedAt = s.clock()
	return s
}

// Snapshot returns defensive copies of the current inputs.
func (s *MemoryStorage) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Registry:  s.registry.Clone(),
		Build:     s.build.Clone(),
		CDK:       cloneCDK(s.cdk),
		UpdatedAt: s.updatedAt,
	}
}

// Replace swaps every input at once.
func (s *MemoryStorage) Replace(snap Snapshot) error {
	if snap.Registry == nil {
		return ErrNilRegistry
	}
	if snap.Build == nil {
		return ErrNilBuildConfig
	}
	reg, build, cdk := snap.Registry.Clone(), snap.Build.Clone(), cloneCDK(snap.CDK)

	s.mu.Lock()
	s.registry, s.build, s.cdk = reg, build, cdk
	s.updatedAt = s.clock()
	s.mu.Unlock()
	return nil
}

// ReplaceRegistry stores a copy of reg.
func (s *MemoryStorage) ReplaceRegistry(reg *params.Registry) error {
	if reg == nil {
		return ErrNilRegistry
	}
	reg = reg.Clone()

	s.mu.Lock()
	s.registry = reg
	s.updatedAt = s.clock()
	s.mu.Unlock()
	return nil
}

// ReplaceBuild validates cfg and stores a copy of it. An invalid configuration
// leaves the stored one untouched.
func (s *MemoryStorage) ReplaceBuild(cfg *buildconfig.Config) error {
	if cfg == nil {
		return ErrNilBuildConfig
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("replace build config: %w", err)
	}
	cfg = cfg.Clone()

	s.mu.Lock()
	s.build = cfg
	s.updatedAt = s.clock()
	s.mu.Unlock()
	return nil
}

// ReplaceCDK stores a copy of file; nil clears it.
func (s *MemoryStorage) ReplaceCDK(file *cdkcontext.File) {
	file = cloneCDK(file)

	s.mu.Lock()
	s.cdk = file
	s.updatedAt = s.clock()
	s.mu.Unlock()
}

func cloneCDK(src *cdkcontext.File) *cdkcontext.File {
	if src == nil {
		return nil
	}
	out := cdkcontext.File{
		App:        src.App,
		Parameters: src.Parameters.Clone(),
	}
	if src.Unused != nil {
		out.Unused = make([]string, len(src.Unused))
		copy(out.Unused, src.Unused)
	}
	return &out
}
