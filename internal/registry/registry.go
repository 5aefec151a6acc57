package registry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults for Options
const (
	DefaultMaxDepth         = 5
	DefaultProgressInterval = 50
)

// Value is whatever a constructor produces; the registry does not interpret it
type Value = interface{}

// Constructor builds the value for one specifier. It receives the registry so
// it can require its own dependencies.
type Constructor func(r *Registry) (Value, error)

type slotState int

const (
	slotUnconstructed slotState = iota
	slotConstructed
)

// slot is the per-specifier cache state. Once constructed it never reverts.
type slot struct {
	state slotState
	ctor  Constructor
	value Value
}

// Recorder observes registry activity
type Recorder interface {
	RecordLookup(specifier string, hit bool)
	RecordConstruct(specifier string, duration time.Duration, err error)
	RecordDepthExceeded(specifier string)
	RecordProgress()
}

type nopRecorder struct{}

func (nopRecorder) RecordLookup(string, bool) {}
func (nopRecorder) RecordConstruct(string, time.Duration, error) {}
func (nopRecorder) RecordDepthExceeded(string) {}
func (nopRecorder) RecordProgress() {}

// Options configures a Registry
type Options struct {
	MaxDepth         int
	ProgressInterval int
	OnProgress       func()
	Logger           *zap.Logger
	Recorder         Recorder
}

// Registry memoizes module construction for a fixed set of specifiers.
// It is not safe for concurrent use.
type Registry struct {
	slots  map[string]*slot
	sealed bool

	depth int
	calls int

	maxDepth         int
	progressInterval int
	onProgress       func()
	logger           *zap.Logger
	recorder         Recorder
}

// New creates an empty registry
func New(opts Options) *Registry {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	return &Registry{
		slots:            make(map[string]*slot),
		maxDepth:         opts.MaxDepth,
		progressInterval: opts.ProgressInterval,
		onProgress:       opts.OnProgress,
		logger:           opts.Logger.Named("registry"),
		recorder:         opts.Recorder,
	}
}

// NormalizeSpecifier makes specifiers separator-insensitive and strips the
// "node:" scheme so "node:fs" and "fs" name the same module.
func NormalizeSpecifier(spec string) string {
	spec = strings.ReplaceAll(spec, `\`, "/")
	return strings.TrimPrefix(spec, "node:")
}

// Define adds a known specifier in the unconstructed state
func (r *Registry) Define(spec string, ctor Constructor) error {
	if r.sealed {
		return fmt.Errorf("%w: cannot define %s", ErrRegistrySealed, spec)
	}

	key := NormalizeSpecifier(spec)
	if key == "" {
		return fmt.Errorf("module specifier cannot be empty")
	}
	if ctor == nil {
		return fmt.Errorf("module %s has no constructor", key)
	}
	if _, exists := r.slots[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSpecifier, key)
	}

	r.slots[key] = &slot{state: slotUnconstructed, ctor: ctor}
	return nil
}

// Seal fixes the set of known specifiers
func (r *Registry) Seal() {
	r.sealed = true
}

// Require resolves a specifier under the depth guard.
//
// Every call counts toward the progress interval. Nesting beyond MaxDepth
// fails with ErrMaxDepthExceeded; the depth counter is restored on every exit.
func (r *Registry) Require(spec string) (Value, error) {
	key := NormalizeSpecifier(spec)

	r.calls++
	if r.calls >= r.progressInterval {
		r.calls = 0
		r.progress()
	}

	if r.depth >= r.maxDepth {
		r.recorder.RecordDepthExceeded(key)
		r.logger.Warn("Require depth exceeded",
			zap.String("specifier", key),
			zap.Int("max_depth", r.maxDepth))
		return nil, &RequireError{Specifier: key, Depth: r.depth + 1, Err: ErrMaxDepthExceeded}
	}

	r.depth++
	defer func() { r.depth-- }()

	return r.Lookup(key)
}

// Lookup returns the value for a specifier, constructing it on first use.
// A failed construction leaves the slot unconstructed.
func (r *Registry) Lookup(spec string) (Value, error) {
	key := NormalizeSpecifier(spec)
	s, ok := r.slots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpecifier, key)
	}

	if s.state == slotConstructed {
		r.recorder.RecordLookup(key, true)
		return s.value, nil
	}
	r.recorder.RecordLookup(key, false)

	start := time.Now()
	value, err := s.ctor(r)
	duration := time.Since(start)
	r.recorder.RecordConstruct(key, duration, err)
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", key, err)
	}

	// A re-entrant lookup may have finished first; the first value stays.
	if s.state == slotConstructed {
		return s.value, nil
	}
	s.state = slotConstructed
	s.value = value

	r.logger.Debug("Module constructed",
		zap.String("specifier", key),
		zap.Duration("duration", duration))
	return value, nil
}

func (r *Registry) progress() {
	r.recorder.RecordProgress()
	if r.onProgress != nil {
		r.onProgress()
	}
}

// Has reports whether spec is a known specifier
func (r *Registry) Has(spec string) bool {
	_, ok := r.slots[NormalizeSpecifier(spec)]
	return ok
}

// Constructed reports whether spec has been constructed
func (r *Registry) Constructed(spec string) bool {
	s, ok := r.slots[NormalizeSpecifier(spec)]
	return ok && s.state == slotConstructed
}

// Specifiers returns the known specifiers in sorted order
func (r *Registry) Specifiers() []string {
	keys := make([]string, 0, len(r.slots))
	for k := range r.slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Depth returns the current require nesting depth
func (r *Registry) Depth() int {
	return r.depth
}

// Calls returns the number of require calls since the last progress callback
func (r *Registry) Calls() int {
	return r.calls
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	constructed := 0
	for _, s := range r.slots {
		if s.state == slotConstructed {
			constructed++
		}
	}

	return map[string]interface{}{
		"known":       len(r.slots),
		"constructed": constructed,
		"depth":       r.depth,
		"max_depth":   r.maxDepth,
		"sealed":      r.sealed,
	}
}
