package registry

import (
	"fmt"

	"go.uber.org/zap"
)

// Factory builds the value of a manifest module. deps holds the already
// required values of the module's Requires, keyed by normalized specifier.
type Factory interface {
	Build(spec ModuleSpec, deps map[string]Value) (Value, error)
}

// FactoryFunc adapts a function to Factory
type FactoryFunc func(spec ModuleSpec, deps map[string]Value) (Value, error)

// Build calls f
func (f FactoryFunc) Build(spec ModuleSpec, deps map[string]Value) (Value, error) {
	return f(spec, deps)
}

// Seeder defines registry slots from a manifest
type Seeder struct {
	registry *Registry
	factory  Factory
	logger   *zap.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(registry *Registry, factory Factory, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		registry: registry,
		factory:  factory,
		logger:   logger.Named("seeder"),
	}
}

// Seed defines one unconstructed slot per non-excluded manifest module and
// seals the registry. It returns the number of modules defined.
func (s *Seeder) Seed(m *Manifest) (int, error) {
	if m == nil {
		return 0, fmt.Errorf("%w: nil manifest", ErrInvalidManifest)
	}

	specs := m.Specs()
	s.logger.Debug("Seeding modules",
		zap.Int("declared", len(m.Modules)),
		zap.Int("excluded", len(m.Modules)-len(specs)))

	var defined int
	for _, spec := range specs {
		for _, dep := range spec.Requires {
			if m.Excluded(dep) {
				return defined, fmt.Errorf("%w: module %s requires excluded %s", ErrInvalidManifest, spec.Name, dep)
			}
		}
		if err := s.registry.Define(spec.Name, s.constructor(spec)); err != nil {
			return defined, err
		}
		defined++
	}

	s.registry.Seal()
	s.logger.Info("Module registry seeded", zap.Int("modules", defined))
	return defined, nil
}

// constructor requires the module's dependencies through the registry, so
// dependency chains count against the depth guard, then builds the value.
func (s *Seeder) constructor(spec ModuleSpec) Constructor {
	return func(r *Registry) (Value, error) {
		deps := make(map[string]Value, len(spec.Requires))
		for _, dep := range spec.Requires {
			v, err := r.Require(dep)
			if err != nil {
				return nil, err
			}
			deps[NormalizeSpecifier(dep)] = v
		}
		return s.factory.Build(spec, deps)
	}
}
