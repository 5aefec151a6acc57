package registry

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

//go:embed modules.yaml
var defaultManifest []byte

// Format identifies a manifest encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Module kinds
const (
	// KindNative modules are implemented by the host, e.g. path
	KindNative = "native"
	// KindStub modules are built from their declared members only
	KindStub = "stub"
)

// Member kinds
const (
	MemberFunction = "function"
	MemberConstant = "constant"
	MemberObject   = "object"
)

// MemberSpec declares one exported member of a module
type MemberSpec struct {
	Name  string      `yaml:"name" toml:"name" json:"name"`
	Kind  string      `yaml:"kind,omitempty" toml:"kind,omitempty" json:"kind,omitempty"`
	Value interface{} `yaml:"value,omitempty" toml:"value,omitempty" json:"value,omitempty"`
	Doc   string      `yaml:"doc,omitempty" toml:"doc,omitempty" json:"doc,omitempty"`
}

// ModuleSpec declares one module the registry knows about
type ModuleSpec struct {
	Name        string       `yaml:"name" toml:"name" json:"name"`
	Kind        string       `yaml:"kind,omitempty" toml:"kind,omitempty" json:"kind,omitempty"`
	Description string       `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Requires    []string     `yaml:"requires,omitempty" toml:"requires,omitempty" json:"requires,omitempty"`
	Members     []MemberSpec `yaml:"members,omitempty" toml:"members,omitempty" json:"members,omitempty"`
}

// Manifest is the declarative list of known modules. Exclude holds glob
// patterns; matching module names are left out of the known set.
type Manifest struct {
	Modules []ModuleSpec `yaml:"modules" toml:"modules" json:"modules"`
	Exclude []string     `yaml:"exclude,omitempty" toml:"exclude,omitempty" json:"exclude,omitempty"`
}

// FormatFromPath picks the manifest format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: unsupported manifest extension %q", ErrInvalidManifest, filepath.Ext(path))
	}
}

// LoadManifest reads and validates a manifest file
func LoadManifest(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return ParseManifest(data, format)
}

// ParseManifest decodes and validates a manifest
func ParseManifest(data []byte, format Format) (*Manifest, error) {
	var m Manifest

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidManifest, format)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// DefaultManifest returns the embedded manifest of Node core modules
func DefaultManifest() *Manifest {
	m, err := ParseManifest(defaultManifest, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded manifest: %v", err))
	}
	return m
}

// Validate checks names, exclude patterns and dependency references
func (m *Manifest) Validate() error {
	for _, pattern := range m.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad exclude pattern %q", ErrInvalidManifest, pattern)
		}
	}

	seen := make(map[string]bool, len(m.Modules))
	for i, mod := range m.Modules {
		name := NormalizeSpecifier(mod.Name)
		if name == "" {
			return fmt.Errorf("%w: module %d has no name", ErrInvalidManifest, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate module %s", ErrInvalidManifest, name)
		}
		seen[name] = true

		switch mod.Kind {
		case "", KindStub, KindNative:
		default:
			return fmt.Errorf("%w: module %s has unknown kind %q", ErrInvalidManifest, name, mod.Kind)
		}

		for _, member := range mod.Members {
			if member.Name == "" {
				return fmt.Errorf("%w: module %s has an unnamed member", ErrInvalidManifest, name)
			}
			switch member.Kind {
			case "", MemberFunction, MemberConstant, MemberObject:
			default:
				return fmt.Errorf("%w: member %s.%s has unknown kind %q", ErrInvalidManifest, name, member.Name, member.Kind)
			}
		}
	}

	for _, mod := range m.Modules {
		for _, dep := range mod.Requires {
			if !seen[NormalizeSpecifier(dep)] {
				return fmt.Errorf("%w: module %s requires undeclared %s", ErrInvalidManifest, mod.Name, dep)
			}
		}
	}
	return nil
}

// Excluded reports whether name matches an exclude pattern
func (m *Manifest) Excluded(name string) bool {
	name = NormalizeSpecifier(name)
	for _, pattern := range m.Exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Specs returns the modules that survive the exclude patterns
func (m *Manifest) Specs() []ModuleSpec {
	specs := make([]ModuleSpec, 0, len(m.Modules))
	for _, mod := range m.Modules {
		if !m.Excluded(mod.Name) {
			specs = append(specs, mod)
		}
	}
	return specs
}

// Names returns the normalized names of the surviving modules
func (m *Manifest) Names() []string {
	specs := m.Specs()
	names := make([]string, len(specs))
	for i, mod := range specs {
		names[i] = NormalizeSpecifier(mod.Name)
	}
	return names
}
