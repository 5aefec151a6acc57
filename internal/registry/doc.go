// Package registry provides the module registry behind the sandbox's require.
//
// The registry holds a fixed set of module specifiers. Each one starts out
// unconstructed and is built on first lookup by its constructor, exactly once;
// later lookups return the stored value.
//
// Components:
//   - Registry: specifier slots, lazy construction, depth guard, progress hook
//   - Manifest: declarative module list decoded from YAML or TOML
//   - Seeder: defines one slot per manifest module using a Factory
//
// Guards:
//   - Require nests at most MaxDepth levels (default 5)
//   - Every ProgressInterval calls (default 50) the host's OnProgress runs
//
// Concurrency:
//   - A Registry has a single owner and takes no locks. The sandbox runtime
//     serializes access to its registry.
//
// Example Usage:
//
//	reg := registry.New(registry.Options{OnProgress: tick})
//	seeder := registry.NewSeeder(reg, factory, logger)
//	if _, err := seeder.Seed(registry.DefaultManifest()); err != nil {
//	    return err
//	}
//	util, err := reg.Require("util")
package registry
