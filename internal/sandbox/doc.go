/*
Package sandbox runs untrusted JavaScript in a goja VM with a Node-flavoured
environment that never touches the real filesystem.

# Overview

Each Runtime owns one VM and one module registry. Scripts see:

  - require, backed by the registry and its depth guard
  - __dirname and __filename, anchored at the configured base directory
  - module and exports as plain objects
  - console capture and no-op timers

process stays undefined.

# Modules

require('path') returns the lexical path algebra from internal/shared/paths,
resolving against the runtime's base directory:

	const path = require('path')
	path.resolve('/foo/bar', './baz') // C:\foo\bar\baz
	path.relative('C:\\a\\b', 'C:\\a\\c') // ..\c

Every other module listed in the manifest is an object of no-op functions and
constants. A module is built the first time it is required and cached until
the runtime is reset. Unknown specifiers and require chains nested deeper than
the configured limit throw.

# Usage Example

	rt, err := sandbox.New(sandbox.DefaultConfig())
	if err != nil {
		return err
	}
	result, err := rt.Execute(ctx, "require('path').join('a', 'b')")

# Pooling

Pool builds its runtimes up front and lends each to one caller at a time.
Release resets the runtime before it becomes idle again: the VM, globals and
console are discarded and the registry is rebuilt from the manifest with every
slot unconstructed and the depth and call counters at zero. Nothing a script
constructed is visible to the next one. A runtime whose reset fails is closed
and replaced. Acquire waits at most AcquireTimeout or until the context ends.
*/
package sandbox
