// Package paths implements a lexical path algebra over Windows-style paths.
//
// Nothing in this package touches the filesystem. Inputs may use either `/` or
// `\` as separator; results always use `\`.
//
// # Operations
//
//   - Normalize collapses empty, `.` and `..` segments.
//   - Join concatenates non-empty elements and normalizes the result.
//   - Resolve evaluates its arguments right to left like a sequence of `cd`
//     commands, stopping at the first absolute result.
//   - Relative computes the path from one location to another.
//
// Resolve and Relative need an anchor for paths that are not absolute. It is
// passed explicitly as a Base, which must be drive-rooted:
//
//	base, err := paths.ParseBase(`C:\workspace`)
//	if err != nil {
//	    return err
//	}
//
//	paths.Resolve(base, "/foo/bar", "./baz")   // C:\foo\bar\baz
//	paths.Relative(base, `C:\a\b`, `C:\a\c\d`) // ..\c\d
//	paths.Normalize("/foo/bar//baz/asdf/quux/..") // \foo\bar\baz\asdf
package paths
