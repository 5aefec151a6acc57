package paths

import "fmt"

// Base is the directory that anchors Resolve and Relative when the inputs do
// not contain an absolute path. A valid Base is always drive-rooted.
type Base string

// ParseBase validates a base directory and returns it normalized
func ParseBase(dir string) (Base, error) {
	if !isDriveRooted(dir) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBase, dir)
	}
	return Base(Normalize(dir)), nil
}

// MustParseBase is ParseBase for constants; it panics on an invalid directory.
func MustParseBase(dir string) Base {
	base, err := ParseBase(dir)
	if err != nil {
		panic(err)
	}
	return base
}

// Drive returns the two-character drive prefix, e.g. "C:"
func (b Base) Drive() string {
	if len(b) < 2 {
		return ""
	}
	return string(b[:2])
}

// String returns the base directory
func (b Base) String() string {
	return string(b)
}
