package paths

import (
	"errors"
	"fmt"
	"strings"
)

// Separators and list delimiter used in results
const (
	Sep       = `\`
	Delimiter = ";"
)

var (
	// ErrInvalidArgument is returned when a join argument is not a string
	ErrInvalidArgument = errors.New("path arguments must be strings")
	// ErrInvalidBase is returned when a base directory is not drive-rooted
	ErrInvalidBase = errors.New("base directory must be drive-rooted")
)

// Normalize collapses a path into its canonical backslash form.
//
// Empty and "." segments are dropped and ".." pops the previous name. A ".."
// with nothing to pop is dropped on rooted or drive-prefixed paths and kept on
// relative ones. A trailing separator survives only when at least one name does.
// A relative result whose first name looks like a drive ("C:x") keeps a leading
// ".\" so normalizing it again does not read that name as a drive.
func Normalize(path string) string {
	if path == "" {
		return ""
	}

	volume, rest := splitVolume(path)
	rooted := rest != "" && isSeparator(rest[0])
	clamped := rooted || volume != ""

	names := make([]string, 0, 8)
	for _, seg := range splitSegments(rest) {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(names) > 0 && names[len(names)-1] != ".." {
				names = names[:len(names)-1]
			} else if !clamped {
				names = append(names, seg)
			}
		default:
			names = append(names, seg)
		}
	}

	var sb strings.Builder
	sb.Grow(len(path) + 1)
	sb.WriteString(volume)
	if rooted {
		sb.WriteString(Sep)
	} else if volume == "" && len(names) > 0 && hasVolume(names[0]) {
		sb.WriteString("." + Sep)
	}
	sb.WriteString(strings.Join(names, Sep))
	if len(names) > 0 && isSeparator(path[len(path)-1]) {
		sb.WriteString(Sep)
	}
	return sb.String()
}

// Join joins non-empty elements with a doubled separator and normalizes the
// result. Joining nothing, or only empty strings, yields "".
func Join(elems ...string) string {
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		if e != "" {
			parts = append(parts, e)
		}
	}
	return Normalize(strings.Join(parts, "//"))
}

// JoinValues is Join for dynamically typed arguments, such as values coming
// out of a script engine. Every value must be a string.
func JoinValues(values []interface{}) (string, error) {
	elems, err := Strings(values)
	if err != nil {
		return "", err
	}
	return Join(elems...), nil
}

// Strings checks that every value is a string and returns them as such
func Strings(values []interface{}) ([]string, error) {
	elems := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: argument %d is %T", ErrInvalidArgument, i, v)
		}
		elems[i] = s
	}
	return elems, nil
}

// Resolve resolves elems into an absolute path, right to left.
//
// Each element is joined in front of the accumulated result. The first time the
// accumulator is rooted it is placed on base's drive; the first time it is
// drive-rooted it is returned as is. If neither happens it is joined onto base.
func Resolve(base Base, elems ...string) string {
	realTo := ""
	for i := len(elems) - 1; i >= 0; i-- {
		realTo = Join(elems[i], realTo)

		if realTo != "" && isSeparator(realTo[0]) {
			return base.Drive() + realTo
		}
		if isDriveRooted(realTo) {
			return realTo
		}
	}
	return Join(string(base), realTo)
}

// Relative returns the path that leads from "from" to "to".
//
// Identical paths yield "". Paths on different drives have no relative form,
// so the normalized "to" is returned. Comparison is case-insensitive.
func Relative(base Base, from, to string) string {
	f := ToSlash(Normalize(from))
	t := ToSlash(Normalize(to))

	fv, _ := splitVolume(f)
	tv, _ := splitVolume(t)
	if fv != "" && tv != "" && !strings.EqualFold(fv, tv) {
		return FromSlash(trimTrailing(t))
	}
	if fv != "" || tv != "" || isRooted(f) != isRooted(t) {
		f = anchor(base, f)
		t = anchor(base, t)
	}

	if f != "" && !strings.HasSuffix(f, "/") {
		f += "/"
	}
	if t != "" && !strings.HasSuffix(t, "/") {
		t += "/"
	}

	si := -1
	i := 0
	for ; i < len(f) && i < len(t); i++ {
		if !equalFoldByte(f[i], t[i]) {
			break
		}
		if f[i] == '/' {
			si = i
		}
	}

	if si == -1 && isDriveRooted(t) {
		return FromSlash(trimTrailing(t))
	}
	if i == len(f) && i == len(t) {
		return ""
	}

	ups := strings.Count(f[i:], "/")
	if ups == 0 && si == len(t)-1 {
		return "."
	}

	rel := strings.Repeat("../", ups) + t[si+1:]
	return FromSlash(trimTrailing(rel))
}

// trimTrailing strips one trailing separator unless it is the root of the path.
func trimTrailing(p string) string {
	if !strings.HasSuffix(p, "/") || p == "/" || (len(p) == 3 && isDriveRooted(p)) {
		return p
	}
	return p[:len(p)-1]
}

// anchor turns a normalized slash path into a drive-rooted one. Rooted paths
// take base's drive and relative ones are joined under base. A drive-relative
// path such as "C:foo" is joined under base when the drives match and under
// the drive root otherwise.
func anchor(base Base, p string) string {
	if isDriveRooted(p) {
		return p
	}
	if isRooted(p) {
		return base.Drive() + p
	}
	if volume, rest := splitVolume(p); volume != "" {
		if !strings.EqualFold(volume, base.Drive()) {
			return ToSlash(Normalize(volume + "/" + rest))
		}
		p = rest
	}
	return ToSlash(Join(string(base), p))
}

// ToSlash replaces every backslash with a forward slash
func ToSlash(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

// FromSlash replaces every forward slash with a backslash
func FromSlash(path string) string {
	return strings.ReplaceAll(path, "/", `\`)
}

func splitSegments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

func hasVolume(path string) bool {
	return len(path) >= 2 && isLetter(path[0]) && path[1] == ':'
}

// splitVolume separates a leading drive token from the rest of the path.
func splitVolume(path string) (string, string) {
	if hasVolume(path) {
		return path[:2], path[2:]
	}
	return "", path
}

func isRooted(path string) bool {
	return path != "" && isSeparator(path[0])
}

func isDriveRooted(path string) bool {
	return len(path) >= 3 && isLetter(path[0]) && path[1] == ':' && isSeparator(path[2])
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func equalFoldByte(a, b byte) bool {
	if a == b {
		return true
	}
	if 'A' <= a && a <= 'Z' {
		a += 'a' - 'A'
	}
	if 'A' <= b && b <= 'Z' {
		b += 'a' - 'A'
	}
	return a == b
}
