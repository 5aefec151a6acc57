package paths

import "strings"

// IsAbsolute reports whether path is rooted, with or without a drive
func IsAbsolute(path string) bool {
	_, rest := splitVolume(path)
	return rest != "" && isSeparator(rest[0])
}

// Dirname returns everything but the last name of path.
// The root of a rooted path is its own dirname; a single relative name has
// dirname ".".
func Dirname(path string) string {
	p := Normalize(path)
	if isRoot(p) {
		return p
	}
	p = strings.TrimSuffix(p, Sep)
	volume, rest := splitVolume(p)

	idx := strings.LastIndex(rest, Sep)
	switch {
	case idx > 0:
		return volume + rest[:idx]
	case idx == 0:
		return volume + Sep
	case volume != "":
		return volume
	default:
		return "."
	}
}

// Basename returns the last name of path. When ext is non-empty and path's
// name ends with it, ext is removed.
func Basename(path, ext string) string {
	p := strings.TrimSuffix(Normalize(path), Sep)
	_, rest := splitVolume(p)

	name := rest
	if idx := strings.LastIndex(rest, Sep); idx >= 0 {
		name = rest[idx+1:]
	}
	if ext != "" && ext != name && strings.HasSuffix(name, ext) {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// Extname returns the extension of the last name, from its final dot.
// Names that only start with a dot have no extension.
func Extname(path string) string {
	name := Basename(path, "")
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return ""
	}
	return name[idx:]
}

func isRoot(p string) bool {
	return p == Sep || (len(p) == 3 && isDriveRooted(p))
}
