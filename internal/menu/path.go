package menu

import (
	"fmt"
	"strings"
)

// Path addresses a menu inside the tree. Paths start and end with the
// delimiter; the root menu lives at "/".
type Path string

const (
	// RootPath is the path of the top level menu.
	RootPath Path = "/"

	// Delimiter separates path segments.
	Delimiter = "/"

	keySeparator   = ":"
	keyPlaceholder = "{key}"
)

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool {
	return p == RootPath
}

// Parent returns the enclosing menu path. The parent of the root is the root.
func (p Path) Parent() Path {
	segments := p.segments()
	if len(segments) <= 1 {
		return RootPath
	}

	return Path(Delimiter + strings.Join(segments[:len(segments)-1], Delimiter) + Delimiter)
}

// Child appends one segment to p.
func (p Path) Child(segment string) Path {
	return Path(string(p) + segment + Delimiter)
}

// Depth returns the number of segments below the root.
func (p Path) Depth() int {
	return len(p.segments())
}

// Join resolves a navigation target relative to p. Absolute targets start at
// the root; "." stays and ".." climbs one level.
func (p Path) Join(target string) Path {
	base := p
	rest := target
	if strings.HasPrefix(target, Delimiter) {
		base = RootPath
		rest = target[len(Delimiter):]
	}

	for _, part := range strings.Split(rest, Delimiter) {
		switch part {
		case "", ".":
		case "..":
			base = base.Parent()
		default:
			base = base.Child(part)
		}
	}

	return base
}

func (p Path) segments() []string {
	trimmed := strings.Trim(string(p), Delimiter)
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, Delimiter)
}

// EncodeKey turns a dynamic submenu or select key into a path segment.
func EncodeKey(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	return key, nil
}

// DecodeKey reverses EncodeKey.
func DecodeKey(segment string) (string, error) {
	if err := checkKey(segment); err != nil {
		return "", err
	}

	return segment, nil
}

func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKeyEncoding)
	}
	if strings.Contains(key, Delimiter) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidKeyEncoding, key, Delimiter)
	}

	return nil
}

func templateSegment(id string) string {
	return id + keySeparator + keyPlaceholder
}

func dynamicSegment(id, key string) (string, error) {
	encoded, err := EncodeKey(key)
	if err != nil {
		return "", err
	}

	return id + keySeparator + encoded, nil
}

func validateRowID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRowID)
	}
	if strings.Contains(id, Delimiter) || strings.Contains(id, keySeparator) {
		return fmt.Errorf("%w: %q", ErrInvalidRowID, id)
	}

	return nil
}

// parseTemplateSegment splits "<id>:{key}" into its id. Literal segments
// return ok=false.
func parseTemplateSegment(segment string) (string, bool, error) {
	id, rest, found := strings.Cut(segment, keySeparator)
	if !found {
		if err := validateRowID(segment); err != nil {
			return "", false, err
		}
		return segment, false, nil
	}
	if rest != keyPlaceholder {
		return "", false, fmt.Errorf("%w: segment %q must be <id>%s%s", ErrInvalidPath, segment, keySeparator, keyPlaceholder)
	}
	if err := validateRowID(id); err != nil {
		return "", false, err
	}

	return id, true, nil
}

func validateTemplatePath(path Path) error {
	raw := string(path)
	if !strings.HasPrefix(raw, Delimiter) || !strings.HasSuffix(raw, Delimiter) {
		return fmt.Errorf("%w: %q must start and end with %q", ErrInvalidPath, raw, Delimiter)
	}
	if path.IsRoot() {
		return nil
	}

	for _, segment := range strings.Split(raw[1:len(raw)-1], Delimiter) {
		if segment == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, raw)
		}
		if _, _, err := parseTemplateSegment(segment); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidPath, raw, err)
		}
	}

	return nil
}
