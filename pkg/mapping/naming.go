package mapping

import (
	"regexp"
	"strings"
)

var sideSuffix = regexp.MustCompile(`[._-]([LRlr])$`)

// NormalizeBoneName lowercases and trims a bone name for comparison.
func NormalizeBoneName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SideSuffix returns "L" or "R" when name ends in a side marker such as
// ".L", "_r" or "-L", and "" otherwise.
func SideSuffix(name string) string {
	m := sideSuffix.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// MirrorBoneName swaps the side marker of name, keeping its case.
// Names without a side marker are returned unchanged.
func MirrorBoneName(name string) string {
	loc := sideSuffix.FindStringSubmatchIndex(name)
	if loc == nil {
		return name
	}
	i := loc[2]
	var swapped string
	switch name[i] {
	case 'L':
		swapped = "R"
	case 'R':
		swapped = "L"
	case 'l':
		swapped = "r"
	case 'r':
		swapped = "l"
	}
	return name[:i] + swapped
}

// CanonicalName returns the default-table label whose candidate patterns
// contain name, matching case-insensitively. ok is false when no label claims it.
func CanonicalName(name string) (label string, ok bool) {
	norm := NormalizeBoneName(name)
	for _, row := range DefaultTable {
		for _, p := range row.Patterns {
			if NormalizeBoneName(p) == norm {
				return row.Label, true
			}
		}
	}
	return "", false
}

// IsFootBone reports whether a rig bone belongs to a foot, by name.
func IsFootBone(bone string) bool {
	n := NormalizeBoneName(bone)
	for _, part := range []string{"foot", "ankle", "toe", "heel"} {
		if strings.Contains(n, part) {
			return true
		}
	}
	return false
}
