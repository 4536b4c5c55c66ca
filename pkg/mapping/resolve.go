package mapping

import "strings"

// ResolveBone picks the rig bone matching the first usable candidate pattern.
//
// An exact name match for any pattern (tried in order) wins outright.
// Otherwise each pattern is tried in order against each rig bone in order,
// accepting the first bone whose normalized name equals the normalized
// pattern, contains it, or contains the lowercased raw pattern.
// The first hit is returned; there is no best-match scoring.
func ResolveBone(rigBones, patterns []string) (string, bool) {
	if len(rigBones) == 0 {
		return "", false
	}

	known := make(map[string]struct{}, len(rigBones))
	for _, b := range rigBones {
		known[b] = struct{}{}
	}
	for _, p := range patterns {
		if _, ok := known[p]; ok {
			return p, true
		}
	}

	for _, p := range patterns {
		np := NormalizeBoneName(p)
		if np == "" {
			continue
		}
		raw := strings.ToLower(p)
		for _, b := range rigBones {
			nb := NormalizeBoneName(b)
			if nb == np || strings.Contains(nb, np) || strings.Contains(nb, raw) {
				return b, true
			}
		}
	}

	return "", false
}

// AutoMap builds a mapping list for a rig from DefaultTable.
// Rows that resolve become enabled entries; the rest are kept disabled with no bone.
func AutoMap(rigBones []string) []Entry {
	entries := make([]Entry, 0, len(DefaultTable))
	for _, row := range DefaultTable {
		if row.Landmark == "" {
			continue
		}
		e := Entry{RigBone: row.Label, Landmark: row.Landmark}
		if bone, ok := ResolveBone(rigBones, row.Patterns); ok {
			e.Bone = bone
			e.Enabled = true
		}
		entries = append(entries, e)
	}
	return entries
}
