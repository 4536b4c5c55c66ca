package mapping

import "testing"

func TestResolveBone(t *testing.T) {
	tests := []struct {
		name     string
		rig      []string
		patterns []string
		want     string
		ok       bool
	}{
		{"exact", []string{"forearm.L", "upper_arm.L"}, []string{"upper_arm.L"}, "upper_arm.L", true},
		{"exact respects pattern order", []string{"hand.L", "hand_fk.L"}, []string{"hand_fk.L", "hand.L"}, "hand_fk.L", true},
		{"pattern order decides fuzzy winner", []string{"Wrist.L", "Hand.L"}, []string{"hand.L", "wrist.L"}, "Hand.L", true},
		{"case-insensitive equality", []string{"HEAD"}, []string{"head"}, "HEAD", true},
		{"substring", []string{"DEF-upper_arm.L.001"}, []string{"upper_arm.L"}, "DEF-upper_arm.L.001", true},
		{"padded name", []string{"  Thigh.R "}, []string{"thigh.R"}, "  Thigh.R ", true},
		{"first rig bone wins", []string{"ORG-shin.L", "shin.L.001"}, []string{"shin.L"}, "ORG-shin.L", true},
		{"no match", []string{"root", "spine"}, []string{"hand.L"}, "", false},
		{"empty rig", nil, []string{"hand.L"}, "", false},
		{"empty pattern ignored", []string{"root"}, []string{""}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveBone(tt.rig, tt.patterns)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ResolveBone(%v, %v) = %q, %v; want %q, %v", tt.rig, tt.patterns, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAutoMap(t *testing.T) {
	rig := []string{"root", "head", "upper_arm_fk.L", "forearm.L", "hand.L", "thigh.R", "foot_fk.R"}
	entries := AutoMap(rig)

	if len(entries) != len(DefaultTable) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(DefaultTable))
	}

	byLabel := make(map[string]Entry)
	for i, e := range entries {
		if e.RigBone != DefaultTable[i].Label {
			t.Errorf("entry %d label = %s, want table order %s", i, e.RigBone, DefaultTable[i].Label)
		}
		byLabel[e.RigBone] = e
	}

	want := map[string]string{
		"Head":         "head",
		"LeftUpperArm": "upper_arm_fk.L",
		"LeftForearm":  "forearm.L",
		"LeftHand":     "hand.L",
		"RightThigh":   "thigh.R",
		"RightFoot":    "foot_fk.R",
	}
	for label, bone := range want {
		e := byLabel[label]
		if !e.Enabled || e.Bone != bone {
			t.Errorf("%s = %+v, want enabled bone %s", label, e, bone)
		}
	}

	if e := byLabel["RightHand"]; e.Enabled || e.Bone != "" {
		t.Errorf("RightHand = %+v, want disabled and empty", e)
	}
	if e := byLabel["LeftHeel"]; e.Landmark != "LEFT_HEEL" || e.Enabled {
		t.Errorf("LeftHeel = %+v, want disabled LEFT_HEEL row", e)
	}
}

func TestAutoMapEmptyRig(t *testing.T) {
	for _, e := range AutoMap(nil) {
		if e.Active() {
			t.Errorf("entry %s should be inactive for an empty rig", e.RigBone)
		}
	}
}
