package mapping

// TableRow pairs a rig-side label with a landmark and the bone names to try for it.
type TableRow struct {
	Label    string
	Landmark string
	Patterns []string
}

// DefaultTable is the ordered set of bones auto-mapping tries to fill.
// Candidate names follow Rigify (FK controls first) then generic metarig names.
var DefaultTable = []TableRow{
	{"Head", "NOSE", []string{"head", "spine.006"}},

	{"LeftUpperArm", "LEFT_SHOULDER", []string{"upper_arm_fk.L", "upper_arm.L"}},
	{"LeftForearm", "LEFT_ELBOW", []string{"forearm_fk.L", "forearm.L"}},
	{"LeftHand", "LEFT_WRIST", []string{"hand_fk.L", "hand.L"}},
	{"LeftThumb", "LEFT_THUMB", []string{"f_thumb.01.L", "thumb.01.L"}},
	{"LeftIndex", "LEFT_INDEX", []string{"f_index.01.L", "finger_index.01.L"}},
	{"LeftPinky", "LEFT_PINKY", []string{"f_pinky.03.L", "finger_pinky.03.L"}},

	{"RightUpperArm", "RIGHT_SHOULDER", []string{"upper_arm_fk.R", "upper_arm.R"}},
	{"RightForearm", "RIGHT_ELBOW", []string{"forearm_fk.R", "forearm.R"}},
	{"RightHand", "RIGHT_WRIST", []string{"hand_fk.R", "hand.R"}},
	{"RightThumb", "RIGHT_THUMB", []string{"f_thumb.01.R", "thumb.01.R"}},
	{"RightPinky", "RIGHT_PINKY", []string{"f_pinky.01.R", "finger_pinky.01.R"}},
	{"RightIndex", "RIGHT_INDEX", []string{"f_index.01.R", "finger_index.01.R"}},

	{"LeftThigh", "LEFT_HIP", []string{"thigh_fk.L", "thigh.L"}},
	{"LeftShin", "LEFT_KNEE", []string{"shin_fk.L", "shin.L"}},
	{"LeftFoot", "LEFT_ANKLE", []string{"foot_fk.L", "foot.L"}},
	{"LeftHeel", "LEFT_HEEL", []string{"heel.02.L"}},
	{"LeftToe", "LEFT_FOOT_INDEX", []string{"toe_fk.L", "toe.L"}},

	{"RightThigh", "RIGHT_HIP", []string{"thigh_fk.R", "thigh.R"}},
	{"RightShin", "RIGHT_KNEE", []string{"shin_fk.R", "shin.R"}},
	{"RightFoot", "RIGHT_ANKLE", []string{"foot_fk.R", "foot.R"}},
	{"RightHeel", "RIGHT_HEEL", []string{"heel.02.R"}},
	{"RightToe", "RIGHT_FOOT_INDEX", []string{"toe_fk.R", "toe.R"}},
}

// LabelForLandmark returns the default-table label driven by landmark.
func LabelForLandmark(landmark string) string {
	for _, row := range DefaultTable {
		if row.Landmark == landmark {
			return row.Label
		}
	}
	return ""
}

// LabelFor returns the display label for an entry: the landmark's label, or
// failing that the label whose patterns name the bone.
func LabelFor(landmark, bone string) string {
	if label := LabelForLandmark(landmark); label != "" {
		return label
	}
	label, _ := CanonicalName(bone)
	return label
}
