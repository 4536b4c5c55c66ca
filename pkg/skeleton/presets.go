package skeleton

// RigifyBones lists the deform-side FK controls of a standard Rigify human.
var RigifyBones = []string{
	"root", "torso", "spine_fk", "spine_fk.001", "spine_fk.002", "spine_fk.003",
	"neck", "head",
	"shoulder.L", "upper_arm_fk.L", "forearm_fk.L", "hand_fk.L",
	"f_thumb.01.L", "f_index.01.L", "f_pinky.03.L",
	"shoulder.R", "upper_arm_fk.R", "forearm_fk.R", "hand_fk.R",
	"f_thumb.01.R", "f_index.01.R", "f_pinky.01.R",
	"thigh_fk.L", "shin_fk.L", "foot_fk.L", "heel.02.L", "toe_fk.L",
	"thigh_fk.R", "shin_fk.R", "foot_fk.R", "heel.02.R", "toe_fk.R",
}

// MetarigBones lists the bones of an un-generated human metarig.
var MetarigBones = []string{
	"spine", "spine.001", "spine.002", "spine.003", "spine.004", "spine.005", "spine.006",
	"shoulder.L", "upper_arm.L", "forearm.L", "hand.L",
	"thumb.01.L", "finger_index.01.L", "finger_pinky.03.L",
	"shoulder.R", "upper_arm.R", "forearm.R", "hand.R",
	"thumb.01.R", "finger_index.01.R", "finger_pinky.01.R",
	"thigh.L", "shin.L", "foot.L", "heel.02.L", "toe.L",
	"thigh.R", "shin.R", "foot.R", "heel.02.R", "toe.R",
}

// Preset returns a named built-in bone list.
func Preset(name string) ([]string, bool) {
	switch name {
	case "rigify":
		return RigifyBones, true
	case "metarig":
		return MetarigBones, true
	}
	return nil, false
}
