package retarget

// chains maps a landmark to the distal landmark that defines its bone's direction.
var chains = map[string]string{
	// Arms
	"LEFT_SHOULDER":  "LEFT_ELBOW",
	"LEFT_ELBOW":     "LEFT_WRIST",
	"LEFT_WRIST":     "LEFT_INDEX",
	"RIGHT_SHOULDER": "RIGHT_ELBOW",
	"RIGHT_ELBOW":    "RIGHT_WRIST",
	"RIGHT_WRIST":    "RIGHT_INDEX",

	// Legs
	"LEFT_HIP":    "LEFT_KNEE",
	"LEFT_KNEE":   "LEFT_ANKLE",
	"LEFT_ANKLE":  "LEFT_FOOT_INDEX",
	"RIGHT_HIP":   "RIGHT_KNEE",
	"RIGHT_KNEE":  "RIGHT_ANKLE",
	"RIGHT_ANKLE": "RIGHT_FOOT_INDEX",

	// Hands
	"LEFT_THUMB":  "LEFT_INDEX",
	"LEFT_INDEX":  "LEFT_PINKY",
	"RIGHT_THUMB": "RIGHT_INDEX",
	"RIGHT_INDEX": "RIGHT_PINKY",
}

// ChainChild returns the distal landmark for name.
// Landmarks without a chain (head, heels, toes, spine proxy) report false.
func ChainChild(name string) (string, bool) {
	child, ok := chains[name]
	return child, ok
}
