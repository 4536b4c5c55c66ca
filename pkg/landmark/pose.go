package landmark

// Pose landmark indices in detector output order.
const (
	Nose = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex

	// PoseCount is the number of landmarks in a full pose.
	PoseCount
)

// SpineProxy names the synthesized landmark halfway between the hip and shoulder centres.
const SpineProxy = "SPINE_PROXY"

// PoseNames lists landmark names by index.
var PoseNames = [PoseCount]string{
	"NOSE",
	"LEFT_EYE_INNER",
	"LEFT_EYE",
	"LEFT_EYE_OUTER",
	"RIGHT_EYE_INNER",
	"RIGHT_EYE",
	"RIGHT_EYE_OUTER",
	"LEFT_EAR",
	"RIGHT_EAR",
	"MOUTH_LEFT",
	"MOUTH_RIGHT",
	"LEFT_SHOULDER",
	"RIGHT_SHOULDER",
	"LEFT_ELBOW",
	"RIGHT_ELBOW",
	"LEFT_WRIST",
	"RIGHT_WRIST",
	"LEFT_PINKY",
	"RIGHT_PINKY",
	"LEFT_INDEX",
	"RIGHT_INDEX",
	"LEFT_THUMB",
	"RIGHT_THUMB",
	"LEFT_HIP",
	"RIGHT_HIP",
	"LEFT_KNEE",
	"RIGHT_KNEE",
	"LEFT_ANKLE",
	"RIGHT_ANKLE",
	"LEFT_HEEL",
	"RIGHT_HEEL",
	"LEFT_FOOT_INDEX",
	"RIGHT_FOOT_INDEX",
}

var poseIndex = func() map[string]int {
	m := make(map[string]int, PoseCount)
	for i, name := range PoseNames {
		m[name] = i
	}
	return m
}()

// Name returns the landmark name for index i, or "" when out of range.
func Name(i int) string {
	if i < 0 || i >= PoseCount {
		return ""
	}
	return PoseNames[i]
}

// Index returns the index of a named pose landmark.
func Index(name string) (int, bool) {
	i, ok := poseIndex[name]
	return i, ok
}

// Known reports whether name is a pose landmark or the spine proxy.
func Known(name string) bool {
	if name == SpineProxy {
		return true
	}
	_, ok := poseIndex[name]
	return ok
}
