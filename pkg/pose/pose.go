// Package pose defines the keypoint and pose types produced by pose estimators
// and the joint topology that gives their indices meaning.
package pose

// Keypoint is the estimated position of one anatomical joint.
type Keypoint struct {
	X     float64  `json:"x"`               // Pixel x in the submitted frame
	Y     float64  `json:"y"`               // Pixel y in the submitted frame
	Score *float64 `json:"score,omitempty"` // Confidence 0-1, nil when the model gives none
	Index int      `json:"index"`           // Joint id within the topology
	Name  string   `json:"name,omitempty"`  // Joint name, e.g. "left_wrist"
}

// Confidence returns the keypoint score, treating a missing score as 1.
func (k Keypoint) Confidence() float64 {
	if k.Score == nil {
		return 1
	}
	return *k.Score
}

// Qualifies reports whether the keypoint meets the given confidence threshold.
func (k Keypoint) Qualifies(threshold float64) bool {
	return k.Confidence() >= threshold
}

// Pose is one detected person. Keypoints are indexed by joint id.
type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
	Score     *float64   `json:"score,omitempty"`
	ID        int        `json:"id"`
}

// Score is a convenience for building optional scores.
func Score(v float64) *float64 {
	return &v
}
