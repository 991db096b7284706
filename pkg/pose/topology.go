package pose

import (
	"fmt"
)

// Side classifies a joint for colouring.
type Side int

const (
	SideMiddle Side = iota
	SideLeft
	SideRight
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "middle"
	}
}

// Topology describes the joint layout of a pose model: which index is which
// joint, how joints split by body side, and which pairs form skeleton segments.
// It belongs to the model, so estimators report the one they were built for.
type Topology struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Keypoints []string `json:"keypoints"`
	Left      []int    `json:"left"`
	Middle    []int    `json:"middle"`
	Right     []int    `json:"right"`
	Adjacent  [][2]int `json:"adjacent"`
}

// MoveNet is the 17-keypoint COCO layout used by MoveNet Lightning/Thunder.
var MoveNet = Topology{
	Name:    "movenet",
	Version: "coco-17",
	Keypoints: []string{
		"nose",
		"left_eye", "right_eye",
		"left_ear", "right_ear",
		"left_shoulder", "right_shoulder",
		"left_elbow", "right_elbow",
		"left_wrist", "right_wrist",
		"left_hip", "right_hip",
		"left_knee", "right_knee",
		"left_ankle", "right_ankle",
	},
	Middle: []int{0},
	Left:   []int{1, 3, 5, 7, 9, 11, 13, 15},
	Right:  []int{2, 4, 6, 8, 10, 12, 14, 16},
	Adjacent: [][2]int{
		{0, 1}, {0, 2}, {1, 3}, {2, 4},
		{5, 6}, {5, 7}, {5, 11}, {6, 8}, {6, 12},
		{7, 9}, {8, 10},
		{11, 12}, {11, 13}, {12, 14},
		{13, 15}, {14, 16},
	},
}

// NumKeypoints returns the number of joints in the layout.
func (t Topology) NumKeypoints() int {
	return len(t.Keypoints)
}

// SideOf returns the side group of joint i.
func (t Topology) SideOf(i int) (Side, bool) {
	for _, j := range t.Left {
		if j == i {
			return SideLeft, true
		}
	}
	for _, j := range t.Right {
		if j == i {
			return SideRight, true
		}
	}
	for _, j := range t.Middle {
		if j == i {
			return SideMiddle, true
		}
	}
	return SideMiddle, false
}

// Validate checks that the side groups partition every joint exactly once and
// that all adjacency pairs reference known joints.
func (t Topology) Validate() error {
	n := len(t.Keypoints)
	if n == 0 {
		return fmt.Errorf("topology %s: no keypoints", t.Name)
	}

	seen := make([]bool, n)
	for _, group := range [][]int{t.Middle, t.Left, t.Right} {
		for _, i := range group {
			if i < 0 || i >= n {
				return fmt.Errorf("topology %s: side index %d out of range [0,%d)", t.Name, i, n)
			}
			if seen[i] {
				return fmt.Errorf("topology %s: joint %d in more than one side group", t.Name, i)
			}
			seen[i] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("topology %s: joint %d (%s) has no side group", t.Name, i, t.Keypoints[i])
		}
	}

	for _, p := range t.Adjacent {
		if p[0] < 0 || p[0] >= n || p[1] < 0 || p[1] >= n {
			return fmt.Errorf("topology %s: pair %v out of range", t.Name, p)
		}
		if p[0] == p[1] {
			return fmt.Errorf("topology %s: pair %v connects a joint to itself", t.Name, p)
		}
	}
	return nil
}
