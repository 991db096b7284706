package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypoint_Confidence(t *testing.T) {
	tests := []struct {
		name   string
		kp     Keypoint
		expect float64
	}{
		{"missing score counts as full", Keypoint{}, 1},
		{"explicit score", Keypoint{Score: Score(0.42)}, 0.42},
		{"zero score", Keypoint{Score: Score(0)}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.kp.Confidence())
		})
	}
}

func TestKeypoint_Qualifies(t *testing.T) {
	assert.True(t, Keypoint{}.Qualifies(0.3))
	assert.True(t, Keypoint{Score: Score(0.3)}.Qualifies(0.3))
	assert.False(t, Keypoint{Score: Score(0.29)}.Qualifies(0.3))
}

func TestMoveNet_Validate(t *testing.T) {
	require.NoError(t, MoveNet.Validate())
	assert.Equal(t, 17, MoveNet.NumKeypoints())
	assert.Len(t, MoveNet.Adjacent, 16)
}

func TestMoveNet_SideOf(t *testing.T) {
	tests := []struct {
		joint  int
		expect Side
	}{
		{0, SideMiddle},
		{1, SideLeft},
		{2, SideRight},
		{9, SideLeft},
		{16, SideRight},
	}

	for _, tc := range tests {
		side, ok := MoveNet.SideOf(tc.joint)
		require.True(t, ok, "joint %d", tc.joint)
		assert.Equal(t, tc.expect, side, "joint %d", tc.joint)
	}

	_, ok := MoveNet.SideOf(17)
	assert.False(t, ok)
}

func TestTopology_ValidateRejects(t *testing.T) {
	base := func() Topology {
		return Topology{
			Name:      "tiny",
			Keypoints: []string{"a", "b", "c"},
			Middle:    []int{0},
			Left:      []int{1},
			Right:     []int{2},
			Adjacent:  [][2]int{{0, 1}},
		}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Topology)
	}{
		{"no keypoints", func(t *Topology) { t.Keypoints = nil }},
		{"side index out of range", func(t *Topology) { t.Left = []int{5} }},
		{"joint in two groups", func(t *Topology) { t.Left = []int{1, 2} }},
		{"joint without group", func(t *Topology) { t.Right = nil }},
		{"pair out of range", func(t *Topology) { t.Adjacent = [][2]int{{0, 3}} }},
		{"self pair", func(t *Topology) { t.Adjacent = [][2]int{{1, 1}} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			topo := base()
			tc.mutate(&topo)
			assert.Error(t, topo.Validate())
		})
	}
}

func TestDecodeMoveNet(t *testing.T) {
	data := make([]float32, 17*3)
	// nose at (x=0.25, y=0.5), score 0.9
	data[0], data[1], data[2] = 0.5, 0.25, 0.9
	// right ankle at (x=1, y=1), score 0.1
	data[16*3], data[16*3+1], data[16*3+2] = 1, 1, 0.1

	p, err := DecodeMoveNet(data, MoveNet, 360, 270)
	require.NoError(t, err)
	require.Len(t, p.Keypoints, 17)

	nose := p.Keypoints[0]
	assert.InDelta(t, 90, nose.X, 1e-6)
	assert.InDelta(t, 135, nose.Y, 1e-6)
	assert.InDelta(t, 0.9, nose.Confidence(), 1e-6)
	assert.Equal(t, "nose", nose.Name)

	ankle := p.Keypoints[16]
	assert.InDelta(t, 360, ankle.X, 1e-6)
	assert.InDelta(t, 270, ankle.Y, 1e-6)
	assert.Equal(t, 16, ankle.Index)
}

func TestDecodeMoveNet_ShortTensor(t *testing.T) {
	_, err := DecodeMoveNet(make([]float32, 10), MoveNet, 100, 100)
	assert.Error(t, err)
}

func TestPose_FlipHorizontal(t *testing.T) {
	p := Pose{Keypoints: []Keypoint{{X: 10, Y: 5}, {X: 300, Y: 7}}}
	f := p.FlipHorizontal(360)

	assert.Equal(t, 350.0, f.Keypoints[0].X)
	assert.Equal(t, 5.0, f.Keypoints[0].Y)
	assert.Equal(t, 60.0, f.Keypoints[1].X)
	// source is untouched
	assert.Equal(t, 10.0, p.Keypoints[0].X)
}
