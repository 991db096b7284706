package render

import (
	"image/color"

	"github.com/teslashibe/go-posebear/pkg/pose"
)

// Visual constants.
const (
	LineWidth      = 2.0
	Radius         = 4.0
	ScoreThreshold = 0.3
)

// Named colours.
var (
	Red    = color.RGBA{R: 255, A: 255}
	Green  = color.RGBA{G: 128, A: 255}
	Orange = color.RGBA{R: 255, G: 165, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// KeypointColor returns the fill for a joint on the given side.
func KeypointColor(side pose.Side) color.RGBA {
	switch side {
	case pose.SideLeft:
		return Green
	case pose.SideRight:
		return Orange
	default:
		return Red
	}
}

// SkeletonColor returns the segment colour for a pose. Every pose is white
// for now; the id is accepted so a palette can be added without touching
// callers.
func SkeletonColor(poseID int) color.RGBA {
	return White
}

// DrawKeypoints draws each qualifying keypoint as a filled, outlined circle
// coloured by side: middle red, left green, right orange.
// Returns the number of keypoints drawn.
func DrawKeypoints(c Canvas, topo pose.Topology, keypoints []pose.Keypoint) int {
	drawn := 0
	groups := []struct {
		side    pose.Side
		indices []int
	}{
		{pose.SideMiddle, topo.Middle},
		{pose.SideLeft, topo.Left},
		{pose.SideRight, topo.Right},
	}

	for _, g := range groups {
		style := Style{
			Fill:      KeypointColor(g.side),
			Stroke:    White,
			LineWidth: LineWidth,
		}
		for _, i := range g.indices {
			if i < 0 || i >= len(keypoints) {
				continue
			}
			kp := keypoints[i]
			if !kp.Qualifies(ScoreThreshold) {
				continue
			}
			c.Circle(Point{kp.X, kp.Y}, Radius, style)
			drawn++
		}
	}
	return drawn
}

// DrawSkeleton draws a segment for every adjacency pair whose endpoints both
// qualify. Returns the number of segments drawn.
func DrawSkeleton(c Canvas, topo pose.Topology, keypoints []pose.Keypoint, poseID int) int {
	col := SkeletonColor(poseID)
	style := Style{Fill: col, Stroke: col, LineWidth: LineWidth}

	drawn := 0
	for _, pair := range topo.Adjacent {
		i, j := pair[0], pair[1]
		if i < 0 || j < 0 || i >= len(keypoints) || j >= len(keypoints) {
			continue
		}
		kp1, kp2 := keypoints[i], keypoints[j]
		if !kp1.Qualifies(ScoreThreshold) || !kp2.Qualifies(ScoreThreshold) {
			continue
		}
		c.Line(Point{kp1.X, kp1.Y}, Point{kp2.X, kp2.Y}, style)
		drawn++
	}
	return drawn
}

// DrawPose draws keypoints then skeleton for one pose.
func DrawPose(c Canvas, topo pose.Topology, p pose.Pose) (keypoints, segments int) {
	if p.Keypoints == nil {
		return 0, 0
	}
	keypoints = DrawKeypoints(c, topo, p.Keypoints)
	segments = DrawSkeleton(c, topo, p.Keypoints, p.ID)
	return keypoints, segments
}

// DrawPoses draws each pose fully, in order.
func DrawPoses(c Canvas, topo pose.Topology, poses []pose.Pose) (keypoints, segments int) {
	for _, p := range poses {
		k, s := DrawPose(c, topo, p)
		keypoints += k
		segments += s
	}
	return keypoints, segments
}
