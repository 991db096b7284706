package pose

import "fmt"

// DecodeMoveNet converts a MoveNet single-pose output tensor into a Pose.
//
// The tensor is [1, 1, N, 3] flattened, each row (y, x, score) normalized to
// the model input. Coordinates are scaled to a width x height frame.
func DecodeMoveNet(data []float32, t Topology, width, height int) (Pose, error) {
	n := t.NumKeypoints()
	if len(data) < n*3 {
		return Pose{}, fmt.Errorf("movenet output has %d values, want %d", len(data), n*3)
	}

	p := Pose{Keypoints: make([]Keypoint, n)}
	var total float64
	for i := 0; i < n; i++ {
		y := float64(data[i*3])
		x := float64(data[i*3+1])
		s := float64(data[i*3+2])
		total += s

		p.Keypoints[i] = Keypoint{
			X:     x * float64(width),
			Y:     y * float64(height),
			Score: Score(s),
			Index: i,
			Name:  t.Keypoints[i],
		}
	}
	p.Score = Score(total / float64(n))
	return p, nil
}

// FlipHorizontal mirrors every keypoint across the vertical centre of a frame
// of the given width.
func (p Pose) FlipHorizontal(width int) Pose {
	out := Pose{ID: p.ID, Score: p.Score, Keypoints: make([]Keypoint, len(p.Keypoints))}
	for i, k := range p.Keypoints {
		k.X = float64(width) - k.X
		out.Keypoints[i] = k
	}
	return out
}
