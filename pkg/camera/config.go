// Package camera provides the live frame source the render loop reads from.
package camera

// Config holds the constraints requested from the capture device.
// They are hints: the device may deliver a different size or rate, and the
// actual size is read back from the first frame.
type Config struct {
	// FacingMode selects the camera. "user" is the front/self-view camera.
	FacingMode string `json:"facing_mode"`

	Width     int `json:"width"`     // Requested frame width in pixels
	Height    int `json:"height"`    // Requested frame height in pixels
	FrameRate int `json:"frame_rate"` // Ideal FPS

	// Audio is always off for pose rendering; kept so the request is explicit.
	Audio bool `json:"audio"`
}

// Request limits accepted by Validate.
const (
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFrameRate = 240
)

// Facing modes.
const (
	FacingUser        = "user"
	FacingEnvironment = "environment"
)

// DefaultConfig returns the self-view request: front camera, 360x270 at an
// ideal 60 FPS, no audio.
func DefaultConfig() Config {
	return Config{
		FacingMode: FacingUser,
		Width:      360,
		Height:     270,
		FrameRate:  60,
		Audio:      false,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 1 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 1 and 4096")
	}
	if c.Height < 1 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 1 and 2160")
	}
	if c.FrameRate < 1 || c.FrameRate > MaxFrameRate {
		errors = append(errors, "frame_rate must be between 1 and 240")
	}

	validFacing := map[string]bool{FacingUser: true, FacingEnvironment: true}
	if c.FacingMode != "" && !validFacing[c.FacingMode] {
		errors = append(errors, "facing_mode must be user or environment")
	}

	if c.Audio {
		errors = append(errors, "audio capture is not supported")
	}

	return errors
}
