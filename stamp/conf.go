package stamp

import "fmt"

// Options - config/.stamp.json
// The margins are offsets from the keyword's box origin to the lower-left
// corner of the stamp. They were tuned by eye against the templates.
type Options struct {
	MarginHorizontal float64 `json:"margin_horizontal"`
	MarginVertical   float64 `json:"margin_vertical"`
	Size             float64 `json:"size"`    // side of the square stamp in points
	Opacity          float64 `json:"opacity"` // default when the placement carries none
	// ImagePath is the default stamp image (PNG or JPEG), relative to the app
	// root. The compositor itself only takes image bytes.
	ImagePath string `json:"image_path"`
}

func DefaultOptions() Options {
	return Options{
		MarginHorizontal: -10,
		MarginVertical:   -25,
		Size:             80,
		Opacity:          1,
	}
}

func (o Options) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("stamp size must be positive, got %v", o.Size)
	}
	if o.Opacity < 0 || o.Opacity > 1 {
		return fmt.Errorf("stamp opacity must be within [0, 1], got %v", o.Opacity)
	}
	return nil
}
