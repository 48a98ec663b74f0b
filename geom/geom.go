// Package geom holds the two page coordinate frames and the BoundingBox
// reporting convention.
//
// The layout frame has its origin at the top-left corner of the page with y
// growing downward. The native PDF frame has its origin at the bottom-left
// corner with y growing upward. Frame is the only place that translates
// between them.
package geom

import "math"

// Frame - page dimensions in points
type Frame struct {
	Width  float64
	Height float64
}

// Point in either frame; which one is up to the caller.
type Point struct {
	X float64
	Y float64
}

// Rect - origin + size. In the native frame the origin is the lower-left
// corner, in the layout frame the upper-left one.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// ToNative converts a layout-frame rectangle (top-left origin) to the native
// frame (bottom-left origin).
func (f Frame) ToNative(r Rect) Rect {
	return Rect{X: r.X, Y: f.Height - r.Y - r.H, W: r.W, H: r.H}
}

// FromNative is the inverse of ToNative.
func (f Frame) FromNative(r Rect) Rect {
	return Rect{X: r.X, Y: f.Height - r.Y - r.H, W: r.W, H: r.H}
}

// BaselineToNative maps a layout-frame text baseline y to the native frame.
func (f Frame) BaselineToNative(y float64) float64 {
	return f.Height - y
}

// BoundingBox is a native-frame box in the margin convention: the lower
// bounds are absolute coordinates, the upper bounds are distances from the
// right and top page edges.
type BoundingBox struct {
	VisLLX float64 `json:"visLLX"`
	VisLLY float64 `json:"visLLY"`
	VisURX float64 `json:"visURX"`
	VisURY float64 `json:"visURY"`
}

// MarginBox reports a native-frame run (origin x,y, size w,h) on a page of
// frame f:
//
//	visLLX = x
//	visLLY = y
//	visURX = W - x - w
//	visURY = H - y - h
func (f Frame) MarginBox(r Rect) BoundingBox {
	return BoundingBox{
		VisLLX: r.X,
		VisLLY: r.Y,
		VisURX: f.Width - r.X - r.W,
		VisURY: f.Height - r.Y - r.H,
	}
}

// Origin recovers the native origin of the run from a reported box.
func (b BoundingBox) Origin() Point {
	return Point{X: b.VisLLX, Y: b.VisLLY}
}

// Rect recovers the native rectangle of the run on a page of frame f.
func (b BoundingBox) Rect(f Frame) Rect {
	return Rect{
		X: b.VisLLX,
		Y: b.VisLLY,
		W: f.Width - b.VisLLX - b.VisURX,
		H: f.Height - b.VisLLY - b.VisURY,
	}
}

// Near reports whether two boxes agree within tol points on every bound.
func (b BoundingBox) Near(o BoundingBox, tol float64) bool {
	return math.Abs(b.VisLLX-o.VisLLX) <= tol &&
		math.Abs(b.VisLLY-o.VisLLY) <= tol &&
		math.Abs(b.VisURX-o.VisURX) <= tol &&
		math.Abs(b.VisURY-o.VisURY) <= tol
}
