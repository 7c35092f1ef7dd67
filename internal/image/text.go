package imagepkg

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	// centeringDivisor shifts the top-left anchor up by height/5.5 so
	// typical Latin glyphs sit around the target's vertical midpoint.
	// Tuned against the production font and templates.
	centeringDivisor = 5.5

	strokeWidth = 1.5
)

var textColor = color.NRGBA{R: 15, G: 15, B: 15, A: 0xff}

// Measure returns the layout extents of text rendered with face. Width is
// the right edge of the inked glyphs measured from the pen origin; height
// is the bottom of the ink measured from the top of the ascender, plus the
// face's descent. Text that inks nothing measures (0, 0).
func Measure(text string, face font.Face) (width, height int) {
	bounds, _ := font.BoundString(face, text)
	if bounds.Empty() {
		return 0, 0
	}
	m := face.Metrics()
	width = bounds.Max.X.Ceil()
	height = (m.Ascent+bounds.Max.Y).Ceil() + m.Descent.Ceil()
	return width, height
}

// DrawAnchor returns the top-left draw position for text of the given
// measured height targeted at (x, y).
func DrawAnchor(x, y, height int) (float64, float64) {
	return float64(x), float64(y) - float64(height)/centeringDivisor
}

// drawText paints text with its top-left (ascender) corner at (left, top),
// outlined by a stroke of strokeWidth pixels in the fill color.
func drawText(dst draw.Image, face font.Face, text string, left, top float64) {
	baseline := top + fixedToFloat(face.Metrics().Ascent)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
	}
	for _, off := range strokeOffsets(strokeWidth) {
		d.Dot = fixed.Point26_6{
			X: floatToFixed(left + off[0]),
			Y: floatToFixed(baseline + off[1]),
		}
		d.DrawString(text)
	}
}

// strokeOffsets samples half-pixel offsets inside a disc of radius r. The
// origin is always included, so the fill is drawn even when r is 0.
func strokeOffsets(r float64) [][2]float64 {
	steps := int(math.Ceil(r * 2))
	offsets := make([][2]float64, 0, (2*steps+1)*(2*steps+1))
	for i := -steps; i <= steps; i++ {
		for j := -steps; j <= steps; j++ {
			dx, dy := float64(i)/2, float64(j)/2
			if dx*dx+dy*dy <= r*r+1e-9 {
				offsets = append(offsets, [2]float64{dx, dy})
			}
		}
	}
	return offsets
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
