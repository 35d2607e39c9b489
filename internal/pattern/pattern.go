// Package pattern renders the built-in test-pattern sequences (solid
// colors, chases, named gradient families, and custom gradients) to linear
// RGB byte buffers for the test engine.
package pattern

import (
	"log"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is one 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Sequence is the closed set of renderable test patterns: Solid, Chase,
// Pattern, MovingPattern, CustomPattern, CustomMovingPattern.
type Sequence interface {
	// AsVec renders ledCount LEDs (3 bytes each) to a flat RGB buffer.
	AsVec(ledCount int) []byte
	// Moves reports whether the test engine should rotate this sequence's
	// output between ticks.
	Moves() bool
}

// TestSpec names a test pattern per model, ticking every StepMS.
type TestSpec struct {
	Tests  map[string]Sequence
	StepMS uint64
}

func appendColor(data []byte, c Color) []byte {
	return append(data, c.R, c.G, c.B)
}

// Solid fills every LED with one color.
type Solid struct {
	Color Color
}

func (s Solid) AsVec(ledCount int) []byte {
	data := make([]byte, 0, ledCount*3)
	for i := 0; i < ledCount; i++ {
		data = appendColor(data, s.Color)
	}
	return data
}

func (s Solid) Moves() bool { return false }

// Chase lights the first min(Width, ledCount) LEDs and zeroes the rest.
type Chase struct {
	Color Color
	Width int
}

func (c Chase) AsVec(ledCount int) []byte {
	w := c.Width
	if w > ledCount {
		w = ledCount
	}
	data := make([]byte, 0, ledCount*3)
	for i := 0; i < w; i++ {
		data = appendColor(data, c.Color)
	}
	for i := w; i < ledCount; i++ {
		data = append(data, 0, 0, 0)
	}
	return data
}

func (c Chase) Moves() bool { return true }

// Pattern samples a named built-in gradient family at ledCount equispaced
// points, held static between ticks.
type Pattern struct {
	Family Family
}

func (p Pattern) AsVec(ledCount int) []byte {
	return renderFamily(p.Family, ledCount)
}

func (p Pattern) Moves() bool { return false }

// MovingPattern is a Pattern whose output the test engine rotates each tick.
type MovingPattern struct {
	Family Family
}

func (p MovingPattern) AsVec(ledCount int) []byte {
	return renderFamily(p.Family, ledCount)
}

func (p MovingPattern) Moves() bool { return true }

func renderFamily(f Family, ledCount int) []byte {
	colors := SampleFamily(f, ledCount)
	data := make([]byte, 0, ledCount*3)
	for _, c := range colors {
		data = appendColor(data, c)
	}
	return data
}

// CustomPattern builds a smooth gradient through the given control colors
// and samples it, held static between ticks.
type CustomPattern struct {
	Colors []Color
}

func (c CustomPattern) AsVec(ledCount int) []byte {
	return renderCustom(c.Colors, ledCount)
}

func (c CustomPattern) Moves() bool { return false }

// CustomMovingPattern is a CustomPattern whose output the test engine
// rotates each tick.
type CustomMovingPattern struct {
	Colors []Color
}

func (c CustomMovingPattern) AsVec(ledCount int) []byte {
	return renderCustom(c.Colors, ledCount)
}

func (c CustomMovingPattern) Moves() bool { return true }

func renderCustom(controlColors []Color, ledCount int) []byte {
	if len(controlColors) == 0 {
		log.Printf("pattern: couldn't build gradient: no control colors")
		return nil
	}
	stops := make([]colorful.Color, len(controlColors))
	for i, c := range controlColors {
		stops[i] = colorful.Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
		}
	}
	colors := sample(stops, ledCount)
	data := make([]byte, 0, ledCount*3)
	for _, c := range colors {
		data = appendColor(data, c)
	}
	return data
}

// RotateRight rotates data right by n bytes (n may exceed len(data); it is
// reduced modulo len(data)). Used by the test engine to animate sequences
// whose Moves() is true.
func RotateRight(data []byte, n int) []byte {
	if len(data) == 0 {
		return data
	}
	n %= len(data)
	if n < 0 {
		n += len(data)
	}
	if n == 0 {
		return data
	}
	out := make([]byte, len(data))
	copy(out, data[len(data)-n:])
	copy(out[n:], data[:len(data)-n])
	return out
}
