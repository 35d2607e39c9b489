package pattern

import "github.com/lucasb-eyer/go-colorful"

// Family identifies one of the built-in gradient presets spec.md §4.5
// requires. Each is realized as a small keypoint table sampled with
// colorful.Color.BlendLab, since the pack carries no direct equivalent of a
// dedicated colormap-preset library.
type Family uint8

const (
	FamilySpectral Family = iota
	FamilyBlues
	FamilyGreens
	FamilyGreys
	FamilyOranges
	FamilyPurples
	FamilyReds
	FamilyTurbo
	FamilyViridis
	FamilyInferno
	FamilyMagma
	FamilyPlasma
	FamilyCividis
	FamilyWarm
	FamilyCool
	FamilyCubeHelix
	FamilySinebow
	FamilyRainbow
)

func (f Family) String() string {
	switch f {
	case FamilySpectral:
		return "spectral"
	case FamilyBlues:
		return "blues"
	case FamilyGreens:
		return "greens"
	case FamilyGreys:
		return "greys"
	case FamilyOranges:
		return "oranges"
	case FamilyPurples:
		return "purples"
	case FamilyReds:
		return "reds"
	case FamilyTurbo:
		return "turbo"
	case FamilyViridis:
		return "viridis"
	case FamilyInferno:
		return "inferno"
	case FamilyMagma:
		return "magma"
	case FamilyPlasma:
		return "plasma"
	case FamilyCividis:
		return "cividis"
	case FamilyWarm:
		return "warm"
	case FamilyCool:
		return "cool"
	case FamilyCubeHelix:
		return "cube_helix"
	case FamilySinebow:
		return "sinebow"
	case FamilyRainbow:
		return "rainbow"
	default:
		return "unknown"
	}
}

func hex(s string) colorful.Color {
	c, _ := colorful.Hex(s)
	return c
}

// keypoints holds the ordered color stops for each family, transcribed from
// the well-known public stop tables for these colormaps.
var keypoints = map[Family][]colorful.Color{
	FamilySpectral: {hex("#9e0142"), hex("#f46d43"), hex("#ffffbf"), hex("#66c2a5"), hex("#5e4fa2")},
	FamilyBlues:    {hex("#f7fbff"), hex("#c6dbef"), hex("#6baed6"), hex("#2171b5"), hex("#08306b")},
	FamilyGreens:   {hex("#f7fcf5"), hex("#c7e9c0"), hex("#74c476"), hex("#238b45"), hex("#00441b")},
	FamilyGreys:    {hex("#ffffff"), hex("#d9d9d9"), hex("#969696"), hex("#525252"), hex("#000000")},
	FamilyOranges:  {hex("#fff5eb"), hex("#fdd0a2"), hex("#fd8d3c"), hex("#d94801"), hex("#7f2704")},
	FamilyPurples:  {hex("#fcfbfd"), hex("#dadaeb"), hex("#9e9ac8"), hex("#6a51a3"), hex("#3f007d")},
	FamilyReds:     {hex("#fff5f0"), hex("#fcbba1"), hex("#fb6a4a"), hex("#cb181d"), hex("#67000d")},
	FamilyTurbo:    {hex("#30123b"), hex("#4662d7"), hex("#1ae4b6"), hex("#d9e635"), hex("#fe4b20"), hex("#7a0403")},
	FamilyViridis:  {hex("#440154"), hex("#3b528b"), hex("#21918c"), hex("#5ec962"), hex("#fde725")},
	FamilyInferno:  {hex("#000004"), hex("#781c6d"), hex("#ed6925"), hex("#fcffa4")},
	FamilyMagma:    {hex("#000004"), hex("#721f81"), hex("#fd9567"), hex("#fcfdbf")},
	FamilyPlasma:   {hex("#0d0887"), hex("#9c179e"), hex("#ed7953"), hex("#f0f921")},
	FamilyCividis:  {hex("#00204d"), hex("#414d6b"), hex("#7c7b78"), hex("#b1a53e"), hex("#ffea46")},
	FamilyWarm:     {hex("#6e40aa"), hex("#e2462a"), hex("#f3d32c")},
	FamilyCool:     {hex("#6e40aa"), hex("#1bc8c5"), hex("#aff05b")},
	FamilyCubeHelix: {hex("#000000"), hex("#1c5e4a"), hex("#9c693a"), hex("#c593c0"), hex("#ffffff")},
	FamilySinebow:  {hex("#ff4040"), hex("#f9f131"), hex("#35fb35"), hex("#31c9f9"), hex("#ff41fa"), hex("#ff4040")},
	FamilyRainbow:  {hex("#6e40aa"), hex("#e23f6c"), hex("#e8d127"), hex("#1bc8c5"), hex("#6e40aa")},
}

// sample draws n equispaced colors, t in [0,1], from stops via piecewise
// BlendLab interpolation.
func sample(stops []colorful.Color, n int) []Color {
	out := make([]Color, n)
	if n == 0 {
		return out
	}
	if len(stops) == 1 {
		c := rgb8(stops[0])
		for i := range out {
			out[i] = c
		}
		return out
	}

	segments := len(stops) - 1
	for i := 0; i < n; i++ {
		var t float64
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		pos := t * float64(segments)
		seg := int(pos)
		if seg >= segments {
			seg = segments - 1
		}
		localT := pos - float64(seg)
		blended := stops[seg].BlendLab(stops[seg+1], localT)
		out[i] = rgb8(blended)
	}
	return out
}

func rgb8(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// SampleFamily samples family's gradient at n equispaced points.
func SampleFamily(f Family, n int) []Color {
	stops, ok := keypoints[f]
	if !ok {
		stops = keypoints[FamilyGreys]
	}
	return sample(stops, n)
}
