package pattern

import (
	"bytes"
	"testing"
)

func TestSolid_AsVec(t *testing.T) {
	s := Solid{Color: Color{R: 10, G: 20, B: 30}}
	got := s.AsVec(3)
	want := []byte{10, 20, 30, 10, 20, 30, 10, 20, 30}
	if !bytes.Equal(got, want) {
		t.Errorf("AsVec = %v, want %v", got, want)
	}
	if s.Moves() {
		t.Error("Solid.Moves() = true, want false")
	}
}

func TestChase_AsVec(t *testing.T) {
	c := Chase{Color: Color{R: 255, G: 0, B: 0}, Width: 2}
	got := c.AsVec(4)
	want := []byte{255, 0, 0, 255, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("AsVec = %v, want %v", got, want)
	}
	if !c.Moves() {
		t.Error("Chase.Moves() = false, want true")
	}
}

func TestChase_WidthExceedsLedCount(t *testing.T) {
	c := Chase{Color: Color{R: 1, G: 2, B: 3}, Width: 100}
	got := c.AsVec(2)
	want := []byte{1, 2, 3, 1, 2, 3}
	if !bytes.Equal(got, want) {
		t.Errorf("AsVec = %v, want %v", got, want)
	}
}

func TestPattern_AsVec_LengthAndEndpoints(t *testing.T) {
	p := Pattern{Family: FamilyGreys}
	got := p.AsVec(5)
	if len(got) != 15 {
		t.Fatalf("len(AsVec) = %d, want 15", len(got))
	}
	// Greys runs white -> black; first LED should be lighter than the last.
	firstSum := int(got[0]) + int(got[1]) + int(got[2])
	lastSum := int(got[12]) + int(got[13]) + int(got[14])
	if firstSum <= lastSum {
		t.Errorf("expected greys gradient to darken across the run: first=%d last=%d", firstSum, lastSum)
	}
	if p.Moves() {
		t.Error("Pattern.Moves() = true, want false")
	}
}

func TestMovingPattern_Moves(t *testing.T) {
	mp := MovingPattern{Family: FamilyRainbow}
	if !mp.Moves() {
		t.Error("MovingPattern.Moves() = false, want true")
	}
}

func TestCustomPattern_AsVec(t *testing.T) {
	cp := CustomPattern{Colors: []Color{{R: 0, G: 0, B: 0}, {R: 255, G: 255, B: 255}}}
	got := cp.AsVec(2)
	if len(got) != 6 {
		t.Fatalf("len(AsVec) = %d, want 6", len(got))
	}
	if cp.Moves() {
		t.Error("CustomPattern.Moves() = true, want false")
	}
}

func TestCustomPattern_EmptyControlColors(t *testing.T) {
	cp := CustomPattern{}
	got := cp.AsVec(3)
	if got != nil {
		t.Errorf("AsVec with no control colors = %v, want nil", got)
	}
}

func TestCustomMovingPattern_Moves(t *testing.T) {
	cmp := CustomMovingPattern{Colors: []Color{{R: 1}}}
	if !cmp.Moves() {
		t.Error("CustomMovingPattern.Moves() = false, want true")
	}
}

func TestRotateRight(t *testing.T) {
	// Scenario 6: a MovingPattern(Rainbow) over 3 LEDs (9 bytes), rotated
	// right by (k mod 3)*3 bytes.
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	tests := []struct {
		k    int
		want []byte
	}{
		{0, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{1, []byte{7, 8, 9, 1, 2, 3, 4, 5, 6}},
		{2, []byte{4, 5, 6, 7, 8, 9, 1, 2, 3}},
		{3, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}}, // k mod 3 == 0 again
	}
	for _, tt := range tests {
		ledCount := 3
		n := (tt.k % ledCount) * 3
		got := RotateRight(data, n)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("RotateRight(k=%d) = %v, want %v", tt.k, got, tt.want)
		}
	}
}

func TestRotateRight_EmptyData(t *testing.T) {
	got := RotateRight(nil, 5)
	if got != nil {
		t.Errorf("RotateRight(nil) = %v, want nil", got)
	}
}

func TestFamily_String(t *testing.T) {
	if FamilyViridis.String() != "viridis" {
		t.Errorf("FamilyViridis.String() = %q, want %q", FamilyViridis.String(), "viridis")
	}
}

func TestSampleFamily_AllFamiliesProduceCorrectLength(t *testing.T) {
	families := []Family{
		FamilySpectral, FamilyBlues, FamilyGreens, FamilyGreys, FamilyOranges,
		FamilyPurples, FamilyReds, FamilyTurbo, FamilyViridis, FamilyInferno,
		FamilyMagma, FamilyPlasma, FamilyCividis, FamilyWarm, FamilyCool,
		FamilyCubeHelix, FamilySinebow, FamilyRainbow,
	}
	for _, f := range families {
		got := SampleFamily(f, 10)
		if len(got) != 10 {
			t.Errorf("SampleFamily(%v, 10) returned %d colors, want 10", f, len(got))
		}
	}
}
