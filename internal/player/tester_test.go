package player

import (
	"bytes"
	"context"
	"testing"

	"github.com/plextuner/ledshowd/internal/pattern"
)

// fixedSequence renders a constant byte pattern; used to make rotation and
// coalescing assertions independent of the gradient math in internal/pattern.
type fixedSequence struct {
	data  []byte
	moves bool
}

func (f fixedSequence) AsVec(ledCount int) []byte { return append([]byte(nil), f.data...) }
func (f fixedSequence) Moves() bool               { return f.moves }

// TestRenderTestTick_Rotation reproduces spec.md §8 scenario 6: a model at
// start_channel=1, channel_count=9 (3 LEDs) with a moving sequence. After k
// ticks, the emitted bytes equal the un-rotated bytes rotated right by
// (k mod 3) * 3.
func TestRenderTestTick_Rotation(t *testing.T) {
	base := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	model := resolvedModel{startIndex: 0, ledCount: 3, seq: fixedSequence{data: base, moves: true}}

	for k := 0; k < 5; k++ {
		msgs := renderTestTick([]resolvedModel{model}, k)
		if len(msgs) != 1 {
			t.Fatalf("k=%d: got %d messages, want 1", k, len(msgs))
		}
		want := pattern.RotateRight(base, (k%3)*3)
		if !bytes.Equal(msgs[0].Data, want) {
			t.Errorf("k=%d: data = %v, want %v", k, msgs[0].Data, want)
		}
		if msgs[0].Offset != 0 {
			t.Errorf("k=%d: offset = %d, want 0", k, msgs[0].Offset)
		}
	}
}

func TestRenderTestTick_CoalescesAdjacentRuns(t *testing.T) {
	a := resolvedModel{startIndex: 0, ledCount: 2, seq: fixedSequence{data: []byte{1, 1, 1, 2, 2, 2}}}
	b := resolvedModel{startIndex: 2, ledCount: 2, seq: fixedSequence{data: []byte{3, 3, 3, 4, 4, 4}}}

	msgs := renderTestTick([]resolvedModel{a, b}, 0)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (adjacent runs should coalesce)", len(msgs))
	}
	want := []byte{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4}
	if !bytes.Equal(msgs[0].Data, want) {
		t.Errorf("data = %v, want %v", msgs[0].Data, want)
	}
	if msgs[0].Offset != 0 {
		t.Errorf("offset = %d, want 0", msgs[0].Offset)
	}
}

func TestRenderTestTick_FlushesOnGap(t *testing.T) {
	a := resolvedModel{startIndex: 0, ledCount: 1, seq: fixedSequence{data: []byte{1, 1, 1}}}
	b := resolvedModel{startIndex: 5, ledCount: 1, seq: fixedSequence{data: []byte{2, 2, 2}}}

	msgs := renderTestTick([]resolvedModel{a, b}, 0)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (gap should flush)", len(msgs))
	}
	if msgs[0].Offset != 0 || !bytes.Equal(msgs[0].Data, []byte{1, 1, 1}) {
		t.Errorf("msgs[0] = %+v, want offset=0 data=[1 1 1]", msgs[0])
	}
	if msgs[1].Offset != 15 || !bytes.Equal(msgs[1].Data, []byte{2, 2, 2}) {
		t.Errorf("msgs[1] = %+v, want offset=15 data=[2 2 2]", msgs[1])
	}
}

func TestRunTest_RejectsNonMultipleOf3Model(t *testing.T) {
	req := TestRequest{
		Spec: pattern.TestSpec{StepMS: 10, Tests: map[string]pattern.Sequence{
			"bad": pattern.Solid{Color: pattern.Color{R: 1}},
		}},
		Models: map[string]Model{
			"bad": {Name: "bad", StartChannel: 1, ChannelCount: 10}, // not a multiple of 3
		},
	}
	p := New(Config{}, nil)
	// No controllers and no valid models means runTest should return promptly
	// without blocking, since it bails out before starting a pipeline.
	p.runTest(context.Background(), req)
}
