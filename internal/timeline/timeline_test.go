package timeline

import (
	"errors"
	"math"
	"testing"

	"github.com/ivlev/promoreel/internal/animation"
	"github.com/ivlev/promoreel/internal/script"
)

// measuredDefault narrates the default script with fixed chunk lengths.
func measuredDefault(t *testing.T, durations map[string]float64) *script.Script {
	t.Helper()
	sc := script.Default()
	for i := range sc.Scenes {
		s := &sc.Scenes[i]
		for j := range s.Chunks {
			c := &s.Chunks[j]
			c.Duration = durations[c.ID]
			c.Path = "assets/audio/" + c.AudioFile()
		}
		if err := s.Measure(4); err != nil {
			t.Fatal(err)
		}
	}
	return sc
}

func testParams() Params {
	return Params{
		Width: 1080, Height: 1920, FPS: 30,
		FontSize:      70,
		CaptionOffset: 600,
		Animation:     animation.Descriptor{Kind: animation.LineReveal, WordDelay: 0.35, LineDelay: 2.2},
		Sources: map[string]Source{
			"scene1": {Path: "assets/videos/frustrated_person.mp4", Width: 1920, Height: 1080},
			"scene2": {Path: "assets/videos/robot_processing.mp4", Width: 1920, Height: 1080},
			"scene3": {Path: "assets/videos/chatbot_interaction.mp4"},
		},
	}
}

var narrated = map[string]float64{"scene1": 3.2, "scene2": 6.0, "scene2b": 5.5, "scene3": 9.1}

func TestComposeDurations(t *testing.T) {
	sc := measuredDefault(t, narrated)
	tl, err := Compose(sc.Scenes, sc.CTA, testParams())
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	// trim windows 7/15/8 act as minimums, narration wins when longer
	want := []float64{7, 15, 9.1}
	sum := 0.0
	for i, seg := range tl.Segments {
		if math.Abs(seg.Duration-want[i]) > 1e-9 {
			t.Errorf("Segment %d: expected %.2f, got %.2f", i, want[i], seg.Duration)
		}
		if math.Abs(seg.Start-sum) > 1e-9 {
			t.Errorf("Segment %d: expected start %.2f, got %.2f", i, sum, seg.Start)
		}
		sum += sc.Scenes[i].Duration
	}
	if math.Abs(tl.Duration()-sum) > 1e-9 {
		t.Errorf("Timeline duration %.3f differs from summed scenes %.3f", tl.Duration(), sum)
	}
}

func TestComposeAudioNeverExceedsVideo(t *testing.T) {
	for _, durations := range []map[string]float64{
		narrated,
		{"scene1": 20, "scene2": 0.5, "scene2b": 30, "scene3": 0.1},
		{"scene1": 7, "scene2": 7.5, "scene2b": 7.5, "scene3": 8},
	} {
		sc := measuredDefault(t, durations)
		tl, err := Compose(sc.Scenes, sc.CTA, testParams())
		if err != nil {
			t.Fatalf("Compose failed: %v", err)
		}
		for _, seg := range tl.Segments {
			for _, a := range seg.Audio {
				if a.End() > seg.Duration+1e-9 {
					t.Errorf("Audio %s ends at %.3f after segment %s (%.3f)", a.Path, a.End(), seg.SceneID, seg.Duration)
				}
			}
		}
	}
}

func TestComposeChunksAreOffset(t *testing.T) {
	sc := measuredDefault(t, narrated)
	tl, err := Compose(sc.Scenes, nil, testParams())
	if err != nil {
		t.Fatal(err)
	}

	seg := tl.Segments[1]
	if len(seg.Audio) != 2 {
		t.Fatalf("Expected 2 audio tracks, got %d", len(seg.Audio))
	}
	if seg.Audio[0].Offset != 0 || seg.Audio[1].Offset != 6.0 {
		t.Errorf("Expected offsets 0 and 6, got %.2f and %.2f", seg.Audio[0].Offset, seg.Audio[1].Offset)
	}
	if seg.Audio[1].Offset < seg.Audio[0].End() {
		t.Error("Chunks overlap")
	}

	// two chunk captions and five emoji
	if len(seg.Captions) != 7 {
		t.Fatalf("Expected 7 captions, got %d", len(seg.Captions))
	}
	last := seg.Captions[1]
	if last.Start != 6 || last.Duration != 9 {
		t.Errorf("Expected the last chunk caption over 6-15s, got %.2f+%.2f", last.Start, last.Duration)
	}
	emoji := seg.Captions[2:]
	for i, c := range emoji {
		if c.Duration != 3 || c.Start != float64(i)*3 {
			t.Errorf("Emoji %d: expected 3s from %ds, got %.2f+%.2f", i, i*3, c.Start, c.Duration)
		}
		if c.FontSize != 100 || c.Animation.Kind != animation.Float {
			t.Errorf("Emoji %d has the wrong style: %+v", i, c)
		}
	}
}

func TestComposeCTAOverlay(t *testing.T) {
	sc := measuredDefault(t, narrated)
	tl, err := Compose(sc.Scenes, sc.CTA, testParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Segments) != 3 {
		t.Errorf("Overlay CTA must not add segments, got %d", len(tl.Segments))
	}
	if tl.CTA == nil {
		t.Fatal("Expected a CTA")
	}
	if end := tl.CTA.Start + tl.CTA.Caption.Duration; math.Abs(end-tl.Duration()) > 1e-9 {
		t.Errorf("CTA ends at %.3f, timeline at %.3f", end, tl.Duration())
	}
	if tl.CTA.Caption.Duration != 5 {
		t.Errorf("Expected a 5s CTA, got %.2f", tl.CTA.Caption.Duration)
	}
}

func TestComposeCTAClampedToShortTimeline(t *testing.T) {
	scenes := []script.Scene{{ID: "only", Video: "a.mp4", Duration: 3}}
	tl, err := Compose(scenes, &script.CallToAction{Text: "Bye", Duration: 5}, testParams())
	if err != nil {
		t.Fatal(err)
	}
	if tl.CTA.Start != 0 || tl.CTA.Caption.Duration != 3 {
		t.Errorf("Expected CTA over the whole 3s, got %.2f+%.2f", tl.CTA.Start, tl.CTA.Caption.Duration)
	}
}

func TestComposeCTAAppend(t *testing.T) {
	sc := measuredDefault(t, narrated)
	sc.CTA.Mode = script.CTAAppend
	tl, err := Compose(sc.Scenes, sc.CTA, testParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Segments) != 4 {
		t.Fatalf("Expected an extra CTA segment, got %d segments", len(tl.Segments))
	}
	last := tl.Segments[3]
	if last.Source != "" || last.Duration != 5 || len(last.Captions) != 1 {
		t.Errorf("Unexpected CTA segment %+v", last)
	}
	if math.Abs(tl.Duration()-(7+15+9.1+5)) > 1e-9 {
		t.Errorf("Expected scenes plus CTA, got %.3f", tl.Duration())
	}
}

func TestComposeMissingSourceAndSilentChunk(t *testing.T) {
	scenes := []script.Scene{{
		ID:    "s",
		Video: "gone.mp4",
		Chunks: []script.Chunk{
			{ID: "a", Text: "first", Duration: 4, Silent: true},
			{ID: "b", Text: "second", Duration: 2, Path: "b.mp3"},
		},
	}}
	if err := scenes[0].Measure(4); err != nil {
		t.Fatal(err)
	}

	tl, err := Compose(scenes, nil, testParams())
	if err != nil {
		t.Fatal(err)
	}
	seg := tl.Segments[0]
	if seg.Source != "" {
		t.Errorf("Expected a solid background, got %s", seg.Source)
	}
	if len(seg.Audio) != 1 || seg.Audio[0].Offset != 4 {
		t.Errorf("Expected only the second chunk at 4s, got %+v", seg.Audio)
	}
	if len(seg.Captions) != 2 {
		t.Errorf("Silent chunks keep their caption, got %d captions", len(seg.Captions))
	}
}

func TestComposeRejectsUnmeasuredScene(t *testing.T) {
	if _, err := Compose([]script.Scene{{ID: "raw", Video: "x.mp4"}}, nil, testParams()); err == nil {
		t.Error("Expected an error for an unmeasured scene")
	}
}

func TestValidate(t *testing.T) {
	good := func() *Timeline {
		return &Timeline{Segments: []Segment{
			{Index: 0, Start: 0, Duration: 5, Audio: []AudioTrack{{Offset: 0, Duration: 5}}},
			{Index: 1, Start: 5, Duration: 3},
		}}
	}
	if err := good().Validate(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := map[string]func(*Timeline){
		"gap":           func(tl *Timeline) { tl.Segments[1].Start = 6 },
		"long audio":    func(tl *Timeline) { tl.Segments[0].Audio[0].Duration = 5.5 },
		"late caption":  func(tl *Timeline) { tl.Segments[1].Captions = []CaptionTrack{{Start: 2, Duration: 2}} },
		"zero duration": func(tl *Timeline) { tl.Segments[1].Duration = 0 },
		"cta past end":  func(tl *Timeline) { tl.CTA = &CTA{Start: 6, Caption: CaptionTrack{Duration: 5}} },
		"empty":         func(tl *Timeline) { tl.Segments = nil },
	}
	for name, mutate := range tests {
		tl := good()
		mutate(tl)
		if err := tl.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}
