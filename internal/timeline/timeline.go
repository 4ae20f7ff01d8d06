package timeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/promoreel/internal/animation"
)

// eps absorbs float rounding when checking invariants.
const eps = 1e-6

// AudioTrack is a narration file placed inside a segment.
type AudioTrack struct {
	Path     string
	Offset   float64 // seconds from the segment start
	Duration float64
}

func (a AudioTrack) End() float64 { return a.Offset + a.Duration }

// CaptionTrack is a text overlay placed inside a segment.
type CaptionTrack struct {
	Text      string
	Start     float64 // seconds from the segment start
	Duration  float64 // longest time the caption may stay on screen
	FontSize  int
	OffsetY   int
	Animation animation.Descriptor
}

// Segment is one composited scene.
type Segment struct {
	Index     int
	SceneID   string
	Start     float64 // position on the timeline
	Duration  float64
	Source    string // empty for a solid background
	SrcWidth  int
	SrcHeight int
	TrimStart float64
	Audio     []AudioTrack
	Captions  []CaptionTrack
}

func (s Segment) End() float64 { return s.Start + s.Duration }

// CTA is the call to action placed on the timeline.
type CTA struct {
	Mode    string
	Start   float64
	Caption CaptionTrack
	LinkURL string
	QRSize  int
}

// Timeline is the ordered list of segments of the output video.
type Timeline struct {
	Width    int
	Height   int
	FPS      int
	Segments []Segment
	CTA      *CTA
}

// Duration is the sum of all segment durations.
func (t *Timeline) Duration() float64 {
	total := 0.0
	for _, s := range t.Segments {
		total += s.Duration
	}
	return total
}

var ErrInvalid = errors.New("invalid timeline")

// Validate checks that segments are back to back, that no track outlives
// its segment and that the CTA lies inside the timeline.
func (t *Timeline) Validate() error {
	if len(t.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalid)
	}
	pos := 0.0
	for i, s := range t.Segments {
		if s.Index != i {
			return fmt.Errorf("%w: segment %d has index %d", ErrInvalid, i, s.Index)
		}
		if s.Duration <= 0 {
			return fmt.Errorf("%w: segment %s has no duration", ErrInvalid, s.SceneID)
		}
		if math.Abs(s.Start-pos) > eps {
			return fmt.Errorf("%w: segment %s starts at %.3f, expected %.3f", ErrInvalid, s.SceneID, s.Start, pos)
		}
		for _, a := range s.Audio {
			if a.Offset < -eps || a.End() > s.Duration+eps {
				return fmt.Errorf("%w: audio %s (%.3f-%.3f) outlives segment %s (%.3f)", ErrInvalid, a.Path, a.Offset, a.End(), s.SceneID, s.Duration)
			}
		}
		for _, c := range s.Captions {
			if c.Start < -eps || c.Start+c.Duration > s.Duration+eps {
				return fmt.Errorf("%w: caption %q outlives segment %s", ErrInvalid, c.Text, s.SceneID)
			}
		}
		pos += s.Duration
	}

	if t.CTA != nil {
		end := t.CTA.Start + t.CTA.Caption.Duration
		if t.CTA.Start < -eps || end > pos+eps {
			return fmt.Errorf("%w: cta %.3f-%.3f outside timeline of %.3f", ErrInvalid, t.CTA.Start, end, pos)
		}
	}
	return nil
}
