package animation

import (
	"fmt"
	"math"
)

type Kind string

const (
	WordReveal Kind = "word-reveal"
	LineReveal Kind = "line-reveal"
	Float      Kind = "float"
)

// Descriptor is a declarative description of how an overlay moves.
// Delays drive sequencing in Plan, the rest drives Evaluate.
type Descriptor struct {
	Kind      Kind    `yaml:"kind"`
	WordDelay float64 `yaml:"word_delay,omitempty"` // seconds between word reveals
	LineDelay float64 `yaml:"line_delay,omitempty"` // seconds between line reveals
	FadeIn    float64 `yaml:"fade_in,omitempty"`
	FadeOut   float64 `yaml:"fade_out,omitempty"`
	Bounce    float64 `yaml:"bounce,omitempty"`    // scale-in length for reveal kinds
	Amplitude float64 `yaml:"amplitude,omitempty"` // float: pixels
	Frequency float64 `yaml:"frequency,omitempty"` // float: radians per second

	// Duration is the lifetime of one animated item. Plan fills it per cue.
	Duration float64 `yaml:"-"`
}

// Validate rejects unknown kinds and reveals that could never show a word.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case WordReveal:
		if d.WordDelay <= 0 {
			return fmt.Errorf("%s needs a positive word_delay, got %g", d.Kind, d.WordDelay)
		}
	case LineReveal:
		if d.LineDelay <= 0 {
			return fmt.Errorf("%s needs a positive line_delay, got %g", d.Kind, d.LineDelay)
		}
	case Float:
	default:
		return fmt.Errorf("unknown animation kind %q", d.Kind)
	}
	return nil
}

// State is the transform of an item at a given moment.
type State struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	Opacity float64
}

// Evaluate returns the state of an item t seconds after it appeared.
func Evaluate(d Descriptor, t float64) State {
	if t < 0 || (d.Duration > 0 && t > d.Duration) {
		return State{Scale: 1, Opacity: 0}
	}

	st := State{Scale: 1, Opacity: opacity(d, t)}

	switch d.Kind {
	case WordReveal, LineReveal:
		if d.Bounce > 0 && t < d.Bounce {
			st.Scale = easeOutBack(t / d.Bounce)
		}
	case Float:
		st.OffsetY = d.Amplitude * math.Sin(d.Frequency*t)
	}

	return st
}

// opacity applies linear fades at both ends of the item lifetime. When the
// fades do not fit in the lifetime they are shrunk proportionally.
func opacity(d Descriptor, t float64) float64 {
	fadeIn, fadeOut := d.FadeIn, d.FadeOut
	if d.Duration > 0 && fadeIn+fadeOut > d.Duration {
		k := d.Duration / (fadeIn + fadeOut)
		fadeIn *= k
		fadeOut *= k
	}

	alpha := 1.0
	if fadeIn > 0 && t < fadeIn {
		alpha = t / fadeIn
	}
	if d.Duration > 0 && fadeOut > 0 {
		if remaining := d.Duration - t; remaining < fadeOut {
			alpha = math.Min(alpha, remaining/fadeOut)
		}
	}
	return clamp(alpha, 0, 1)
}

// easeOutBack grows from 0 to 1 with a short overshoot, the "bounce in".
func easeOutBack(p float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	p = clamp(p, 0, 1)
	return 1 + c3*pow(p-1, 3) + c1*pow(p-1, 2)
}

func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
