package script

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/promoreel/internal/animation"
)

// Script is the ordered list of scenes a video is built from.
type Script struct {
	Version string        `yaml:"version"`
	Scenes  []Scene       `yaml:"scenes"`
	CTA     *CallToAction `yaml:"cta,omitempty"`
}

// Scene is one stock clip with its narration chunks and captions.
type Scene struct {
	ID        string  `yaml:"id"`
	Query     string  `yaml:"query"`      // stock search query
	Video     string  `yaml:"video"`      // file name under the videos directory
	TrimStart float64 `yaml:"trim_start"` // seconds into the source clip
	TrimEnd   float64 `yaml:"trim_end"`   // 0 means no window
	FontSize  int     `yaml:"font_size,omitempty"`
	Chunks    []Chunk `yaml:"chunks"`

	// Animation of the chunk captions. Nil uses the configured defaults.
	Animation *animation.Descriptor `yaml:"animation,omitempty"`
	Captions  *Captions             `yaml:"captions,omitempty"`

	// Duration is set once by Measure.
	Duration float64 `yaml:"-"`
}

// Chunk is a piece of narration. Its text is also the caption shown while
// it plays.
type Chunk struct {
	ID    string `yaml:"id"`
	Text  string `yaml:"text"`
	Audio string `yaml:"audio,omitempty"` // defaults to <id>.mp3

	// Filled in once narrated. Silent chunks have no Path.
	Path     string  `yaml:"-"`
	Duration float64 `yaml:"-"`
	Silent   bool    `yaml:"-"`
}

// Captions are standalone texts shown one after another over the whole
// scene, each for an equal share of it.
type Captions struct {
	Texts     []string             `yaml:"texts"`
	FontSize  int                  `yaml:"font_size,omitempty"`
	OffsetY   int                  `yaml:"offset_y"`
	Animation animation.Descriptor `yaml:"animation"`
}

// CTA placement modes.
const (
	CTAOverlay = "overlay" // over the last seconds of the video
	CTAAppend  = "append"  // as an extra segment after the last scene
)

// CallToAction is the closing text of the video.
type CallToAction struct {
	Text      string               `yaml:"text"`
	Duration  float64              `yaml:"duration"`
	Mode      string               `yaml:"mode,omitempty"`
	FontSize  int                  `yaml:"font_size,omitempty"`
	OffsetY   int                  `yaml:"offset_y"`
	LinkURL   string               `yaml:"link_url,omitempty"` // rendered as a QR code when set
	QRSize    int                  `yaml:"qr_size,omitempty"`
	Animation animation.Descriptor `yaml:"animation"`
}

// NarrationText is what gets spoken: the text with line breaks collapsed.
func (c Chunk) NarrationText() string {
	return strings.Join(strings.Fields(c.Text), " ")
}

// AudioFile is the file name of the chunk narration.
func (c Chunk) AudioFile() string {
	if c.Audio != "" {
		return c.Audio
	}
	return c.ID + ".mp3"
}

// Window is the length of the trim window, 0 when none is set.
func (s Scene) Window() float64 {
	if s.TrimEnd <= s.TrimStart {
		return 0
	}
	return s.TrimEnd - s.TrimStart
}

// NarrationDuration sums the measured chunk durations.
func (s Scene) NarrationDuration() float64 {
	total := 0.0
	for _, c := range s.Chunks {
		total += c.Duration
	}
	return total
}

var ErrMeasured = errors.New("scene already measured")

// Measure fixes the scene duration: at least the narration and at least the
// trim window. A scene with no narration at all gets floor.
func (s *Scene) Measure(floor float64) error {
	if s.Duration > 0 {
		return fmt.Errorf("scene %s: %w", s.ID, ErrMeasured)
	}
	narration := s.NarrationDuration()
	d := max(narration, s.Window())
	if narration <= 0 {
		d = max(d, floor)
	}
	if d <= 0 {
		return fmt.Errorf("scene %s: no duration, floor is %.2f", s.ID, floor)
	}
	s.Duration = d
	return nil
}

// Validate checks ids and trim windows.
func (sc *Script) Validate() error {
	if len(sc.Scenes) == 0 {
		return errors.New("script has no scenes")
	}
	scenes, chunks := map[string]bool{}, map[string]bool{}
	claim := func(ids map[string]bool, id string) error {
		if id == "" {
			return errors.New("empty id")
		}
		if ids[id] {
			return fmt.Errorf("duplicate id %q", id)
		}
		ids[id] = true
		return nil
	}

	for i, s := range sc.Scenes {
		if err := claim(scenes, s.ID); err != nil {
			return fmt.Errorf("scene %d: %w", i+1, err)
		}
		if s.Video == "" {
			return fmt.Errorf("scene %s: video file name is required", s.ID)
		}
		if s.TrimStart < 0 || (s.TrimEnd != 0 && s.TrimEnd < s.TrimStart) {
			return fmt.Errorf("scene %s: bad trim window %.2f-%.2f", s.ID, s.TrimStart, s.TrimEnd)
		}
		if s.Animation != nil {
			if err := s.Animation.Validate(); err != nil {
				return fmt.Errorf("scene %s: %w", s.ID, err)
			}
		}
		if s.Captions != nil {
			if err := s.Captions.Animation.Validate(); err != nil {
				return fmt.Errorf("scene %s captions: %w", s.ID, err)
			}
		}
		for _, c := range s.Chunks {
			if err := claim(chunks, c.ID); err != nil {
				return fmt.Errorf("scene %s chunk: %w", s.ID, err)
			}
			if strings.TrimSpace(c.Text) == "" {
				return fmt.Errorf("chunk %s: empty text", c.ID)
			}
		}
	}

	if sc.CTA != nil {
		if sc.CTA.Duration <= 0 {
			return errors.New("cta: duration must be positive")
		}
		switch sc.CTA.Mode {
		case "", CTAOverlay, CTAAppend:
		default:
			return fmt.Errorf("cta: unknown mode %q", sc.CTA.Mode)
		}
		if err := sc.CTA.Animation.Validate(); err != nil {
			return fmt.Errorf("cta: %w", err)
		}
	}
	return nil
}

// Load reads a script file. An empty path returns Default.
func Load(path string) (*Script, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return &sc, nil
}

// Write saves the script as YAML, e.g. to start a new one from Default.
func Write(sc *Script, path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
