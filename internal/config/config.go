package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/promoreel/internal/animation"
)

// Config holds every tunable of a pipeline run. It is loaded once and then
// passed by value, so components never observe later changes.
type Config struct {
	Output     string          `yaml:"output"`
	ScriptPath string          `yaml:"script"`
	Paths      PathsConfig     `yaml:"paths"`
	Frame      FrameConfig     `yaml:"frame"`
	Encoder    EncoderConfig   `yaml:"encoder"`
	Text       TextConfig      `yaml:"text"`
	Animation  AnimationConfig `yaml:"animation"`
	Narration  NarrationConfig `yaml:"narration"`
	Stock      StockConfig     `yaml:"stock"`
	ShowStats  bool            `yaml:"show_stats"`
	KeepTemp   bool            `yaml:"keep_temp"`

	BuildVersion string `yaml:"-"`
}

type PathsConfig struct {
	Videos  string `yaml:"videos"`
	Audio   string `yaml:"audio"`
	EnvFile string `yaml:"env_file"`
	TempDir string `yaml:"temp_dir"`
}

type FrameConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type EncoderConfig struct {
	VideoCodec string `yaml:"video_codec"` // "auto" probes for a hardware H.264 encoder
	AudioCodec string `yaml:"audio_codec"`
	Preset     string `yaml:"preset"`
	Quality    int    `yaml:"quality"`
	SampleRate int    `yaml:"sample_rate"`
}

type TextConfig struct {
	FontPath      string  `yaml:"font_path"`
	FontSize      int     `yaml:"font_size"`
	FallbackScale float64 `yaml:"fallback_scale"`
	MinFontSize   int     `yaml:"min_font_size"`
	Color         string  `yaml:"color"`
	MaxWidthRatio float64 `yaml:"max_width_ratio"`
	LineSpacing   float64 `yaml:"line_spacing"`
	CaptionOffset int     `yaml:"caption_offset"`
}

type AnimationConfig struct {
	Kind           string  `yaml:"kind"` // word-reveal, line-reveal or float
	WordDelay      float64 `yaml:"word_delay"`
	LineDelay      float64 `yaml:"line_delay"`
	FadeIn         float64 `yaml:"fade_in"`
	FadeOut        float64 `yaml:"fade_out"`
	Bounce         float64 `yaml:"bounce"`
	FloatAmplitude float64 `yaml:"float_amplitude"`
	FloatFrequency float64 `yaml:"float_frequency"`
}

type NarrationConfig struct {
	BaseURL          string        `yaml:"base_url"`
	VoiceID          string        `yaml:"voice_id"`
	ModelID          string        `yaml:"model_id"`
	MaxAttempts      int           `yaml:"max_attempts"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	Policy           string        `yaml:"policy"`
	DefaultDuration  float64       `yaml:"default_duration"`
	MinSceneDuration float64       `yaml:"min_scene_duration"`
	Timeout          time.Duration `yaml:"timeout"`
}

type StockConfig struct {
	BaseURL     string        `yaml:"base_url"`
	PerPage     int           `yaml:"per_page"`
	Quality     string        `yaml:"quality"`
	Orientation string        `yaml:"orientation"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Default returns the configuration of the built-in robot emotions short:
// 1080x1920 at 30 fps, libx264/aac with the medium preset.
func Default() Config {
	return Config{
		Output: "robot_emotions.mp4",
		Paths: PathsConfig{
			Videos:  "assets/videos",
			Audio:   "assets/audio",
			EnvFile: ".env",
		},
		Frame: FrameConfig{Width: 1080, Height: 1920, FPS: 30},
		Encoder: EncoderConfig{
			VideoCodec: "libx264",
			AudioCodec: "aac",
			Preset:     "medium",
			Quality:    23,
			SampleRate: 44100,
		},
		Text: TextConfig{
			FontSize:      70,
			FallbackScale: 0.6,
			MinFontSize:   12,
			Color:         "white",
			MaxWidthRatio: 0.9,
			LineSpacing:   1.15,
			CaptionOffset: 600,
		},
		Animation: AnimationConfig{
			Kind:           "line-reveal",
			WordDelay:      0.35,
			LineDelay:      2.2,
			FadeIn:         0.5,
			FadeOut:        0.5,
			Bounce:         0.3,
			FloatAmplitude: 30,
			FloatFrequency: 3,
		},
		Narration: NarrationConfig{
			BaseURL:          "https://api.elevenlabs.io",
			VoiceID:          "21m00Tcm4TlvDq8ikWAM",
			ModelID:          "eleven_multilingual_v2",
			MaxAttempts:      3,
			RetryDelay:       time.Hour,
			Policy:           "abort",
			DefaultDuration:  4.0,
			MinSceneDuration: 4.0,
			Timeout:          2 * time.Minute,
		},
		Stock: StockConfig{
			BaseURL: "https://api.pexels.com",
			PerPage: 1,
			Quality: "hd",
			Timeout: 5 * time.Minute,
		},
	}
}

// Load overlays the YAML file at path on top of Default. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var ErrInvalid = errors.New("invalid config")

func (c Config) Validate() error {
	var problems []string
	if c.Frame.Width <= 0 || c.Frame.Height <= 0 {
		problems = append(problems, "frame size must be positive")
	}
	if c.Frame.Width%2 != 0 || c.Frame.Height%2 != 0 {
		problems = append(problems, "frame size must be even for yuv420p")
	}
	if c.Frame.FPS <= 0 {
		problems = append(problems, "fps must be positive")
	}
	if c.Text.FontSize <= 0 {
		problems = append(problems, "font_size must be positive")
	}
	if c.Text.MaxWidthRatio <= 0 || c.Text.MaxWidthRatio > 1 {
		problems = append(problems, "max_width_ratio must be in (0, 1]")
	}
	if c.Narration.MaxAttempts < 1 {
		problems = append(problems, "narration.max_attempts must be at least 1")
	}
	if c.Narration.DefaultDuration <= 0 {
		problems = append(problems, "narration.default_duration must be positive")
	}
	anim := animation.Descriptor{
		Kind:      animation.Kind(c.Animation.Kind),
		WordDelay: c.Animation.WordDelay,
		LineDelay: c.Animation.LineDelay,
	}
	if err := anim.Validate(); err != nil {
		problems = append(problems, "animation: "+err.Error())
	}
	switch c.Narration.Policy {
	case "abort", "reuse-existing", "continue-silent":
	default:
		problems = append(problems, fmt.Sprintf("unknown narration.policy %q", c.Narration.Policy))
	}
	if c.Output == "" {
		problems = append(problems, "output must be set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
