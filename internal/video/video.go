package video

import (
	"context"
	"image"
	"io"

	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/timeline"
)

// FrameSource produces the raw RGBA frames of an overlay track.
type FrameSource interface {
	Size() image.Point
	Empty() bool
	WriteRaw(w io.Writer, fps int) error
}

type Encoder interface {
	// EncodeSegment renders one timeline segment with its narration mixed in
	// and overlay composited on top. overlay may be nil.
	EncodeSegment(ctx context.Context, seg timeline.Segment, overlay FrameSource, out string) error
	Concatenate(ctx context.Context, paths []string, out, tmpDir string) error
	// Finalize re-encodes the joined video at the output frame rate and puts
	// overlay on it from overlayStart seconds.
	Finalize(ctx context.Context, input string, overlay FrameSource, overlayStart float64, out string) error
}

// Settings are the output format shared by every pass.
type Settings struct {
	Width, Height int
	FPS           int
	VideoCodec    string
	AudioCodec    string
	Preset        string
	Quality       int
	SampleRate    int
}

func SettingsFrom(cfg config.Config) Settings {
	return Settings{
		Width:      cfg.Frame.Width,
		Height:     cfg.Frame.Height,
		FPS:        cfg.Frame.FPS,
		VideoCodec: cfg.Encoder.VideoCodec,
		AudioCodec: cfg.Encoder.AudioCodec,
		Preset:     cfg.Encoder.Preset,
		Quality:    cfg.Encoder.Quality,
		SampleRate: cfg.Encoder.SampleRate,
	}
}
