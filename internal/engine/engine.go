package engine

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/fetcher"
	"github.com/ivlev/promoreel/internal/narration"
	"github.com/ivlev/promoreel/internal/overlay"
	"github.com/ivlev/promoreel/internal/script"
	"github.com/ivlev/promoreel/internal/system"
	"github.com/ivlev/promoreel/internal/video"
)

// Fetcher downloads the footage of every job, skipping files already on disk.
type Fetcher interface {
	FetchAll(ctx context.Context, jobs []fetcher.Job) map[string]error
}

// Narrator turns a chunk into an audio file, applying the recovery policy.
type Narrator interface {
	Narrate(ctx context.Context, text, path, voiceID string) (narration.Asset, error)
}

// VideoProject is one pipeline run: fetch, narrate, compose, encode.
type VideoProject struct {
	Config   config.Config
	Script   *script.Script
	Fetcher  Fetcher // nil skips the download stage
	Narrator Narrator
	Encoder  video.Encoder
	Renderer *overlay.Renderer
	Probe    func(path string) (system.MediaInfo, error)

	RunID string

	color   color.RGBA
	assets  []narration.Asset // by chunk, in script order
	tempDir string
	times   stageTimes
}

func NewVideoProject(cfg config.Config, sc *script.Script, f Fetcher, n Narrator, enc video.Encoder) *VideoProject {
	return &VideoProject{
		Config:   cfg,
		Script:   sc,
		Fetcher:  f,
		Narrator: n,
		Encoder:  enc,
		Renderer: overlay.NewRenderer(overlay.Options{
			FontPath:      cfg.Text.FontPath,
			FallbackScale: cfg.Text.FallbackScale,
			MinFontSize:   cfg.Text.MinFontSize,
			MaxWidthRatio: cfg.Text.MaxWidthRatio,
			LineSpacing:   cfg.Text.LineSpacing,
		}),
		Probe: system.Probe,
		RunID: uuid.NewString(),
	}
}

// Run produces Config.Output. The script is not modified, so a project may
// be run again.
func (p *VideoProject) Run(ctx context.Context) error {
	start := time.Now()
	if p.Script == nil || len(p.Script.Scenes) == 0 {
		return errors.New("script has no scenes")
	}
	if p.Narrator == nil || p.Encoder == nil {
		return errors.New("project needs a narrator and an encoder")
	}

	c, err := overlay.ParseColor(p.Config.Text.Color)
	if err != nil {
		return fmt.Errorf("text color: %w", err)
	}
	p.color = c
	if err := p.Renderer.FontError(); err != nil {
		log.Printf("[!] Preferred font unavailable, using the fallback: %v", err)
	}

	if p.Config.Paths.TempDir != "" {
		if err := os.MkdirAll(p.Config.Paths.TempDir, 0755); err != nil {
			return err
		}
	}
	p.tempDir, err = os.MkdirTemp(p.Config.Paths.TempDir, "promoreel_"+p.RunID+"_")
	if err != nil {
		return err
	}
	if p.Config.KeepTemp {
		fmt.Printf("[*] Temporary files kept in %s\n", p.tempDir)
	} else {
		defer os.RemoveAll(p.tempDir)
	}

	cfg := p.Config
	fmt.Println("--- [PROMOREEL] ---")
	fmt.Printf("[*] Run: %s | Scenes: %d\n", p.RunID, len(p.Script.Scenes))
	fmt.Printf("[*] Frame: %dx%d @ %d FPS | Codec: %s\n", cfg.Frame.Width, cfg.Frame.Height, cfg.Frame.FPS, cfg.Encoder.VideoCodec)
	fmt.Println("-------------------")

	scenes := cloneScenes(p.Script.Scenes)

	fetchStart := time.Now()
	p.fetch(ctx, scenes)
	p.times.Fetch = time.Since(fetchStart)
	if err := ctx.Err(); err != nil {
		return err
	}

	narrateStart := time.Now()
	if err := p.narrate(ctx, scenes); err != nil {
		return err
	}
	p.times.Narrate = time.Since(narrateStart)

	tl, err := p.compose(scenes)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Timeline: %d segments, %.2fs\n", len(tl.Segments), tl.Duration())

	encodeStart := time.Now()
	segments, err := p.encodeSegments(ctx, tl)
	if err != nil {
		return err
	}
	p.times.Encode = time.Since(encodeStart)

	fmt.Println("[*] Joining segments...")
	concatStart := time.Now()
	joined := filepath.Join(p.tempDir, "joined.mp4")
	if err := p.Encoder.Concatenate(ctx, segments, joined, p.tempDir); err != nil {
		return err
	}
	p.times.Concat = time.Since(concatStart)

	fmt.Println("[*] Final encode...")
	finalStart := time.Now()
	ctaLayer, ctaStart := p.ctaLayer(tl)
	if err := p.Encoder.Finalize(ctx, joined, ctaLayer, ctaStart, cfg.Output); err != nil {
		return err
	}
	p.times.Finalize = time.Since(finalStart)
	p.times.Total = time.Since(start)

	fmt.Printf("[+++] Done! Video saved: %s (%.2fs)\n", cfg.Output, tl.Duration())
	if cfg.ShowStats {
		p.report(tl)
	}
	return nil
}

// cloneScenes copies the scenes deep enough for measuring to leave the
// script untouched.
func cloneScenes(in []script.Scene) []script.Scene {
	out := make([]script.Scene, len(in))
	for i, s := range in {
		s.Chunks = append([]script.Chunk(nil), s.Chunks...)
		s.Duration = 0
		out[i] = s
	}
	return out
}
