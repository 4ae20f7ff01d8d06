package engine

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/ivlev/promoreel/internal/animation"
	"github.com/ivlev/promoreel/internal/fetcher"
	"github.com/ivlev/promoreel/internal/script"
	"github.com/ivlev/promoreel/internal/system"
	"github.com/ivlev/promoreel/internal/timeline"
)

func (p *VideoProject) fetch(ctx context.Context, scenes []script.Scene) {
	if p.Fetcher == nil {
		fmt.Println("[*] Footage download skipped")
		return
	}
	var jobs []fetcher.Job
	for _, s := range scenes {
		if s.Query == "" {
			continue
		}
		jobs = append(jobs, fetcher.Job{Query: s.Query, Filename: s.Video})
	}
	fmt.Printf("[*] Fetching footage for %d scenes...\n", len(jobs))
	failed := p.Fetcher.FetchAll(ctx, jobs)
	if len(failed) > 0 {
		log.Printf("[!] %d of %d clips unavailable, their scenes get a solid background", len(failed), len(jobs))
	}
}

// narrate fills in the audio of every chunk and fixes the scene durations.
func (p *VideoProject) narrate(ctx context.Context, scenes []script.Scene) error {
	cfg := p.Config
	p.assets = p.assets[:0]
	for i := range scenes {
		s := &scenes[i]
		for j := range s.Chunks {
			c := &s.Chunks[j]
			path := filepath.Join(cfg.Paths.Audio, c.AudioFile())
			asset, err := p.Narrator.Narrate(ctx, c.NarrationText(), path, cfg.Narration.VoiceID)
			if err != nil {
				return fmt.Errorf("narrate %s: %w", c.ID, err)
			}
			asset.SceneID, asset.ChunkID = s.ID, c.ID
			p.assets = append(p.assets, asset)
			c.Path, c.Duration, c.Silent = asset.Path, asset.Duration, asset.Silent

			switch {
			case asset.Silent:
				fmt.Printf("[>] %s/%s: silent %.2fs\n", asset.SceneID, asset.ChunkID, c.Duration)
			case asset.Cached:
				fmt.Printf("[>] %s/%s: %.2fs (existing)\n", asset.SceneID, asset.ChunkID, c.Duration)
			default:
				fmt.Printf("[>] %s/%s: %.2fs\n", asset.SceneID, asset.ChunkID, c.Duration)
			}
		}
		if err := s.Measure(cfg.Narration.MinSceneDuration); err != nil {
			return err
		}
		fmt.Printf("[*] Scene %s: %.2fs\n", s.ID, s.Duration)
	}
	return nil
}

func (p *VideoProject) compose(scenes []script.Scene) (*timeline.Timeline, error) {
	cfg := p.Config
	params := timeline.Params{
		Width:         cfg.Frame.Width,
		Height:        cfg.Frame.Height,
		FPS:           cfg.Frame.FPS,
		FontSize:      cfg.Text.FontSize,
		CaptionOffset: cfg.Text.CaptionOffset,
		Animation:     p.captionAnimation(),
		Sources:       p.resolveSources(scenes),
	}
	tl, err := timeline.Compose(scenes, p.Script.CTA, params)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	return tl, nil
}

func (p *VideoProject) captionAnimation() animation.Descriptor {
	a := p.Config.Animation
	return animation.Descriptor{
		Kind:      animation.Kind(a.Kind),
		WordDelay: a.WordDelay,
		LineDelay: a.LineDelay,
		FadeIn:    a.FadeIn,
		FadeOut:   a.FadeOut,
		Bounce:    a.Bounce,
		Amplitude: a.FloatAmplitude,
		Frequency: a.FloatFrequency,
	}
}

// resolveSources keeps the clips that exist and can be probed. Unknown
// sizes are left at zero for ffmpeg to work out.
func (p *VideoProject) resolveSources(scenes []script.Scene) map[string]timeline.Source {
	sources := map[string]timeline.Source{}
	for _, s := range scenes {
		path := filepath.Join(p.Config.Paths.Videos, s.Video)
		if !system.FileExists(path) {
			continue
		}
		src := timeline.Source{Path: path}
		if p.Probe != nil {
			info, err := p.Probe(path)
			if err != nil {
				log.Printf("[!] Cannot probe %s: %v", path, err)
				continue
			}
			if !info.HasVideo {
				log.Printf("[!] %s has no video stream", path)
				continue
			}
			src.Width, src.Height = info.Width, info.Height
		}
		sources[s.ID] = src
	}
	return sources
}
