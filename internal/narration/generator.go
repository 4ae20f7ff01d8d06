package narration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ivlev/promoreel/internal/system"
)

// Asset is a narration file and its measured length. Silent assets have no
// file and a default duration.
type Asset struct {
	SceneID  string
	ChunkID  string
	Text     string
	Path     string
	Duration float64
	Silent   bool
	Cached   bool
}

// Prober measures the duration of an audio file in seconds.
type Prober interface {
	Duration(path string) (float64, error)
}

type ProberFunc func(path string) (float64, error)

func (f ProberFunc) Duration(path string) (float64, error) { return f(path) }

// FFProbe measures files with ffprobe.
var FFProbe Prober = ProberFunc(system.Duration)

// Generator synthesizes narration files, reusing files that already exist.
type Generator struct {
	Synth       Synthesizer
	Probe       Prober
	MaxAttempts int
	RetryDelay  time.Duration

	// Sleep waits between rate limited attempts. Nil uses a timer that
	// stops early when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewGenerator(synth Synthesizer, probe Prober, maxAttempts int, retryDelay time.Duration) *Generator {
	return &Generator{Synth: synth, Probe: probe, MaxAttempts: maxAttempts, RetryDelay: retryDelay}
}

// Generate makes sure path holds speech for text and measures it. An
// existing file is reused without calling the provider. Rate limits are
// retried up to MaxAttempts in total; other errors are returned at once.
func (g *Generator) Generate(ctx context.Context, text, path, voiceID string) (Asset, error) {
	asset := Asset{Text: text, Path: path}

	if system.FileExists(path) {
		fmt.Printf("[*] Audio exists, skipping: %s\n", path)
		asset.Cached = true
		return g.measure(asset)
	}

	attempts := max(g.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := g.synthesize(ctx, text, path, voiceID)
		if err == nil {
			fmt.Printf("[+++] Generated audio: %s\n", path)
			return g.measure(asset)
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimited) {
			return Asset{}, fmt.Errorf("narration %s: %w", path, err)
		}
		if attempt == attempts {
			break
		}

		log.Printf("[!] Rate limited (attempt %d/%d), waiting %s before retrying...", attempt, attempts, g.RetryDelay)
		if err := g.sleep(ctx, g.RetryDelay); err != nil {
			return Asset{}, fmt.Errorf("narration %s: %w", path, err)
		}
	}
	return Asset{}, fmt.Errorf("narration %s: giving up after %d attempts: %w", path, attempts, lastErr)
}

func (g *Generator) synthesize(ctx context.Context, text, path, voiceID string) error {
	body, err := g.Synth.Synthesize(ctx, text, voiceID)
	if err != nil {
		return err
	}
	defer body.Close()
	_, err = system.WriteAtomic(path, body)
	return err
}

func (g *Generator) measure(a Asset) (Asset, error) {
	d, err := g.Probe.Duration(a.Path)
	if err != nil {
		return Asset{}, fmt.Errorf("measure %s: %w", a.Path, err)
	}
	a.Duration = d
	return a, nil
}

func (g *Generator) sleep(ctx context.Context, d time.Duration) error {
	if g.Sleep != nil {
		return g.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
