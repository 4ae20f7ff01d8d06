package engine

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/ivlev/promoreel/internal/animation"
	"github.com/ivlev/promoreel/internal/overlay"
	"github.com/ivlev/promoreel/internal/script"
	"github.com/ivlev/promoreel/internal/timeline"
	"github.com/ivlev/promoreel/internal/video"
)

const (
	defaultQRSize = 256
	qrMargin      = 40
)

// encodeSegments encodes the segments in order. A segment that fails is
// replaced by a solid placeholder with the same narration, then by a silent
// one, so the video keeps its length.
func (p *VideoProject) encodeSegments(ctx context.Context, tl *timeline.Timeline) ([]string, error) {
	paths := make([]string, 0, len(tl.Segments))
	for _, seg := range tl.Segments {
		out := filepath.Join(p.tempDir, fmt.Sprintf("seg_%02d.mp4", seg.Index))

		err := p.Encoder.EncodeSegment(ctx, seg, p.segmentLayer(tl, seg), out)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[!] Segment %d (%s) failed: %v", seg.Index+1, seg.SceneID, err)
			if err := p.encodePlaceholder(ctx, seg, out); err != nil {
				return nil, err
			}
		}

		paths = append(paths, out)
		fmt.Printf("[>] Ready: %d/%d\n", seg.Index+1, len(tl.Segments))
	}
	return paths, nil
}

func (p *VideoProject) encodePlaceholder(ctx context.Context, seg timeline.Segment, out string) error {
	ph := seg
	ph.Source = ""
	ph.Captions = nil
	err := p.Encoder.EncodeSegment(ctx, ph, nil, out)
	if err == nil {
		log.Printf("[!] Segment %d replaced by a placeholder", seg.Index+1)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	ph.Audio = nil
	if err := p.Encoder.EncodeSegment(ctx, ph, nil, out); err != nil {
		return fmt.Errorf("placeholder for segment %d: %w", seg.Index+1, err)
	}
	log.Printf("[!] Segment %d replaced by a silent placeholder", seg.Index+1)
	return nil
}

// segmentLayer renders the captions of a segment. Captions that fail to
// render are dropped. It returns nil when nothing is left to draw.
func (p *VideoProject) segmentLayer(tl *timeline.Timeline, seg timeline.Segment) video.FrameSource {
	layer := overlay.NewLayer(tl.Width, tl.Height, seg.Duration)
	appended := tl.CTA != nil && tl.CTA.Mode == script.CTAAppend && seg.Index == len(tl.Segments)-1

	for _, c := range seg.Captions {
		block, ok := p.addCaption(layer, c, tl)
		if ok && appended {
			p.addQRCode(layer, block, tl.CTA, c.Start, c.Duration)
		}
	}
	if layer.Empty() {
		return nil
	}
	return layer
}

// ctaLayer returns the overlay of a CTA placed over the end of the video
// and the time it starts at.
func (p *VideoProject) ctaLayer(tl *timeline.Timeline) (video.FrameSource, float64) {
	if tl.CTA == nil || tl.CTA.Mode == script.CTAAppend {
		return nil, 0
	}
	cta := tl.CTA
	c := cta.Caption
	c.Start = 0
	layer := overlay.NewLayer(tl.Width, tl.Height, c.Duration)
	block, ok := p.addCaption(layer, c, tl)
	if ok {
		p.addQRCode(layer, block, cta, 0, c.Duration)
	}
	if layer.Empty() {
		return nil, 0
	}
	return layer, cta.Start
}

func (p *VideoProject) addCaption(layer *overlay.Layer, c timeline.CaptionTrack, tl *timeline.Timeline) (*overlay.Block, bool) {
	block, err := p.Renderer.Render(c.Text, overlay.Style{
		Width:    tl.Width,
		Height:   tl.Height,
		FontSize: c.FontSize,
		Color:    p.color,
		OffsetY:  c.OffsetY,
	})
	if err != nil {
		log.Printf("[!] Caption %q dropped: %v", c.Text, err)
		return nil, false
	}
	if block.Fallback {
		log.Printf("[!] Caption %q drawn with the fallback font at %dpx", c.Text, block.FontSize)
	}
	if layer.AddBlock(block, c.Start, c.Animation, c.Duration) <= 0 {
		log.Printf("[!] Caption %q has no visible cues", c.Text)
		return nil, false
	}
	return block, true
}

// addQRCode puts the CTA link under its text block.
func (p *VideoProject) addQRCode(layer *overlay.Layer, block *overlay.Block, cta *timeline.CTA, start, duration float64) {
	if cta.LinkURL == "" {
		return
	}
	size := cta.QRSize
	if size <= 0 {
		size = defaultQRSize
	}
	y := block.Bounds.Max.Y + qrMargin
	if y+size > layer.Height {
		y = layer.Height - size
	}
	qr, err := overlay.QRCode(cta.LinkURL, size, layer.Width, y)
	if err != nil {
		log.Printf("[!] QR code dropped: %v", err)
		return
	}
	// fades only, the code does not move
	anim := animation.Descriptor{FadeIn: cta.Caption.Animation.FadeIn, FadeOut: cta.Caption.Animation.FadeOut}
	layer.AddImage(qr, start, duration, anim)
}

var _ video.FrameSource = (*overlay.Layer)(nil)
