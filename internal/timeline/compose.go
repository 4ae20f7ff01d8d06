package timeline

import (
	"fmt"
	"log"

	"github.com/ivlev/promoreel/internal/animation"
	"github.com/ivlev/promoreel/internal/script"
)

// Source is a background clip resolved on disk.
type Source struct {
	Path   string
	Width  int // 0 when unknown
	Height int
}

type Params struct {
	Width, Height, FPS int
	FontSize           int
	CaptionOffset      int
	Animation          animation.Descriptor // chunk captions, unless the scene has its own
	Sources            map[string]Source    // by scene id
}

// Compose lays measured scenes out back to back. Narration chunks of a scene
// follow each other, each chunk's caption shows while it plays, and the CTA
// goes over the end of the video or after it.
func Compose(scenes []script.Scene, cta *script.CallToAction, p Params) (*Timeline, error) {
	tl := &Timeline{Width: p.Width, Height: p.Height, FPS: p.FPS}

	pos := 0.0
	for i, sc := range scenes {
		if sc.Duration <= 0 {
			return nil, fmt.Errorf("scene %s is not measured", sc.ID)
		}
		seg := Segment{
			Index:     i,
			SceneID:   sc.ID,
			Start:     pos,
			Duration:  sc.Duration,
			TrimStart: sc.TrimStart,
		}
		if src, ok := p.Sources[sc.ID]; ok && src.Path != "" {
			seg.Source, seg.SrcWidth, seg.SrcHeight = src.Path, src.Width, src.Height
		} else {
			log.Printf("[!] Scene %s: no footage for %s, using a solid background", sc.ID, sc.Video)
		}

		seg.Audio, seg.Captions = chunkTracks(sc, p)
		seg.Captions = append(seg.Captions, standaloneCaptions(sc, p)...)

		tl.Segments = append(tl.Segments, seg)
		pos += seg.Duration
	}

	if cta != nil {
		placeCTA(tl, cta, p)
	}

	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return tl, nil
}

func chunkTracks(sc script.Scene, p Params) ([]AudioTrack, []CaptionTrack) {
	anim := p.Animation
	if sc.Animation != nil {
		anim = *sc.Animation
	}
	fontSize := p.FontSize
	if sc.FontSize > 0 {
		fontSize = sc.FontSize
	}

	var audio []AudioTrack
	var captions []CaptionTrack
	offset := 0.0
	for i, c := range sc.Chunks {
		if offset >= sc.Duration {
			break
		}
		d := min(c.Duration, sc.Duration-offset)
		if !c.Silent && c.Path != "" && d > 0 {
			audio = append(audio, AudioTrack{Path: c.Path, Offset: offset, Duration: d})
		}

		// the last caption stays until the scene ends
		show := d
		if i == len(sc.Chunks)-1 {
			show = sc.Duration - offset
		}
		if show > 0 {
			captions = append(captions, CaptionTrack{
				Text:      c.Text,
				Start:     offset,
				Duration:  show,
				FontSize:  fontSize,
				OffsetY:   p.CaptionOffset,
				Animation: anim,
			})
		}
		offset += c.Duration
	}
	return audio, captions
}

// standaloneCaptions splits the scene evenly between the caption texts.
func standaloneCaptions(sc script.Scene, p Params) []CaptionTrack {
	if sc.Captions == nil || len(sc.Captions.Texts) == 0 {
		return nil
	}
	fontSize := p.FontSize
	if sc.Captions.FontSize > 0 {
		fontSize = sc.Captions.FontSize
	}

	n := len(sc.Captions.Texts)
	share := sc.Duration / float64(n)
	tracks := make([]CaptionTrack, 0, n)
	for i, text := range sc.Captions.Texts {
		tracks = append(tracks, CaptionTrack{
			Text:      text,
			Start:     float64(i) * share,
			Duration:  share,
			FontSize:  fontSize,
			OffsetY:   sc.Captions.OffsetY,
			Animation: sc.Captions.Animation,
		})
	}
	return tracks
}

func placeCTA(tl *Timeline, cta *script.CallToAction, p Params) {
	fontSize := p.FontSize
	if cta.FontSize > 0 {
		fontSize = cta.FontSize
	}
	caption := CaptionTrack{
		Text:      cta.Text,
		Duration:  cta.Duration,
		FontSize:  fontSize,
		OffsetY:   cta.OffsetY,
		Animation: cta.Animation,
	}
	placed := &CTA{Mode: cta.Mode, LinkURL: cta.LinkURL, QRSize: cta.QRSize}
	if placed.Mode == "" {
		placed.Mode = script.CTAOverlay
	}

	total := tl.Duration()
	if placed.Mode == script.CTAAppend {
		placed.Start = total
		tl.Segments = append(tl.Segments, Segment{
			Index:    len(tl.Segments),
			SceneID:  "cta",
			Start:    total,
			Duration: cta.Duration,
			Captions: []CaptionTrack{caption},
		})
	} else {
		caption.Duration = min(cta.Duration, total)
		placed.Start = total - caption.Duration
	}

	placed.Caption = caption
	tl.CTA = placed
}
