package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/promoreel/internal/animation"
	"github.com/ivlev/promoreel/internal/system"
)

// Item is one animated image of a layer. The image bounds are its resting
// placement in frame coordinates.
type Item struct {
	Image *image.RGBA
	Start float64
	Anim  animation.Descriptor
}

// Layer is a transparent overlay track spanning a whole segment. It renders
// to raw RGBA frames for ffmpeg.
type Layer struct {
	Width, Height int
	Duration      float64
	Items         []Item
}

func NewLayer(width, height int, duration float64) *Layer {
	return &Layer{Width: width, Height: height, Duration: duration}
}

// AddBlock sequences a rendered block with the descriptor, starting at
// start and lasting at most maxDuration. It returns the overlay length.
func (l *Layer) AddBlock(b *Block, start float64, d animation.Descriptor, maxDuration float64) float64 {
	if remaining := l.Duration - start; maxDuration > remaining {
		maxDuration = remaining
	}
	cues, total := animation.Plan(d, b.WordsPerLine(), maxDuration)

	for _, c := range cues {
		var rect image.Rectangle
		switch {
		case c.Line < 0:
			rect = b.Bounds
		case c.Word < 0:
			rect = b.Lines[c.Line].Rect
		default:
			rect = b.Lines[c.Line].Words[c.Word].Rect
		}
		if rect.Empty() {
			continue
		}
		l.Items = append(l.Items, Item{
			Image: b.Image.SubImage(rect).(*image.RGBA),
			Start: start + c.Start,
			Anim:  c.Descriptor(d),
		})
	}
	return total
}

// AddImage shows img for duration seconds starting at start.
func (l *Layer) AddImage(img *image.RGBA, start, duration float64, d animation.Descriptor) {
	if remaining := l.Duration - start; duration > remaining {
		duration = remaining
	}
	if duration <= 0 || img.Bounds().Empty() {
		return
	}
	d.Duration = duration
	l.Items = append(l.Items, Item{Image: img, Start: start, Anim: d})
}

func (l *Layer) Empty() bool { return len(l.Items) == 0 }

func (l *Layer) Size() image.Point { return image.Pt(l.Width, l.Height) }

func (l *Layer) FrameCount(fps int) int {
	return int(math.Round(l.Duration * float64(fps)))
}

// RenderFrame clears dst and draws every item visible at t.
func (l *Layer) RenderFrame(dst *image.RGBA, t float64) {
	clear(dst.Pix)
	for _, it := range l.Items {
		if t < it.Start || t > it.Start+it.Anim.Duration {
			continue
		}
		drawItem(dst, it, animation.Evaluate(it.Anim, t-it.Start))
	}
}

func drawItem(dst *image.RGBA, it Item, st animation.State) {
	if st.Opacity <= 0 || st.Scale <= 0 {
		return
	}
	src := it.Image.Bounds()

	if st.Scale == 1 && st.Opacity >= 1 && st.OffsetX == 0 && st.OffsetY == 0 {
		draw.Draw(dst, src, it.Image, src.Min, draw.Over)
		return
	}

	w := int(math.Round(float64(src.Dx()) * st.Scale))
	h := int(math.Round(float64(src.Dy()) * st.Scale))
	if w <= 0 || h <= 0 {
		return
	}
	cx := float64(src.Min.X+src.Max.X)/2 + st.OffsetX
	cy := float64(src.Min.Y+src.Max.Y)/2 + st.OffsetY
	x0 := int(math.Round(cx - float64(w)/2))
	y0 := int(math.Round(cy - float64(h)/2))
	target := image.Rect(x0, y0, x0+w, y0+h)

	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(st.Opacity * 255))})
	xdraw.ApproxBiLinear.Scale(dst, target, it.Image, src, xdraw.Over, &xdraw.Options{DstMask: mask})
}

// WriteRaw streams every frame of the layer as packed RGBA.
func (l *Layer) WriteRaw(w io.Writer, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("invalid fps %d", fps)
	}
	frame := system.GetImage(image.Rect(0, 0, l.Width, l.Height))
	defer system.PutImage(frame)

	n := l.FrameCount(fps)
	for i := 0; i < n; i++ {
		l.RenderFrame(frame, float64(i)/float64(fps))
		if _, err := w.Write(frame.Pix); err != nil {
			return fmt.Errorf("write frame %d/%d: %w", i+1, n, err)
		}
	}
	return nil
}
