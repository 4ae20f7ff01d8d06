package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// face is the small surface the layout code needs from a font.
type face interface {
	width(s string) int
	height() int
	ascent() int
	draw(dst draw.Image, x, y int, s string, c color.Color)
	size() int
	fallback() bool
	close()
}

// vectorFace wraps a scalable OpenType face.
type vectorFace struct {
	f  font.Face
	pt int
}

func (v *vectorFace) width(s string) int { return font.MeasureString(v.f, s).Ceil() }
func (v *vectorFace) height() int        { return v.f.Metrics().Height.Ceil() }
func (v *vectorFace) ascent() int        { return v.f.Metrics().Ascent.Ceil() }
func (v *vectorFace) size() int          { return v.pt }
func (v *vectorFace) fallback() bool     { return false }
func (v *vectorFace) close()             { v.f.Close() }

func (v *vectorFace) draw(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: v.f,
		Dot:  fixed.P(x, y+v.ascent()),
	}
	d.DrawString(s)
}

// bitmapFace is the built-in 7x13 face, drawn at native size and scaled to
// the requested pixel height.
type bitmapFace struct {
	scale float64
	px    int
}

func newBitmapFace(px int) *bitmapFace {
	if px < 1 {
		px = 1
	}
	return &bitmapFace{scale: float64(px) / float64(basicfont.Face7x13.Height), px: px}
}

func (b *bitmapFace) native(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

func (b *bitmapFace) width(s string) int { return int(math.Ceil(float64(b.native(s)) * b.scale)) }
func (b *bitmapFace) height() int {
	return int(math.Ceil(float64(basicfont.Face7x13.Height) * b.scale))
}
func (b *bitmapFace) ascent() int {
	return int(math.Ceil(float64(basicfont.Face7x13.Ascent) * b.scale))
}
func (b *bitmapFace) size() int      { return b.px }
func (b *bitmapFace) fallback() bool { return true }
func (b *bitmapFace) close()         {}

func (b *bitmapFace) draw(dst draw.Image, x, y int, s string, c color.Color) {
	w := b.native(s)
	if w == 0 {
		return
	}
	small := image.NewRGBA(image.Rect(0, 0, w, basicfont.Face7x13.Height))
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, basicfont.Face7x13.Ascent),
	}
	d.DrawString(s)

	target := image.Rect(x, y, x+b.width(s), y+b.height())
	xdraw.NearestNeighbor.Scale(dst, target, small, small.Bounds(), xdraw.Over, nil)
}

// fontSet resolves faces: the preferred bold font at the requested size,
// otherwise the basic face at a reduced size.
type fontSet struct {
	preferred     *opentype.Font
	loadErr       error
	fallbackScale float64
}

func newFontSet(path string, fallbackScale float64) *fontSet {
	fs := &fontSet{fallbackScale: fallbackScale}
	data := gobold.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			fs.loadErr = fmt.Errorf("read font %s: %w", path, err)
			return fs
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		fs.loadErr = fmt.Errorf("parse font: %w", err)
		return fs
	}
	fs.preferred = f
	return fs
}

func (fs *fontSet) face(px int) face {
	if fs.preferred != nil {
		f, err := opentype.NewFace(fs.preferred, &opentype.FaceOptions{
			Size:    float64(px),
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return &vectorFace{f: f, pt: px}
		}
	}
	scale := fs.fallbackScale
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	return newBitmapFace(int(float64(px) * scale))
}
