package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Style describes how a text block is rasterized on a frame.
type Style struct {
	Width, Height int
	FontSize      int
	Color         color.Color
	OffsetY       int // shift of the block center from the frame center
}

// Word is the placement of a single word inside a rendered block.
type Word struct {
	Text string
	Rect image.Rectangle
}

// Line is the placement of a rendered line.
type Line struct {
	Text  string
	Rect  image.Rectangle
	Words []Word
}

// Block is a rendered text overlay: a transparent frame-sized image with the
// text drawn as a centered block.
type Block struct {
	Image    *image.RGBA
	Lines    []Line
	Bounds   image.Rectangle
	FontSize int
	Fallback bool
}

// Renderer rasterizes text with a preferred bold font and a built-in
// fallback. It is safe to reuse across overlays but not concurrently.
type Renderer struct {
	fonts         *fontSet
	minFontSize   int
	maxWidthRatio float64
	lineSpacing   float64
}

type Options struct {
	FontPath      string
	FallbackScale float64
	MinFontSize   int
	MaxWidthRatio float64
	LineSpacing   float64
}

func NewRenderer(opts Options) *Renderer {
	if opts.MinFontSize <= 0 {
		opts.MinFontSize = 8
	}
	if opts.MaxWidthRatio <= 0 || opts.MaxWidthRatio > 1 {
		opts.MaxWidthRatio = 0.9
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = 1
	}
	return &Renderer{
		fonts:         newFontSet(opts.FontPath, opts.FallbackScale),
		minFontSize:   opts.MinFontSize,
		maxWidthRatio: opts.MaxWidthRatio,
		lineSpacing:   opts.LineSpacing,
	}
}

// FontError reports why the preferred font could not be loaded, if it
// could not.
func (r *Renderer) FontError() error {
	return r.fonts.loadErr
}

// MaxLineWidth is the widest a rendered line may be on a frame of width w.
func (r *Renderer) MaxLineWidth(w int) int {
	return int(math.Floor(float64(w) * r.maxWidthRatio))
}

// Render rasterizes text onto a transparent frame-sized canvas.
func (r *Renderer) Render(text string, st Style) (*Block, error) {
	if st.Width <= 0 || st.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", st.Width, st.Height)
	}
	if st.FontSize <= 0 {
		return nil, fmt.Errorf("invalid font size %d", st.FontSize)
	}
	if st.Color == nil {
		st.Color = color.White
	}

	lines := strings.Split(Sanitize(text), "\n")
	limit := r.MaxLineWidth(st.Width)

	f := r.fitFace(lines, st.FontSize, limit)
	defer f.close()

	lineHeight := f.height()
	step := int(math.Round(float64(lineHeight) * r.lineSpacing))
	layouts := make([]lineLayout, len(lines))
	totalHeight := 0
	for i, l := range lines {
		layouts[i] = layoutLine(f, l, limit)
		h := layouts[i].height(lineHeight)
		if i < len(lines)-1 {
			h = max(h, step)
		}
		layouts[i].advance = h
		totalHeight += h
	}

	img := image.NewRGBA(image.Rect(0, 0, st.Width, st.Height))
	block := &Block{
		Image:    img,
		FontSize: f.size(),
		Fallback: f.fallback(),
	}

	y := (st.Height-totalHeight)/2 + st.OffsetY
	for i, lay := range layouts {
		x := (st.Width - lay.width) / 2
		line := drawLine(img, f, lay, x, y, lineHeight, st.Color)
		line.Text = lines[i]
		block.Lines = append(block.Lines, line)
		block.Bounds = block.Bounds.Union(line.Rect)
		y += lay.advance
	}

	return block, nil
}

// fitFace applies the overflow policy: while the widest line exceeds the
// limit, shrink the font in proportion and resolve it again through the
// same preferred/fallback chain.
func (r *Renderer) fitFace(lines []string, size, limit int) face {
	f := r.fonts.face(size)
	for {
		widest := 0
		for _, l := range lines {
			widest = max(widest, f.width(l))
		}
		if widest <= limit || size <= r.minFontSize {
			return f
		}

		next := int(math.Floor(float64(size) * float64(limit) / float64(widest)))
		if next >= size {
			next = size - 1
		}
		if next < r.minFontSize {
			next = r.minFontSize
		}
		size = next
		f.close()
		f = r.fonts.face(size)
	}
}

type lineLayout struct {
	text    string
	natural int     // width at the face size
	width   int     // width on the frame
	scale   float64 // <1 when the line had to be squeezed to the limit
	advance int
}

func layoutLine(f face, text string, limit int) lineLayout {
	w := f.width(text)
	lay := lineLayout{text: text, natural: w, width: w, scale: 1}
	if w > limit && w > 0 {
		lay.scale = float64(limit) / float64(w)
		lay.width = limit
	}
	return lay
}

func (l lineLayout) height(lineHeight int) int {
	return int(math.Ceil(float64(lineHeight) * l.scale))
}

func drawLine(dst *image.RGBA, f face, lay lineLayout, x, y, lineHeight int, c color.Color) Line {
	h := lay.height(lineHeight)
	line := Line{Rect: image.Rect(x, y, x+lay.width, y+h)}

	if lay.scale == 1 {
		f.draw(dst, x, y, lay.text, c)
	} else if lay.natural > 0 {
		tmp := image.NewRGBA(image.Rect(0, 0, lay.natural, lineHeight))
		f.draw(tmp, 0, 0, lay.text, c)
		xdraw.CatmullRom.Scale(dst, line.Rect, tmp, tmp.Bounds(), xdraw.Over, nil)
	}

	line.Words = wordRects(f, lay, x, y, h)
	return line
}

// wordRects splits a line on spaces and reports where every word sits.
func wordRects(f face, lay lineLayout, x, y, h int) []Word {
	var words []Word
	offset := 0
	for _, token := range strings.SplitAfter(lay.text, " ") {
		word := strings.TrimRight(token, " ")
		if word != "" {
			x0 := x + int(math.Floor(float64(f.width(lay.text[:offset]))*lay.scale))
			x1 := x + int(math.Ceil(float64(f.width(lay.text[:offset+len(word)]))*lay.scale))
			words = append(words, Word{Text: word, Rect: image.Rect(x0, y, min(x1, x+lay.width), y+h)})
		}
		offset += len(token)
	}
	return words
}

// WordsPerLine reports the word count of every line, the shape animation
// planning works on.
func (b *Block) WordsPerLine() []int {
	counts := make([]int, len(b.Lines))
	for i, l := range b.Lines {
		counts[i] = len(l.Words)
	}
	return counts
}
