package effects

import (
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Params describe the frames an effect must produce.
type Params struct {
	SrcWidth  int // 0 when the source size is unknown
	SrcHeight int
	Width     int
	Height    int
	FPS       int
}

// Effect turns a decoded source stream into frames of the output size.
type Effect interface {
	Apply(src *ffmpeg.Stream, p Params) *ffmpeg.Stream
}

// Portrait fills the output frame without distorting the source: scale
// until both sides cover the frame, then crop the center.
type Portrait struct{}

func (Portrait) Apply(src *ffmpeg.Stream, p Params) *ffmpeg.Stream {
	var s *ffmpeg.Stream
	if p.SrcWidth > 0 && p.SrcHeight > 0 {
		w, h := CoverSize(p.SrcWidth, p.SrcHeight, p.Width, p.Height)
		x, y := (w-p.Width)/2, (h-p.Height)/2
		s = src.Filter("scale", ffmpeg.Args{itoa(w), itoa(h)}).
			Filter("crop", ffmpeg.Args{itoa(p.Width), itoa(p.Height), itoa(x), itoa(y)})
	} else {
		s = src.Filter("scale", ffmpeg.Args{itoa(p.Width), itoa(p.Height)}, ffmpeg.KwArgs{"force_original_aspect_ratio": "increase"}).
			Filter("crop", ffmpeg.Args{itoa(p.Width), itoa(p.Height)})
	}
	s = s.Filter("setsar", ffmpeg.Args{"1"})
	if p.FPS > 0 {
		s = s.Filter("fps", ffmpeg.Args{itoa(p.FPS)})
	}
	return s
}

// CoverSize is the smallest even size with the aspect ratio of src that
// covers dst on both axes.
func CoverSize(srcW, srcH, dstW, dstH int) (int, int) {
	var w, h int
	if srcW*dstH >= dstW*srcH {
		// source is wider than the target: match heights
		h = dstH
		w = ceilDiv(srcW*dstH, srcH)
	} else {
		w = dstW
		h = ceilDiv(srcH*dstW, srcW)
	}
	return even(max(w, dstW)), even(max(h, dstH))
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func even(n int) int { return n + n%2 }

func itoa(n int) string { return strconv.Itoa(n) }
