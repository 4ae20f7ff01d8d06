package effects

import (
	"fmt"
	"math"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Delay shifts an audio stream by offset seconds on every channel.
func Delay(a *ffmpeg.Stream, offset float64) *ffmpeg.Stream {
	ms := int(math.Round(offset * 1000))
	if ms <= 0 {
		return a
	}
	return a.Filter("adelay", ffmpeg.Args{}, ffmpeg.KwArgs{"delays": strconv.Itoa(ms), "all": "1"})
}

// Normalize resamples to a common rate and stereo layout so tracks can be
// mixed and concatenated.
func Normalize(a *ffmpeg.Stream, sampleRate int) *ffmpeg.Stream {
	return a.Filter("aresample", ffmpeg.Args{strconv.Itoa(sampleRate)}).
		Filter("aformat", ffmpeg.Args{}, ffmpeg.KwArgs{"channel_layouts": "stereo"})
}

// Mix sums time-offset tracks without lowering their volume.
func Mix(tracks []*ffmpeg.Stream) *ffmpeg.Stream {
	if len(tracks) == 1 {
		return tracks[0]
	}
	return ffmpeg.Filter(tracks, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
		"inputs":    strconv.Itoa(len(tracks)),
		"duration":  "longest",
		"normalize": "0",
	})
}

// Fit pads with silence and cuts so the track lasts exactly duration.
func Fit(a *ffmpeg.Stream, duration float64) *ffmpeg.Stream {
	return a.Filter("apad", ffmpeg.Args{}).
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": fmt.Sprintf("%.3f", duration)})
}
