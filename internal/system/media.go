package system

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProbeTimeout bounds a single ffprobe call.
var ProbeTimeout = 30 * time.Second

// MediaInfo is the subset of ffprobe output the pipeline cares about.
type MediaInfo struct {
	Duration float64
	Width    int
	Height   int
	HasVideo bool
	HasAudio bool
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

var ErrNoDuration = errors.New("media has no duration")

// Probe runs ffprobe on path.
func Probe(path string) (MediaInfo, error) {
	out, err := ffmpeg.ProbeWithTimeout(path, ProbeTimeout, ffmpeg.KwArgs{})
	if err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe([]byte(out))
}

func parseProbe(data []byte) (MediaInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(data, &p); err != nil {
		return MediaInfo{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	var info MediaInfo
	info.Duration, _ = strconv.ParseFloat(p.Format.Duration, 64)
	for _, s := range p.Streams {
		switch s.CodecType {
		case "video":
			if !info.HasVideo {
				info.Width, info.Height = s.Width, s.Height
			}
			info.HasVideo = true
		case "audio":
			info.HasAudio = true
		}
		if info.Duration <= 0 {
			info.Duration, _ = strconv.ParseFloat(s.Duration, 64)
		}
	}
	return info, nil
}

// Duration returns the container duration of a media file in seconds.
func Duration(path string) (float64, error) {
	info, err := Probe(path)
	if err != nil {
		return 0, err
	}
	if info.Duration <= 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrNoDuration)
	}
	return info.Duration, nil
}
