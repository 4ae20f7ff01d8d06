package system

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// BestH264Encoder picks a hardware H.264 encoder when ffmpeg offers one:
// VideoToolbox on macOS, then NVENC, otherwise libx264.
func BestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// QualityArgs maps a quality value to the rate control flags of the encoder.
// For VideoToolbox quality is a bitrate in units of 100 kbit/s.
func QualityArgs(encoder string, quality int, preset string) ffmpeg.KwArgs {
	switch encoder {
	case "h264_videotoolbox":
		return ffmpeg.KwArgs{"b:v": strconv.Itoa(quality*100) + "k"}
	case "h264_nvenc":
		return ffmpeg.KwArgs{"cq": strconv.Itoa(quality)}
	default:
		args := ffmpeg.KwArgs{"crf": strconv.Itoa(quality)}
		if preset != "" {
			args["preset"] = preset
		}
		return args
	}
}
