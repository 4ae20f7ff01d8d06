package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/promoreel/internal/effects"
	"github.com/ivlev/promoreel/internal/system"
	"github.com/ivlev/promoreel/internal/timeline"
)

// FFmpegEncoder builds ffmpeg graphs with ffmpeg-go and runs the ffmpeg
// binary. Overlay frames are streamed to its stdin.
type FFmpegEncoder struct {
	Settings
	Effect effects.Effect
	Binary string
}

func NewFFmpegEncoder(s Settings) *FFmpegEncoder {
	return &FFmpegEncoder{Settings: s, Effect: effects.Portrait{}, Binary: "ffmpeg"}
}

func (e *FFmpegEncoder) EncodeSegment(ctx context.Context, seg timeline.Segment, overlay FrameSource, out string) error {
	args, err := e.segmentArgs(seg, overlay, out)
	if err != nil {
		return err
	}
	if err := e.run(ctx, args, overlay); err != nil {
		return fmt.Errorf("segment %s: %w", seg.SceneID, err)
	}
	return nil
}

func (e *FFmpegEncoder) segmentArgs(seg timeline.Segment, overlay FrameSource, out string) ([]string, error) {
	if seg.Duration <= 0 {
		return nil, fmt.Errorf("segment %s has no duration", seg.SceneID)
	}
	dur := seconds(seg.Duration)

	var v *ffmpeg.Stream
	if seg.Source != "" {
		// loop the clip so short footage still fills the segment
		in := ffmpeg.Input(seg.Source, ffmpeg.KwArgs{"stream_loop": "-1", "ss": seconds(seg.TrimStart)})
		v = e.Effect.Apply(in.Video(), effects.Params{
			SrcWidth:  seg.SrcWidth,
			SrcHeight: seg.SrcHeight,
			Width:     e.Width,
			Height:    e.Height,
			FPS:       e.FPS,
		})
	} else {
		v = ffmpeg.Input(e.colorSource(), ffmpeg.KwArgs{"f": "lavfi"}).Video()
	}
	v = v.Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": dur}).
		Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"})

	if active(overlay) {
		ov, err := e.rawInput(overlay)
		if err != nil {
			return nil, err
		}
		v = v.Overlay(ov, "pass")
	}

	a := e.mixNarration(seg)

	kw := e.outputArgs()
	kw["t"] = dur
	return ffmpeg.Output([]*ffmpeg.Stream{v, a}, out, kw).OverWriteOutput().GetArgs(), nil
}

// mixNarration places every audio track at its offset and pads the result
// with silence to the segment length.
func (e *FFmpegEncoder) mixNarration(seg timeline.Segment) *ffmpeg.Stream {
	var tracks []*ffmpeg.Stream
	for _, t := range seg.Audio {
		a := effects.Normalize(ffmpeg.Input(t.Path).Audio(), e.SampleRate).
			Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": seconds(t.Duration)})
		tracks = append(tracks, effects.Delay(a, t.Offset))
	}
	if len(tracks) == 0 {
		tracks = append(tracks, ffmpeg.Input(e.silenceSource(), ffmpeg.KwArgs{"f": "lavfi"}).Audio())
	}
	return effects.Fit(effects.Mix(tracks), seg.Duration)
}

func (e *FFmpegEncoder) Concatenate(ctx context.Context, paths []string, out, tmpDir string) error {
	if len(paths) == 0 {
		return errors.New("nothing to concatenate")
	}
	list, err := writeConcatList(paths, tmpDir)
	if err != nil {
		return err
	}
	args := ffmpeg.Input(list, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(out, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().
		GetArgs()
	if err := e.run(ctx, args, nil); err != nil {
		return fmt.Errorf("concat: %w", err)
	}
	return nil
}

// writeConcatList writes the input file of the concat demuxer.
func writeConcatList(paths []string, tmpDir string) (string, error) {
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	list := filepath.Join(tmpDir, "inputs.txt")
	if _, err := system.WriteAtomic(list, strings.NewReader(b.String())); err != nil {
		return "", err
	}
	return list, nil
}

func (e *FFmpegEncoder) Finalize(ctx context.Context, input string, overlay FrameSource, overlayStart float64, out string) error {
	args, err := e.finalArgs(input, overlay, overlayStart, out)
	if err != nil {
		return err
	}
	if err := e.run(ctx, args, overlay); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	return nil
}

func (e *FFmpegEncoder) finalArgs(input string, overlay FrameSource, overlayStart float64, out string) ([]string, error) {
	in := ffmpeg.Input(input)
	v := in.Video().Filter("fps", ffmpeg.Args{strconv.Itoa(e.FPS)})

	if active(overlay) {
		ov, err := e.rawInput(overlay)
		if err != nil {
			return nil, err
		}
		if overlayStart > 0 {
			ov = ov.Filter("setpts", ffmpeg.Args{"PTS+" + seconds(overlayStart) + "/TB"})
		}
		v = v.Overlay(ov, "pass")
	}

	kw := e.outputArgs()
	kw["movflags"] = "+faststart"
	return ffmpeg.Output([]*ffmpeg.Stream{v, in.Audio()}, out, kw).OverWriteOutput().GetArgs(), nil
}

func (e *FFmpegEncoder) rawInput(overlay FrameSource) (*ffmpeg.Stream, error) {
	size := overlay.Size()
	if size.X != e.Width || size.Y != e.Height {
		return nil, fmt.Errorf("overlay is %dx%d, frame is %dx%d", size.X, size.Y, e.Width, e.Height)
	}
	return ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", size.X, size.Y),
		"framerate": strconv.Itoa(e.FPS),
	}), nil
}

func (e *FFmpegEncoder) outputArgs() ffmpeg.KwArgs {
	kw := system.QualityArgs(e.VideoCodec, e.Quality, e.Preset)
	kw["c:v"] = e.VideoCodec
	kw["pix_fmt"] = "yuv420p"
	kw["r"] = strconv.Itoa(e.FPS)
	kw["c:a"] = e.AudioCodec
	kw["ar"] = strconv.Itoa(e.SampleRate)
	return kw
}

func (e *FFmpegEncoder) colorSource() string {
	return fmt.Sprintf("color=c=black:s=%dx%d:r=%d", e.Width, e.Height, e.FPS)
}

func (e *FFmpegEncoder) silenceSource() string {
	return fmt.Sprintf("anullsrc=r=%d:cl=stereo", e.SampleRate)
}

// run executes ffmpeg. With an overlay, frames are written to stdin while the
// process runs; a failure of ffmpeg itself wins over the broken pipe it
// causes on the writer side.
func (e *FFmpegEncoder) run(ctx context.Context, args []string, overlay FrameSource) error {
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if !active(overlay) {
		if err := cmd.Run(); err != nil {
			return processError(err, stderr.Bytes())
		}
		return nil
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", bin, err)
	}

	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		if err := overlay.WriteRaw(stdin, e.FPS); err != nil {
			return fmt.Errorf("feed overlay: %w", err)
		}
		return nil
	})
	var waitErr error
	g.Go(func() error {
		waitErr = cmd.Wait()
		return waitErr
	})

	err = g.Wait()
	if waitErr != nil {
		return processError(waitErr, stderr.Bytes())
	}
	// ffmpeg may stop reading once it has every frame it needs
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

const stderrTail = 12

func processError(err error, stderr []byte) error {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	if len(lines) > stderrTail {
		lines = lines[len(lines)-stderrTail:]
	}
	return fmt.Errorf("ffmpeg: %w\n%s", err, strings.Join(lines, "\n"))
}

func active(overlay FrameSource) bool {
	return overlay != nil && !overlay.Empty()
}

func seconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
