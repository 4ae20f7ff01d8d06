package video

import (
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/timeline"
)

type fakeOverlay struct {
	size  image.Point
	empty bool
}

func (f fakeOverlay) Size() image.Point { return f.size }
func (f fakeOverlay) Empty() bool       { return f.empty }
func (f fakeOverlay) WriteRaw(w io.Writer, fps int) error {
	_, err := w.Write(make([]byte, f.size.X*f.size.Y*4))
	return err
}

func testEncoder() *FFmpegEncoder {
	return NewFFmpegEncoder(SettingsFrom(config.Default()))
}

func TestSegmentArgs(t *testing.T) {
	e := testEncoder()
	seg := timeline.Segment{
		SceneID:   "scene2",
		Duration:  15,
		Source:    "assets/videos/robot_processing.mp4",
		SrcWidth:  1920,
		SrcHeight: 1080,
		TrimStart: 1.5,
		Audio: []timeline.AudioTrack{
			{Path: "assets/audio/scene2.mp3", Offset: 0, Duration: 6},
			{Path: "assets/audio/scene2b.mp3", Offset: 6, Duration: 5.5},
		},
	}
	args, err := e.segmentArgs(seg, fakeOverlay{size: image.Pt(1080, 1920)}, "seg_01.mp4")
	if err != nil {
		t.Fatal(err)
	}
	cmd := strings.Join(args, " ")
	t.Logf("ffmpeg %s", cmd)

	for _, want := range []string{
		"-stream_loop -1",
		"-ss 1.500",
		"-i assets/videos/robot_processing.mp4",
		"-i assets/audio/scene2.mp3",
		"-i assets/audio/scene2b.mp3",
		"-f rawvideo",
		"-pix_fmt rgba",
		"-s 1080x1920",
		"-i pipe:",
		"scale=3414:1920",
		"crop=1080:1920:1167:0",
		"overlay",
		"eof_action=pass",
		"adelay",
		"delays=6000",
		"amix",
		"inputs=2",
		"apad",
		"duration=15.000",
		"-c:v libx264",
		"-crf 23",
		"-preset medium",
		"-c:a aac",
		"-t 15.000",
		"-y",
		"seg_01.mp4",
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("Expected %q in the command", want)
		}
	}
	if strings.Contains(cmd, "anullsrc") {
		t.Error("Narrated segment should not use a silent source")
	}
}

func TestSegmentArgsPlaceholder(t *testing.T) {
	e := testEncoder()
	seg := timeline.Segment{SceneID: "cta", Duration: 5}
	args, err := e.segmentArgs(seg, nil, "seg_03.mp4")
	if err != nil {
		t.Fatal(err)
	}
	cmd := strings.Join(args, " ")

	for _, want := range []string{
		"-f lavfi",
		"color=c=black:s=1080x1920:r=30",
		"anullsrc=r=44100:cl=stereo",
		"-t 5.000",
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("Expected %q in %s", want, cmd)
		}
	}
	if strings.Contains(cmd, "pipe:") || strings.Contains(cmd, "-stream_loop") {
		t.Errorf("Placeholder must not read footage or frames: %s", cmd)
	}
}

func TestSegmentArgsSkipsEmptyOverlay(t *testing.T) {
	e := testEncoder()
	seg := timeline.Segment{SceneID: "s", Duration: 3, Source: "clip.mp4"}
	args, err := e.segmentArgs(seg, fakeOverlay{size: image.Pt(1080, 1920), empty: true}, "out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if cmd := strings.Join(args, " "); strings.Contains(cmd, "pipe:") {
		t.Errorf("Empty overlay should not be piped: %s", cmd)
	}
	// unknown source size falls back to ffmpeg's own cover scaling
	if cmd := strings.Join(args, " "); !strings.Contains(cmd, "force_original_aspect_ratio=increase") {
		t.Errorf("Expected aspect-preserving scale: %s", cmd)
	}
}

func TestSegmentArgsErrors(t *testing.T) {
	e := testEncoder()
	if _, err := e.segmentArgs(timeline.Segment{SceneID: "zero"}, nil, "out.mp4"); err == nil {
		t.Error("Expected an error for a zero-length segment")
	}
	seg := timeline.Segment{SceneID: "s", Duration: 2}
	if _, err := e.segmentArgs(seg, fakeOverlay{size: image.Pt(720, 1280)}, "out.mp4"); err == nil {
		t.Error("Expected an error for a mismatched overlay")
	}
}

func TestFinalArgs(t *testing.T) {
	e := testEncoder()
	args, err := e.finalArgs("joined.mp4", fakeOverlay{size: image.Pt(1080, 1920)}, 26.1, "robot_emotions.mp4")
	if err != nil {
		t.Fatal(err)
	}
	cmd := strings.Join(args, " ")
	for _, want := range []string{
		"-i joined.mp4",
		"fps=30",
		"PTS+26.100/TB",
		"-movflags +faststart",
		"-r 30",
		"robot_emotions.mp4",
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("Expected %q in %s", want, cmd)
		}
	}

	args, err = e.finalArgs("joined.mp4", nil, 0, "out.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if cmd := strings.Join(args, " "); strings.Contains(cmd, "overlay") {
		t.Errorf("No overlay expected: %s", cmd)
	}
}

func TestQualityArgsPerEncoder(t *testing.T) {
	tests := []struct {
		codec string
		want  string
	}{
		{"libx264", "-crf 23"},
		{"h264_nvenc", "-cq 23"},
		{"h264_videotoolbox", "-b:v 2300k"},
	}
	for _, tt := range tests {
		e := testEncoder()
		e.VideoCodec = tt.codec
		args, err := e.finalArgs("in.mp4", nil, 0, "out.mp4")
		if err != nil {
			t.Fatal(err)
		}
		if cmd := strings.Join(args, " "); !strings.Contains(cmd, tt.want) {
			t.Errorf("%s: expected %q in %s", tt.codec, tt.want, cmd)
		}
	}
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "seg_00.mp4"),
		filepath.Join(dir, "it's.mp4"),
	}
	list, err := writeConcatList(paths, dir)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(list)
	if err != nil {
		t.Fatal(err)
	}
	want := "file '" + paths[0] + "'\n" +
		"file '" + filepath.Join(dir, `it'\''s.mp4`) + "'\n"
	if string(data) != want {
		t.Errorf("Unexpected list:\n%s\nwant:\n%s", data, want)
	}
}

func TestProcessErrorKeepsTail(t *testing.T) {
	var stderr strings.Builder
	for i := 0; i < 40; i++ {
		stderr.WriteString("frame line\n")
	}
	stderr.WriteString("Invalid data found when processing input")

	err := processError(os.ErrInvalid, []byte(stderr.String()))
	msg := err.Error()
	if !strings.Contains(msg, "Invalid data found") {
		t.Errorf("Expected the last ffmpeg line in %q", msg)
	}
	if n := strings.Count(msg, "frame line"); n != stderrTail-1 {
		t.Errorf("Expected %d context lines, got %d", stderrTail-1, n)
	}
}
