package effects

import (
	"strings"
	"testing"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func TestCoverSize(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		wantW      int
		wantH      int
	}{
		{"landscape 16:9", 1920, 1080, 3414, 1920},
		{"already portrait", 720, 1280, 1080, 1920},
		{"instagram 4:5", 1080, 1350, 1536, 1920},
		{"very tall", 540, 1920, 1080, 3840},
		{"square", 1000, 1000, 1920, 1920},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := CoverSize(tt.srcW, tt.srcH, 1080, 1920)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
			if w < 1080 || h < 1920 {
				t.Errorf("%dx%d does not cover the frame", w, h)
			}
			if w%2 != 0 || h%2 != 0 {
				t.Errorf("%dx%d is not even", w, h)
			}
		})
	}
}

func TestCoverSizeKeepsAspect(t *testing.T) {
	for _, src := range [][2]int{{1920, 1080}, {1280, 720}, {3840, 2160}, {640, 480}, {1080, 1350}} {
		w, h := CoverSize(src[0], src[1], 1080, 1920)
		want := float64(src[0]) / float64(src[1])
		got := float64(w) / float64(h)
		if diff := got/want - 1; diff > 0.002 || diff < -0.002 {
			t.Errorf("%v scaled to %dx%d changes aspect %.4f -> %.4f", src, w, h, want, got)
		}
	}
}

func filterGraph(s *ffmpeg.Stream) string {
	return strings.Join(s.Output("out.mp4").GetArgs(), " ")
}

func TestPortraitKnownSize(t *testing.T) {
	s := Portrait{}.Apply(ffmpeg.Input("in.mp4"), Params{SrcWidth: 1920, SrcHeight: 1080, Width: 1080, Height: 1920, FPS: 30})
	graph := filterGraph(s)

	for _, want := range []string{"scale=3414:1920", "crop=1080:1920:1167:0", "setsar=1", "fps=30"} {
		if !strings.Contains(graph, want) {
			t.Errorf("Expected %q in %s", want, graph)
		}
	}
}

func TestPortraitUnknownSize(t *testing.T) {
	s := Portrait{}.Apply(ffmpeg.Input("in.mp4"), Params{Width: 1080, Height: 1920})
	graph := filterGraph(s)

	for _, want := range []string{"force_original_aspect_ratio=increase", "crop=1080:1920"} {
		if !strings.Contains(graph, want) {
			t.Errorf("Expected %q in %s", want, graph)
		}
	}
}

func TestAudioChain(t *testing.T) {
	first := Normalize(ffmpeg.Input("a.mp3"), 44100)
	second := Delay(Normalize(ffmpeg.Input("b.mp3"), 44100), 6.25)
	graph := filterGraph(Fit(Mix([]*ffmpeg.Stream{first, second}), 15))

	for _, want := range []string{"aresample=44100", "delays=6250", "amix=", "inputs=2", "normalize=0", "apad", "atrim=duration=15.000"} {
		if !strings.Contains(graph, want) {
			t.Errorf("Expected %q in %s", want, graph)
		}
	}
}

func TestDelayZeroIsNoop(t *testing.T) {
	in := ffmpeg.Input("a.mp3")
	if Delay(in, 0) != in {
		t.Error("Zero delay should return the stream unchanged")
	}
}
