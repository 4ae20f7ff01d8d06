package script

import "github.com/ivlev/promoreel/internal/animation"

// Default is the built-in three scene short about robot emotions.
func Default() *Script {
	return &Script{
		Version: "1.0",
		Scenes: []Scene{
			{
				ID:      "scene1",
				Query:   "frustrated person computer",
				Video:   "frustrated_person.mp4",
				TrimEnd: 7,
				Chunks: []Chunk{
					{ID: "scene1", Text: "Can robots really feel the ouch?\nSpoiler: No way."},
				},
			},
			{
				ID:      "scene2",
				Query:   "robot artificial intelligence",
				Video:   "robot_processing.mp4",
				TrimEnd: 15,
				Chunks: []Chunk{
					{ID: "scene2", Text: "AI doesn't feel.\nIt's just a really good actor,\nusing data to mimic emotions like a pro."},
					{ID: "scene2b", Text: "Think of it as the ultimate poker face\n- no tears, just clever programming."},
				},
				Captions: &Captions{
					Texts:    []string{"😊", "🤖", "💻", "🎭", "🎪"},
					FontSize: 100,
					OffsetY:  -760,
					Animation: animation.Descriptor{
						Kind:      animation.Float,
						FadeIn:    0.2,
						FadeOut:   0.2,
						Amplitude: 50,
						Frequency: 8,
					},
				},
			},
			{
				ID:      "scene3",
				Query:   "person chatting online happy",
				Video:   "chatbot_interaction.mp4",
				TrimEnd: 8,
				Chunks: []Chunk{
					{ID: "scene3", Text: "Does it work? Sure!\nSometimes, all we need is a kind word\n-even if it's fake."},
				},
			},
		},
		CTA: &CallToAction{
			Text:     "Curious?\nDive into our blog.\nLink in bio",
			Duration: 5,
			Mode:     CTAOverlay,
			OffsetY:  500,
			Animation: animation.Descriptor{
				Kind:      animation.Float,
				FadeIn:    0.5,
				FadeOut:   0.5,
				Amplitude: 30,
				Frequency: 3,
			},
		},
	}
}
