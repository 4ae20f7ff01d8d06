package animation

import "math"

// Cue is one timed item of an overlay. Line and Word index into the text;
// Word == -1 addresses the whole line and Line == -1 the whole block.
type Cue struct {
	Line     int
	Word     int
	Start    float64
	Duration float64
}

// Descriptor returns d with the cue lifetime filled in.
func (c Cue) Descriptor(d Descriptor) Descriptor {
	d.Duration = c.Duration
	return d
}

// Plan sequences the words of a text for the given descriptor. wordsPerLine
// holds the word count of every line. The returned total is never longer
// than sceneDuration, and every cue ends exactly at the total.
func Plan(d Descriptor, wordsPerLine []int, sceneDuration float64) ([]Cue, float64) {
	if sceneDuration <= 0 {
		return nil, 0
	}

	var cues []Cue
	var sequenced float64

	switch d.Kind {
	case WordReveal:
		start := 0.0
		for line, n := range wordsPerLine {
			for word := 0; word < n; word++ {
				cues = append(cues, Cue{Line: line, Word: word, Start: start})
				start += d.WordDelay
			}
		}
		sequenced = start

	case LineReveal:
		for line, n := range wordsPerLine {
			lineStart := float64(line) * d.LineDelay
			wordDelay := d.WordDelay
			if n > 0 && wordDelay*float64(n) > d.LineDelay {
				wordDelay = d.LineDelay / float64(n)
			}
			for word := 0; word < n; word++ {
				cues = append(cues, Cue{Line: line, Word: word, Start: lineStart + float64(word)*wordDelay})
			}
		}
		sequenced = float64(len(wordsPerLine)) * d.LineDelay

	default:
		return []Cue{{Line: -1, Word: -1, Start: 0, Duration: sceneDuration}}, sceneDuration
	}

	total := math.Min(sceneDuration, sequenced)
	if total <= 0 {
		return nil, 0
	}

	kept := cues[:0]
	for _, c := range cues {
		if c.Start >= total {
			continue
		}
		c.Duration = total - c.Start
		kept = append(kept, c)
	}
	return kept, total
}
