package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/promoreel/internal/system"
	"github.com/ivlev/promoreel/internal/timeline"
)

const benchmarkLog = "benchmark.log"

type stageTimes struct {
	Fetch, Narrate, Encode, Concat, Finalize, Total time.Duration
}

func (p *VideoProject) report(tl *timeline.Timeline) {
	t := p.times
	res := system.SnapshotResources()
	cached, silent := 0, 0
	for _, a := range p.assets {
		switch {
		case a.Silent:
			silent++
		case a.Cached:
			cached++
		}
	}
	speed := 0.0
	if t.Total > 0 {
		speed = tl.Duration() / t.Total.Seconds()
	}

	fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
		"Build: %s\n"+
		"Run: %s\n"+
		"Total Time: %.2fs\n"+
		"Fetch: %.2fs\n"+
		"Narration: %.2fs (%d chunks, %d existing, %d silent)\n"+
		"Segments: %.2fs\n"+
		"Concatenation: %.2fs\n"+
		"Final Encode: %.2fs\n"+
		"Speed: %.2fx realtime\n"+
		"Resources: %s\n"+
		"----------------------------\n",
		p.Config.BuildVersion, p.RunID, t.Total.Seconds(), t.Fetch.Seconds(), t.Narrate.Seconds(), len(p.assets), cached, silent,
		t.Encode.Seconds(), t.Concat.Seconds(), t.Finalize.Seconds(), speed, res,
	)

	entry := fmt.Sprintf("[%s] Build: %s | Run: %s | Output: %s | Segments: %d | Video: %.2fs | Total: %.2fs | Encode: %.2fs | RSS: %d",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		p.RunID,
		filepath.Base(p.Config.Output),
		len(tl.Segments),
		tl.Duration(),
		t.Total.Seconds(),
		t.Encode.Seconds(),
		res.ProcessRSS,
	)
	if err := system.AppendLine(benchmarkLog, entry); err != nil {
		fmt.Printf("[!] Could not write %s: %v\n", benchmarkLog, err)
	}
}
