package narration

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ivlev/promoreel/internal/system"
)

// Policy decides what happens to a chunk whose narration failed.
type Policy string

const (
	// Abort stops the run. Rerun later once the quota has recovered.
	Abort Policy = "abort"
	// ReuseExisting uses the target file if one appeared meanwhile,
	// otherwise continues silently.
	ReuseExisting Policy = "reuse-existing"
	// ContinueSilent drops the narration and uses the default duration.
	ContinueSilent Policy = "continue-silent"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case Abort, ReuseExisting, ContinueSilent:
		return p, nil
	}
	return "", fmt.Errorf("unknown narration policy %q (want abort, reuse-existing or continue-silent)", s)
}

// Narrator runs the generator and applies the recovery policy on failure.
type Narrator struct {
	Gen             *Generator
	Policy          Policy
	DefaultDuration float64
}

// Narrate returns the asset for one chunk. An error means the run should
// stop: either the policy is Abort or ctx was cancelled.
func (n *Narrator) Narrate(ctx context.Context, text, path, voiceID string) (Asset, error) {
	asset, err := n.Gen.Generate(ctx, text, path, voiceID)
	if err == nil {
		return asset, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Asset{}, err
	}
	return n.Recover(text, path, err)
}

// Recover applies the policy to a failed generation.
func (n *Narrator) Recover(text, path string, cause error) (Asset, error) {
	switch n.Policy {
	case ReuseExisting:
		if system.FileExists(path) {
			asset, err := n.Gen.measure(Asset{Text: text, Path: path, Cached: true})
			if err == nil {
				log.Printf("[!] %v; reusing existing %s", cause, path)
				return asset, nil
			}
			log.Printf("[!] Existing %s is unusable: %v", path, err)
		}
		fallthrough
	case ContinueSilent:
		log.Printf("[!] %v; continuing without audio (%.1fs)", cause, n.DefaultDuration)
		return Asset{Text: text, Duration: n.DefaultDuration, Silent: true}, nil
	default:
		return Asset{}, cause
	}
}
