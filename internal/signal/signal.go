// Package signal produces the simulated Signal score shown on the landing
// page and the labels derived from it.
package signal

import (
	"context"
	"time"
)

// Score animation parameters.
const (
	InitialScore = 72
	MinTarget    = 65
	TargetSpread = 26
	Step         = 3
	TickInterval = 80 * time.Millisecond
)

// Intner is the subset of *rand.Rand used to pick a target.
type Intner interface {
	Intn(n int) int
}

// Target picks the score an animation settles on, 65 through 90.
func Target(rng Intner) int {
	return MinTarget + rng.Intn(TargetSpread)
}

// Animate streams a score rising from 0 toward a random target in steps of
// Step, one per tick. The channel is closed once the target is sent or ctx
// is done.
func Animate(ctx context.Context, rng Intner, tick time.Duration) <-chan int {
	if tick <= 0 {
		tick = TickInterval
	}
	target := Target(rng)
	out := make(chan int)

	go func() {
		defer close(out)

		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		score := 0
		for {
			select {
			case out <- score:
			case <-ctx.Done():
				return
			}
			if score >= target {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
			score = min(score+Step, target)
		}
	}()
	return out
}

// Gauge clamps a score to 0..100.
func Gauge(score int) int {
	return max(0, min(score, 100))
}

// TimingLabel names the selling window for a score.
func TimingLabel(score int) string {
	switch g := Gauge(score); {
	case g >= 85:
		return "Prime Window"
	case g >= 70:
		return "Momentum Building"
	default:
		return "Monitoring"
	}
}

// Band is one of the published score ranges.
type Band struct {
	Min     int    `json:"min" yaml:"min"`
	Max     int    `json:"max" yaml:"max"`
	Label   string `json:"label" yaml:"label"`
	Meaning string `json:"meaning" yaml:"meaning"`
}

// Bands lists the score ranges from strongest to weakest.
var Bands = []Band{
	{Min: 80, Max: 100, Label: "Strong Signal", Meaning: "Seller’s market, excellent timing to list."},
	{Min: 60, Max: 79, Label: "Steady Signal", Meaning: "Balanced market, smart prep, timing, and pricing matter most."},
	{Min: 0, Max: 59, Label: "Opportunity Signal", Meaning: "Strong potential. Smart sellers prepare now to stay ahead of the curve."},
}

// BandFor returns the range containing the clamped score.
func BandFor(score int) Band {
	g := Gauge(score)
	for _, b := range Bands {
		if g >= b.Min && g <= b.Max {
			return b
		}
	}
	return Bands[len(Bands)-1]
}

// Tick is one frame of the score stream.
type Tick struct {
	Score int    `json:"score"`
	Label string `json:"label"`
	Band  string `json:"band"`
}

// NewTick describes score for display.
func NewTick(score int) Tick {
	return Tick{Score: Gauge(score), Label: TimingLabel(score), Band: BandFor(score).Label}
}
