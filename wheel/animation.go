package wheel

import (
	"context"
	"math"
	"time"
)

const (
	DefaultDuration      = 4 * time.Second
	DefaultFrameInterval = time.Second / 60
)

// EaseOutCubic maps linear progress p in [0,1] to 1-(1-p)^3.
func EaseOutCubic(p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	return 1 - math.Pow(1-p, 3)
}

type Frame struct {
	Elapsed  time.Duration
	Progress float64
	Rotation float64
}

// Animator drives a rotation from one angle to another on a fixed frame clock.
type Animator struct {
	Duration      time.Duration
	FrameInterval time.Duration
}

// Animate calls onFrame for every tick until the rotation reaches to, and
// returns the final rotation. The last frame always carries exactly to.
// Cancelling ctx stops the animation at the current rotation.
func (a Animator) Animate(ctx context.Context, from, to float64, onFrame func(Frame)) (float64, error) {
	duration := a.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	interval := a.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current := from
	for {
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-ticker.C:
			elapsed := time.Since(start)
			progress := math.Min(float64(elapsed)/float64(duration), 1)
			current = from + (to-from)*EaseOutCubic(progress)
			if progress >= 1 {
				current = to
			}
			if onFrame != nil {
				onFrame(Frame{Elapsed: elapsed, Progress: progress, Rotation: current})
			}
			if progress >= 1 {
				return current, nil
			}
		}
	}
}
