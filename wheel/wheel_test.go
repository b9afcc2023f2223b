package wheel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eightSegments() []Segment {
	segs := make([]Segment, 8)
	for i := range segs {
		segs[i] = Segment{ID: fmt.Sprintf("p%d", i), Label: fmt.Sprintf("Prize %d", i)}
	}
	return segs
}

func TestTarget_EightSegmentsIndexThree(t *testing.T) {
	w := New(eightSegments())

	assert.Equal(t, 45.0, w.SegmentAngle())
	assert.Equal(t, -157.5, w.TargetDegrees(3))
	assert.Equal(t, 202.5, Normalize(w.TargetDegrees(3)))

	tgt, err := w.Target("p3", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, tgt.Index)
	assert.Equal(t, 5*360-157.5, tgt.TotalDegrees)
	assert.InDelta(t, Radians(1642.5), tgt.TotalRadians, 1e-9)
	assert.Equal(t, 3, w.SegmentAt(tgt.TotalDegrees))
	assert.Equal(t, 3, w.SegmentAt(202.5))
}

func TestTarget_EveryIndexLandsOnItself(t *testing.T) {
	for n := 1; n <= 12; n++ {
		segs := make([]Segment, n)
		for i := range segs {
			segs[i] = Segment{ID: fmt.Sprintf("s%d", i)}
		}
		w := New(segs)
		for i := 0; i < n; i++ {
			for spins := 5; spins < 10; spins++ {
				tgt, err := w.Target(segs[i].ID, spins)
				require.NoError(t, err)
				assert.Equal(t, i, w.SegmentAt(tgt.TotalDegrees), "n=%d i=%d spins=%d", n, i, spins)
			}
		}
	}
}

func TestTarget_MissingPrize(t *testing.T) {
	w := New(eightSegments())
	_, err := w.Target("gone", 5)
	assert.ErrorIs(t, err, ErrPrizeNotInWheel)

	_, err = New(nil).Target("p0", 5)
	assert.ErrorIs(t, err, ErrPrizeNotInWheel)
}

func TestAdvance_KeepsSegment(t *testing.T) {
	w := New(eightSegments())
	current := 1642.5
	next := Advance(current, w.TargetDegrees(6), 7)

	assert.Greater(t, next, current+7*360-1)
	assert.Equal(t, 6, w.SegmentAt(next))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(720))
	assert.Equal(t, 350.0, Normalize(-10))
	assert.Equal(t, 10.0, Normalize(370))
}

func TestEaseOutCubic(t *testing.T) {
	assert.Equal(t, 0.0, EaseOutCubic(0))
	assert.Equal(t, 1.0, EaseOutCubic(1))
	assert.Equal(t, 0.875, EaseOutCubic(0.5))
	assert.Equal(t, 1.0, EaseOutCubic(2))
	assert.Greater(t, EaseOutCubic(0.1), 0.1)
}

func TestAnimator_ReachesTarget(t *testing.T) {
	a := Animator{Duration: 30 * time.Millisecond, FrameInterval: time.Millisecond}
	var frames []Frame
	final, err := a.Animate(context.Background(), 0, 1642.5, func(f Frame) {
		frames = append(frames, f)
	})
	require.NoError(t, err)
	assert.Equal(t, 1642.5, final)
	require.NotEmpty(t, frames)
	assert.Equal(t, 1.0, frames[len(frames)-1].Progress)

	for i := 1; i < len(frames); i++ {
		assert.GreaterOrEqual(t, frames[i].Rotation, frames[i-1].Rotation)
	}
}

func TestAnimator_Cancel(t *testing.T) {
	a := Animator{Duration: time.Hour, FrameInterval: time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	final, err := a.Animate(ctx, 0, 3600, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, final, 3600.0)
}

func TestSession_HappyPath(t *testing.T) {
	s := NewSession()
	assert.Equal(t, StateIdle, s.State())
	assert.ErrorIs(t, s.BeginSpin(), ErrInvalidTransition)

	require.NoError(t, s.VerifyCode("u1", false))
	assert.Equal(t, StateCodeVerified, s.State())
	require.NoError(t, s.BeginSpin())
	assert.Equal(t, StateSpinning, s.State())
	assert.ErrorIs(t, s.BeginSpin(), ErrSpinInProgress)
	assert.ErrorIs(t, s.Reset(), ErrSpinInProgress)

	require.NoError(t, s.Resolve("p3"))
	assert.Equal(t, StateResolved, s.State())
	assert.Equal(t, "p3", s.PrizeID())
	assert.ErrorIs(t, s.BeginSpin(), ErrAlreadySpun)
	assert.ErrorIs(t, s.VerifyCode("u2", false), ErrInvalidTransition)

	require.NoError(t, s.Reset())
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.UserID())
}

func TestSession_SpentUserCannotSpin(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.VerifyCode("u1", true))
	assert.ErrorIs(t, s.BeginSpin(), ErrAlreadySpun)
}

func TestSession_AbortMarksSpent(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.VerifyCode("u1", false))
	require.NoError(t, s.BeginSpin())
	require.NoError(t, s.Abort(true))
	assert.Equal(t, StateCodeVerified, s.State())
	assert.ErrorIs(t, s.BeginSpin(), ErrAlreadySpun)
}

func TestSession_ConcurrentBeginSpin(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.VerifyCode("u1", false))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.BeginSpin() == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}
