package kiosk

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/wheel"
)

var ErrNoPrizes = errors.New("kiosk: no active prizes")

const defaultFullSpins = 6

// PlayResult describes one finished kiosk spin.
type PlayResult struct {
	User       *models.User
	Prize      *models.Prize
	Index      int
	Rotation   float64
	Overridden bool
	// OffWheel is set when the awarded prize has no segment. The spin is
	// still recorded; Replay can animate it once the prize list is fixed.
	OffWheel bool
}

// Kiosk runs the Idle -> CodeVerified -> Spinning -> Resolved loop for one
// screen. Play calls must not overlap; the session rejects a second one.
type Kiosk struct {
	Client   *Client
	Session  *wheel.Session
	Animator wheel.Animator
	OnFrame  func(wheel.Frame)
	Log      *zap.Logger

	rotation  float64
	fullSpins int
}

func New(client *Client, animator wheel.Animator, log *zap.Logger) *Kiosk {
	if log == nil {
		log = zap.NewNop()
	}
	return &Kiosk{Client: client, Session: wheel.NewSession(), Animator: animator, Log: log}
}

// Rotation is the wheel's resting angle after the last spin.
func (k *Kiosk) Rotation() float64 { return k.rotation }

// Play verifies code, spins once and animates the wheel onto the prize the
// server awarded. The spin request is sent at most once.
func (k *Kiosk) Play(ctx context.Context, code string) (*PlayResult, error) {
	if err := k.Session.Reset(); err != nil {
		return nil, err
	}

	user, outcome, err := k.Client.LookupByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := k.Session.VerifyCode(user.ID, user.HasSpun); err != nil {
		return nil, err
	}
	if user.HasSpun {
		k.Log.Info("code already used", zap.String("user_id", user.ID), zap.String("prize", outcome.PrizeName))
		return &PlayResult{User: user, Prize: outcome.Prize, Index: -1, Rotation: k.rotation}, wheel.ErrAlreadySpun
	}

	w, err := k.loadWheel(ctx)
	if err != nil {
		return nil, err
	}

	if err := k.Session.BeginSpin(); err != nil {
		return nil, err
	}
	res, err := k.Client.Spin(ctx, user.ID, "")
	if err != nil {
		_ = k.Session.Abort(IsAlreadySpun(err))
		return nil, fmt.Errorf("spin: %w", err)
	}
	if err := k.Session.Resolve(res.Prize.ID); err != nil {
		return nil, err
	}

	out := &PlayResult{User: user, Prize: res.Prize, Overridden: res.Overridden, Index: -1, Rotation: k.rotation}
	if res.Wheel != nil && res.Wheel.FullSpins > 0 {
		k.fullSpins = res.Wheel.FullSpins
	} else {
		k.fullSpins = defaultFullSpins
	}
	if res.Wheel != nil {
		if idx, err := w.IndexOf(res.Prize.ID); err == nil && idx != res.Wheel.Index {
			k.Log.Warn("server wheel plan disagrees with local wheel",
				zap.Int("server_index", res.Wheel.Index), zap.Int("local_index", idx))
		}
	}
	return k.animate(ctx, w, out)
}

// Replay refetches the prize list and animates onto the prize the session
// already resolved to. It never spins again; use it after ErrPrizeNotInWheel.
func (k *Kiosk) Replay(ctx context.Context, last *PlayResult) (*PlayResult, error) {
	if k.Session.State() != wheel.StateResolved || last == nil || last.Prize == nil {
		return nil, wheel.ErrInvalidTransition
	}
	w, err := k.loadWheel(ctx)
	if err != nil {
		return nil, err
	}
	out := *last
	out.OffWheel = false
	out.Index = -1
	return k.animate(ctx, w, &out)
}

func (k *Kiosk) loadWheel(ctx context.Context) (*wheel.Wheel, error) {
	prizes, err := k.Client.ActivePrizes(ctx)
	if err != nil {
		return nil, err
	}
	if len(prizes) == 0 {
		return nil, ErrNoPrizes
	}
	segments := make([]wheel.Segment, len(prizes))
	for i, p := range prizes {
		segments[i] = wheel.Segment{ID: p.ID, Label: p.Name, Color: p.Color}
	}
	return wheel.New(segments), nil
}

func (k *Kiosk) animate(ctx context.Context, w *wheel.Wheel, out *PlayResult) (*PlayResult, error) {
	idx, err := w.IndexOf(out.Prize.ID)
	if err != nil {
		k.Log.Warn("awarded prize is not on the wheel", zap.String("prize_id", out.Prize.ID))
		out.OffWheel = true
		return out, err
	}

	fullSpins := k.fullSpins
	if fullSpins <= 0 {
		fullSpins = defaultFullSpins
	}
	final := wheel.Advance(k.rotation, w.TargetDegrees(idx), fullSpins)
	onFrame := k.OnFrame
	if onFrame == nil {
		onFrame = func(wheel.Frame) {}
	}
	_, animErr := k.Animator.Animate(ctx, k.rotation, final, onFrame)

	// the prize is committed; a cancelled animation snaps to the result
	k.rotation = final
	out.Index = idx
	out.Rotation = final
	if landed := w.SegmentAt(final); landed != idx {
		return out, fmt.Errorf("wheel landed on segment %d, want %d", landed, idx)
	}
	k.Log.Info("spin finished", zap.String("user_id", out.User.ID), zap.String("prize", out.Prize.Name), zap.Int("index", idx))
	return out, animErr
}
