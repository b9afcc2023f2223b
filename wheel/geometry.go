// Package wheel holds the renderer side of the spin: segment geometry, the
// ease-out animation and the kiosk session state machine.
//
// Segments are laid out clockwise starting at the pointer. Segment i spans
// [i*a, (i+1)*a) degrees with a = 360/n, and a rotation of r degrees moves
// wheel angle -r under the pointer.
package wheel

import (
	"errors"
	"math"
)

var ErrPrizeNotInWheel = errors.New("prize is not on the wheel")

// Segment is one drawn slice of the wheel.
type Segment struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

type Wheel struct {
	segments []Segment
}

func New(segments []Segment) *Wheel {
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return &Wheel{segments: cp}
}

func (w *Wheel) Len() int { return len(w.segments) }

func (w *Wheel) Segments() []Segment {
	cp := make([]Segment, len(w.segments))
	copy(cp, w.segments)
	return cp
}

// SegmentAngle is the width of one segment in degrees.
func (w *Wheel) SegmentAngle() float64 {
	if len(w.segments) == 0 {
		return 0
	}
	return 360 / float64(len(w.segments))
}

// IndexOf locates a prize by id in display order.
func (w *Wheel) IndexOf(id string) (int, error) {
	for i, s := range w.segments {
		if s.ID == id {
			return i, nil
		}
	}
	return -1, ErrPrizeNotInWheel
}

// TargetDegrees is the rotation that centers segment index under the pointer.
func (w *Wheel) TargetDegrees(index int) float64 {
	a := w.SegmentAngle()
	return -float64(index)*a - a/2
}

// Target is the resting position for a resolved prize.
type Target struct {
	Index         int     `json:"index"`
	TargetDegrees float64 `json:"target_degrees"`
	FullSpins     int     `json:"full_spins"`
	TotalDegrees  float64 `json:"total_degrees"`
	TotalRadians  float64 `json:"total_radians"`
}

// Target computes the landing rotation for prize id after fullSpins whole
// turns, starting from a rotation of zero.
func (w *Wheel) Target(id string, fullSpins int) (Target, error) {
	idx, err := w.IndexOf(id)
	if err != nil {
		return Target{}, err
	}
	deg := w.TargetDegrees(idx)
	total := float64(fullSpins)*360 + deg
	return Target{
		Index:         idx,
		TargetDegrees: deg,
		FullSpins:     fullSpins,
		TotalDegrees:  total,
		TotalRadians:  Radians(total),
	}, nil
}

// SegmentAt returns the index of the segment under the pointer at rotation.
func (w *Wheel) SegmentAt(rotation float64) int {
	n := len(w.segments)
	if n == 0 {
		return -1
	}
	idx := int(math.Floor(Normalize(-rotation) / w.SegmentAngle()))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Advance returns the first rotation after current plus fullSpins turns that
// is congruent to target, so repeated spins keep turning forward.
func Advance(current, target float64, fullSpins int) float64 {
	return current + float64(fullSpins)*360 + Normalize(target-current)
}

// Normalize maps deg into [0,360).
func Normalize(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
