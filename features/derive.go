package features

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is one sensor's sample: position, euler rotation and quaternion.
type Pose struct {
	Pos   mgl64.Vec3
	Euler mgl64.Vec3
	Quat  mgl64.Quat
}

// Frame is one timestamped multi-sensor sample. A zero Tracker1 is valid for
// schemas without the auxiliary tracker.
type Frame struct {
	Head     Pose
	HandR    Pose
	HandL    Pose
	Tracker1 Pose
	Label    string
	Hand     string
}

// RelativePositions holds the head-minus-sensor offsets of one frame.
type RelativePositions struct {
	HandR    mgl64.Vec3
	HandL    mgl64.Vec3
	Tracker1 mgl64.Vec3
}

// Derive computes the relative position features of a frame.
func Derive(f Frame) RelativePositions {
	return RelativePositions{
		HandR:    f.Head.Pos.Sub(f.HandR.Pos),
		HandL:    f.Head.Pos.Sub(f.HandL.Pos),
		Tracker1: f.Head.Pos.Sub(f.Tracker1.Pos),
	}
}

// FrameAt reads a Frame from a table row. Sensors absent from the table are
// left zero; the caller validates the schema before relying on them.
func (t *Table) FrameAt(row int) Frame {
	f := Frame{
		Head:     t.poseAt(row, Head, ""),
		HandR:    t.poseAt(row, HandR, ""),
		HandL:    t.poseAt(row, HandL, ""),
		Tracker1: t.poseAt(row, Tracker1, ""),
	}
	if row < len(t.Labels) {
		f.Label = t.Labels[row]
	}
	if row < len(t.Hands) {
		f.Hand = t.Hands[row]
	}
	return f
}

func (t *Table) poseAt(row int, sensor, suffix string) Pose {
	get := func(col string) float64 {
		if i, ok := t.index[col+suffix]; ok {
			return t.Rows[row][i]
		}
		return 0
	}
	var p Pose
	p.Pos = mgl64.Vec3{get(sensor + "Posx"), get(sensor + "Posy"), get(sensor + "Posz")}
	p.Euler = mgl64.Vec3{get(sensor + "Rotx"), get(sensor + "Roty"), get(sensor + "Rotz")}
	p.Quat = mgl64.Quat{
		W: get(sensor + "RotQw"),
		V: mgl64.Vec3{get(sensor + "RotQx"), get(sensor + "RotQy"), get(sensor + "RotQz")},
	}
	return p
}

// DeriveRelative appends the nine relative position columns
// (relativeHandRPos*, relativeHandLPos*, relativeTracker1Pos*) to a table
// holding the full raw schema.
func DeriveRelative(t *Table) error {
	if err := t.Require(concat(Pos(Head), Pos(HandR), Pos(HandL), Pos(Tracker1))...); err != nil {
		return err
	}
	rel := make([]RelativePositions, t.Len())
	for i := range t.Rows {
		rel[i] = Derive(t.FrameAt(i))
	}
	if err := addVecColumns(t, Relative(HandR), rel, func(r RelativePositions) mgl64.Vec3 { return r.HandR }); err != nil {
		return err
	}
	if err := addVecColumns(t, Relative(HandL), rel, func(r RelativePositions) mgl64.Vec3 { return r.HandL }); err != nil {
		return err
	}
	return addVecColumns(t, Relative(Tracker1), rel, func(r RelativePositions) mgl64.Vec3 { return r.Tracker1 })
}

// DeriveHandRelative appends only the six hand-relative columns, for
// schemas that do not carry the auxiliary tracker.
func DeriveHandRelative(t *Table) error {
	if err := t.Require(concat(Pos(Head), Pos(HandR), Pos(HandL))...); err != nil {
		return err
	}
	rel := make([]RelativePositions, t.Len())
	for i := range t.Rows {
		rel[i] = Derive(t.FrameAt(i))
	}
	if err := addVecColumns(t, Relative(HandR), rel, func(r RelativePositions) mgl64.Vec3 { return r.HandR }); err != nil {
		return err
	}
	return addVecColumns(t, Relative(HandL), rel, func(r RelativePositions) mgl64.Vec3 { return r.HandL })
}

// DeriveSteps appends hand-relative columns for each timestep of a
// pre-windowed capture, suffixed 0..steps-1 (relativeHandRPosx0, ...).
func DeriveSteps(t *Table, steps int) error {
	for s := 0; s < steps; s++ {
		suffix := fmt.Sprint(s)
		if err := t.Require(Steps(concat(Pos(Head), Pos(HandR), Pos(HandL)), s)...); err != nil {
			return err
		}
		right := make([]mgl64.Vec3, t.Len())
		left := make([]mgl64.Vec3, t.Len())
		for i := range t.Rows {
			head := t.poseAt(i, Head, suffix).Pos
			right[i] = head.Sub(t.poseAt(i, HandR, suffix).Pos)
			left[i] = head.Sub(t.poseAt(i, HandL, suffix).Pos)
		}
		if err := addSteppedVec(t, Steps(Relative(HandR), s), right); err != nil {
			return err
		}
		if err := addSteppedVec(t, Steps(Relative(HandL), s), left); err != nil {
			return err
		}
	}
	return nil
}

func addVecColumns(t *Table, names []string, rel []RelativePositions, pick func(RelativePositions) mgl64.Vec3) error {
	vs := make([]mgl64.Vec3, len(rel))
	for i, r := range rel {
		vs[i] = pick(r)
	}
	return addSteppedVec(t, names, vs)
}

func addSteppedVec(t *Table, names []string, vs []mgl64.Vec3) error {
	for axis, name := range names {
		col := make([]float64, len(vs))
		for i, v := range vs {
			col[i] = v[axis]
		}
		if err := t.AddColumn(name, col); err != nil {
			return err
		}
	}
	return nil
}
