package snapshot

import "math"

// Comparison tolerances for approximate equality.
const (
	// AbsoluteEpsilon is the absolute tolerance for every field.
	AbsoluteEpsilon = 1e-6

	// RelativeEpsilon is the relative tolerance for linear fields.
	RelativeEpsilon = 1e-6

	// FullTurn is the period of angular fields, in radians.
	FullTurn = 2 * math.Pi
)

// arcFieldCount is the wire arity of an ArcSegment.
const arcFieldCount = 12

// arcFieldNames are the wire field names in positional order.
var arcFieldNames = [arcFieldCount]string{
	"level", "thickness", "hue", "sat", "val", "x", "y",
	"rad_x", "rad_y", "start", "stop", "rot_angle",
}

// ArcSegment is one renderable colored arc.
//
// Hue, Start, Stop and RotAngle are angles and compare modulo FullTurn.
// The remaining fields are linear.
type ArcSegment struct {
	Level     float64
	Thickness float64
	Hue       float64
	Sat       float64
	Val       float64
	X         float64
	Y         float64
	RadX      float64
	RadY      float64
	Start     float64
	Stop      float64
	RotAngle  float64
}

// fields returns the segment's values in wire order.
func (a ArcSegment) fields() [arcFieldCount]float64 {
	return [arcFieldCount]float64{
		a.Level, a.Thickness, a.Hue, a.Sat, a.Val, a.X, a.Y,
		a.RadX, a.RadY, a.Start, a.Stop, a.RotAngle,
	}
}

// arcFromFields is the inverse of fields.
func arcFromFields(f [arcFieldCount]float64) ArcSegment {
	return ArcSegment{
		Level:     f[0],
		Thickness: f[1],
		Hue:       f[2],
		Sat:       f[3],
		Val:       f[4],
		X:         f[5],
		Y:         f[6],
		RadX:      f[7],
		RadY:      f[8],
		Start:     f[9],
		Stop:      f[10],
		RotAngle:  f[11],
	}
}

// Equal reports whether two segments are approximately equal.
func (a ArcSegment) Equal(b ArcSegment) bool {
	return LinearEqual(a.Level, b.Level) &&
		LinearEqual(a.Thickness, b.Thickness) &&
		AngleEqual(a.Hue, b.Hue) &&
		LinearEqual(a.Sat, b.Sat) &&
		LinearEqual(a.Val, b.Val) &&
		LinearEqual(a.X, b.X) &&
		LinearEqual(a.Y, b.Y) &&
		LinearEqual(a.RadX, b.RadX) &&
		LinearEqual(a.RadY, b.RadY) &&
		AngleEqual(a.Start, b.Start) &&
		AngleEqual(a.Stop, b.Stop) &&
		AngleEqual(a.RotAngle, b.RotAngle)
}

// Layer is the ordered list of segments drawn at one z level.
type Layer []ArcSegment

// Layers is the z-ordered layer collection of a frame.
type Layers []Layer

// Equal compares two layer collections element by element.
func (l Layers) Equal(o Layers) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if len(l[i]) != len(o[i]) {
			return false
		}
		for j := range l[i] {
			if !l[i][j].Equal(o[i][j]) {
				return false
			}
		}
	}
	return true
}

// Snapshot is one frame of show state as published by the producer.
type Snapshot struct {
	// FrameNumber is assigned by the producer and never decreases.
	FrameNumber uint64

	// Time is the producer clock in milliseconds.
	Time uint64

	Layers Layers
}

// Equal compares frame number and time exactly and layers approximately.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.FrameNumber == o.FrameNumber &&
		s.Time == o.Time &&
		s.Layers.Equal(o.Layers)
}

// SegmentCount returns the number of arcs across all layers.
func (s Snapshot) SegmentCount() int {
	n := 0
	for _, layer := range s.Layers {
		n += len(layer)
	}
	return n
}

// LinearEqual compares two linear values within AbsoluteEpsilon or
// RelativeEpsilon of the larger magnitude.
func LinearEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	if diff <= AbsoluteEpsilon {
		return true
	}
	return diff <= RelativeEpsilon*math.Max(math.Abs(a), math.Abs(b))
}

// AngleEqual compares two angles modulo FullTurn within AbsoluteEpsilon.
func AngleEqual(a, b float64) bool {
	if a == b {
		return true
	}
	d := math.Mod(math.Abs(a-b), FullTurn)
	return math.Min(d, FullTurn-d) <= AbsoluteEpsilon
}
