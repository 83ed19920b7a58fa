// Package features holds the tracker column schema, the per-file numeric
// table read from the capture CSVs, and the relative-position deriver.
//
// Column names follow the capture rig's logger: every sensor contributes
// ten fields, <sensor>Pos{x,y,z}, <sensor>Rot{x,y,z} (euler) and
// <sensor>RotQ{x,y,z,w} (quaternion).
package features

import "strconv"

// Sensor names as they appear in the CSV headers.
const (
	Head     = "head"
	HandR    = "handR"
	HandL    = "handL"
	Tracker1 = "tracker1"
)

var (
	posSuffixes   = []string{"Posx", "Posy", "Posz"}
	eulerSuffixes = []string{"Rotx", "Roty", "Rotz"}
	quatSuffixes  = []string{"RotQx", "RotQy", "RotQz", "RotQw"}
)

// Pos returns the three position column names of a sensor.
func Pos(sensor string) []string { return prefixed(sensor, posSuffixes) }

// Euler returns the three euler rotation column names of a sensor.
func Euler(sensor string) []string { return prefixed(sensor, eulerSuffixes) }

// Quat returns the four quaternion column names of a sensor (x,y,z,w).
func Quat(sensor string) []string { return prefixed(sensor, quatSuffixes) }

// SensorColumns returns the ten columns logged for one sensor in file order.
func SensorColumns(sensor string) []string {
	cols := make([]string, 0, 10)
	cols = append(cols, Pos(sensor)...)
	cols = append(cols, Euler(sensor)...)
	cols = append(cols, Quat(sensor)...)
	return cols
}

// Relative returns the derived relative position columns for a sensor,
// e.g. relativeHandRPos{x,y,z}.
func Relative(sensor string) []string {
	return prefixed("relative"+upperFirst(sensor), posSuffixes)
}

// RawColumns is the full telemetry schema: head, right hand, left hand and
// the waist tracker, ten fields each.
var RawColumns = concat(
	SensorColumns(Head),
	SensorColumns(HandR),
	SensorColumns(HandL),
	SensorColumns(Tracker1),
)

// TypingRawColumns is the reduced typing telemetry schema (no tracker).
var TypingRawColumns = concat(
	SensorColumns(Head),
	SensorColumns(HandR),
	SensorColumns(HandL),
)

// RelativeColumns are the nine derived fields appended to the full schema.
var RelativeColumns = concat(Relative(HandR), Relative(HandL), Relative(Tracker1))

// HandRelativeColumns are the six derived fields used by the typing and
// gesture schemas.
var HandRelativeColumns = concat(Relative(HandR), Relative(HandL))

// FullColumns is the column order of a derived full-schema table and the
// order in which scaler parameters are persisted.
var FullColumns = concat(RawColumns, RelativeColumns)

// TypingColumns is the column order of a derived typing table.
var TypingColumns = concat(TypingRawColumns, HandRelativeColumns)

// Step suffixes a column name with a timestep index, as used by the
// pre-windowed gesture captures (headPosx0 .. headPosx9).
func Step(col string, step int) string {
	return col + strconv.Itoa(step)
}

// Steps suffixes every column with the given step index.
func Steps(cols []string, step int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = Step(c, step)
	}
	return out
}

func prefixed(prefix string, suffixes []string) []string {
	out := make([]string, len(suffixes))
	for i, s := range suffixes {
		out[i] = prefix + s
	}
	return out
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func concat(groups ...[]string) []string {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]string, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
