package datasets

import (
	"fmt"
	"strings"

	"github.com/Noofbiz/vrmotion/features"
)

// Selector is the task and output schema of a dataset.
type Selector int

const (
	Euler Selector = iota
	Quaternion
	Both
	Relative
	Gesture
	Grab
	TypingEnd
	TypingStartEnd
)

var selectorNames = map[string]Selector{
	"euler":        Euler,
	"quaternion":   Quaternion,
	"both":         Both,
	"relative":     Relative,
	"relative_svm": Relative,
	"hacklstm":     Relative,
	"gesture":      Gesture,
	"grab":         Grab,
	"end":          TypingEnd,
	"start+end":    TypingStartEnd,
}

// ParseSelector maps a data_type string to its selector. Anything outside
// the enumerated set is an error.
func ParseSelector(s string) (Selector, error) {
	sel, ok := selectorNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSelector, s)
	}
	return sel, nil
}

func (s Selector) String() string {
	switch s {
	case Euler:
		return "euler"
	case Quaternion:
		return "quaternion"
	case Both:
		return "both"
	case Relative:
		return "relative"
	case Gesture:
		return "gesture"
	case Grab:
		return "grab"
	case TypingEnd:
		return "end"
	case TypingStartEnd:
		return "start+end"
	}
	return fmt.Sprintf("Selector(%d)", int(s))
}

// Regression reports whether the selector produces continuous targets.
func (s Selector) Regression() bool {
	return s <= Relative
}

// Layout is the fixed field order of a selector's examples. Targets is empty
// for classification selectors, whose target is a category code.
type Layout struct {
	Inputs  []string
	Targets []string
}

// Typing column suffixes of the joined start+end rows.
const (
	StartSuffix = "_start"
	EndSuffix   = "_end"
)

var regressionLayouts = map[Selector]Layout{
	Euler: {
		Inputs:  join(features.Pos, features.Euler)(features.Head, features.HandR, features.HandL),
		Targets: join(features.Pos, features.Euler)(features.Tracker1),
	},
	Quaternion: {
		Inputs:  join(features.Pos, features.Quat)(features.Head, features.HandR, features.HandL),
		Targets: join(features.Pos, features.Quat)(features.Tracker1),
	},
	Both: {
		Inputs:  join(features.Pos, features.Euler, features.Quat)(features.Head, features.HandR, features.HandL),
		Targets: join(features.Pos, features.Euler, features.Quat)(features.Tracker1),
	},
	Relative: {
		Inputs:  RelativeInputs,
		Targets: cat(features.Relative(features.Tracker1), features.Quat(features.Tracker1)),
	},
}

// RelativeInputs are the 19 input fields of the relative selector, also used
// by the proximity-labeled gesture windows.
var RelativeInputs = cat(
	[]string{"headPosy"}, features.Quat(features.Head),
	features.Relative(features.HandR), features.Quat(features.HandR),
	features.Relative(features.HandL), features.Quat(features.HandL),
)

// GrabInputs are the 28 fields of one grab frame.
var GrabInputs = cat(
	features.Pos(features.Head), features.Quat(features.Head),
	features.Relative(features.HandR), features.Quat(features.HandR),
	features.Relative(features.HandL), features.Quat(features.HandL),
	features.Relative(features.Tracker1), features.Quat(features.Tracker1),
)

// TypingInputs are the 15 fields of one typing sample.
var TypingInputs = cat(
	features.Relative(features.HandR), features.Relative(features.HandL),
	features.Euler(features.Head), features.Euler(features.HandR), features.Euler(features.HandL),
)

// GestureInputs lists the fields of a pre-windowed gesture capture: each
// group (right relative, left relative, head, right and left euler) spans all
// steps before the next group starts.
func GestureInputs(steps int) []string {
	groups := [][]string{
		features.Relative(features.HandR), features.Relative(features.HandL),
		features.Euler(features.Head), features.Euler(features.HandR), features.Euler(features.HandL),
	}
	var out []string
	for _, g := range groups {
		for s := 0; s < steps; s++ {
			out = append(out, features.Steps(g, s)...)
		}
	}
	return out
}

// HandTypingInputs are the 9 fields of a single-hand typing sample.
func HandTypingInputs(hand string) []string {
	sensor := features.HandR
	if hand == "left" {
		sensor = features.HandL
	}
	return cat(features.Relative(sensor), features.Euler(features.Head), features.Euler(sensor))
}

// LayoutOptions carries the parameters some layouts depend on.
type LayoutOptions struct {
	GestureSteps int
	Hand         string
}

// LayoutFor returns the field order of a selector.
func LayoutFor(s Selector, opts LayoutOptions) (Layout, error) {
	if l, ok := regressionLayouts[s]; ok {
		return l, nil
	}
	switch s {
	case Gesture:
		steps := opts.GestureSteps
		if steps <= 0 {
			steps = 10
		}
		return Layout{Inputs: GestureInputs(steps)}, nil
	case Grab:
		return Layout{Inputs: GrabInputs}, nil
	case TypingEnd:
		if opts.Hand != "" {
			return Layout{Inputs: HandTypingInputs(opts.Hand)}, nil
		}
		return Layout{Inputs: TypingInputs}, nil
	case TypingStartEnd:
		return Layout{Inputs: cat(suffixed(TypingInputs, StartSuffix), suffixed(TypingInputs, EndSuffix))}, nil
	}
	return Layout{}, fmt.Errorf("%w: %v", ErrUnknownSelector, s)
}

// Binding is a layout resolved against a parsed header.
type Binding struct {
	Inputs  []int
	Targets []int
}

// Bind validates a layout against a table's header once, at construction.
func (l Layout) Bind(t *features.Table) (Binding, error) {
	in, err := t.Indices(l.Inputs)
	if err != nil {
		return Binding{}, err
	}
	out, err := t.Indices(l.Targets)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Inputs: in, Targets: out}, nil
}

// Select copies the bound input and target fields of a row.
func (b Binding) Select(row []float64) (inputs, targets []float32) {
	inputs = make([]float32, len(b.Inputs))
	for i, c := range b.Inputs {
		inputs[i] = float32(row[c])
	}
	targets = make([]float32, len(b.Targets))
	for i, c := range b.Targets {
		targets[i] = float32(row[c])
	}
	return inputs, targets
}

// join builds a per-sensor field list from column groups.
func join(groups ...func(string) []string) func(sensors ...string) []string {
	return func(sensors ...string) []string {
		var out []string
		for _, s := range sensors {
			for _, g := range groups {
				out = append(out, g(s)...)
			}
		}
		return out
	}
}

func cat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func suffixed(cols []string, suffix string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c + suffix
	}
	return out
}
