package labels

import "strings"

// DefaultThreshold is the proximity radius, in rows, of the gesture labeler.
const DefaultThreshold = 10

// Category is a fixed gesture class of the proximity labeler. Markers are the
// raw label strings that annotate an event of this category.
type Category struct {
	Name    string
	Code    int
	Markers []string
}

// None is the code assigned when no event is close enough.
const None = 0

// NoneName is the name of the fallback category.
const NoneName = "none"

// DefaultCategories in priority order. The capture tool writes both "Up" and
// "Up0" style markers.
var DefaultCategories = []Category{
	{Name: "up", Code: 1, Markers: []string{"Up", "Up0"}},
	{Name: "down", Code: 2, Markers: []string{"Down", "Down0"}},
	{Name: "forward", Code: 3, Markers: []string{"Forward", "Forward0"}},
	{Name: "backward", Code: 4, Markers: []string{"Backward", "Backward0"}},
}

// Proximity labels a window by the annotated events near its start row.
type Proximity struct {
	Threshold  int
	Categories []Category

	// Stats counts assigned labels by category name, including NoneName.
	Stats map[string]int
}

// NewProximity returns a labeler with the default categories.
func NewProximity(threshold int) *Proximity {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	p := &Proximity{Threshold: threshold, Categories: DefaultCategories, Stats: make(map[string]int)}
	p.Stats[NoneName] = 0
	for _, c := range p.Categories {
		p.Stats[c.Name] = 0
	}
	return p
}

// Events collects the row indices of every category's markers in one file,
// in category order.
func (p *Proximity) Events(labels []string) [][]int {
	events := make([][]int, len(p.Categories))
	for row, l := range labels {
		l = strings.TrimSpace(l)
		for ci, c := range p.Categories {
			if matches(c.Markers, l) {
				events[ci] = append(events[ci], row)
				break
			}
		}
	}
	return events
}

// Label returns the code for a window starting at start. A category matches
// when one of its events lies strictly closer than Threshold rows; the first
// matching category in priority order wins.
func (p *Proximity) Label(start int, events [][]int) (code int, name string) {
	for ci, c := range p.Categories {
		if ci < len(events) && p.near(start, events[ci]) {
			p.Stats[c.Name]++
			return c.Code, c.Name
		}
	}
	p.Stats[NoneName]++
	return None, NoneName
}

// Names returns the category names indexed by code.
func (p *Proximity) Names() []string {
	names := make([]string, len(p.Categories)+1)
	names[None] = NoneName
	for _, c := range p.Categories {
		if c.Code < len(names) {
			names[c.Code] = c.Name
		}
	}
	return names
}

func (p *Proximity) near(start int, events []int) bool {
	for _, e := range events {
		d := start - e
		if d < 0 {
			d = -d
		}
		if d < p.Threshold {
			return true
		}
	}
	return false
}

func matches(markers []string, l string) bool {
	for _, m := range markers {
		if m == l {
			return true
		}
	}
	return false
}
