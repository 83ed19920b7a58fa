package labels_test

import (
	"testing"

	"github.com/Noofbiz/vrmotion/labels"
	"github.com/smartystreets/goconvey/convey"
)

func TestVocabulary(t *testing.T) {
	convey.Convey("Given labels observed in arbitrary order", t, func() {
		values := []string{"c", "none", "a", "c", "b", "none"}

		convey.Convey("When the vocabulary is built excluding the sentinel", func() {
			v := labels.NewVocabulary(values, "none")

			convey.Convey("Then codes follow lexicographic order", func() {
				convey.So(v.Labels, convey.ShouldResemble, []string{"a", "b", "c"})
				code, err := v.Code("c")
				convey.So(err, convey.ShouldBeNil)
				convey.So(code, convey.ShouldEqual, 2)
				name, err := v.Decode(1)
				convey.So(err, convey.ShouldBeNil)
				convey.So(name, convey.ShouldEqual, "b")
			})

			convey.Convey("Then unknown labels and codes are rejected", func() {
				_, err := v.Code("none")
				convey.So(err, convey.ShouldNotBeNil)
				_, err = v.Decode(3)
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Then a vocabulary restored from its labels decodes identically", func() {
				restored := labels.FromLabels(v.Labels)
				for i := range v.Labels {
					a, _ := v.Decode(i)
					b, _ := restored.Decode(i)
					convey.So(a, convey.ShouldEqual, b)
				}
			})
		})

		convey.Convey("When the input order changes the codes do not", func() {
			v1 := labels.NewVocabulary([]string{"z", "y", "x"})
			v2 := labels.NewVocabulary([]string{"x", "z", "y"})
			convey.So(v1.Labels, convey.ShouldResemble, v2.Labels)
		})
	})
}

func TestProximity(t *testing.T) {
	convey.Convey("Given a stream with an Up marker at row 30", t, func() {
		rows := make([]string, 60)
		for i := range rows {
			rows[i] = "None"
		}
		rows[30] = "Up"
		p := labels.NewProximity(labels.DefaultThreshold)
		events := p.Events(rows)

		convey.Convey("Then a window starting threshold-1 rows away is up", func() {
			code, name := p.Label(30-(labels.DefaultThreshold-1), events)
			convey.So(code, convey.ShouldEqual, 1)
			convey.So(name, convey.ShouldEqual, "up")
			code, _ = p.Label(30+labels.DefaultThreshold-1, events)
			convey.So(code, convey.ShouldEqual, 1)
		})

		convey.Convey("Then a window starting exactly threshold rows away is none", func() {
			code, name := p.Label(30-labels.DefaultThreshold, events)
			convey.So(code, convey.ShouldEqual, labels.None)
			convey.So(name, convey.ShouldEqual, "none")
		})

		convey.Convey("Then stats count every assignment", func() {
			p.Label(30, events)
			p.Label(0, events)
			convey.So(p.Stats["up"], convey.ShouldEqual, 1)
			convey.So(p.Stats["none"], convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given overlapping up and backward events", t, func() {
		rows := []string{"Backward0", "None", "Up0", "None", "Down"}
		p := labels.NewProximity(3)
		events := p.Events(rows)

		convey.Convey("Then the priority order decides", func() {
			code, name := p.Label(1, events)
			convey.So(code, convey.ShouldEqual, 1)
			convey.So(name, convey.ShouldEqual, "up")
		})

		convey.Convey("Then names are indexed by code", func() {
			convey.So(p.Names(), convey.ShouldResemble, []string{"none", "up", "down", "forward", "backward"})
		})
	})
}

func TestSpans(t *testing.T) {
	convey.Convey("Given a grab stream with two marked end rows", t, func() {
		rows := []string{"None", "Grab", "None", "None", "Release", "None"}

		convey.Convey("When rowsPerGrab is 0", func() {
			spans := labels.Spans(rows, "None", 0)
			convey.Convey("Then each span is the end row alone", func() {
				convey.So(spans, convey.ShouldResemble, []labels.Span{
					{Start: 1, End: 1, Label: "Grab"},
					{Start: 4, End: 4, Label: "Release"},
				})
			})
		})

		convey.Convey("When rowsPerGrab is 2", func() {
			spans := labels.Spans(rows, "None", 2)
			convey.Convey("Then spans take the trailing rows and clip at the file start", func() {
				convey.So(spans[0], convey.ShouldResemble, labels.Span{Start: 0, End: 1, Label: "Grab"})
				convey.So(spans[1], convey.ShouldResemble, labels.Span{Start: 2, End: 4, Label: "Release"})
				convey.So(spans[1].Len(), convey.ShouldEqual, 3)
			})
		})
	})
}

func TestBoundaries(t *testing.T) {
	convey.Convey("Given a typing stream", t, func() {
		rows := []string{"none", "a", "a", "none", "b", "none", "none", "c"}

		convey.Convey("Then end rows precede a release", func() {
			convey.So(labels.EndRows(rows, "none"), convey.ShouldResemble, []int{2, 4})
		})

		convey.Convey("Then start rows follow a sentinel", func() {
			convey.So(labels.StartRows(rows, "none"), convey.ShouldResemble, []int{1, 4, 7})
		})

		convey.Convey("Then each press is joined with its own release", func() {
			pairs := labels.Pairs(labels.StartRows(rows, "none"), labels.EndRows(rows, "none"))
			convey.So(pairs, convey.ShouldResemble, []labels.Press{{Start: 1, End: 2}, {Start: 4, End: 4}})
		})
	})

	convey.Convey("Given a stream that begins mid-press", t, func() {
		rows := []string{"a", "none", "b", "b", "none"}
		starts, ends := labels.StartRows(rows, "none"), labels.EndRows(rows, "none")
		convey.So(starts, convey.ShouldResemble, []int{2})
		convey.So(ends, convey.ShouldResemble, []int{0, 3})

		convey.Convey("Then the leading release is not paired", func() {
			convey.So(labels.Pairs(starts, ends), convey.ShouldResemble, []labels.Press{{Start: 2, End: 3}})
		})
	})

	convey.Convey("Given a press without a release before the next press", t, func() {
		starts := []int{1, 5}
		ends := []int{6}
		convey.So(labels.Pairs(starts, ends), convey.ShouldResemble, []labels.Press{{Start: 5, End: 6}})
	})

	convey.Convey("Given a single key row followed by the sentinel", t, func() {
		rows := []string{"a", "none"}
		convey.So(labels.EndRows(rows, "none"), convey.ShouldResemble, []int{0})
	})
}
