// Package labels attaches categorical targets to rows and windows: the
// sorted label vocabulary, proximity labeling around annotated event rows,
// span extraction ending at marker rows, and press/release boundaries in
// typing captures.
package labels

import (
	"fmt"
	"sort"
)

// Vocabulary assigns dense integer codes to label strings in lexicographic
// order, so codes are stable across runs.
type Vocabulary struct {
	Labels []string
	codes  map[string]int
}

// NewVocabulary builds the vocabulary of the distinct values, skipping the
// excluded strings (sentinels).
func NewVocabulary(values []string, exclude ...string) *Vocabulary {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	seen := make(map[string]bool)
	var distinct []string
	for _, v := range values {
		if skip[v] || seen[v] {
			continue
		}
		seen[v] = true
		distinct = append(distinct, v)
	}
	sort.Strings(distinct)
	return FromLabels(distinct)
}

// FromLabels restores a vocabulary from its persisted ordered labels.
func FromLabels(ordered []string) *Vocabulary {
	v := &Vocabulary{Labels: append([]string(nil), ordered...), codes: make(map[string]int, len(ordered))}
	for i, l := range v.Labels {
		v.codes[l] = i
	}
	return v
}

// Len returns the number of categories.
func (v *Vocabulary) Len() int { return len(v.Labels) }

// Code returns the integer code of a label.
func (v *Vocabulary) Code(label string) (int, error) {
	c, ok := v.codes[label]
	if !ok {
		return 0, fmt.Errorf("label %q not in vocabulary", label)
	}
	return c, nil
}

// Decode returns the label of a code.
func (v *Vocabulary) Decode(code int) (string, error) {
	if code < 0 || code >= len(v.Labels) {
		return "", fmt.Errorf("code %d out of range [0, %d)", code, len(v.Labels))
	}
	return v.Labels[code], nil
}
