package scaler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Entry is one feature of the persisted artifact.
type Entry struct {
	Type         string  `json:"type"`
	Min          float64 `json:"min"`
	Scale        float64 `json:"scale"`
	DataMin      float64 `json:"data_min"`
	DataMax      float64 `json:"data_max"`
	DataRange    float64 `json:"data_range"`
	NSamplesSeen int     `json:"n_samples_seen"`
}

// Artifact is the on-disk form of a fitted scaler together with the label
// vocabulary of categorical datasets (code = position in Labels).
type Artifact struct {
	Scalers      []Entry    `json:"scalers"`
	FeatureRange [2]float64 `json:"feature_range"`
	Labels       []string   `json:"labels,omitempty"`

	// Files holds per-file scalers when a dataset scales each capture
	// separately. Scalers is empty in that case.
	Files []FileScalers `json:"files,omitempty"`
}

// FileScalers is the persisted scaler of one capture file.
type FileScalers struct {
	File    string  `json:"file"`
	Scalers []Entry `json:"scalers"`
}

// Artifact builds the persisted record in column order.
func (s *MinMax) Artifact(labels []string) (*Artifact, error) {
	entries, err := s.entries()
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Scalers:      entries,
		FeatureRange: [2]float64{s.FeatureRange.Min, s.FeatureRange.Max},
		Labels:       labels,
	}, nil
}

// PerFileArtifact builds a record holding one scaler per file. Every scaler
// must share the same feature range.
func PerFileArtifact(files []string, scalers []*MinMax, labels []string) (*Artifact, error) {
	if len(files) != len(scalers) || len(scalers) == 0 {
		return nil, fmt.Errorf("%w: %d files for %d scalers", ErrDimension, len(files), len(scalers))
	}
	r := scalers[0].FeatureRange
	a := &Artifact{FeatureRange: [2]float64{r.Min, r.Max}, Labels: labels}
	for i, s := range scalers {
		if s.FeatureRange != r {
			return nil, fmt.Errorf("file %s: feature range differs", files[i])
		}
		entries, err := s.entries()
		if err != nil {
			return nil, fmt.Errorf("file %s: %w", files[i], err)
		}
		a.Files = append(a.Files, FileScalers{File: files[i], Scalers: entries})
	}
	return a, nil
}

func (s *MinMax) entries() ([]Entry, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	if len(s.Names) != len(s.Scale) {
		return nil, fmt.Errorf("%w: %d names for %d fitted columns", ErrDimension, len(s.Names), len(s.Scale))
	}
	out := make([]Entry, len(s.Scale))
	for i := range s.Scale {
		out[i] = Entry{
			Type:         s.Names[i],
			Min:          s.Min[i],
			Scale:        s.Scale[i],
			DataMin:      s.DataMin[i],
			DataMax:      s.DataMax[i],
			DataRange:    s.DataRange[i],
			NSamplesSeen: s.NSamplesSeen,
		}
	}
	return out, nil
}

// FromArtifact restores a fitted scaler.
func FromArtifact(a *Artifact) *MinMax {
	return fromEntries(Range{Min: a.FeatureRange[0], Max: a.FeatureRange[1]}, a.Scalers)
}

// FileScaler restores the scaler of one file from a per-file artifact.
func (a *Artifact) FileScaler(file string) (*MinMax, bool) {
	for _, f := range a.Files {
		if f.File == file {
			return fromEntries(Range{Min: a.FeatureRange[0], Max: a.FeatureRange[1]}, f.Scalers), true
		}
	}
	return nil, false
}

func fromEntries(r Range, entries []Entry) *MinMax {
	s := &MinMax{FeatureRange: r}
	for _, e := range entries {
		s.Names = append(s.Names, e.Type)
		s.Min = append(s.Min, e.Min)
		s.Scale = append(s.Scale, e.Scale)
		s.DataMin = append(s.DataMin, e.DataMin)
		s.DataMax = append(s.DataMax, e.DataMax)
		s.DataRange = append(s.DataRange, e.DataRange)
		s.NSamplesSeen = e.NSamplesSeen
	}
	return s
}

// Matches reports whether b holds the same scaler state and vocabulary.
func (a *Artifact) Matches(b *Artifact) bool {
	if a.FeatureRange != b.FeatureRange || !slices.Equal(a.Scalers, b.Scalers) || !slices.Equal(a.Labels, b.Labels) {
		return false
	}
	return slices.EqualFunc(a.Files, b.Files, func(x, y FileScalers) bool {
		return x.File == y.File && slices.Equal(x.Scalers, y.Scalers)
	})
}

// Save writes the artifact as JSON. The file is written to a temp file in
// the same directory and renamed into place.
func (a *Artifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scaler artifact: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp scaler file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write scaler artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp scaler file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename scaler artifact: %w", err)
	}
	return nil
}

// Load reads an artifact written by Save.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode scaler artifact %s: %w", path, err)
	}
	return &a, nil
}
