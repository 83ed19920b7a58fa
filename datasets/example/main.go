package main

// Example command that builds a dataset from a directory of capture CSVs and
// converts a small batch into gomlx tensors.
//
// Usage:
//   go run ./datasets/example -dir data -type relative
//
// Regression selectors yield [batch, steps, fields] inputs and targets;
// classification selectors yield int32 category codes of shape [batch].

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/Noofbiz/vrmotion/datasets"
	"github.com/Noofbiz/vrmotion/scaler"
)

func main() {
	dir := flag.String("dir", "data", "directory of capture CSV files")
	dataType := flag.String("type", "relative", "output selector (euler, quaternion, both, relative, gesture, grab, end, start+end)")
	lookBack := flag.Int("look-back", 10, "rows per window")
	flag.Parse()

	sel, err := datasets.ParseSelector(*dataType)
	if err != nil {
		log.Fatalf("invalid selector: %v", err)
	}
	opts := datasets.Options{
		Selector:       sel,
		Range:          scaler.Symmetric,
		LookBack:       *lookBack,
		Step:           1,
		GestureSteps:   10,
		PerFileScaling: true,
		Seed:           1,
	}
	ds, err := datasets.NewBuilder(nil, nil).Build(context.Background(), *dir, opts)
	if err != nil {
		log.Fatalf("failed to build dataset: %v", err)
	}
	fmt.Printf("Dataset %s: %d examples\n", ds.Name(), ds.Len())
	fmt.Printf("  Input shape: %v\n", ds.InputShape())
	fmt.Printf("  Label shape: %v\n", ds.LabelShape())

	n := min(8, ds.Len())
	if n == 0 {
		return
	}
	indices := make([]int, n)
	for i := range n {
		indices[i] = i
	}
	inputs, labels, err := ds.Batch(indices)
	if err != nil {
		log.Fatalf("failed to build batch: %v", err)
	}
	flat, err := datasets.MakeBatchFlat(inputs, labels, ds.InputShape(), ds.LabelShape())
	if err != nil {
		log.Fatalf("failed to make batch flat: %v", err)
	}
	inT, laT, err := flat.ToGomlxTensors()
	if err != nil {
		log.Fatalf("failed to convert batch to gomlx tensors: %v", err)
	}
	fmt.Printf("Created tensors: input=%s label=%s\n", inT.Shape(), laT.Shape())

	if c, ok := ds.(datasets.Categorical); ok {
		fmt.Printf("  Labels: %v\n", c.Vocabulary().Labels)
		code := int(labels[0][0])
		name, _ := c.Vocabulary().Decode(code)
		fmt.Printf("  First example label: %d (%s)\n", code, name)
	} else {
		fmt.Printf("  First example target: %v\n", labels[0][:min(len(labels[0]), 7)])
	}
}
