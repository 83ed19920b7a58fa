package simple

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/Noofbiz/vrmotion/pkg/logger"
	"github.com/Noofbiz/vrmotion/pkg/metrics"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// Dataset is the minimal interface the driver requires. It keeps this
// package decoupled from the concrete datasets package; every dataset there
// satisfies it.
type Dataset interface {
	Len() int
	// Batch returns inputs and targets for the provided indices.
	Batch(indices []int) ([][]float32, [][]float32, error)
}

// TrainConfig holds the driver settings.
type TrainConfig struct {
	Epochs    int
	BatchSize int
	// L2Lambda weights the sum of squared parameter values added to the loss.
	L2Lambda float64
	// CheckpointEvery writes a checkpoint after every n-th epoch; 0 disables.
	CheckpointEvery int
	// ClipNorm bounds the global gradient norm; 0 disables clipping.
	ClipNorm float64
	// OutputDir receives checkpoints/, the final model and the loss plot.
	OutputDir string
	Seed      int64
}

// History is the per-epoch record of a run.
type History struct {
	RunID     string
	Train     []float64
	Valid     []float64
	BestEpoch int
	BestLoss  float64
}

// Trainer runs the train/validate epoch loop.
type Trainer struct {
	Model     Model
	Optimizer Optimizer
	Config    TrainConfig
	Log       logger.Logger
	Metrics   *metrics.Manager
	RunID     string

	rng *rand.Rand
}

// NewTrainer returns a trainer with a fresh run id. A nil logger discards
// output and a nil manager records into a private registry.
func NewTrainer(m Model, opt Optimizer, cfg TrainConfig, log logger.Logger, mm *metrics.Manager) *Trainer {
	if cfg.Epochs <= 0 {
		cfg.Epochs = 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 8
	}
	if log == nil {
		log = logger.Nop()
	}
	if mm == nil {
		mm = metrics.NewManager()
	}
	return &Trainer{
		Model:     m,
		Optimizer: opt,
		Config:    cfg,
		Log:       log,
		Metrics:   mm,
		RunID:     uuid.NewString(),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
}

// CheckpointPath returns where the checkpoint of an epoch is written; an
// epoch < 0 names the final model.
func (t *Trainer) CheckpointPath(epoch int, ext string) string {
	name := "model_final" + ext
	if epoch >= 0 {
		name = fmt.Sprintf("model_%d%s", epoch, ext)
	}
	return filepath.Join(t.Config.OutputDir, "checkpoints", name)
}

// Train fits the model on train, evaluates on valid after every epoch and
// keeps the weights of the lowest validation loss. When valid is empty the
// training loss selects the best weights. The best weights are restored into
// the model and exported as the final model before Train returns.
func (t *Trainer) Train(ctx context.Context, train, valid Dataset) (*History, error) {
	if train == nil || train.Len() == 0 {
		return nil, errors.New("training set has no examples")
	}
	if t.Model == nil || t.Optimizer == nil {
		return nil, errors.New("trainer needs a model and an optimizer")
	}
	cfg := t.Config
	h := &History{RunID: t.RunID, BestEpoch: -1, BestLoss: math.Inf(1)}
	var best *Checkpoint

	t.Log.Info(ctx, "training started",
		logger.String("run_id", t.RunID),
		logger.Int("train", train.Len()),
		logger.Int("valid", lenOf(valid)),
		logger.Int("epochs", cfg.Epochs),
		logger.Int("batch_size", cfg.BatchSize))
	start := time.Now()

	indices := make([]int, train.Len())
	for i := range indices {
		indices[i] = i
	}
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return h, err
		}
		epochStart := time.Now()
		t.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		trainLoss, err := t.trainEpoch(train, indices)
		if err != nil {
			return h, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		validLoss := trainLoss
		if lenOf(valid) > 0 {
			if validLoss, err = t.evaluate(valid); err != nil {
				return h, fmt.Errorf("epoch %d validation: %w", epoch, err)
			}
		}
		h.Train = append(h.Train, trainLoss)
		h.Valid = append(h.Valid, validLoss)
		if validLoss < h.BestLoss {
			h.BestLoss, h.BestEpoch = validLoss, epoch
			best = Snapshot(t.Model, t.RunID, epoch)
		}

		elapsed := time.Since(epochStart)
		t.Metrics.Epoch(trainLoss, validLoss, h.BestLoss, elapsed)
		t.Log.Info(ctx, "epoch finished",
			logger.Int("epoch", epoch),
			logger.Float64("train_loss", trainLoss),
			logger.Float64("valid_loss", validLoss),
			logger.Float64("best_loss", h.BestLoss),
			logger.Duration("elapsed", elapsed))

		if cfg.CheckpointEvery > 0 && (epoch+1)%cfg.CheckpointEvery == 0 {
			if err := t.export(Snapshot(t.Model, t.RunID, epoch), epoch); err != nil {
				return h, err
			}
			t.Metrics.Checkpoint()
			t.Log.Debug(ctx, "checkpoint written", logger.String("path", t.CheckpointPath(epoch, ".gob")))
		}
	}

	if best != nil {
		if err := best.Restore(t.Model); err != nil {
			return h, fmt.Errorf("restore best weights: %w", err)
		}
		if err := t.export(best, -1); err != nil {
			return h, err
		}
	}
	if cfg.OutputDir != "" {
		if err := PlotLosses(h, filepath.Join(cfg.OutputDir, "loss.png")); err != nil {
			t.Log.Warn(ctx, "loss plot not written", logger.Error(err))
		}
	}
	t.Log.Info(ctx, "training ended",
		logger.Int("best_epoch", h.BestEpoch),
		logger.Float64("best_loss", h.BestLoss),
		logger.Float64("lowest_train_loss", floats.Min(h.Train)),
		logger.Duration("elapsed", time.Since(start)))
	return h, nil
}

// trainEpoch runs one pass over the shuffled indices and returns the mean
// per-example loss including the penalty. Updates use the batch mean
// gradient.
func (t *Trainer) trainEpoch(ds Dataset, indices []int) (float64, error) {
	params := t.Model.Params()
	var running float64
	for start := 0; start < len(indices); start += t.Config.BatchSize {
		end := min(start+t.Config.BatchSize, len(indices))
		inputs, targets, err := ds.Batch(indices[start:end])
		if err != nil {
			return 0, err
		}
		zeroGrad(params)
		loss, err := t.Model.Backward(inputs, targets)
		if err != nil {
			return 0, err
		}
		n := float32(len(inputs))
		lambda := float32(t.Config.L2Lambda)
		for _, p := range params {
			for i := range p.Grad {
				p.Grad[i] = p.Grad[i]/n + 2*lambda*p.Value[i]
			}
		}
		clipGradients(params, t.Config.ClipNorm)
		penalty := t.Config.L2Lambda * squaredNorm(params)
		t.Optimizer.Step(params)
		running += loss + penalty*float64(len(inputs))
	}
	return running / float64(len(indices)), nil
}

// evaluate returns the mean per-example loss including the penalty.
func (t *Trainer) evaluate(ds Dataset) (float64, error) {
	n := ds.Len()
	penalty := t.Config.L2Lambda * squaredNorm(t.Model.Params())
	var running float64
	for start := 0; start < n; start += t.Config.BatchSize {
		end := min(start+t.Config.BatchSize, n)
		idx := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			idx = append(idx, i)
		}
		inputs, targets, err := ds.Batch(idx)
		if err != nil {
			return 0, err
		}
		loss, err := t.Model.Loss(inputs, targets)
		if err != nil {
			return 0, err
		}
		running += loss
	}
	return running/float64(n) + penalty, nil
}

func (t *Trainer) export(c *Checkpoint, epoch int) error {
	if t.Config.OutputDir == "" {
		return nil
	}
	if err := c.Save(t.CheckpointPath(epoch, ".gob")); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	if err := c.ExportGraph(t.CheckpointPath(epoch, ".json")); err != nil {
		return fmt.Errorf("export graph: %w", err)
	}
	return nil
}

func zeroGrad(params []*Param) {
	for _, p := range params {
		clear(p.Grad)
	}
}

// squaredNorm is the sum of squared values of every parameter.
func squaredNorm(params []*Param) float64 {
	var total float64
	for _, p := range params {
		v := make([]float64, len(p.Value))
		for i, x := range p.Value {
			v[i] = float64(x)
		}
		total += floats.Dot(v, v)
	}
	return total
}

func lenOf(ds Dataset) int {
	if ds == nil {
		return 0
	}
	return ds.Len()
}
