package train

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chorus-ml/chorus/internal/data"
	"github.com/chorus-ml/chorus/internal/optim"
	"github.com/chorus-ml/chorus/internal/tensor"
)

// Status is the terminal state of a run.
type Status int

const (
	// Running means the loop is mid-run. Never present in a returned Result.
	Running Status = iota
	// Stopped means early stopping fired before the epoch budget ran out.
	Stopped
	// Completed means every requested epoch ran.
	Completed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StoppingState tracks early stopping across epochs. The counter increments
// whenever validation F1 drops below the immediately preceding epoch's
// score and never decrements, so a single bad epoch counts toward patience
// for the rest of the run.
type StoppingState struct {
	PrevValF1 float64
	NoImprove int
}

// Observe folds one epoch's validation F1 into the state and reports
// whether patience is exhausted.
func (s *StoppingState) Observe(valF1 float64, patience int) (halt bool) {
	if valF1 < s.PrevValF1 {
		s.NoImprove++
	}
	s.PrevValF1 = valF1
	return s.NoImprove >= patience
}

// History holds the per-epoch metric series of a run, append-only.
type History struct {
	TrainLoss []float64
	TrainF1   []float64
	ValLoss   []float64
	ValF1     []float64
}

func (h *History) append(trainLoss, trainF1, valLoss, valF1 float64) {
	h.TrainLoss = append(h.TrainLoss, trainLoss)
	h.TrainF1 = append(h.TrainF1, trainF1)
	h.ValLoss = append(h.ValLoss, valLoss)
	h.ValF1 = append(h.ValF1, valF1)
}

// Epochs returns the number of recorded epochs. When a run halts early the
// halting epoch's metrics are not recorded.
func (h *History) Epochs() int { return len(h.TrainLoss) }

// Result is the outcome of a run.
type Result struct {
	RunID    string
	Status   Status
	History  History
	Stopping StoppingState
}

// Trainer wires a classifier, its data, loss and optimizer into an epoch
// loop with early stopping. All run state lives in the Result; the Trainer
// itself is reusable across runs.
type Trainer[B Backend] struct {
	Model       Classifier[B]
	TrainLoader data.Loader[B]
	ValLoader   data.Loader[B]
	Loss        Loss[B]
	Optimizer   optim.Optimizer
	Device      tensor.Device
	Backend     B
	Rule        SubsampleRule
	Epochs      int
	Patience    int
	Rng         *rand.Rand
	Sink        MetricSink
	Logger      *zap.Logger
}

// Run executes up to Epochs epochs. Each epoch runs a train pass then a
// validation pass, updates the stopping state, and either halts or records
// and logs the epoch's four metrics. Failures in forward, backward or
// metric computation abort the run; partial history is still returned.
func (t *Trainer[B]) Run() (*Result, error) {
	sink := t.Sink
	if sink == nil {
		sink = NopSink{}
	}
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &Result{RunID: uuid.NewString(), Status: Running}
	logger.Info("run started",
		zap.String("run_id", res.RunID),
		zap.Int("epochs", t.Epochs),
		zap.Int("patience", t.Patience),
		zap.Int("train_batches", t.TrainLoader.Len()),
		zap.Int("val_batches", t.ValLoader.Len()))

	for epoch := 0; epoch < t.Epochs; epoch++ {
		trainLoss, trainF1, err := TrainStep(t.Model, t.TrainLoader, t.Loss, t.Optimizer, t.Device, t.Rule, t.Rng, t.Backend, sink)
		if err != nil {
			return res, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		valLoss, valF1, err := ValStep(t.Model, t.ValLoader, t.Loss, t.Device, t.Rule, t.Rng, t.Backend)
		if err != nil {
			return res, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		if t.Patience > 0 && res.Stopping.Observe(valF1, t.Patience) {
			// The halting epoch's metrics are not recorded.
			res.Status = Stopped
			logger.Info("run stopped early",
				zap.String("run_id", res.RunID),
				zap.Int("epoch", epoch),
				zap.Int("no_improve_epochs", res.Stopping.NoImprove))
			return res, nil
		}

		res.History.append(trainLoss, trainF1, valLoss, valF1)
		sink.Log(map[string]float64{
			"train loss": trainLoss,
			"val loss":   valLoss,
			"train F1":   trainF1,
			"val F1":     valF1,
			"epoch":      float64(epoch),
		})
		logger.Info("epoch finished",
			zap.String("run_id", res.RunID),
			zap.Int("epoch", epoch),
			zap.Float64("train_loss", trainLoss),
			zap.Float64("train_f1", trainF1),
			zap.Float64("val_loss", valLoss),
			zap.Float64("val_f1", valF1))
	}

	res.Status = Completed
	logger.Info("run completed",
		zap.String("run_id", res.RunID),
		zap.Int("epochs", res.History.Epochs()))
	return res, nil
}
