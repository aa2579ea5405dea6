// Package main provides the Chorus training framework CLI.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"

	"github.com/chorus-ml/chorus/train"
)

const version = "v0.1.0-dev"

type trainCmd struct {
	Config  string `arg:"--config" help:"yaml run configuration file"`
	Metrics string `arg:"--metrics" help:"JSONL metrics output file (overrides config)"`
}

type args struct {
	Train *trainCmd `arg:"subcommand:train" help:"validate a run configuration and print the effective settings"`
}

func (args) Version() string {
	return "chorus " + version
}

func main() {
	var a args
	p := arg.MustParse(&a)

	switch {
	case a.Train != nil:
		if err := runTrain(a.Train); err != nil {
			fmt.Fprintf(os.Stderr, "chorus: %v\n", err)
			os.Exit(1)
		}
	default:
		p.WriteHelp(os.Stdout)
	}
}

// runTrain loads and validates a run configuration. Model and dataset
// wiring is program-specific; see examples/avdigits for a complete run.
func runTrain(cmd *trainCmd) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	cfg := train.DefaultConfig()
	if cmd.Config != "" {
		cfg, err = train.LoadConfig(cmd.Config)
		if err != nil {
			return err
		}
	}
	if cmd.Metrics != "" {
		cfg.MetricsPath = cmd.Metrics
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	rule := cfg.Rule()
	sampleChunk := rule.Generate(rng,
		[]int{cfg.BatchSize, 56, 56, 3},
		[]int{cfg.BatchSize, 48000, 1})

	logger.Info("run configuration",
		zap.Int("epochs", cfg.Epochs),
		zap.Int("patience", cfg.Patience),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Float64("learning_rate", float64(cfg.LearningRate)),
		zap.Int("num_chunks", cfg.NumChunks),
		zap.Int("samples_per_patch", cfg.SamplesPerPatch),
		zap.Int64("seed", cfg.Seed),
		zap.String("metrics_path", cfg.MetricsPath))
	logger.Info("example subsampling for a 56x56x3 image, 48kHz audio batch",
		zap.Int("image_start", sampleChunk["image"].Start),
		zap.Int("image_end", sampleChunk["image"].End),
		zap.Int("audio_start", sampleChunk["audio"].Start),
		zap.Int("audio_end", sampleChunk["audio"].End))
	return nil
}
