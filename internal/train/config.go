package train

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Config is the yaml-serializable run configuration.
type Config struct {
	Epochs          int     `yaml:"epochs"`
	Patience        int     `yaml:"patience"`
	BatchSize       int     `yaml:"batch_size"`
	LearningRate    float32 `yaml:"learning_rate"`
	NumChunks       int     `yaml:"num_chunks"`
	SamplesPerPatch int     `yaml:"samples_per_patch"`
	Seed            int64   `yaml:"seed"`
	MetricsPath     string  `yaml:"metrics_path"`
	PlotPath        string  `yaml:"plot_path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Epochs:          10,
		Patience:        3,
		BatchSize:       32,
		LearningRate:    1e-3,
		NumChunks:       32,
		SamplesPerPatch: 16,
		Seed:            42,
	}
}

// Validate checks the configuration for values the loop cannot run with.
func (c Config) Validate() error {
	if c.Epochs < 1 {
		return fmt.Errorf("config: epochs must be >= 1, got %d", c.Epochs)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: batch_size must be >= 1, got %d", c.BatchSize)
	}
	if c.NumChunks < 1 {
		return fmt.Errorf("config: num_chunks must be >= 1, got %d", c.NumChunks)
	}
	if c.SamplesPerPatch < 1 {
		return fmt.Errorf("config: samples_per_patch must be >= 1, got %d", c.SamplesPerPatch)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("config: learning_rate must be positive, got %g", c.LearningRate)
	}
	return nil
}

// LoadConfig reads a yaml config file, filling unset fields from defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Rule returns the subsampling parameters of the config.
func (c Config) Rule() SubsampleRule {
	return SubsampleRule{NumChunks: c.NumChunks, SamplesPerPatch: c.SamplesPerPatch}
}
