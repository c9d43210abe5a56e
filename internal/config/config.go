// Package config handles slicer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/layerslice/internal/sink"
	"github.com/Faultbox/layerslice/pkg/slicer"
)

// Config holds all slicer settings.
type Config struct {
	Slice   SliceConfig   `yaml:"slice"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SliceConfig holds slicing kernel settings.
type SliceConfig struct {
	Step         float64 `yaml:"step"`          // distance between cutting planes
	Workers      int     `yaml:"workers"`       // worker pool size
	QueueDepth   int     `yaml:"queue_depth"`   // planes waiting for a worker
	TriplePoints string  `yaml:"triple_points"` // "loop" or "drop"
}

// OutputConfig holds layer file settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png, bmp or tiff
	Key    string `yaml:"key"`    // index or height
	Prefix string `yaml:"prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Slice: SliceConfig{
			Step:         1,
			Workers:      runtime.NumCPU(),
			QueueDepth:   slicer.DefaultQueueDepth,
			TriplePoints: "loop",
		},
		Output: OutputConfig{
			Dir:    "layers",
			Format: "png",
			Key:    "index",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []error
	if !(c.Slice.Step > 0) {
		errs = append(errs, fmt.Errorf("slice.step must be positive, got %v", c.Slice.Step))
	}
	if c.Slice.Workers < 1 {
		errs = append(errs, fmt.Errorf("slice.workers must be at least 1, got %d", c.Slice.Workers))
	}
	if c.Slice.QueueDepth < 1 {
		errs = append(errs, fmt.Errorf("slice.queue_depth must be at least 1, got %d", c.Slice.QueueDepth))
	}
	if _, err := slicer.ParseTriplePolicy(c.Slice.TriplePoints); err != nil {
		errs = append(errs, fmt.Errorf("slice.triple_points: %w", err))
	}
	if _, err := sink.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if _, err := sink.ParseKeyMode(c.Output.Key); err != nil {
		errs = append(errs, fmt.Errorf("output.key: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SliceOptions converts the slice section for slicer.Slice.
func (c *Config) SliceOptions(log *zap.Logger) (slicer.Options, error) {
	policy, err := slicer.ParseTriplePolicy(c.Slice.TriplePoints)
	if err != nil {
		return slicer.Options{}, err
	}
	return slicer.Options{
		Step:       float32(c.Slice.Step),
		Workers:    c.Slice.Workers,
		QueueDepth: c.Slice.QueueDepth,
		Triple:     policy,
		Logger:     log,
	}, nil
}

// SinkOptions converts the output section for sink.NewFileSink.
func (c *Config) SinkOptions() (sink.Options, error) {
	format, err := sink.ParseFormat(c.Output.Format)
	if err != nil {
		return sink.Options{}, err
	}
	key, err := sink.ParseKeyMode(c.Output.Key)
	if err != nil {
		return sink.Options{}, err
	}
	return sink.Options{
		Dir:    c.Output.Dir,
		Prefix: c.Output.Prefix,
		Format: format,
		Key:    key,
	}, nil
}
