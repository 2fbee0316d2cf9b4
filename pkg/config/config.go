// Package config loads the YAML configuration shared by the dagger
// commands.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/nodesel-dagger/pkg/gbrank"
	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/policy"
	"github.com/dd0wney/nodesel-dagger/pkg/solverlog"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
	"github.com/dd0wney/nodesel-dagger/pkg/validation"
)

// Config is the root of the configuration file.
type Config struct {
	Log      LogConfig         `yaml:"log"`
	Layouts  solverlog.Layouts `yaml:"layouts"`
	Pipeline PipelineConfig    `yaml:"pipeline"`
	Training TrainingConfig    `yaml:"training"`
	Scoring  ScoringConfig     `yaml:"scoring"`
	Stats    StatsConfig       `yaml:"stats"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// PipelineConfig drives make-data.
type PipelineConfig struct {
	InstancesDir  string `yaml:"instances_dir"`
	TrajectoryDir string `yaml:"trajectory_dir"`
	LogDir        string `yaml:"log_dir"`
	Output        string `yaml:"output"`
	// FirstK limits the run to the first k instances; 0 means all.
	FirstK int    `yaml:"first_k"`
	Layout string `yaml:"layout"`
	Sense  string `yaml:"sense"`
}

// TrainingConfig drives train.
type TrainingConfig struct {
	Input          string `yaml:"input"`
	EvalInstances  int    `yaml:"eval_instances"`
	EvalExamples   int    `yaml:"eval_examples"`
	BatchInstances int    `yaml:"batch_instances"`
	BatchExamples  int    `yaml:"batch_examples"`
	FlushPartial   bool   `yaml:"flush_partial"`
	// StartIter continues from policy StartIter-1 when positive.
	StartIter int           `yaml:"start_iter"`
	Model     gbrank.Params `yaml:"model"`
	Store     StoreConfig   `yaml:"store"`
}

// StoreConfig selects where policies live.
type StoreConfig struct {
	Kind      string `yaml:"kind"`
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// ScoringConfig drives serve and score.
type ScoringConfig struct {
	Transport   string        `yaml:"transport"`
	Address     string        `yaml:"address"`
	MetricsAddr string        `yaml:"metrics_addr"`
	Timeout     time.Duration `yaml:"timeout"`
	Store       StoreConfig   `yaml:"store"`
}

// StatsConfig drives stats.
type StatsConfig struct {
	LogDir      string `yaml:"log_dir"`
	Layout      string `yaml:"layout"`
	Output      string `yaml:"output"`
	Workers     int    `yaml:"workers"`
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info"},
		Layouts: solverlog.DefaultLayouts(),
		Pipeline: PipelineConfig{
			InstancesDir:  "instances",
			TrajectoryDir: "trajectories",
			LogDir:        "logs",
			Output:        "data/train.bin",
			Layout:        solverlog.DefaultLayoutName,
			Sense:         trace.Maximize.String(),
		},
		Training: TrainingConfig{
			Input:          "data/train.bin",
			EvalInstances:  200,
			BatchInstances: 200,
			Model:          gbrank.DefaultParams(),
			Store:          StoreConfig{Kind: "dir", Dir: "policies"},
		},
		Scoring: ScoringConfig{
			Transport: "nng",
			Address:   "tcp://127.0.0.1:5555",
			Timeout:   5 * time.Second,
			Store:     StoreConfig{Kind: "dir", Dir: "policies"},
		},
		Stats: StatsConfig{
			LogDir:  "logs",
			Layout:  solverlog.DefaultLayoutName,
			Workers: 4,
			Table:   "solve_stats",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// LOG_LEVEL overrides log.level.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}
	for name, l := range cfg.Layouts {
		if l.Name == "" {
			l.Name = name
			cfg.Layouts[name] = l
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	errs := make([]error, 0)

	errs = append(errs, validation.NewConfigValidator("log").
		OneOf("level", c.Log.Level, []string{"debug", "info", "warn", "warning", "error"}).
		Validate())

	for _, l := range c.Layouts {
		errs = append(errs, l.Validate())
	}

	errs = append(errs, validation.NewConfigValidator("pipeline").
		NonNegative("first_k", c.Pipeline.FirstK).
		Custom("sense", func() error {
			_, err := trace.ParseSense(c.Pipeline.Sense)
			return err
		}).
		Custom("layout", c.layoutExists(c.Pipeline.Layout)).
		Validate())

	errs = append(errs, validation.NewConfigValidator("training").
		Positive("eval_instances", c.Training.EvalInstances).
		NonNegative("eval_examples", c.Training.EvalExamples).
		Positive("batch_instances", c.Training.BatchInstances).
		NonNegative("batch_examples", c.Training.BatchExamples).
		NonNegative("start_iter", c.Training.StartIter).
		Validate())
	errs = append(errs, c.Training.Model.Validate())
	errs = append(errs, c.Training.Store.validate("training.store"))

	errs = append(errs, validation.NewConfigValidator("scoring").
		OneOf("transport", c.Scoring.Transport, []string{"nng", "zmq"}).
		Required("address", c.Scoring.Address).
		PositiveDuration("timeout", c.Scoring.Timeout).
		Validate())
	errs = append(errs, c.Scoring.Store.validate("scoring.store"))

	errs = append(errs, validation.NewConfigValidator("stats").
		Positive("workers", c.Stats.Workers).
		Custom("layout", c.layoutExists(c.Stats.Layout)).
		When(c.Stats.DatabaseURL != "", func(cv *validation.ConfigValidator) {
			cv.Required("table", c.Stats.Table)
		}).
		Validate())

	return errors.Join(errs...)
}

func (c *Config) layoutExists(name string) func() error {
	return func() error {
		_, err := c.Layouts.Get(name)
		return err
	}
}

func (s StoreConfig) validate(section string) error {
	return validation.NewConfigValidator(section).
		OneOf("kind", s.Kind, []string{"dir", "s3"}).
		When(s.Kind == "dir", func(cv *validation.ConfigValidator) {
			cv.Required("dir", s.Dir)
		}).
		When(s.Kind == "s3", func(cv *validation.ConfigValidator) {
			cv.Required("bucket", s.Bucket)
		}).
		Validate()
}

// Open returns the policy store the section describes.
func (s StoreConfig) Open(ctx context.Context) (policy.Store, error) {
	switch s.Kind {
	case "s3":
		return policy.NewS3Store(ctx, policy.S3Options{
			Bucket:    s.Bucket,
			Prefix:    s.Prefix,
			Region:    s.Region,
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
		})
	default:
		return policy.NewDirStore(s.Dir)
	}
}

// Layout returns the named layout.
func (c *Config) Layout(name string) (solverlog.Layout, error) {
	return c.Layouts.Get(name)
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() logging.Logger {
	return logging.NewStderrLogger(logging.ParseLevel(c.Log.Level))
}
