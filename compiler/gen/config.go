package gen

import (
	"sort"

	"github.com/rs/zerolog"
)

// Supported target frameworks.
const (
	FrameworkExpress = "express"
	FrameworkFastify = "fastify"
)

// Supported hook target frameworks.
var knownHookFrameworks = map[string]bool{
	"react":  true,
	"vue":    true,
	"svelte": true,
}

// RawConfig is the configuration as provided by the caller, before
// validation and defaulting. The yaml tags match the on-disk project
// configuration file.
type RawConfig struct {
	Framework     string              `yaml:"framework"`
	UseEnhanced   *bool               `yaml:"useEnhanced"`
	UseRegistry   bool                `yaml:"useRegistry"`
	Production    bool                `yaml:"production"`
	ErrorHandling RawErrorHandling    `yaml:"errorHandling"`
	Generation    RawGeneration       `yaml:"generation"`
	Metadata      Metadata            `yaml:"metadata"`
	Features      map[string]Features `yaml:"features,omitempty"`
}

// RawErrorHandling configures the escalation policy inputs.
type RawErrorHandling struct {
	FailFast               bool `yaml:"failFast"`
	ContinueOnError        bool `yaml:"continueOnError"`
	StrictPluginValidation bool `yaml:"strictPluginValidation"`
}

// RawGeneration configures optional generation outputs.
type RawGeneration struct {
	Checklist      *bool    `yaml:"checklist"`
	AutoOpen       bool     `yaml:"autoOpen"`
	HookFrameworks []string `yaml:"hookFrameworks"`
}

// Metadata identifies the run for traceability.
type Metadata struct {
	ProjectName string `yaml:"projectName"`
	SchemaHash  string `yaml:"schemaHash"`
	ToolVersion string `yaml:"toolVersion"`
}

// Features is the opaque per-feature configuration forwarded to the
// plugin subsystem without interpretation.
type Features map[string]any

// Config is the normalized, immutable configuration of one run.
// It is produced only by Normalize and never mutated afterwards.
type Config struct {
	Framework     string
	UseEnhanced   bool
	UseRegistry   bool
	Production    bool
	ErrorHandling ErrorHandling
	Generation    Generation
	Metadata      Metadata
	Features      map[string]Features

	// Workers bounds intra-phase fan-out. Zero means GOMAXPROCS.
	Workers int

	log zerolog.Logger
}

// ErrorHandling is the normalized escalation configuration.
type ErrorHandling struct {
	FailFast               bool
	ContinueOnError        bool
	StrictPluginValidation bool
}

// Generation is the normalized generation-output configuration.
type Generation struct {
	Checklist      bool
	AutoOpen       bool
	HookFrameworks []string
}

// Logger returns the logger configured for this run.
func (c *Config) Logger() zerolog.Logger {
	return c.log
}

// FeatureNames returns the configured feature names, sorted.
func (c *Config) FeatureNames() []string {
	names := make([]string, 0, len(c.Features))
	for name := range c.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Option configures normalization.
type Option func(*Config) error

// WithLogger sets the logger used for the run's progress side channel.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) error {
		c.log = log
		return nil
	}
}

// WithWorkers bounds concurrent per-model work inside a phase.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigConflictError("workers", "negative worker count")
		}
		c.Workers = n
		return nil
	}
}

// WithFeature enables a feature with its plugin configuration.
func WithFeature(name string, cfg Features) Option {
	return func(c *Config) error {
		if c.Features == nil {
			c.Features = make(map[string]Features)
		}
		c.Features[name] = cfg
		return nil
	}
}

// Normalize validates raw, resolves conflicting options, applies
// defaults and returns the immutable configuration for the run.
// Substituted defaults are logged as warnings naming the rejected
// values.
func Normalize(raw *RawConfig, opts ...Option) (*Config, error) {
	cfg := &Config{
		Framework:   raw.Framework,
		UseRegistry: raw.UseRegistry,
		Production:  raw.Production,
		ErrorHandling: ErrorHandling{
			FailFast:               raw.ErrorHandling.FailFast,
			ContinueOnError:        raw.ErrorHandling.ContinueOnError,
			StrictPluginValidation: raw.ErrorHandling.StrictPluginValidation,
		},
		Generation: Generation{
			AutoOpen: raw.Generation.AutoOpen,
		},
		Metadata: raw.Metadata,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if len(raw.Features) > 0 {
		if cfg.Features == nil {
			cfg.Features = make(map[string]Features, len(raw.Features))
		}
		for name, f := range raw.Features {
			cfg.Features[name] = f
		}
	}

	if raw.ErrorHandling.FailFast && raw.ErrorHandling.ContinueOnError {
		return nil, NewConfigConflictError("failFast", "continueOnError")
	}
	if raw.Production {
		if raw.Metadata.SchemaHash == "" {
			return nil, NewMissingProductionFieldError("schemaHash")
		}
		if raw.Metadata.ToolVersion == "" {
			return nil, NewMissingProductionFieldError("toolVersion")
		}
	}

	switch raw.Framework {
	case FrameworkExpress, FrameworkFastify:
	case "":
		cfg.Framework = FrameworkExpress
	default:
		cfg.log.Warn().
			Str("framework", raw.Framework).
			Str("default", FrameworkExpress).
			Msg("unknown framework, using default")
		cfg.Framework = FrameworkExpress
	}

	if raw.UseEnhanced != nil {
		cfg.UseEnhanced = *raw.UseEnhanced
	} else {
		cfg.UseEnhanced = true
	}

	if raw.Generation.Checklist != nil {
		cfg.Generation.Checklist = *raw.Generation.Checklist
	} else {
		cfg.Generation.Checklist = true
	}

	var rejected []string
	for _, fw := range raw.Generation.HookFrameworks {
		if knownHookFrameworks[fw] {
			cfg.Generation.HookFrameworks = append(cfg.Generation.HookFrameworks, fw)
		} else {
			rejected = append(rejected, fw)
		}
	}
	if len(rejected) > 0 {
		cfg.log.Warn().
			Strs("rejected", rejected).
			Msg("ignoring unknown hook frameworks")
	}
	if len(cfg.Generation.HookFrameworks) == 0 {
		if len(raw.Generation.HookFrameworks) > 0 {
			cfg.log.Warn().Msg("no valid hook frameworks configured, defaulting to react")
		}
		cfg.Generation.HookFrameworks = []string{"react"}
	}

	return cfg, nil
}
