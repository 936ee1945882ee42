// Package config loads the pipeline configuration. Every field has a
// default, so running without a file reproduces the reference run: five
// GEXF inputs, 400 layout iterations, one artifact.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-atlas/pkg/algorithms"
	"github.com/dd0wney/cluso-atlas/pkg/validation"
	"github.com/dd0wney/cluso-atlas/pkg/visualization"
)

// Config is the complete pipeline configuration
type Config struct {
	Project       ProjectConfig    `yaml:"project"`
	Inputs        []InputConfig    `yaml:"inputs" validate:"required,min=1,dive"`
	ForceDirected bool             `yaml:"force_directed"`
	Parallelism   int              `yaml:"parallelism" validate:"gte=1,lte=64"`
	Modularity    ModularityConfig `yaml:"modularity"`
	PageRank      PageRankConfig   `yaml:"pagerank"`
	Layout        LayoutConfig     `yaml:"layout"`
	Sizes         SizeConfig       `yaml:"sizes"`
	Metrics       MetricsConfig    `yaml:"metrics"`
	Logging       LoggingConfig    `yaml:"logging"`
}

// ProjectConfig names the artifact and its optional side outputs
type ProjectConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Output   string `yaml:"output" validate:"required"`
	GEXFDir  string `yaml:"gexf_dir"`
	S3Region string `yaml:"s3_region"`
}

// InputConfig is one input file; each becomes its own workspace
type InputConfig struct {
	Name   string `yaml:"name" validate:"required,workspace"`
	Path   string `yaml:"path" validate:"required"`
	Format string `yaml:"format" validate:"inputformat"`
}

// ModularityConfig mirrors algorithms.ModularityOptions
type ModularityConfig struct {
	Resolution float64 `yaml:"resolution" validate:"gt=0"`
	Threshold  float64 `yaml:"threshold" validate:"gte=0"`
	MaxPasses  int     `yaml:"max_passes" validate:"gte=1"`
	MaxLevels  int     `yaml:"max_levels" validate:"gte=1"`
	UseWeights bool    `yaml:"use_weights"`
}

// PageRankConfig mirrors algorithms.PageRankOptions
type PageRankConfig struct {
	Damping        float64 `yaml:"damping"`
	MaxIterations  int     `yaml:"max_iterations" validate:"gte=1"`
	Tolerance      float64 `yaml:"tolerance" validate:"gt=0"`
	UseEdgeWeights bool    `yaml:"use_edge_weights"`
	WarmStart      bool    `yaml:"warm_start"`
	TopN           int     `yaml:"top_n" validate:"gte=0"`
}

// LayoutConfig mirrors visualization.ForceAtlas2Config
type LayoutConfig struct {
	Iterations                     int     `yaml:"iterations" validate:"gte=0"`
	ScalingRatio                   float64 `yaml:"scaling_ratio" validate:"gte=0"`
	Gravity                        float64 `yaml:"gravity" validate:"gte=0"`
	StrongGravity                  bool    `yaml:"strong_gravity"`
	JitterTolerance                float64 `yaml:"jitter_tolerance" validate:"gt=0"`
	EdgeWeightInfluence            float64 `yaml:"edge_weight_influence" validate:"gte=0"`
	LinLogMode                     bool    `yaml:"linlog"`
	OutboundAttractionDistribution bool    `yaml:"outbound_attraction_distribution"`
	BarnesHut                      bool    `yaml:"barnes_hut"`
	BarnesHutThreshold             int     `yaml:"barnes_hut_threshold" validate:"gte=0"`
	Theta                          float64 `yaml:"theta" validate:"gt=0"`
	SeedMode                       string  `yaml:"seed_mode"`
	Seed                           int64   `yaml:"seed"`
	Scale                          float64 `yaml:"scale" validate:"gt=0"`
	ProgressInterval               int     `yaml:"progress_interval" validate:"gte=0"`
}

// SizeConfig is the node size range derived from PageRank
type SizeConfig struct {
	Min float64 `yaml:"min" validate:"gte=0"`
	Max float64 `yaml:"max" validate:"gte=0"`
}

// MetricsConfig enables the Prometheus textfile
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig sets the log level
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ReferenceInputs are the five inputs of the reference run
var ReferenceInputs = []InputConfig{
	{Name: "all", Path: "gexf/all.gexf"},
	{Name: "retweet", Path: "gexf/retweet.gexf"},
	{Name: "quote", Path: "gexf/quote.gexf"},
	{Name: "reply", Path: "gexf/reply.gexf"},
	{Name: "like", Path: "gexf/like.gexf"},
}

// Default returns the reference configuration
func Default() *Config {
	mod := algorithms.DefaultModularityOptions()
	pr := algorithms.DefaultPageRankOptions()
	fa2 := visualization.DefaultForceAtlas2Config()

	return &Config{
		Project: ProjectConfig{
			Name:   "atlas",
			Output: "graphs.atlas",
		},
		Inputs:        append([]InputConfig(nil), ReferenceInputs...),
		ForceDirected: true,
		Parallelism:   1,
		Modularity: ModularityConfig{
			Resolution: mod.Resolution,
			Threshold:  mod.Threshold,
			MaxPasses:  mod.MaxPasses,
			MaxLevels:  mod.MaxLevels,
			UseWeights: mod.UseWeights,
		},
		PageRank: PageRankConfig{
			Damping:       pr.DampingFactor,
			MaxIterations: pr.MaxIterations,
			Tolerance:     pr.Tolerance,
			TopN:          pr.TopN,
		},
		Layout: LayoutConfig{
			Iterations:          400,
			Gravity:             fa2.Gravity,
			JitterTolerance:     fa2.JitterTolerance,
			EdgeWeightInfluence: fa2.EdgeWeightInfluence,
			BarnesHutThreshold:  fa2.BarnesHutThreshold,
			Theta:               fa2.Theta,
			SeedMode:            string(fa2.SeedMode),
			Seed:                fa2.Seed,
			Scale:               fa2.Scale,
			ProgressInterval:    fa2.ProgressInterval,
		},
		Sizes: SizeConfig{Min: 10, Max: 50},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and the cross-field rules
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Inputs))
	cv := validation.NewConfigValidator("config")
	for i, in := range c.Inputs {
		field := fmt.Sprintf("inputs[%d].name", i)
		cv.Custom(field, func() error {
			if seen[in.Name] {
				return fmt.Errorf("duplicate workspace name %q", in.Name)
			}
			seen[in.Name] = true
			return nil
		})
	}
	cv.OpenUnitInterval("pagerank.damping", c.PageRank.Damping).
		OneOf("layout.seed_mode", c.Layout.SeedMode, []string{string(visualization.SeedRandom), string(visualization.SeedCircular)}).
		OneOf("logging.level", c.Logging.Level, []string{"debug", "info", "warn", "error"}).
		Custom("sizes", func() error {
			if c.Sizes.Max < c.Sizes.Min {
				return fmt.Errorf("max %g is below min %g", c.Sizes.Max, c.Sizes.Min)
			}
			return nil
		})
	if err := cv.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ModularityOptions converts the section into engine options
func (c ModularityConfig) ModularityOptions() algorithms.ModularityOptions {
	return algorithms.ModularityOptions{
		Resolution: c.Resolution,
		Threshold:  c.Threshold,
		MaxPasses:  c.MaxPasses,
		MaxLevels:  c.MaxLevels,
		UseWeights: c.UseWeights,
	}
}

// PageRankOptions converts the section into engine options
func (c PageRankConfig) PageRankOptions() algorithms.PageRankOptions {
	return algorithms.PageRankOptions{
		DampingFactor:  c.Damping,
		MaxIterations:  c.MaxIterations,
		Tolerance:      c.Tolerance,
		UseEdgeWeights: c.UseEdgeWeights,
		WarmStart:      c.WarmStart,
		TopN:           c.TopN,
	}
}

// ForceAtlas2Config converts the section into layout settings. Callbacks
// and the logger are left for the caller.
func (c LayoutConfig) ForceAtlas2Config() visualization.ForceAtlas2Config {
	return visualization.ForceAtlas2Config{
		ScalingRatio:                   c.ScalingRatio,
		Gravity:                        c.Gravity,
		StrongGravity:                  c.StrongGravity,
		JitterTolerance:                c.JitterTolerance,
		EdgeWeightInfluence:            c.EdgeWeightInfluence,
		LinLogMode:                     c.LinLogMode,
		OutboundAttractionDistribution: c.OutboundAttractionDistribution,
		BarnesHut:                      c.BarnesHut,
		BarnesHutThreshold:             c.BarnesHutThreshold,
		Theta:                          c.Theta,
		SeedMode:                       visualization.SeedMode(c.SeedMode),
		Seed:                           c.Seed,
		Scale:                          c.Scale,
		ProgressInterval:               c.ProgressInterval,
	}
}
