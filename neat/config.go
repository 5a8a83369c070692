package neat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
// Configuration errors are fatal: they indicate a caller contract violation.
var ErrInvalidConfig = errors.New("invalid config")

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig         `yaml:"neat"`
	Genome       GenomeConfig       `yaml:"genome"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	SpeciesSet   SpeciesSetConfig   `yaml:"species_set"`
	Stagnation   StagnationConfig   `yaml:"stagnation"`
}

// NeatConfig holds run-level parameters.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size" yaml:"pop_size"`
	FitnessThreshold     float64 `ini:"fitness_threshold" yaml:"fitness_threshold"`
	NoFitnessTermination bool    `ini:"no_fitness_termination" yaml:"no_fitness_termination"`
	EvalWorkers          int     `ini:"eval_workers" yaml:"eval_workers"` // 0 or 1 evaluates sequentially
	Seed                 int64   `ini:"seed" yaml:"seed"`
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs         int    `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs        int    `ini:"num_outputs" yaml:"num_outputs"`
	InitialConnection string `ini:"initial_connection" yaml:"initial_connection"` // single, full or unconnected
	Activation        string `ini:"activation" yaml:"activation"`

	WeightInitMean    float64 `ini:"weight_init_mean" yaml:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev" yaml:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type" yaml:"weight_init_type"` // gaussian or uniform
	WeightMinValue    float64 `ini:"weight_min_value" yaml:"weight_min_value"`
	WeightMaxValue    float64 `ini:"weight_max_value" yaml:"weight_max_value"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate" yaml:"weight_mutate_rate"`
	WeightReplaceRate float64 `ini:"weight_replace_rate" yaml:"weight_replace_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power" yaml:"weight_mutate_power"`

	ConnAddProb              float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`
	NodeAddProb              float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	SingleStructuralMutation bool    `ini:"single_structural_mutation" yaml:"single_structural_mutation"`

	CompatibilityExcessCoefficient   float64 `ini:"compatibility_excess_coefficient" yaml:"compatibility_excess_coefficient"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient" yaml:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient" yaml:"compatibility_weight_coefficient"`
	// Genomes with fewer genes than this are not normalised by size (N = 1).
	CompatibilityNormalizeSize int `ini:"compatibility_normalize_size" yaml:"compatibility_normalize_size"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism            int     `ini:"elitism" yaml:"elitism"`
	SurvivalThreshold  float64 `ini:"survival_threshold" yaml:"survival_threshold"`
	CrossoverRate      float64 `ini:"crossover_rate" yaml:"crossover_rate"`
	DisableInheritProb float64 `ini:"disable_inherit_prob" yaml:"disable_inherit_prob"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func" yaml:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation" yaml:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism" yaml:"species_elitism"`
}

// DefaultConfig returns the configuration used when a file omits a key.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize:          150,
			FitnessThreshold: 1000,
			EvalWorkers:      4,
			Seed:             1,
		},
		Genome: GenomeConfig{
			NumInputs:         1,
			NumOutputs:        1,
			InitialConnection: "single",
			Activation:        "tanh",

			WeightInitMean:    0.0,
			WeightInitStdev:   1.0,
			WeightInitType:    "gaussian",
			WeightMinValue:    -30,
			WeightMaxValue:    30,
			WeightMutateRate:  0.8,
			WeightReplaceRate: 0.1,
			WeightMutatePower: 0.5,

			ConnAddProb: 0.3,
			NodeAddProb: 0.1,

			CompatibilityExcessCoefficient:   1.0,
			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.4,
			CompatibilityNormalizeSize:       20,
		},
		Reproduction: ReproductionConfig{
			Elitism:            1,
			SurvivalThreshold:  0.2,
			CrossoverRate:      0.75,
			DisableInheritProb: 0.75,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
		},
		Stagnation: StagnationConfig{
			SpeciesFitnessFunc: "max",
			MaxStagnation:      15,
			SpeciesElitism:     1,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file, or from a YAML file
// when the path ends in .yaml or .yml. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
		}
	default:
		if err := loadINI(filePath, config); err != nil {
			return nil, err
		}
	}

	config.clean()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadINI(filePath string, config *Config) error {
	cfg, err := ini.Load(filePath)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	// Map sections to structs
	if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
		return fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
		return fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}
	if err := cfg.Section("DefaultReproduction").MapTo(&config.Reproduction); err != nil {
		return fmt.Errorf("failed to map [DefaultReproduction] section: %w", err)
	}
	if err := cfg.Section("DefaultSpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return fmt.Errorf("failed to map [DefaultSpeciesSet] section: %w", err)
	}
	if err := cfg.Section("DefaultStagnation").MapTo(&config.Stagnation); err != nil {
		return fmt.Errorf("failed to map [DefaultStagnation] section: %w", err)
	}
	return nil
}

func (c *Config) clean() {
	c.Genome.InitialConnection = cleanIniString(c.Genome.InitialConnection)
	c.Genome.Activation = cleanIniString(c.Genome.Activation)
	c.Genome.WeightInitType = cleanIniString(c.Genome.WeightInitType)
	c.Stagnation.SpeciesFitnessFunc = cleanIniString(c.Stagnation.SpeciesFitnessFunc)
}

// Validate checks value ranges and names. It is called by LoadConfig and by
// NewEvolver, so programmatically built configs are checked too.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Neat.PopSize <= 0 {
		return invalid("pop_size must be positive")
	}
	if c.Neat.EvalWorkers < 0 {
		return invalid("eval_workers cannot be negative")
	}
	if c.Genome.NumInputs <= 0 {
		return invalid("num_inputs must be positive")
	}
	if c.Genome.NumOutputs <= 0 {
		return invalid("num_outputs must be positive")
	}
	switch c.Genome.InitialConnection {
	case "single", "full", "unconnected":
	default:
		return invalid("invalid initial_connection type '%s'", c.Genome.InitialConnection)
	}
	if _, err := GetActivation(c.Genome.Activation); err != nil {
		return invalid("%v", err)
	}
	switch strings.ToLower(c.Genome.WeightInitType) {
	case "gaussian", "normal", "uniform":
	default:
		return invalid("invalid weight_init_type '%s'", c.Genome.WeightInitType)
	}
	if c.Genome.WeightMaxValue < c.Genome.WeightMinValue {
		return invalid("weight_max_value cannot be less than weight_min_value")
	}

	probs := []struct {
		name string
		v    float64
	}{
		{"weight_mutate_rate", c.Genome.WeightMutateRate},
		{"weight_replace_rate", c.Genome.WeightReplaceRate},
		{"conn_add_prob", c.Genome.ConnAddProb},
		{"node_add_prob", c.Genome.NodeAddProb},
		{"survival_threshold", c.Reproduction.SurvivalThreshold},
		{"crossover_rate", c.Reproduction.CrossoverRate},
		{"disable_inherit_prob", c.Reproduction.DisableInheritProb},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return invalid("%s must be between 0 and 1", p.name)
		}
	}
	if c.Genome.WeightMutateRate+c.Genome.WeightReplaceRate > 1 {
		return invalid("weight_mutate_rate + weight_replace_rate cannot exceed 1")
	}

	if c.Genome.CompatibilityExcessCoefficient < 0 ||
		c.Genome.CompatibilityDisjointCoefficient < 0 ||
		c.Genome.CompatibilityWeightCoefficient < 0 {
		return invalid("compatibility coefficients cannot be negative")
	}
	if c.Genome.CompatibilityNormalizeSize < 0 {
		return invalid("compatibility_normalize_size cannot be negative")
	}
	if c.Reproduction.Elitism < 1 {
		return invalid("elitism must be at least 1")
	}
	if c.SpeciesSet.CompatibilityThreshold <= 0 {
		return invalid("compatibility_threshold must be positive")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return invalid("max_stagnation must be positive")
	}
	if c.Stagnation.SpeciesElitism < 0 {
		return invalid("species_elitism cannot be negative")
	}
	if _, ok := StatFunctions[strings.ToLower(c.Stagnation.SpeciesFitnessFunc)]; !ok {
		return invalid("invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
