package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/cr-analysis/internal/archetype"
	"github.com/ramonehamilton/cr-analysis/internal/dataset"
	"github.com/ramonehamilton/cr-analysis/internal/export"
	"github.com/ramonehamilton/cr-analysis/internal/report"
)

// Archetype provider names.
const (
	ProviderKMeans = "kmeans"
	ProviderStatic = "static"
)

// Environment variables read by ApplyEnv.
const (
	EnvDBPath      = "CR_DB_PATH"
	EnvNumClusters = "CR_NUM_CLUSTERS"
	EnvFeatureSet  = "CR_FEATURE_SET"
	EnvOutputDir   = "CR_OUTPUT_DIR"
)

// Config represents the pipeline configuration.
type Config struct {
	// Battle store configuration
	Store StoreConfig `toml:"store"`

	// Archetype provider configuration
	Archetype ArchetypeConfig `toml:"archetype"`

	// Feature selection and imputation
	Features FeaturesConfig `toml:"features"`

	// Artifact configuration
	Output OutputConfig `toml:"output"`

	// Archetype report configuration
	Report ReportConfig `toml:"report"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// StoreConfig locates the battle store.
type StoreConfig struct {
	Path string `toml:"path"` // Path to the SQLite battle store
}

// ArchetypeConfig selects and tunes the archetype provider.
type ArchetypeConfig struct {
	Provider        string `toml:"provider"`         // "kmeans" or "static"
	K               int    `toml:"k"`                // Number of archetypes
	AssignmentsPath string `toml:"assignments_path"` // JSON deck hash -> id map for "static"
	Seed            uint64 `toml:"seed"`             // k-means seed
	MaxIterations   int    `toml:"max_iterations"`   // k-means iteration cap
}

// FeaturesConfig selects matrix columns and missing value handling.
type FeaturesConfig struct {
	Set        string  `toml:"set"`        // "basic" or "extended"
	Imputation string  `toml:"imputation"` // "median", "mean" or "constant"
	FillValue  float64 `toml:"fill_value"` // Used by "constant"
}

// OutputConfig locates the written artifacts.
type OutputConfig struct {
	Format       string `toml:"format"`        // "npy" or "csv"
	FeaturesPath string `toml:"features_path"` // Feature matrix
	LabelsPath   string `toml:"labels_path"`   // Label vector
	ManifestPath string `toml:"manifest_path"` // Optional JSON manifest
	Overwrite    bool   `toml:"overwrite"`     // Replace existing artifacts
}

// ReportConfig tunes the archetype report.
type ReportConfig struct {
	TopN      int    `toml:"top_n"`      // Cards listed per archetype
	ChartPath string `toml:"chart_path"` // Optional HTML chart page
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: filepath.Join("..", "cr_data_collector", "clash_royale_battles.db"),
		},
		Archetype: ArchetypeConfig{
			Provider:      ProviderKMeans,
			K:             20,
			Seed:          archetype.DefaultSeed,
			MaxIterations: archetype.DefaultMaxIterations,
		},
		Features: FeaturesConfig{
			Set:        string(dataset.FeatureSetExtended),
			Imputation: string(dataset.StrategyMedian),
		},
		Output: OutputConfig{
			Format:       string(export.FormatNPY),
			FeaturesPath: "X_train.npy",
			LabelsPath:   "y_train.npy",
			Overwrite:    true,
		},
		Report: ReportConfig{
			TopN: report.DefaultTopN,
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Load loads the configuration from path. Returns default config if path is
// empty or the file doesn't exist. Keys absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given dotenv files (".env" if none) when present and
// overrides configuration from CR_* environment variables. Variables already
// set in the environment take precedence over dotenv files.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvNumClusters); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvNumClusters, v, err)
		}
		c.Archetype.K = k
	}
	if v := os.Getenv(EnvFeatureSet); v != "" {
		c.Features.Set = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.SetOutputDir(v)
	}

	return nil
}

// SetOutputDir moves every configured artifact into dir, keeping file names.
func (c *Config) SetOutputDir(dir string) {
	c.Output.FeaturesPath = filepath.Join(dir, filepath.Base(c.Output.FeaturesPath))
	c.Output.LabelsPath = filepath.Join(dir, filepath.Base(c.Output.LabelsPath))
	if c.Output.ManifestPath != "" {
		c.Output.ManifestPath = filepath.Join(dir, filepath.Base(c.Output.ManifestPath))
	}
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	switch c.Archetype.Provider {
	case ProviderKMeans:
		if c.Archetype.MaxIterations <= 0 {
			return fmt.Errorf("max iterations must be positive: %d", c.Archetype.MaxIterations)
		}
	case ProviderStatic:
		if c.Archetype.AssignmentsPath == "" {
			return fmt.Errorf("assignments path is required for the %s provider", ProviderStatic)
		}
	default:
		return fmt.Errorf("unknown archetype provider %q", c.Archetype.Provider)
	}
	if c.Archetype.K <= 0 {
		return fmt.Errorf("number of archetypes must be positive: %d", c.Archetype.K)
	}

	if _, err := dataset.ParseFeatureSet(c.Features.Set); err != nil {
		return err
	}
	if _, err := dataset.ParseStrategy(c.Features.Imputation); err != nil {
		return err
	}

	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if c.Output.FeaturesPath == "" || c.Output.LabelsPath == "" {
		return fmt.Errorf("features and labels paths are required")
	}
	if c.Output.FeaturesPath == c.Output.LabelsPath {
		return fmt.Errorf("features and labels paths must differ: %s", c.Output.FeaturesPath)
	}

	if c.Report.TopN <= 0 {
		return fmt.Errorf("report top_n must be positive: %d", c.Report.TopN)
	}

	return nil
}

// DatasetOptions returns the assembly options described by c.
func (c *Config) DatasetOptions() dataset.Options {
	return dataset.Options{
		FeatureSet: dataset.FeatureSet(c.Features.Set),
		Imputation: dataset.Strategy(c.Features.Imputation),
		FillValue:  c.Features.FillValue,
	}
}

// ExportOptions returns the writer options described by c.
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		Format:       export.Format(c.Output.Format),
		FeaturesPath: c.Output.FeaturesPath,
		LabelsPath:   c.Output.LabelsPath,
		ManifestPath: c.Output.ManifestPath,
		Overwrite:    c.Output.Overwrite,
	}
}

// NewProvider returns the archetype provider described by c.
func (c *Config) NewProvider() archetype.Provider {
	if c.Archetype.Provider == ProviderStatic {
		return archetype.NewStaticProvider(c.Archetype.AssignmentsPath)
	}
	return &archetype.KMeansProvider{
		Seed:          c.Archetype.Seed,
		MaxIterations: c.Archetype.MaxIterations,
	}
}
