// Package pipeline runs the dataset build from battle store to artifacts.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ramonehamilton/cr-analysis/internal/archetype"
	"github.com/ramonehamilton/cr-analysis/internal/config"
	"github.com/ramonehamilton/cr-analysis/internal/dataset"
	"github.com/ramonehamilton/cr-analysis/internal/export"
	"github.com/ramonehamilton/cr-analysis/internal/features"
	"github.com/ramonehamilton/cr-analysis/internal/report"
	"github.com/ramonehamilton/cr-analysis/internal/storage"
)

// Stage names reported through progress updates.
const (
	StageLoading    = "loading_store"
	StageArchetypes = "assigning_archetypes"
	StageFeatures   = "building_features"
	StageLabeling   = "labeling"
	StageAssembling = "assembling"
	StageWriting    = "writing"
)

const totalStages = 6

// Progress tracks the progress of a run.
type Progress struct {
	Stage       string    `json:"stage"`
	CurrentStep int       `json:"current_step"`
	TotalSteps  int       `json:"total_steps"`
	StartTime   time.Time `json:"start_time"`
	Complete    bool      `json:"complete"`
	Failed      bool      `json:"failed"`
	Error       string    `json:"error,omitempty"`
}

// Metrics contains counts from a dataset build.
type Metrics struct {
	StoreMatches int `json:"store_matches"`
	StoreDecks   int `json:"store_decks"`

	AssignedDecks int `json:"assigned_decks"`
	Archetypes    int `json:"archetypes"`

	DeckFeatures    int `json:"deck_features"`
	IncompleteDecks int `json:"incomplete_decks"`
	DuplicateDecks  int `json:"duplicate_decks"`

	LabeledMatches int `json:"labeled_matches"`
	Draws          int `json:"draws"`
	InvalidCrowns  int `json:"invalid_crowns"`

	UnmappedArchetype   int            `json:"excluded_unmapped_archetype"`
	MissingDeckFeatures int            `json:"excluded_missing_deck_features"`
	Imputed             map[string]int `json:"imputed,omitempty"`

	Rows      int      `json:"rows"`
	Positives int      `json:"positives"`
	Columns   []string `json:"columns"`

	Verified         bool      `json:"verified"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	BuiltAt          time.Time `json:"built_at"`
}

// Pipeline builds a training dataset from a battle store.
type Pipeline struct {
	cfg      *config.Config
	provider archetype.Provider
	writer   *export.DatasetWriter
	logger   *zap.Logger
	verify   bool
	// assignmentsOut, when set, receives the assignment in StaticProvider format.
	assignmentsOut string
	mu             sync.Mutex

	progress     *Progress
	progressChan chan *Progress
}

// New creates a pipeline. A nil provider is built from cfg; a nil logger
// discards output.
func New(cfg *config.Config, provider archetype.Provider, logger *zap.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if provider == nil {
		provider = cfg.NewProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		cfg:      cfg,
		provider: provider,
		writer:   export.NewDatasetWriter(cfg.ExportOptions()),
		logger:   logger,
		progress: &Progress{Stage: "idle"},
	}
}

// SetVerify enables reloading the npy artifacts after they are written.
func (p *Pipeline) SetVerify(verify bool) {
	p.verify = verify
}

// SetAssignmentsOut saves each run's archetype assignment to path so later
// runs can replay it with a static provider. The file is written only after
// the dataset is.
func (p *Pipeline) SetAssignmentsOut(path string) {
	p.assignmentsOut = path
}

// SetProgressChannel sets a channel to receive progress updates.
func (p *Pipeline) SetProgressChannel(ch chan *Progress) {
	p.progressChan = ch
}

// Run executes every stage in order. Any failure before the writing stage
// aborts the run without touching existing artifacts.
func (p *Pipeline) Run(ctx context.Context) (*Metrics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	startTime := time.Now()
	metrics := &Metrics{BuiltAt: startTime}
	storePath := p.cfg.Store.Path
	opts := p.cfg.DatasetOptions()

	// Stage 1: Load the store
	p.updateProgress(StageLoading, 1)

	tables, err := storage.Load(ctx, storePath)
	if err != nil {
		return nil, p.fail(StageLoading, err)
	}
	metrics.StoreMatches = len(tables.Matches)
	metrics.StoreDecks = len(tables.Decks)
	p.logger.Info("loaded battle store",
		zap.String("path", storePath),
		zap.Int("matches", len(tables.Matches)),
		zap.Int("decks", len(tables.Decks)),
		zap.Int("card_instances", len(tables.CardInstances)),
		zap.Int("cards", len(tables.CardMetadata)),
	)

	// Stage 2: Assign archetypes
	p.updateProgress(StageArchetypes, 2)

	assignment, err := archetype.Require(ctx, p.provider, storePath, p.cfg.Archetype.K)
	if err != nil {
		return nil, p.fail(StageArchetypes, err)
	}
	metrics.AssignedDecks = len(assignment)
	metrics.Archetypes = len(assignment.Clusters())
	p.logger.Info("assigned archetypes",
		zap.Int("k", p.cfg.Archetype.K),
		zap.Int("decks", metrics.AssignedDecks),
		zap.Int("archetypes", metrics.Archetypes),
	)

	// Stage 3: Deck features
	p.updateProgress(StageFeatures, 3)

	var deckFeatures map[string]features.DeckFeatures
	if opts.FeatureSet.UsesDeckFeatures() {
		built := features.Build(tables.Decks, tables.CardInstances)
		deckFeatures = built.Features
		metrics.DeckFeatures = len(built.Features)
		metrics.IncompleteDecks = len(built.Incomplete)
		metrics.DuplicateDecks = built.Duplicates

		for _, inc := range built.Incomplete {
			p.logger.Debug("excluded incomplete deck", zap.Error(inc))
		}
		p.logger.Info("built deck features",
			zap.Int("decks", metrics.DeckFeatures),
			zap.Int("incomplete", metrics.IncompleteDecks),
			zap.Int("duplicates", metrics.DuplicateDecks),
		)
	} else {
		p.logger.Debug("skipping deck features", zap.String("feature_set", string(opts.FeatureSet)))
	}

	// Stage 4: Labels
	p.updateProgress(StageLabeling, 4)

	labeled, stats := dataset.Label(tables.Matches)
	metrics.LabeledMatches = len(labeled)
	metrics.Draws = stats.Draws
	metrics.InvalidCrowns = stats.Invalid
	p.logger.Info("labeled matches",
		zap.Int("labeled", len(labeled)),
		zap.Int("draws", stats.Draws),
		zap.Int("invalid", stats.Invalid),
	)

	// Stage 5: Assemble
	p.updateProgress(StageAssembling, 5)

	ds, err := dataset.Assemble(labeled, assignment, deckFeatures, opts)
	if err != nil {
		return nil, p.fail(StageAssembling, err)
	}
	metrics.UnmappedArchetype = ds.Report.UnmappedArchetype
	metrics.MissingDeckFeatures = ds.Report.MissingDeckFeatures
	metrics.Imputed = ds.Report.Imputed
	metrics.Rows = ds.Len()
	metrics.Positives = ds.Positives()
	metrics.Columns = ds.Columns

	for _, ex := range ds.Report.Exclusions {
		p.logger.Debug("excluded match", zap.Error(ex))
	}
	if len(ds.Report.EmptyColumns) > 0 {
		p.logger.Warn("columns without observed values filled with 0",
			zap.Strings("columns", ds.Report.EmptyColumns))
	}
	p.logger.Info("assembled dataset",
		zap.String("feature_set", string(opts.FeatureSet)),
		zap.Int("rows", metrics.Rows),
		zap.Int("positives", metrics.Positives),
		zap.Int("excluded_unmapped_archetype", metrics.UnmappedArchetype),
		zap.Int("excluded_missing_deck_features", metrics.MissingDeckFeatures),
		zap.Any("imputed", metrics.Imputed),
	)

	// Stage 6: Write
	p.updateProgress(StageWriting, 6)

	writeOpts := p.writer.Options()
	if err := p.writer.Write(ds); err != nil {
		return nil, p.fail(StageWriting, err)
	}
	if p.verify {
		if writeOpts.Format != export.FormatNPY {
			p.logger.Debug("skipping verification", zap.String("format", string(writeOpts.Format)))
		} else if err := export.Verify(ds, writeOpts.FeaturesPath, writeOpts.LabelsPath); err != nil {
			return nil, p.fail(StageWriting, fmt.Errorf("%w: verification: %w", export.ErrWriteFailure, err))
		} else {
			metrics.Verified = true
		}
	}

	if p.assignmentsOut != "" {
		if err := archetype.SaveAssignment(p.assignmentsOut, assignment); err != nil {
			return nil, p.fail(StageWriting, fmt.Errorf("%w: %w", export.ErrWriteFailure, err))
		}
		p.logger.Debug("saved assignment", zap.String("path", p.assignmentsOut))
	}

	metrics.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	p.logger.Info("wrote dataset",
		zap.String("features", writeOpts.FeaturesPath),
		zap.String("labels", writeOpts.LabelsPath),
		zap.Bool("verified", metrics.Verified),
		zap.Int64("elapsed_ms", metrics.ProcessingTimeMs),
	)

	p.completeProgress()

	return metrics, nil
}

// Summarize assigns archetypes and reports the top cards of each one.
func (p *Pipeline) Summarize(ctx context.Context) ([]report.ArchetypeSummary, error) {
	tables, err := storage.Load(ctx, p.cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	assignment, err := archetype.Require(ctx, p.provider, p.cfg.Store.Path, p.cfg.Archetype.K)
	if err != nil {
		return nil, err
	}

	summaries := report.Summarize(tables, assignment, p.cfg.Report.TopN)
	p.logger.Info("summarized archetypes",
		zap.Int("archetypes", len(summaries)),
		zap.Int("top_n", p.cfg.Report.TopN),
	)
	return summaries, nil
}

// GetProgress returns the current progress.
func (p *Pipeline) GetProgress() *Progress {
	return p.progress
}

func (p *Pipeline) fail(stage string, err error) error {
	p.progress.Failed = true
	p.progress.Error = err.Error()
	p.send()

	p.logger.Error("pipeline failed", zap.String("stage", stage), zap.Error(err))
	return fmt.Errorf("%s: %w", stage, err)
}

func (p *Pipeline) updateProgress(stage string, step int) {
	p.progress = &Progress{
		Stage:       stage,
		CurrentStep: step,
		TotalSteps:  totalStages,
		StartTime:   time.Now(),
	}
	p.send()
}

func (p *Pipeline) completeProgress() {
	p.progress.Complete = true
	p.send()
}

func (p *Pipeline) send() {
	if p.progressChan == nil {
		return
	}
	update := *p.progress
	select {
	case p.progressChan <- &update:
	default:
	}
}
