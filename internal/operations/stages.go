package operations

import (
	"context"
	"fmt"
	"log/slog"

	"capflow/internal/charts"
	"capflow/internal/config"
	"capflow/internal/dataprocessing"
	apperrors "capflow/internal/errors"
	"capflow/internal/exporter"
	"capflow/internal/files"
	"capflow/internal/indicators"
	"capflow/internal/infrastructure"
	"capflow/internal/ingest"
	"capflow/internal/store"
	"capflow/internal/validation"
	"capflow/pkg/contracts/domain"
)

// Dependencies are the collaborators shared by the built-in steps.
type Dependencies struct {
	Paths   *config.Paths
	Logger  *slog.Logger
	Metrics *infrastructure.PipelineMetrics
	// Store receives every derived panel; nil means a NopStore.
	Store store.Store
}

// NewPipeline registers the ingest, normalize, derive, render and export steps
// on a new Manager.
func NewPipeline(cfg Config, deps Dependencies) (*Manager, error) {
	if deps.Paths == nil {
		return nil, apperrors.NewConfigError("pipeline needs paths", nil)
	}
	if deps.Logger == nil {
		deps.Logger = infrastructure.GetLogger()
	}
	if deps.Store == nil {
		deps.Store = &store.NopStore{}
	}

	base := baseStep{cfg: cfg, deps: deps}
	registry := NewRegistry()
	for _, step := range []Step{
		&IngestStep{baseStep: base.named(StepIDIngest, StepNameIngest)},
		&NormalizeStep{baseStep: base.named(StepIDNormalize, StepNameNormalize)},
		&DeriveStep{baseStep: base.named(StepIDDerive, StepNameDerive)},
		&RenderStep{baseStep: base.named(StepIDRender, StepNameRender)},
		&ExportStep{baseStep: base.named(StepIDExport, StepNameExport)},
	} {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return NewManager(registry, deps.Logger, deps.Metrics), nil
}

// baseStep carries the identity and dependencies every step shares
type baseStep struct {
	id     string
	name   string
	cfg    Config
	deps   Dependencies
	logger *slog.Logger
}

func (b baseStep) named(id, name string) baseStep {
	b.id = id
	b.name = name
	b.logger = infrastructure.WithComponent(b.deps.Logger, id)
	return b
}

// ID returns the step ID
func (b *baseStep) ID() string { return b.id }

// Name returns the step name
func (b *baseStep) Name() string { return b.name }

// requireData fails when an earlier step did not produce what this one needs
func (b *baseStep) requireData(ok bool, what string) error {
	if !ok {
		return apperrors.NewConfigError(fmt.Sprintf("%s step needs %s from an earlier step", b.id, what), nil)
	}
	return nil
}

// IngestStep locates and reads every source file
type IngestStep struct {
	baseStep
}

// Execute implements Step
func (s *IngestStep) Execute(ctx context.Context, state *OperationState) error {
	discovery := files.NewDiscovery(s.deps.Paths.DataDir, validation.NewFileValidator(s.logger))
	manifest, err := discovery.Locate(s.cfg.Periods(), s.cfg.AssetYears())
	if err != nil {
		return err
	}

	opts := ingest.DefaultOptions()
	opts.Workers = s.cfg.Workers
	opts.Logger = s.logger
	snapshot, err := ingest.Load(ctx, manifest, opts)
	if err != nil {
		return err
	}

	state.Data.Manifest = manifest
	state.Data.Snapshot = snapshot
	infrastructure.RecordFilesLoaded(ctx, s.deps.Metrics, snapshot.FileCount())
	state.GetStep(s.id).SetMetadata("files", snapshot.FileCount())
	return nil
}

// NormalizeStep cleans every raw table. Layout drift surfaces here as a
// PARSE error before any indicator is built.
type NormalizeStep struct {
	baseStep
}

// Execute implements Step
func (s *NormalizeStep) Execute(ctx context.Context, state *OperationState) error {
	snapshot := state.Data.Snapshot
	if err := s.requireData(snapshot != nil, "raw tables"); err != nil {
		return err
	}

	investments := dataprocessing.NewInvestmentNormalizer(snapshot.Investments,
		dataprocessing.WithPeriodRange(s.cfg.FirstPeriod, s.cfg.LastPeriod),
		dataprocessing.WithInvestmentCache(s.cfg.CacheSize),
		dataprocessing.WithInvestmentLogger(s.logger))
	for _, period := range investments.Periods() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := investments.Clean(period); err != nil {
			return err
		}
	}

	assets := dataprocessing.NewAssetNormalizer(snapshot.Assets,
		dataprocessing.WithYearRange(s.cfg.FirstAssetYear, s.cfg.LastAssetYear),
		dataprocessing.WithMutualFundUnknownThreshold(s.cfg.MutualFundUnknownThreshold),
		dataprocessing.WithAssetCache(s.cfg.CacheSize),
		dataprocessing.WithAssetLogger(s.logger))
	for _, year := range assets.Years() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := assets.Clean(year); err != nil {
			return err
		}
	}

	observations, err := indicators.ParseGPR(snapshot.GPR)
	if err != nil {
		return err
	}
	rates, err := indicators.ParseExchangeRates(snapshot.ExchangeRates)
	if err != nil {
		return err
	}
	records, err := indicators.ParsePensionAssets(snapshot.PensionAssets, rates)
	if err != nil {
		return err
	}

	state.Data.Investments = investments
	state.Data.Assets = assets
	state.Data.GPR = observations
	state.Data.PensionRecords = records

	step := state.GetStep(s.id)
	step.SetMetadata("periods", len(investments.Periods()))
	step.SetMetadata("asset_years", len(assets.Years()))
	step.SetMetadata("gpr_months", len(observations))
	return nil
}

// DeriveStep builds the presentation panels
type DeriveStep struct {
	baseStep
}

// Execute implements Step
func (s *DeriveStep) Execute(ctx context.Context, state *OperationState) error {
	data := state.Data
	if err := s.requireData(data.Investments != nil && data.Assets != nil, "normalized tables"); err != nil {
		return err
	}

	d := &indicators.Derived{}
	var err error

	d.Investment, err = indicators.BuildInvestmentPanels(data.Investments, s.cfg.Destination, s.cfg.Sources, s.cfg.DestinationSlug)
	if err != nil {
		return err
	}
	if d.BondHoldings, err = indicators.BuildAssetClassPanel(data.Assets, string(domain.AssetBonds), s.cfg.AssetCountries); err != nil {
		return err
	}
	if d.CashHoldings, err = indicators.BuildAssetClassPanel(data.Assets, string(domain.AssetCash), s.cfg.AssetCountries); err != nil {
		return err
	}
	if d.Allocation, err = indicators.BuildAllocationSnapshot(data.Assets, s.cfg.AllocationYear, s.cfg.AssetCountries, s.cfg.SumOverrides); err != nil {
		return err
	}
	if d.GPR, err = indicators.BuildGPRMovingAverage(data.GPR, s.cfg.GPRStart, s.cfg.GPRWindow); err != nil {
		return err
	}
	if d.PensionUSD, err = indicators.BuildPensionAssetsUSD(data.PensionRecords); err != nil {
		return err
	}
	if d.PensionGDP, err = indicators.BuildPensionGDPPanel(data.Snapshot.PensionGDP, s.cfg.PensionCountries, s.cfg.PensionExcluded, s.cfg.PensionAfterYear); err != nil {
		return err
	}

	// Every memoized lookup has happened by now.
	inv := data.Investments.CacheStats()
	infrastructure.RecordCacheStats(ctx, s.deps.Metrics, "investment", int64(inv.Hits), int64(inv.Misses))
	assets := data.Assets.CacheStats()
	infrastructure.RecordCacheStats(ctx, s.deps.Metrics, "assets", int64(assets.Hits), int64(assets.Misses))

	panels := d.Panels()
	state.Data.Derived = d
	infrastructure.RecordPanelsBuilt(ctx, s.deps.Metrics, len(panels))
	state.GetStep(s.id).SetMetadata("panels", len(panels))
	return nil
}

// RenderStep draws the figures
type RenderStep struct {
	baseStep
}

// SkipReason implements Skipper
func (s *RenderStep) SkipReason(state *OperationState) string {
	if !s.cfg.ChartsEnabled {
		return "charts disabled"
	}
	return ""
}

// Execute implements Step
func (s *RenderStep) Execute(ctx context.Context, state *OperationState) error {
	if err := s.requireData(state.Data.Derived != nil, "derived panels"); err != nil {
		return err
	}

	out := files.NewManager(s.deps.Paths.FiguresDir, s.logger)
	renderer := charts.NewRenderer(s.cfg.ChartStyle, out, s.logger)
	paths, err := renderer.RenderAll(ctx, state.Data.Derived)
	state.AddArtifacts(paths...)
	infrastructure.RecordArtifacts(ctx, s.deps.Metrics, ArtifactFigure, len(paths))
	if err != nil {
		return err
	}
	state.GetStep(s.id).SetMetadata("figures", len(paths))
	return nil
}

// ExportStep writes the derived panels as CSV, xlsx and, when configured, SQLite
type ExportStep struct {
	baseStep
}

// Execute implements Step
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	if err := s.requireData(state.Data.Derived != nil, "derived panels"); err != nil {
		return err
	}
	panels := state.Data.Derived.Panels()
	step := state.GetStep(s.id)

	out := files.NewManager(s.deps.Paths.TablesDir, s.logger)
	csvPaths, err := exporter.NewCSVWriter(out, s.logger).WriteAll(ctx, panels)
	state.AddArtifacts(csvPaths...)
	infrastructure.RecordArtifacts(ctx, s.deps.Metrics, ArtifactCSV, len(csvPaths))
	if err != nil {
		return err
	}
	step.SetMetadata("csv", len(csvPaths))

	workbook := s.deps.Paths.WorkbookFile
	if workbook == "" {
		workbook = s.deps.Paths.GetTablePath("capflow.xlsx")
	}
	path, err := exporter.NewWorkbookWriter(out, s.logger).Write(workbook, panels)
	if err != nil {
		return err
	}
	state.AddArtifacts(path)
	infrastructure.RecordArtifacts(ctx, s.deps.Metrics, ArtifactWorkbook, 1)
	step.SetMetadata("workbook", path)

	if err := s.deps.Store.SavePanels(ctx, panels); err != nil {
		return err
	}
	if s.deps.Paths.SQLiteFile != "" {
		state.AddArtifacts(s.deps.Paths.SQLiteFile)
		infrastructure.RecordArtifacts(ctx, s.deps.Metrics, ArtifactSQLite, 1)
		step.SetMetadata("stored_panels", len(panels))
	}
	return nil
}
