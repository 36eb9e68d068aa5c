package operations

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"capflow/internal/config"
	apperrors "capflow/internal/errors"
	"capflow/internal/files"
	"capflow/internal/indicators"
	"capflow/internal/infrastructure"
	"capflow/internal/store/sqlite"
	"capflow/internal/testutil"
	"capflow/pkg/contracts/domain"
)

var (
	june2013 = domain.Period{Year: 2013, Half: domain.H1}
	dec2013  = domain.Period{Year: 2013, Half: domain.H2}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// seedDataDir writes a complete data directory for two periods and the 2021
// asset year.
func seedDataDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	amounts := map[domain.Period][][]string{
		june2013: {{"100"}, {"1000"}},
		dec2013:  {{"120"}, {"1100"}},
	}
	for p, cells := range amounts {
		table := testutil.BilateralTable(files.InvestmentFile(p),
			[]string{indicators.ChinaMainland, domain.WorldLabel}, []string{indicators.Canada}, cells)
		require.NoError(t, testutil.WriteWorkbook(filepath.Join(root, filepath.FromSlash(files.InvestmentFile(p))), table.Rows))
	}

	assets := testutil.AssetTable("assets",
		testutil.AssetRow{Country: indicators.Canada, Cash: "5", Bonds: "40", Equity: "30", RealEstate: "5", Other: "20"},
		testutil.AssetRow{Country: "Norway", Cash: "10", Bonds: "50", Equity: "30", RealEstate: "5", Other: "5"},
	)
	require.NoError(t, testutil.WriteWorkbook(filepath.Join(root, filepath.FromSlash(files.AssetFile(2021))), assets.Rows))

	writeFile(t, filepath.Join(root, "gpr", "geo_risk_index.csv"),
		"month,GPR,GPRC_CHN,GPRC_TWN,GPRC_HKG\n"+
			"2000-01-01,100,0.5,0.1,0.2\n"+
			"2000-02-01,110,0.7,0.2,0.2\n"+
			"2000-03-01,90,0.6,0.3,0.4\n")
	writeFile(t, filepath.Join(root, filepath.FromSlash(files.PensionAssetsFile)),
		"Variable,Country,Year,Unit Code,Value\nINVESTMENT,Canada,2021,CAD,3000\nINVESTMENT,Norway,2021,NOK,900\n")
	writeFile(t, filepath.Join(root, filepath.FromSlash(files.PensionGDPFile)),
		"country,2001,2002,2003\nCanada,140,150,160\nJapan,30,31,32\n")
	writeFile(t, filepath.Join(root, filepath.FromSlash(files.ExchangeRatesFile)),
		"LOCATION,TIME,Value\nCAN,2021,1.25\n")
	return root
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FirstPeriod = june2013
	cfg.LastPeriod = dec2013
	cfg.FirstAssetYear = 2021
	cfg.LastAssetYear = 2021
	cfg.Sources = []string{indicators.Canada}
	cfg.AssetCountries = []string{indicators.Canada, "Norway"}
	cfg.GPRWindow = 2
	cfg.Workers = 2
	cfg.ChartStyle.Width = 3 * vg.Inch
	cfg.ChartStyle.Height = 2 * vg.Inch
	return cfg
}

func testPaths(t *testing.T, dataDir string) *config.Paths {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = dataDir
	cfg.Paths.OutputDir = t.TempDir()
	return cfg.GetPaths()
}

func stepStatuses(resp *OperationResponse) map[string]StepStatus {
	out := make(map[string]StepStatus, len(resp.Steps))
	for _, s := range resp.Steps {
		out[s.ID] = s.GetStatus()
	}
	return out
}

func TestPipelineExecute(t *testing.T) {
	paths := testPaths(t, seedDataDir(t))

	metricsFile := filepath.Join(t.TempDir(), "capflow.prom")
	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.MetricsFile = metricsFile
	providers, err := infrastructure.InitializeOTel(otelCfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	paths.SQLiteFile = filepath.Join(t.TempDir(), "capflow.db")
	db, err := sqlite.New(paths.SQLiteFile)
	require.NoError(t, err)
	defer db.Close()

	manager, err := NewPipeline(testConfig(), Dependencies{
		Paths:   paths,
		Logger:  quietLogger(),
		Metrics: metrics,
		Store:   db,
	})
	require.NoError(t, err)

	ctx := infrastructure.WithRunID(context.Background(), "run-1")
	resp, err := manager.Execute(ctx)
	require.NoError(t, err)

	assert.Equal(t, "run-1", resp.ID)
	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.Empty(t, resp.Error)
	require.Len(t, resp.Steps, 5)
	for id, status := range stepStatuses(resp) {
		assert.Equal(t, StepStatusCompleted, status, id)
	}
	assert.Equal(t, 7, resp.Steps[0].Metadata["files"])
	assert.Equal(t, 2, resp.Steps[1].Metadata["periods"])

	// eight figures, nine CSV tables, the workbook and the database
	assert.Len(t, resp.Artifacts, 8+9+1+1)
	assert.Contains(t, resp.Artifacts, paths.SQLiteFile)
	for _, name := range []string{"chinese_assets.png", "geopolitical_risk_index_china.png", "pension_asset_structure_2021.png"} {
		assert.FileExists(t, filepath.Join(paths.FiguresDir, name))
	}
	for _, name := range []string{"investment_in_china.csv", "total_foreign_investment.csv", "bonds_holdings.csv", "pension_assets_perc_gdp.csv"} {
		assert.FileExists(t, filepath.Join(paths.TablesDir, name))
	}
	assert.FileExists(t, paths.WorkbookFile)

	content, err := os.ReadFile(filepath.Join(paths.TablesDir, "investment_in_china.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "2013H2,0.1200")

	stored, err := db.Observations(context.Background(), "bonds_holdings")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, indicators.Canada, stored[0].Series)

	require.NoError(t, providers.WriteMetrics())
	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "capflow_pipeline_runs_total")
	assert.Contains(t, string(prom), `step="export"`)
	assert.Contains(t, string(prom), "capflow_ingest_files_total")
	assert.Contains(t, string(prom), `kind="figure"`)
	assert.Contains(t, string(prom), `kind="sqlite"`)
}

func TestPipelineChartsDisabled(t *testing.T) {
	paths := testPaths(t, seedDataDir(t))
	cfg := testConfig()
	cfg.ChartsEnabled = false

	manager, err := NewPipeline(cfg, Dependencies{Paths: paths, Logger: quietLogger()})
	require.NoError(t, err)

	resp, err := manager.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OperationStatusCompleted, resp.Status)

	statuses := stepStatuses(resp)
	assert.Equal(t, StepStatusSkipped, statuses[StepIDRender])
	assert.Equal(t, StepStatusCompleted, statuses[StepIDExport])
	assert.NoDirExists(t, paths.FiguresDir)
	assert.NotEmpty(t, resp.ID, "a run id is generated")
	assert.NotContains(t, resp.Steps[4].Metadata, "stored_panels", "no database configured")
}

func TestPipelineParseErrorStopsRun(t *testing.T) {
	root := seedDataDir(t)
	broken := filepath.Join(root, filepath.FromSlash(files.InvestmentFile(dec2013)))
	require.NoError(t, testutil.WriteWorkbook(broken, [][]string{{"Coordinated Portfolio Investment Survey"}}))

	paths := testPaths(t, root)
	manager, err := NewPipeline(testConfig(), Dependencies{Paths: paths, Logger: quietLogger()})
	require.NoError(t, err)

	resp, err := manager.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, ErrorTypeExecution, GetErrorType(err))
	assert.Equal(t, StepIDNormalize, FailedStep(err))
	assert.True(t, apperrors.IsParse(err))
	assert.Contains(t, err.Error(), "(PARSE)")

	assert.Equal(t, map[string]StepStatus{
		StepIDIngest:    StepStatusCompleted,
		StepIDNormalize: StepStatusFailed,
		StepIDDerive:    StepStatusSkipped,
		StepIDRender:    StepStatusSkipped,
		StepIDExport:    StepStatusSkipped,
	}, stepStatuses(resp))
	assert.NoDirExists(t, paths.TablesDir)
}

func TestPipelineMissingFiles(t *testing.T) {
	paths := testPaths(t, t.TempDir())
	manager, err := NewPipeline(testConfig(), Dependencies{Paths: paths, Logger: quietLogger()})
	require.NoError(t, err)

	resp, err := manager.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepIDIngest, FailedStep(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
	assert.Equal(t, StepStatusFailed, stepStatuses(resp)[StepIDIngest])
}

func TestPipelineCancelled(t *testing.T) {
	paths := testPaths(t, seedDataDir(t))
	manager, err := NewPipeline(testConfig(), Dependencies{Paths: paths, Logger: quietLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp, err := manager.Execute(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.Equal(t, OperationStatusCancelled, resp.Status)
	for id, status := range stepStatuses(resp) {
		assert.Equal(t, StepStatusSkipped, status, id)
	}
}

func TestNewPipelineRequiresPaths(t *testing.T) {
	_, err := NewPipeline(testConfig(), Dependencies{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
