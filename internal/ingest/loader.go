// Package ingest reads the located source files into raw tables. Files are
// independent, so they are read concurrently with a bounded worker count; the
// resulting snapshot does not depend on completion order.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"capflow/internal/files"
	"capflow/pkg/contracts/domain"
)

const tracerName = "capflow/ingest"

// Options control a Load.
type Options struct {
	// Workers bounds the number of files read at once.
	Workers int
	// SkipBlankRows removes fully blank rows from every grid. The layouts in
	// dataprocessing assume it is set.
	SkipBlankRows bool
	Logger        *slog.Logger
}

// DefaultOptions returns the options used by the pipeline.
func DefaultOptions() Options {
	return Options{Workers: 4, SkipBlankRows: true}
}

// Snapshot holds every raw table of a run.
type Snapshot struct {
	Investments   map[domain.Period]domain.RawTable
	Assets        map[int]domain.RawTable
	GPR           domain.RawTable
	PensionAssets domain.RawTable
	PensionGDP    domain.RawTable
	ExchangeRates domain.RawTable
}

// FileCount returns the number of tables in the snapshot.
func (s *Snapshot) FileCount() int {
	return len(s.Investments) + len(s.Assets) + 4
}

// Load reads every dataset of the manifest. The first failure cancels the
// remaining reads and is returned.
func Load(ctx context.Context, manifest *files.Manifest, opts Options) (*Snapshot, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "ingest.Load",
		trace.WithAttributes(
			attribute.Int("files", len(manifest.Datasets)),
			attribute.Int("workers", opts.Workers),
		))
	defer span.End()

	start := time.Now()
	tables := make([]domain.RawTable, len(manifest.Datasets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, ds := range manifest.Datasets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, fileSpan := tracer.Start(gctx, "ingest.ReadTable",
				trace.WithAttributes(attribute.String("file", ds.Rel)))
			defer fileSpan.End()

			table, err := ReadTable(ds.Path, ds.Rel, opts.SkipBlankRows)
			if err != nil {
				fileSpan.RecordError(err)
				fileSpan.SetStatus(codes.Error, err.Error())
				return err
			}
			tables[i] = table
			logger.DebugContext(gctx, "Read source file",
				slog.String("file", ds.Rel),
				slog.Int("rows", table.NumRows()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	snapshot, err := assemble(manifest, tables)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Loaded source files",
		slog.Int("investment_periods", len(snapshot.Investments)),
		slog.Int("asset_years", len(snapshot.Assets)),
		slog.Duration("duration", time.Since(start)))
	return snapshot, nil
}

func assemble(manifest *files.Manifest, tables []domain.RawTable) (*Snapshot, error) {
	snapshot := &Snapshot{
		Investments: make(map[domain.Period]domain.RawTable),
		Assets:      make(map[int]domain.RawTable),
	}
	for i, ds := range manifest.Datasets {
		table := tables[i]
		switch ds.Kind {
		case files.KindInvestment:
			snapshot.Investments[ds.Period] = table
		case files.KindAssets:
			snapshot.Assets[ds.Year] = table
		case files.KindGPR:
			snapshot.GPR = table
		case files.KindPensionAssets:
			snapshot.PensionAssets = table
		case files.KindPensionGDP:
			snapshot.PensionGDP = table
		case files.KindExchangeRates:
			snapshot.ExchangeRates = table
		default:
			return nil, fmt.Errorf("unknown dataset kind %q for %s", ds.Kind, ds.Rel)
		}
	}
	for _, kind := range []files.Kind{files.KindGPR, files.KindPensionAssets, files.KindPensionGDP, files.KindExchangeRates} {
		if _, ok := manifest.Single(kind); !ok {
			return nil, fmt.Errorf("manifest needs exactly one %s dataset", kind)
		}
	}
	return snapshot, nil
}
