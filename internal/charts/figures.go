package charts

import (
	"context"
	"image/color"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"capflow/internal/indicators"
	"capflow/pkg/contracts/domain"
)

// Figure file names.
const (
	FileTotalForeignAssets = "total_foreign_assets.png"
	FileChineseAssets      = "chinese_assets.png"
	FileShareChina         = "share_of_foreign_assets_china.png"
	FileCanadaBonds        = "canada_bond_holdings.png"
	FileCanadaCash         = "canada_cash_holdings.png"
	FileGPRChina           = "geopolitical_risk_index_china.png"
	FileCanadaPensionGDP   = "canada_pension_assets_perc_gdp.png"
)

// Figures returns the line charts drawn from d. Figures whose panel was not
// built or has no rows are left out.
func Figures(d *indicators.Derived) []LineChart {
	all := []LineChart{
		{
			File:     FileTotalForeignAssets,
			Title:    "Total assets issued abroad (foreign assets)",
			Subtitle: "Trillions of USD",
			Panel:    d.Investment.WorldTotal,
			Exclude:  []string{indicators.UnitedStates},
			Legend:   true,
		},
		{
			File:     FileChineseAssets,
			Title:    "Investment in Chinese assets",
			Subtitle: "Billions of USD",
			Panel:    d.Investment.InDestination,
			Exclude:  []string{indicators.UnitedStates},
			Legend:   true,
		},
		{
			File:     FileShareChina,
			Title:    "Share of foreign assets issued in China",
			Subtitle: "% of foreign-issued assets",
			Panel:    d.Investment.Share,
			Exclude:  []string{indicators.UnitedKingdom},
			Legend:   true,
		},
		{
			File:     FileCanadaBonds,
			Title:    "Bond holdings of Canadian pensions",
			Subtitle: "% of assets",
			Panel:    d.BondHoldings,
			Columns:  []string{indicators.Canada},
		},
		{
			File:     FileCanadaCash,
			Title:    "Cash holdings of Canadian pensions",
			Subtitle: "% of assets",
			Panel:    d.CashHoldings,
			Columns:  []string{indicators.Canada},
		},
		{
			File:     FileGPRChina,
			Title:    "Caldara-Iacoviello GPR index",
			Subtitle: "% of articles mentioning adverse events",
			Panel:    d.GPR,
			Columns:  []string{domain.GPRChina, domain.GPRTaiwan, domain.GPRHongKong},
			Labels: map[string]string{
				domain.GPRChina:    "China",
				domain.GPRTaiwan:   "Taiwan",
				domain.GPRHongKong: "Hong Kong",
			},
			Colors: map[string]color.Color{
				domain.GPRChina:    mustHex("#1F2E7A"),
				domain.GPRTaiwan:   mustHex("#475ED1"),
				domain.GPRHongKong: mustHex("#1DC9A4"),
			},
			Legend: true,
		},
		{
			File:     FileCanadaPensionGDP,
			Title:    "Canadian pension assets as % of GDP",
			Subtitle: "% of GDP",
			Panel:    d.PensionGDP,
			Columns:  []string{indicators.Canada},
		},
	}

	out := all[:0]
	for _, f := range all {
		if f.Panel != nil && f.Panel.Len() > 0 {
			out = append(out, f)
		}
	}
	return out
}

// RenderAll draws every figure available in d and returns the written paths.
// It stops at the first failure.
func (r *Renderer) RenderAll(ctx context.Context, d *indicators.Derived) ([]string, error) {
	tracer := otel.Tracer("capflow/charts")
	var paths []string

	render := func(file string, draw func() (string, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, span := tracer.Start(ctx, "charts.Render", trace.WithAttributes(attribute.String("file", file)))
		defer span.End()

		path, err := draw()
		if err != nil {
			span.RecordError(err)
			return err
		}
		paths = append(paths, path)
		return nil
	}

	for _, fig := range Figures(d) {
		if err := render(fig.File, func() (string, error) { return r.RenderLine(fig) }); err != nil {
			return paths, err
		}
	}

	if d.Allocation != nil {
		file := d.Allocation.Name + ".png"
		err := render(file, func() (string, error) {
			return r.RenderAllocation(d.Allocation, file, "% of pension allocation")
		})
		if err != nil {
			return paths, err
		}
	}

	r.logger.InfoContext(ctx, "Rendered figures", slog.Int("count", len(paths)))
	return paths, nil
}
