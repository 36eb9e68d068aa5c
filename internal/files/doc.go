// Package files locates the pipeline's source files and writes its outputs.
//
// Discovery maps survey periods and years to the expected file names below the
// data directory and checks that each one is present before anything is read:
//
//	imf/allinvest_june2013.xlsx ... imf/allinvest_june2022.xlsx
//	imf/allinvest_dec2013.xlsx  ... imf/allinvest_dec2021.xlsx
//	oecd/pension_asset_struct2006.xlsx ... oecd/pension_asset_struct2021.xlsx
//	gpr/geo_risk_index.xlsx (or .csv)
//	oecd/total_pension_assets.csv, oecd/total_pension_assets_perc.csv
//	exchange_rates_oecd.csv
//
// Manager writes tables and charts atomically below an output directory.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.DataDir, validation.NewFileValidator(logger))
//	manifest, err := discovery.Locate(periods, years)
//
//	manager := files.NewManager(paths.TablesDir, logger)
//	path, err := manager.Write("investment_in_china.csv", func(w io.Writer) error { ... })
package files
