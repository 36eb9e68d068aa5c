// Package dataprocessing normalizes the two raw survey tables the pipeline
// depends on.
//
// InvestmentNormalizer cleans IMF CPIS bilateral matrices, one per half-year,
// into an InvestmentTable keyed by destination and source country, and
// assembles (amount, world total, share) series for one pair. AssetNormalizer
// cleans OECD pension asset-structure tables into five canonical categories
// (cash, bonds, equity, real estate, other), redistributing mutual-fund
// holdings through the reported of-which shares or, when those are missing,
// through the country's own direct holdings.
//
// Both normalizers are pure over their input snapshot. Clean results are
// memoized per period in a bounded LRU cache, so calling Clean twice for the
// same period returns the same table.
//
// # Layouts
//
// The positions of header rows, footers and leading label columns belong to a
// source vintage and are described by BilateralLayout and AssetLayout. A table
// that does not match its layout fails with a PARSE error instead of yielding
// shifted data:
//
//	n := dataprocessing.NewInvestmentNormalizer(raw,
//	    dataprocessing.WithPeriodRange(first, last),
//	    dataprocessing.WithInvestmentCache(64))
//	table, err := n.Clean(domain.Period{Year: 2021, Half: domain.H2})
//	if apperrors.IsParse(err) {
//	    // the sheet changed shape
//	}
//
// # Missing values
//
// Cells that are not numeric (the survey's "C", "-" and blanks) become NaN,
// never zero. ParseNumber reports them as MISSING_VALUE errors; Coerce folds
// that error into NaN.
package dataprocessing
