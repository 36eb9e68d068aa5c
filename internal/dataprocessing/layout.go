package dataprocessing

// Grid offsets below are 0-based row and column indexes into a RawTable whose fully
// blank rows were removed at load time (ingest.Options.SkipBlankRows).

// BilateralLayout describes where a bilateral investment workbook keeps its matrix.
type BilateralLayout struct {
	// Vintage names the source-file version the offsets were taken from.
	Vintage string
	// LeadingColumns is the number of non-data columns before the matrix.
	LeadingColumns int
	// HeaderRow holds the source-country names.
	HeaderRow int
	// DestinationLabel is the header of the destination-country column.
	DestinationLabel string
	// AnnotationColumns are commentary columns dropped by name.
	AnnotationColumns []string
	// FirstDestinationRow is the first row of the destination window.
	FirstDestinationRow int
	// DestinationRows is the size of the destination window; rows after it are footnotes.
	DestinationRows int
}

// CPISAllInvestLayout matches the IMF CPIS "allinvest" extracts for June 2013
// through June 2022.
var CPISAllInvestLayout = BilateralLayout{
	Vintage:             "imf-cpis-allinvest-2013h1-2022h1",
	LeadingColumns:      2,
	HeaderRow:           4,
	DestinationLabel:    "Investment in:",
	AnnotationColumns:   []string{"SEFER + SSIO (**)"},
	FirstDestinationRow: 5,
	DestinationRows:     246,
}

// Canonical asset table fields.
const (
	fieldCountry        = "country"
	fieldCash           = "cash"
	fieldBonds          = "bonds"
	fieldLoans          = "loans"
	fieldEquity         = "equity"
	fieldMutualFunds    = "mutual funds"
	fieldRealEstate     = "real estate"
	fieldHedgeFunds     = "hedge funds"
	fieldPrivateEquity  = "private equity"
	fieldOther          = "other"
	fieldStructured     = "structured products"
	fieldInsurance      = "unallocated insurance"
	fieldOfWhichCash    = "of which cash"
	fieldOfWhichBonds   = "of which bonds"
	fieldOfWhichEquity  = "of which equity"
	fieldOfWhichRealEst = "of which real estate"
	fieldOfWhichOther   = "of which other"
)

// AssetLayout describes where a pension asset-structure workbook keeps its table.
type AssetLayout struct {
	Vintage string
	// HeaderRow holds the primary asset-class names.
	HeaderRow int
	// SubHeaderRow holds the mutual-fund "of which" names.
	SubHeaderRow int
	// SubHeaderFirstColumn and SubHeaderLastColumn bound (inclusive) the cells moved
	// from the sub-header row into the header row.
	SubHeaderFirstColumn int
	SubHeaderLastColumn  int
	// FirstBodyRow is the first country row.
	FirstBodyRow int
	// TrailingAggregateRows are dropped from the end of the body.
	TrailingAggregateRows int
	// Columns maps source header names to canonical fields.
	Columns map[string]string
}

// OECDAssetStructureLayout matches the OECD Global Pension Statistics asset
// structure extracts for 2006 through 2021.
var OECDAssetStructureLayout = AssetLayout{
	Vintage:               "oecd-gps-asset-structure-2006-2021",
	HeaderRow:             8,
	SubHeaderRow:          9,
	SubHeaderFirstColumn:  8,
	SubHeaderLastColumn:   12,
	FirstBodyRow:          11,
	TrailingAggregateRows: 1,
	Columns: map[string]string{
		"Variable":                                            fieldCountry,
		"Cash and Deposits":                                   fieldCash,
		"Bills and bonds issued by public and private sector": fieldBonds,
		"Loans":                                               fieldLoans,
		"Equity":                                              fieldEquity,
		"Mutual funds (CIS)":                                  fieldMutualFunds,
		"Land and Buildings":                                  fieldRealEstate,
		"Hedge funds":                                         fieldHedgeFunds,
		"Private equity funds":                                fieldPrivateEquity,
		"Other investments":                                   fieldOther,
		"Structured products":                                 fieldStructured,
		"Unallocated insurance contracts":                     fieldInsurance,
		"Of which: Cash and deposits":                         fieldOfWhichCash,
		"Of which: Bills and bonds":                           fieldOfWhichBonds,
		"Of which: Equity":                                    fieldOfWhichEquity,
		"Of which: Land and buildings":                        fieldOfWhichRealEst,
		"Of which: Other":                                     fieldOfWhichOther,
	},
}

// DefaultMutualFundUnknownThreshold is the five-category coverage, in percent, below
// which a country's mutual-fund breakdown is treated as unreported.
const DefaultMutualFundUnknownThreshold = 90.0
