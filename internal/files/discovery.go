package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "capflow/internal/errors"
	"capflow/internal/validation"
	"capflow/pkg/contracts/domain"
)

// Kind identifies what a source file holds.
type Kind string

const (
	KindInvestment    Kind = "investment"
	KindAssets        Kind = "assets"
	KindGPR           Kind = "gpr"
	KindPensionAssets Kind = "pension_assets"
	KindPensionGDP    Kind = "pension_gdp"
	KindExchangeRates Kind = "exchange_rates"
)

// Well-known locations under the data directory.
const (
	GPRBaseName       = "geo_risk_index"
	GPRDir            = "gpr"
	PensionAssetsFile = "oecd/total_pension_assets.csv"
	PensionGDPFile    = "oecd/total_pension_assets_perc.csv"
	ExchangeRatesFile = "exchange_rates_oecd.csv"
)

// InvestmentFile returns the relative path of the bilateral survey for a period.
func InvestmentFile(p domain.Period) string {
	if p.Half == domain.H2 {
		return fmt.Sprintf("imf/allinvest_dec%d.xlsx", p.Year)
	}
	return fmt.Sprintf("imf/allinvest_june%d.xlsx", p.Year)
}

// AssetFile returns the relative path of the asset-structure survey for a year.
func AssetFile(year int) string {
	return fmt.Sprintf("oecd/pension_asset_struct%d.xlsx", year)
}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Dataset is one expected source file.
type Dataset struct {
	Kind Kind
	// Rel is the slash-separated path below the data directory.
	Rel  string
	Path string
	// Period is set for bilateral surveys, Year for asset surveys.
	Period domain.Period
	Year   int
}

// Manifest lists every file a run reads, in a stable order.
type Manifest struct {
	Datasets []Dataset
}

// Investments returns the bilateral survey files in period order.
func (m *Manifest) Investments() []Dataset {
	return m.ofKind(KindInvestment)
}

// Assets returns the asset-structure files in year order.
func (m *Manifest) Assets() []Dataset {
	return m.ofKind(KindAssets)
}

// Single returns the only dataset of a kind.
func (m *Manifest) Single(kind Kind) (Dataset, bool) {
	matches := m.ofKind(kind)
	if len(matches) != 1 {
		return Dataset{}, false
	}
	return matches[0], true
}

func (m *Manifest) ofKind(kind Kind) []Dataset {
	var out []Dataset
	for _, d := range m.Datasets {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Discovery locates the source files below a data directory
type Discovery struct {
	basePath  string
	validator *validation.FileValidator
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string, validator *validation.FileValidator) *Discovery {
	if validator == nil {
		validator = validation.NewFileValidator(nil)
	}
	return &Discovery{basePath: basePath, validator: validator}
}

// Locate builds the manifest for the given survey periods and asset years and
// checks that every file is present and readable. Missing files are reported
// together in a single IO error naming each path.
func (d *Discovery) Locate(periods []domain.Period, years []int) (*Manifest, error) {
	if err := d.validator.ValidateInputDirectory(d.basePath); err != nil {
		return nil, err
	}

	manifest := &Manifest{}
	add := func(kind Kind, rel string) *Dataset {
		manifest.Datasets = append(manifest.Datasets, Dataset{
			Kind: kind,
			Rel:  rel,
			Path: filepath.Join(d.basePath, filepath.FromSlash(rel)),
		})
		return &manifest.Datasets[len(manifest.Datasets)-1]
	}

	sorted := append([]domain.Period(nil), periods...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	for _, p := range sorted {
		add(KindInvestment, InvestmentFile(p)).Period = p
	}

	sortedYears := append([]int(nil), years...)
	sort.Ints(sortedYears)
	for _, y := range sortedYears {
		add(KindAssets, AssetFile(y)).Year = y
	}

	add(KindGPR, d.gprFile())
	add(KindPensionAssets, PensionAssetsFile)
	add(KindPensionGDP, PensionGDPFile)
	add(KindExchangeRates, ExchangeRatesFile)

	var errs []error
	var missing []string
	for _, ds := range manifest.Datasets {
		if err := d.validator.ValidateDataFile(ds.Path); err != nil {
			errs = append(errs, err)
			missing = append(missing, ds.Path)
		}
	}

	switch len(errs) {
	case 0:
		return manifest, nil
	case 1:
		return nil, errs[0]
	default:
		return nil, apperrors.NewIOError(
			fmt.Sprintf("%d expected files are missing or unreadable, first: %s", len(errs), missing[0]),
			errors.Join(errs...),
		).WithContext("paths", strings.Join(missing, ", "))
	}
}

// gprFile prefers the workbook and falls back to a CSV export of the index.
// When neither exists the workbook name is returned so the error names it.
func (d *Discovery) gprFile() string {
	found, err := d.FindFilesByPattern(GPRDir, GPRBaseName+".*")
	if err == nil {
		for _, ext := range []string{".xlsx", ".csv"} {
			for _, f := range found {
				if strings.EqualFold(filepath.Ext(f.Name), ext) {
					return GPRDir + "/" + f.Name
				}
			}
		}
	}
	return GPRDir + "/" + GPRBaseName + ".xlsx"
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}
	searchPattern := filepath.Join(fullPath, pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}

		if !info.IsDir() {
			files = append(files, FileInfo{
				Path:    match,
				Name:    filepath.Base(match),
				Size:    info.Size(),
				ModTime: info.ModTime(),
				IsDir:   false,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
