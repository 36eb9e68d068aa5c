// Package indicators derives the presentation panels from the normalized
// investment, asset, risk and pension tables.
package indicators

// Labels as they appear in the source tables.
const (
	ChinaMainland = "China, P.R.: Mainland"
	UnitedStates  = "United States"
	UnitedKingdom = "United Kingdom"
	Japan         = "Japan"
	Canada        = "Canada"
)

// G7 returns the G7 members in reporting order.
func G7() []string {
	return []string{UnitedStates, UnitedKingdom, Japan, "Germany", "France", "Italy", Canada}
}

// AllocationPeers returns the pension systems compared in the asset-class charts.
func AllocationPeers() []string {
	return []string{Canada, UnitedStates, UnitedKingdom, "Germany", "Australia", "Italy", "Netherlands", "Norway"}
}

// DefaultSumOverrides pins the category total used to rescale a country's 2021
// allocation. The United States figure is a data patch carried from the published
// charts.
func DefaultSumOverrides() map[string]float64 {
	return map[string]float64{UnitedStates: 100.00132}
}
