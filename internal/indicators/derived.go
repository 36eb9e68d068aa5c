package indicators

import "capflow/pkg/contracts/domain"

// Derived collects every panel of a run. Nil panels were not built.
type Derived struct {
	Investment   InvestmentPanels
	BondHoldings *domain.Panel
	CashHoldings *domain.Panel
	Allocation   *domain.Panel
	GPR          *domain.Panel
	PensionUSD   *domain.Panel
	PensionGDP   *domain.Panel
}

// Panels returns the built panels in a stable order.
func (d *Derived) Panels() []*domain.Panel {
	all := []*domain.Panel{
		d.Investment.InDestination,
		d.Investment.WorldTotal,
		d.Investment.Share,
		d.BondHoldings,
		d.CashHoldings,
		d.Allocation,
		d.GPR,
		d.PensionUSD,
		d.PensionGDP,
	}
	out := all[:0]
	for _, p := range all {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
