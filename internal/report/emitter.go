package report

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/aristath/saccr-engine/internal/domain"
)

// Emitter is S5: it renders the trade-detail report, the hierarchical
// summary report, and the combined collateral balances from one completed
// pipeline run, per spec.md §4.5.
type Emitter struct {
	TradeDetailSinks []Sink
	SummarySinks     []Sink
}

// NewEmitter constructs an Emitter with no sinks configured; callers append
// to TradeDetailSinks/SummarySinks before calling Emit.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit produces the trade-detail and summary reports and forwards each to
// its configured sinks. A nil/empty sink slice for either report is not an
// error — spec.md §4.5 only produces an output "if the corresponding sink is
// configured".
func (e *Emitter) Emit(ctx context.Context, portfolio *domain.PortfolioResult, trades []*domain.TradeData) error {
	if len(e.TradeDetailSinks) > 0 {
		rep := tradeDetailReport(trades)
		for _, s := range e.TradeDetailSinks {
			if err := s.Write(ctx, rep); err != nil {
				return fmt.Errorf("report: write trade-detail: %w", err)
			}
		}
	}

	if len(e.SummarySinks) > 0 {
		rep := summaryReport(portfolio)
		for _, s := range e.SummarySinks {
			if err := s.Write(ctx, rep); err != nil {
				return fmt.Errorf("report: write summary: %w", err)
			}
		}
	}

	return nil
}

func fcol(name string, v float64) Column {
	if math.IsNaN(v) {
		return Column{Name: name, Value: ""}
	}
	return Column{Name: name, Value: fmt.Sprintf("%.6f", v)}
}

func scol(name, v string) Column {
	return Column{Name: name, Value: v}
}

// tradeDetailReport implements spec.md §4.5's trade-detail report: one row
// per processed trade, in S2's append order (deterministic per spec.md §5 —
// trade order governs per-trade report order only, never aggregated
// numbers).
func tradeDetailReport(trades []*domain.TradeData) Report {
	rep := Report{Name: "trade-detail"}
	for _, td := range trades {
		notional := math.NaN()
		if td.Notional != nil {
			notional = *td.Notional
		}
		sd := math.NaN()
		if td.SD != nil {
			sd = *td.SD
		}

		row := Row{Columns: []Column{
			scol("id", td.ID),
			scol("type", string(td.Type)),
			scol("nettingSet", td.NettingSet.String()),
			scol("counterparty", string(td.Counterparty)),
			scol("assetClass", string(td.AssetClass)),
			scol("hedgingSet", td.HedgingSet),
			scol("hedgingSubset", td.HedgingSubset),
			fcol("npv", td.NPVBase),
			fcol("sd", sd),
			fcol("delta", td.Delta),
			fcol("notional", notional),
			fcol("mf", td.MF),
			fcol("m", td.M),
			fcol("s", td.S),
			fcol("e", td.E),
			fcol("t", td.T),
			fcol("price1", td.Price1),
			fcol("price2", td.Price2),
			fcol("strike", td.Strike),
			fcol("optionPrice", td.OptionPrice),
		}}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// summaryReport implements spec.md §4.5's hierarchical summary: a single
// "All/All/All" total row, then one row per netting set, then one row per
// asset class beneath it, then one row per hedging set beneath that.
// Netting sets are emitted in NettingSetID.Less order, and the asset classes
// and hedging sets beneath each in name order, so the report is reproducible across runs, per the idempotence law of
// spec.md §8.
func summaryReport(portfolio *domain.PortfolioResult) Report {
	rep := Report{Name: "summary"}

	total := Row{Columns: []Column{
		scol("nettingSet", "All"),
		scol("assetClass", "All"),
		scol("hedgingSet", "All"),
		fcol("cc", portfolio.TotalCC),
	}}
	rep.Rows = append(rep.Rows, total)

	nettingSets := append([]domain.NettingSetResult(nil), portfolio.NettingSets...)
	sort.Slice(nettingSets, func(i, j int) bool { return nettingSets[i].ID.Less(nettingSets[j].ID) })

	for _, ns := range nettingSets {
		nsKey := ns.ID.String()
		rep.Rows = append(rep.Rows, Row{Columns: []Column{
			scol("nettingSet", nsKey),
			scol("assetClass", ""),
			scol("hedgingSet", ""),
			fcol("grossNPV", ns.GrossNPV),
			fcol("npv", ns.NPV),
			fcol("rc", ns.RC),
			fcol("addOn", ns.AddOn),
			fcol("multiplier", ns.Multiplier),
			fcol("pfe", ns.PFE),
			fcol("ead", ns.EAD),
			fcol("rw", ns.RW),
			fcol("cc", ns.CC),
			scol("counterparty", string(ns.CounterpartyID)),
		}})

		assetClasses := append([]domain.AssetClassResult(nil), ns.AssetClasses...)
		sort.Slice(assetClasses, func(i, j int) bool { return assetClasses[i].Key.AssetClass < assetClasses[j].Key.AssetClass })

		for _, ac := range assetClasses {
			rep.Rows = append(rep.Rows, Row{Columns: []Column{
				scol("nettingSet", nsKey),
				scol("assetClass", string(ac.Key.AssetClass)),
				scol("hedgingSet", ""),
				fcol("addOn", ac.AddOn),
				fcol("npv", ac.NPV),
			}})

			hedgingSets := append([]domain.HedgingSetResult(nil), ac.HedgingSets...)
			sort.Slice(hedgingSets, func(i, j int) bool { return hedgingSets[i].Key.HedgingSet < hedgingSets[j].Key.HedgingSet })

			for _, hs := range hedgingSets {
				rep.Rows = append(rep.Rows, Row{Columns: []Column{
					scol("nettingSet", nsKey),
					scol("assetClass", string(ac.Key.AssetClass)),
					scol("hedgingSet", hs.Key.HedgingSet),
					fcol("addOn", hs.AddOn),
					fcol("npv", hs.NPV),
					scol("isBasis", fmt.Sprintf("%v", hs.IsBasis)),
				}})
			}
		}
	}

	return rep
}

// BackfillCollateralBalances implements spec.md §4.5's combined-collateral
// back-fill: if a netting set already has a user balance, missing IM/VM are
// filled from the aggregator's resolved amounts (converted into the user
// balance's own currency); otherwise the calculated balance is copied and
// its VM overwritten with the resolved VM. The result is written back into
// userBalances via Put, which does not affect the S1 duplicate-count
// tracked by Add — running this twice is a no-op once every IM/VM pointer is
// already non-nil (the idempotence law of spec.md §8).
func BackfillCollateralBalances(
	defs *domain.NettingSetStore,
	userBalances *domain.CollateralBalanceStore,
	calcBalances *domain.CollateralBalanceStore,
	resolved map[string]domain.ResolvedCollateral,
	toCurrency func(amountBase float64, toCcy string) (float64, error),
) error {
	for _, id := range defs.OrderedIDs() {
		def := defs.Get(id)
		if !def.CSAActive {
			continue
		}
		key := id.String()
		res, ok := resolved[key]
		if !ok {
			continue
		}

		if bal := userBalances.Get(id); bal != nil {
			changed := false
			if bal.IM == nil {
				v, err := toCurrency(res.IM, bal.Currency)
				if err != nil {
					return err
				}
				bal.IM = &v
				changed = true
			}
			if bal.VM == nil {
				v, err := toCurrency(res.VM, bal.Currency)
				if err != nil {
					return err
				}
				bal.VM = &v
				changed = true
			}
			if changed {
				userBalances.Put(id, bal)
			}
			continue
		}

		calc := calcBalances.Get(id)
		ccy := def.CSACurrency
		var im *float64
		vm := res.VM
		if calc != nil {
			ccy = calc.Currency
			if calc.IM != nil {
				v := *calc.IM
				im = &v
			}
			converted, err := toCurrency(res.VM, calc.Currency)
			if err != nil {
				return err
			}
			vm = converted
		}
		userBalances.Put(id, &domain.CollateralBalance{Currency: ccy, IM: im, VM: &vm})
	}
	return nil
}
