package saccr

import (
	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

// PipelineInput bundles everything a Run needs: the trade population and the
// three mutable stores S1 validates and defaults into, per spec.md §6.
type PipelineInput struct {
	Trades         []market.Trade
	NettingSets    *domain.NettingSetStore
	UserBalances   *domain.CollateralBalanceStore
	CalcBalances   *domain.CollateralBalanceStore
	Counterparties *domain.CounterpartyStore
	NPVOverrides   map[string]NPVOverride
}

// PipelineResult is everything downstream consumers (S5, the API layer, the
// run cache) need out of one end-to-end SA-CCR run.
type PipelineResult struct {
	Portfolio   *domain.PortfolioResult
	Trades      []*domain.TradeData
	Diagnostics []domain.Diagnostic
}

// Pipeline wires S1-S4 together in the strict, single-threaded, deterministic
// order of spec.md §2: Validate, Classify, Resolve collateral, Aggregate.
type Pipeline struct {
	Context  *market.Context
	Defaults Defaults
}

// NewPipeline constructs a Pipeline bound to a pricing context and defaults.
func NewPipeline(ctx *market.Context, defaults Defaults) *Pipeline {
	return &Pipeline{Context: ctx, Defaults: defaults}
}

// Run executes one full valuation pass over in.
//
// S3 (collateral resolution) needs each netting set's net base-currency NPV
// as its VM fallback, but that sum is also what S4 Phase A computes as part
// of the full aggregation. Rather than contort Aggregate into a two-call
// API, Run derives the NPV sum once via NetNPVByNettingSet right after
// classification and feeds it to the resolver; Aggregate then recomputes the
// same sum internally as part of Phase A. The duplicate pass is cheap and
// keeps both S3 and S4 simple, single-purpose stages.
func (p *Pipeline) Run(in PipelineInput) (*PipelineResult, error) {
	validator := NewValidator(p.Defaults)
	validation, err := validator.Validate(in.Trades, in.NettingSets, in.UserBalances, in.CalcBalances, in.Counterparties)
	if err != nil {
		return &PipelineResult{Diagnostics: validation.Diagnostics}, err
	}

	classifier := NewTradeClassifier(p.Context, in.NettingSets, in.Counterparties, validation.NettingSetCounterparty)
	for id, ov := range in.NPVOverrides {
		classifier.NPVOverrides[id] = ov
	}
	classification := classifier.Classify(in.Trades)

	diags := append([]domain.Diagnostic(nil), validation.Diagnostics...)
	diags = append(diags, classification.Diagnostics...)

	netNPV := NetNPVByNettingSet(in.NettingSets, classification.Trades)

	resolver := NewCollateralResolver(p.Context)
	collateral, collDiags, err := resolver.Resolve(in.NettingSets, in.UserBalances, in.CalcBalances, validation.DefaultedIM, validation.DefaultedVM, netNPV)
	diags = append(diags, collDiags...)
	if err != nil {
		return &PipelineResult{Trades: classification.Trades, Diagnostics: diags}, err
	}

	aggregator := NewAggregator(p.Defaults.Alpha)
	portfolio, _, err := aggregator.Aggregate(in.NettingSets, classification.Trades, collateral, validation.NettingSetCounterparty, in.Counterparties, classification.BasisHedgingSets)
	if err != nil {
		return &PipelineResult{Trades: classification.Trades, Diagnostics: diags}, err
	}

	return &PipelineResult{
		Portfolio:   portfolio,
		Trades:      classification.Trades,
		Diagnostics: diags,
	}, nil
}
