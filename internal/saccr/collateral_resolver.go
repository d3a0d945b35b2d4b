package saccr

import (
	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

// CollateralResolver is S3: it resolves IM, VM, IAH, MTA, TH in base
// currency for every CSA-active netting set, per spec.md §4.3.
type CollateralResolver struct {
	Context *market.Context
}

// NewCollateralResolver constructs a resolver bound to a pricing context.
func NewCollateralResolver(ctx *market.Context) *CollateralResolver {
	return &CollateralResolver{Context: ctx}
}

// Resolve computes ResolvedCollateral for every netting set in defs. netNPV
// supplies each netting set's already-base-currency NPV (from
// NetNPVByNettingSet), used as the VM fallback when calculate-VM is true and no
// user balance applies.
func (r *CollateralResolver) Resolve(
	defs *domain.NettingSetStore,
	userBalances *domain.CollateralBalanceStore,
	calcBalances *domain.CollateralBalanceStore,
	defaultedIM, defaultedVM map[string]bool,
	netNPV map[string]float64,
) (map[string]domain.ResolvedCollateral, []domain.Diagnostic, error) {
	out := make(map[string]domain.ResolvedCollateral)
	var diags []domain.Diagnostic

	for _, id := range defs.OrderedIDs() {
		def := defs.Get(id)
		key := id.String()

		if !def.CSAActive {
			out[key] = domain.ResolvedCollateral{}
			continue
		}

		userBal := userBalances.Get(id)
		calcBal := calcBalances.Get(id)

		im, err := r.resolveIM(key, def, userBal, calcBal, defaultedIM)
		if err != nil {
			return nil, diags, err
		}
		vm, err := r.resolveVM(key, def, userBal, calcBal, defaultedVM, netNPV[key])
		if err != nil {
			return nil, diags, err
		}

		iah, err := r.toBase(def.CSACurrency, def.IAHeld)
		if err != nil {
			return nil, diags, err
		}
		mta, err := r.toBase(def.CSACurrency, def.MTARcv)
		if err != nil {
			return nil, diags, err
		}
		th, err := r.toBase(def.CSACurrency, def.ThresholdRcv)
		if err != nil {
			return nil, diags, err
		}

		out[key] = domain.ResolvedCollateral{IM: im, VM: vm, IAH: iah, MTA: mta, TH: th}
	}

	return out, diags, nil
}

func (r *CollateralResolver) resolveIM(key string, def *domain.NettingSetDefinition, userBal, calcBal *domain.CollateralBalance, defaultedIM map[string]bool) (float64, error) {
	if def.CalculateIM {
		if userBal != nil && userBal.IM != nil && !defaultedIM[key] {
			return r.toBase(userBal.Currency, *userBal.IM)
		}
		if calcBal != nil && calcBal.IM != nil {
			return r.toBase(calcBal.Currency, *calcBal.IM)
		}
		return 0, nil
	}

	if userBal == nil || userBal.IM == nil {
		return 0, newPipelineError(KindConfigInconsistent, key, "resolve-im",
			"calculate-IM is false but no user IM balance was supplied")
	}
	return r.toBase(userBal.Currency, *userBal.IM)
}

func (r *CollateralResolver) resolveVM(key string, def *domain.NettingSetDefinition, userBal, calcBal *domain.CollateralBalance, defaultedVM map[string]bool, npvBase float64) (float64, error) {
	if def.CalculateVM {
		if userBal != nil && userBal.VM != nil && !defaultedVM[key] {
			return r.toBase(userBal.Currency, *userBal.VM)
		}
		return npvBase, nil
	}

	if userBal == nil || userBal.VM == nil {
		return 0, newPipelineError(KindConfigInconsistent, key, "resolve-vm",
			"calculate-VM is false but no user VM balance was supplied")
	}
	return r.toBase(userBal.Currency, *userBal.VM)
}

func (r *CollateralResolver) toBase(ccy string, amount float64) (float64, error) {
	if ccy == "" || ccy == r.Context.BaseCurrency {
		return amount, nil
	}
	fx, err := r.Context.Market.FXRate(ccy, r.Context.BaseCurrency)
	if err != nil {
		return 0, err
	}
	return amount * fx, nil
}
