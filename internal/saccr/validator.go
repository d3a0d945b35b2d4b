package saccr

import (
	"fmt"

	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/market"
)

// ValidationResult is the S1 output consumed by every later stage.
type ValidationResult struct {
	Diagnostics []domain.Diagnostic

	// DefaultedIM / DefaultedVM record, per netting set, whether S1 had to
	// synthesize the balance itself (check 5/6) rather than receiving a
	// user-supplied value. S3's IM/VM precedence rule depends on this
	// distinction (spec.md §9, "Collateral fallback precedence").
	DefaultedIM map[string]bool
	DefaultedVM map[string]bool

	// NettingSetCounterparty is the first counterparty encountered for each
	// netting set across the trade population (spec.md §3 invariant); the
	// aggregator's RW lookup (Phase E) reads from this map.
	NettingSetCounterparty map[string]domain.CounterpartyID
}

// Validator is S1: it enforces the eleven consistency checks of spec.md
// §4.1, mutating the netting-set, collateral-balance, and counterparty
// stores in place and returning the diagnostics it raised.
type Validator struct {
	Defaults Defaults
}

// NewValidator constructs a Validator with the given defaults.
func NewValidator(defaults Defaults) *Validator {
	return &Validator{Defaults: defaults}
}

// Validate runs the eleven checks in order. Only check 11 can return an
// error; check 6's "calculate-VM=false but no VM anywhere" case is a
// warning with substitution (spec.md §4.1 item 6), and every earlier check
// recovers inline.
func (v *Validator) Validate(
	trades []market.Trade,
	nettingSets *domain.NettingSetStore,
	userBalances *domain.CollateralBalanceStore,
	calcBalances *domain.CollateralBalanceStore,
	cptys *domain.CounterpartyStore,
) (*ValidationResult, error) {
	res := &ValidationResult{
		DefaultedIM:            make(map[string]bool),
		DefaultedVM:            make(map[string]bool),
		NettingSetCounterparty: make(map[string]domain.CounterpartyID),
	}
	emit := func(d domain.Diagnostic) { res.Diagnostics = append(res.Diagnostics, d) }

	// Check 1: empty top-level stores.
	if nettingSets.Len() == 0 || userBalances.Len() == 0 && calcBalances.Len() == 0 || cptys.Len() == 0 {
		emit(domain.NewDiagnostic(domain.SeverityInfo, "ConfigMissing", "portfolio", "load-configuration",
			"one or more of {netting-set definitions, collateral balances, counterparty information} is empty; defaults will be substituted for missing members"))
	}

	// Build the netting-set -> first counterparty map (spec.md §3 invariant)
	// while walking trades in order, and backfill missing netting-set
	// definitions (check 2).
	for _, t := range trades {
		nsID := t.NettingSetID()
		key := nsID.String()

		if existing, ok := res.NettingSetCounterparty[key]; ok {
			if existing != t.CounterpartyID() {
				emit(domain.NewDiagnostic(domain.SeverityWarning, "ConfigInconsistent", key, "resolve-netting-set-counterparty",
					fmt.Sprintf("multiple counterparties observed for netting set; keeping first-seen %q, ignoring %q", existing, t.CounterpartyID())))
			}
		} else {
			res.NettingSetCounterparty[key] = t.CounterpartyID()
		}

		if !nettingSets.Has(nsID) {
			nettingSets.Put(v.defaultNettingSetDefinition(nsID))
			emit(domain.NewDiagnostic(domain.SeverityInfo, "ConfigMissing", key, "lookup-netting-set-definition",
				"no definition found; created a default Bilateral netting set"))
		}
	}

	// Check 3: calculate-IM/VM=true but a non-null user balance is also
	// supplied -> warn, supplied overrides calculated (enforced later in S3).
	for _, nsID := range nettingSets.OrderedIDs() {
		def := nettingSets.Get(nsID)
		if !def.CSAActive {
			continue
		}
		bal := userBalances.Get(nsID)
		if bal == nil {
			continue
		}
		if def.CalculateIM && bal.IM != nil {
			emit(domain.NewDiagnostic(domain.SeverityWarning, "ConfigInconsistent", nsID.String(), "resolve-im",
				"calculate-IM=true but a non-null user IM balance was also supplied; the supplied amount overrides the calculated amount"))
		}
		if def.CalculateVM && bal.VM != nil {
			emit(domain.NewDiagnostic(domain.SeverityWarning, "ConfigInconsistent", nsID.String(), "resolve-vm",
				"calculate-VM=true but a non-null user VM balance was also supplied; the supplied amount overrides the calculated amount"))
		}
	}

	// Check 4: duplicate collateral-balance entries for one netting set.
	for _, nsID := range userBalances.OrderedIDs() {
		if n := userBalances.Count(nsID); n > 1 {
			emit(domain.NewDiagnostic(domain.SeverityWarning, "ConfigInconsistent", nsID.String(), "merge-collateral-balances",
				fmt.Sprintf("%d collateral-balance entries supplied for one netting set; the first entry wins", n)))
		}
	}

	// Check 5: CSA active, no balance anywhere -> synthesize a default one.
	touched := make(map[string]bool)
	for _, t := range trades {
		nsID := t.NettingSetID()
		key := nsID.String()
		if touched[key] {
			continue
		}
		touched[key] = true

		def := nettingSets.Get(nsID)
		if def == nil || !def.CSAActive {
			continue
		}
		if userBalances.Has(nsID) || calcBalances.Has(nsID) {
			continue
		}
		im := v.Defaults.CollBalanceIM
		vm := v.Defaults.CollBalanceVM
		userBalances.Put(nsID, &domain.CollateralBalance{
			Currency: v.Defaults.CollBalanceCcy,
			IM:       &im,
			VM:       &vm,
		})
		res.DefaultedIM[key] = true
		res.DefaultedVM[key] = true
		emit(domain.NewDiagnostic(domain.SeverityInfo, "ConfigMissing", key, "resolve-collateral-balance",
			"CSA active but no user or calculated balance found; substituted a default balance"))
	}

	// Check 6: CSA active, calculate-VM=false, VM missing -> substitute and warn.
	for _, nsID := range nettingSets.OrderedIDs() {
		def := nettingSets.Get(nsID)
		if !def.CSAActive || def.CalculateVM {
			continue
		}
		key := nsID.String()
		bal := userBalances.Get(nsID)
		if bal != nil && bal.VM != nil {
			continue
		}
		vm := v.Defaults.CollBalanceVM
		if bal == nil {
			ccy := v.Defaults.CollBalanceCcy
			if def.CSACurrency != "" {
				ccy = def.CSACurrency
			}
			bal = &domain.CollateralBalance{Currency: ccy}
			userBalances.Put(nsID, bal)
		}
		bal.VM = &vm
		res.DefaultedVM[key] = true
		emit(domain.NewDiagnostic(domain.SeverityWarning, "ConfigMissing", key, "resolve-vm",
			"calculate-VM=false but no VM was supplied; substituted the default VM"))
	}

	// Check 7: missing counterparty for a trade.
	for _, t := range trades {
		cpID := t.CounterpartyID()
		if cptys.Has(cpID) {
			continue
		}
		cptys.Put(v.defaultCounterparty(cpID))
		emit(domain.NewDiagnostic(domain.SeverityInfo, "ConfigMissing", string(cpID), "lookup-counterparty",
			"no counterparty record found; inserted a default counterparty"))
	}

	// Check 8: netting sets without trades still need a counterparty record.
	for _, nsID := range nettingSets.OrderedIDs() {
		cpID := nsID.Counterparty
		if cpID == "" {
			if mapped, ok := res.NettingSetCounterparty[nsID.String()]; ok {
				cpID = mapped
			}
		}
		if cpID == "" || cptys.Has(cpID) {
			continue
		}
		cptys.Put(v.defaultCounterparty(cpID))
		emit(domain.NewDiagnostic(domain.SeverityInfo, "ConfigMissing", string(cpID), "lookup-counterparty",
			"netting set without trades referenced an unregistered counterparty; inserted a default counterparty"))
	}

	// Check 9: RW out of [0, 1.5].
	for _, cpID := range cptys.OrderedIDs() {
		info := cptys.Get(cpID)
		if info.SACCRRW < 0 || info.SACCRRW > 1.5 {
			emit(domain.NewDiagnostic(domain.SeverityWarning, "ConfigInconsistent", string(cpID), "validate-risk-weight",
				fmt.Sprintf("SA-CCR risk weight %.4f is outside [0, 1.5]; the value is still used", info.SACCRRW)))
		}
	}

	// Check 10: clearing CP -> force IM=0 in both stores.
	for _, nsID := range nettingSets.OrderedIDs() {
		cpID := nsID.Counterparty
		if mapped, ok := res.NettingSetCounterparty[nsID.String()]; ok {
			cpID = mapped
		}
		info := cptys.Get(cpID)
		if info == nil || !info.IsClearingCP {
			continue
		}
		zero := 0.0
		if bal := userBalances.Get(nsID); bal != nil {
			bal.IM = &zero
		}
		if bal := calcBalances.Get(nsID); bal != nil {
			bal.IM = &zero
		}
	}

	// Check 11: every trade now has matching entries in all three stores.
	for _, t := range trades {
		nsID := t.NettingSetID()
		if !nettingSets.Has(nsID) {
			return res, newPipelineError(KindAggregationError, nsID.String(), "final-consistency-check",
				"no netting-set definition after defaulting")
		}
		def := nettingSets.Get(nsID)
		if def.CSAActive && !userBalances.Has(nsID) && !calcBalances.Has(nsID) {
			return res, newPipelineError(KindAggregationError, nsID.String(), "final-consistency-check",
				"CSA active but no collateral balance after defaulting")
		}
		if !cptys.Has(t.CounterpartyID()) {
			return res, newPipelineError(KindAggregationError, string(t.CounterpartyID()), "final-consistency-check",
				"no counterparty record after defaulting")
		}
	}

	return res, nil
}

// defaultNettingSetDefinition builds the default "Bilateral" netting set of
// spec.md §4.1 check 2. The original (saccr.cpp) constructs this default
// through the full CSA-details constructor, so the default is CSA-active
// (not a no-CSA bilateral definition) — otherwise the whole default-
// collateral pathway (checks 5/6, S3) is unreachable for a defaulted
// netting set.
func (v *Validator) defaultNettingSetDefinition(id domain.NettingSetID) *domain.NettingSetDefinition {
	return &domain.NettingSetDefinition{
		ID:            id,
		CSAActive:     true,
		CSACurrency:   v.Defaults.CollBalanceCcy,
		ThresholdRcv:  v.Defaults.NettingSetThresholdRcv,
		MTARcv:        v.Defaults.NettingSetMTARcv,
		IAHeld:        v.Defaults.NettingSetIAHeld,
		MPOR:          v.Defaults.NettingSetMPORWeeks,
		CalculateIM:   v.Defaults.NettingSetCalculateIM,
		CalculateVM:   v.Defaults.NettingSetCalculateVM,
	}
}

func (v *Validator) defaultCounterparty(id domain.CounterpartyID) *domain.CounterpartyInfo {
	return &domain.CounterpartyInfo{
		ID:            id,
		IsClearingCP:  false,
		CreditQuality: domain.CreditQualityNR,
		SACCRRW:       v.Defaults.CounterpartySACCRRW,
	}
}
