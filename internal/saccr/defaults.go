package saccr

import "github.com/aristath/saccr-engine/internal/domain"

// Defaults bundles the configurable substitution values enumerated in
// spec.md §6. The caller (internal/config) populates one of these from
// environment variables or a settings store; the validator never reads
// configuration directly.
type Defaults struct {
	NettingSetThresholdRcv float64
	NettingSetMTARcv       float64
	NettingSetIAHeld       float64
	NettingSetMPORWeeks    domain.MPORWeeks
	NettingSetCalculateIM  bool
	NettingSetCalculateVM  bool

	CollBalanceCcy string
	CollBalanceIM  float64
	CollBalanceVM  float64

	CounterpartyID  domain.CounterpartyID
	CounterpartyCCP bool
	CounterpartySACCRRW float64

	Alpha float64
}

// DefaultAlpha is the regulatory multiplier applied to (RC+PFE) to form EAD.
const DefaultAlpha = 1.4

// NewDefaults returns the conservative defaults used when no override is
// configured: zero threshold/MTA/IA and a 2-week MPOR for the default
// (CSA-active) netting set the validator creates, a zero collateral balance in
// the engine's base currency, and an unrated non-clearing counterparty.
func NewDefaults(baseCcy string) Defaults {
	return Defaults{
		NettingSetThresholdRcv: 0,
		NettingSetMTARcv:       0,
		NettingSetIAHeld:       0,
		NettingSetMPORWeeks:    2,
		NettingSetCalculateIM:  true,
		NettingSetCalculateVM:  true,

		CollBalanceCcy: baseCcy,
		CollBalanceIM:  0,
		CollBalanceVM:  0,

		CounterpartyID:      "DEFAULT",
		CounterpartyCCP:     false,
		CounterpartySACCRRW: 1.0,

		Alpha: DefaultAlpha,
	}
}
