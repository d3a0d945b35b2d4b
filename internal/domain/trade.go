package domain

// TradeType is the closed set of trade types the classifier understands.
type TradeType string

const (
	TradeTypeSwap              TradeType = "Swap"
	TradeTypeSwaption          TradeType = "Swaption"
	TradeTypeFxForward         TradeType = "FxForward"
	TradeTypeFxOption          TradeType = "FxOption"
	TradeTypeFxBarrierOption   TradeType = "FxBarrierOption"
	TradeTypeFxTouchOption     TradeType = "FxTouchOption"
	TradeTypeCommodityForward  TradeType = "CommodityForward"
	TradeTypeCommoditySwap     TradeType = "CommoditySwap"
	TradeTypeEquityOption      TradeType = "EquityOption"
	TradeTypeTotalReturnSwap   TradeType = "TotalReturnSwap"
	TradeTypeFailed            TradeType = "Failed"
)

// SupportedTradeTypes is the set S2 accepts; anything else is TradeUnsupported.
var SupportedTradeTypes = map[TradeType]bool{
	TradeTypeSwap:             true,
	TradeTypeSwaption:         true,
	TradeTypeFxForward:        true,
	TradeTypeFxOption:         true,
	TradeTypeFxBarrierOption:  true,
	TradeTypeFxTouchOption:    true,
	TradeTypeCommodityForward: true,
	TradeTypeCommoditySwap:    true,
	TradeTypeEquityOption:     true,
	TradeTypeTotalReturnSwap:  true,
}

// OptionStyle is the exercise style of an option-bearing trade.
type OptionStyle string

const (
	OptionStyleEuropean OptionStyle = "European"
	OptionStyleAmerican OptionStyle = "American"
	OptionStyleBermudan OptionStyle = "Bermudan"
)

// TradeData is the internal, immutable-after-construction per-trade record
// produced by S2 (the TradeClassifier). See spec.md §3 for the full field
// semantics.
type TradeData struct {
	ID            string
	Type          TradeType
	NettingSet    NettingSetID
	Counterparty  CounterpartyID

	NPVBase float64 // NPV converted to base currency

	AssetClass    AssetClass
	HedgingSet    string
	HedgingSubset string

	M float64 // maturity time (year fraction, ACT/ACT ISDA)
	S float64 // start time (IR/Credit only)
	E float64 // end time (IR/Credit only)
	T float64 // latest option expiry (year fraction); NaN when not applicable

	MF float64 // maturity factor

	Notional   *float64 // current notional in base ccy, signed; nil on NotionalError
	Price1     float64
	Price2     float64
	Strike     float64
	OptionPrice float64

	Delta float64

	SD *float64 // supervisory duration; nil outside IR/Credit

	IsEquityIndex bool
}

// EffectiveCoefficient returns d = |notional| (or SD·|notional| for IR/Credit),
// the trade-level effective coefficient defined in spec.md §3. It returns 0
// when Notional is nil (a NotionalError trade, per spec.md §4.2/§7).
func (t *TradeData) EffectiveCoefficient() float64 {
	if t.Notional == nil {
		return 0
	}
	n := *t.Notional
	if n < 0 {
		n = -n
	}
	if t.SD != nil {
		return *t.SD * n
	}
	return n
}

// EffectiveNotional returns e_i = delta * d * MF, the signed per-trade
// contribution summed within a hedging set in Phase C of the aggregator.
func (t *TradeData) EffectiveNotional() float64 {
	return t.Delta * t.EffectiveCoefficient() * t.MF
}

// HasNotional reports whether S2 was able to resolve a notional for this
// trade (false after a NotionalError, per spec.md §7).
func (t *TradeData) HasNotional() bool {
	return t.Notional != nil
}
