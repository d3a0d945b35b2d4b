package market

import (
	"time"

	"github.com/aristath/saccr-engine/internal/domain"
)

// StaticTrade is a plain, JSON-decodable Trade implementation: a fixed
// snapshot of legs, NPV, additional results, and underlyings captured at
// pricing time. Production deployments populate it from whatever pricing
// library/job produced the valuation; the core only ever reads through the
// Trade interface, never this struct.
type StaticTrade struct {
	TradeID         string                 `json:"id"`
	TradeType       domain.TradeType       `json:"type"`
	NettingSet      domain.NettingSetID    `json:"nettingSet"`
	Counterparty    domain.CounterpartyID  `json:"counterparty"`
	TradeLegs       []Leg                  `json:"legs"`
	Maturity        time.Time              `json:"maturityDate"`
	NPVAmount       float64                `json:"npvAmount"`
	NPVCurrency     string                 `json:"npvCurrency"`
	AdditionalResults map[string]float64   `json:"additionalResults"`
	UnderlyingsByClass map[string][]string `json:"underlyings"`
	Option          *OptionData            `json:"option,omitempty"`
}

// ID implements Trade.
func (t *StaticTrade) ID() string { return t.TradeID }

// Type implements Trade.
func (t *StaticTrade) Type() domain.TradeType { return t.TradeType }

// NettingSetID implements Trade.
func (t *StaticTrade) NettingSetID() domain.NettingSetID { return t.NettingSet }

// CounterpartyID implements Trade.
func (t *StaticTrade) CounterpartyID() domain.CounterpartyID { return t.Counterparty }

// Legs implements Trade.
func (t *StaticTrade) Legs() []Leg { return t.TradeLegs }

// MaturityDate implements Trade.
func (t *StaticTrade) MaturityDate() time.Time { return t.Maturity }

// NPV implements Trade.
func (t *StaticTrade) NPV() (float64, string) { return t.NPVAmount, t.NPVCurrency }

// AdditionalResult implements Trade.
func (t *StaticTrade) AdditionalResult(key string) (float64, bool) {
	v, ok := t.AdditionalResults[key]
	return v, ok
}

// Underlyings implements Trade.
func (t *StaticTrade) Underlyings(class string) []string {
	return t.UnderlyingsByClass[class]
}

// OptionData implements Trade.
func (t *StaticTrade) OptionData() (*OptionData, bool) {
	if t.Option == nil {
		return nil, false
	}
	return t.Option, true
}

// StaticPortfolio is a Portfolio backed by an in-memory, ordered slice of
// trades, as decoded from a JSON trade file.
type StaticPortfolio struct {
	TradeList []*StaticTrade
}

// Trades implements Portfolio.
func (p *StaticPortfolio) Trades() []Trade {
	out := make([]Trade, len(p.TradeList))
	for i, t := range p.TradeList {
		out[i] = t
	}
	return out
}
