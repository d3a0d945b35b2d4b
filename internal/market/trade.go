// Package market defines the external collaborators the SA-CCR core reads
// from: the trade model, the pricing market, reference data, and the SIMM
// name/bucket mappers (spec.md §6). The core never imports a concrete
// pricing engine or market-data client — only these interfaces, plus the
// in-memory reference implementation in memory.go used by tests and the
// demo CLI.
package market

import (
	"time"

	"github.com/aristath/saccr-engine/internal/domain"
)

// Cashflow is one coupon on a trade leg.
type Cashflow struct {
	AccrualStart time.Time
	AccrualEnd   time.Time
	Notional     float64

	// Commodity-specific, all optional (nil when not applicable).
	Quantity *float64
	Gearing  *float64
	Spread   *float64
	Fixing   *float64
}

// Leg is one side of a trade (fixed, floating, or commodity leg).
type Leg struct {
	Currency  string
	Payer     bool
	Cashflows []Cashflow
}

// FirstFlowDate returns the earliest accrual start among the leg's cashflows.
func (l Leg) FirstFlowDate() (time.Time, bool) {
	var first time.Time
	found := false
	for _, cf := range l.Cashflows {
		if !found || cf.AccrualStart.Before(first) {
			first = cf.AccrualStart
			found = true
		}
	}
	return first, found
}

// LastFlowDate returns the latest accrual end among the leg's cashflows.
func (l Leg) LastFlowDate() (time.Time, bool) {
	var last time.Time
	found := false
	for _, cf := range l.Cashflows {
		if !found || cf.AccrualEnd.After(last) {
			last = cf.AccrualEnd
			found = true
		}
	}
	return last, found
}

// OptionData describes the option-specific terms of an option-bearing trade.
type OptionData struct {
	IsCall         bool // true = call, false = put
	IsLong         bool // true = long (bought), false = short (sold)
	ExerciseDates  []time.Time
	Style          domain.OptionStyle
	PayoffAtExpiry bool
}

// LatestExercise returns the latest exercise date, if any are present.
func (o *OptionData) LatestExercise() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, d := range o.ExerciseDates {
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found
}

// Trade is the external, polymorphic trade collaborator of spec.md §3/§6.
// Implementations are supplied by the trade-model library; the core only
// ever reads through this interface.
type Trade interface {
	ID() string
	Type() domain.TradeType
	NettingSetID() domain.NettingSetID
	CounterpartyID() domain.CounterpartyID

	Legs() []Leg
	MaturityDate() time.Time

	// NPV returns the trade's own NPV and the currency it is denominated in.
	NPV() (amount float64, currency string)

	// AdditionalResult looks up a named pricing result such as "strike",
	// "atmForward", "forward", or "barrier-levels" (spec.md §3).
	AdditionalResult(key string) (float64, bool)

	// Underlyings returns the underlying-index names partitioned by asset
	// class ("IR", "INF", "COM", "EQ"), per spec.md §3.
	Underlyings(class string) []string

	// OptionData returns the option terms for option-bearing trades.
	OptionData() (*OptionData, bool)
}

// Portfolio is the ordered mapping from trade id to trade (spec.md §6).
type Portfolio interface {
	// Trades returns all trades in portfolio (input) order.
	Trades() []Trade
}
