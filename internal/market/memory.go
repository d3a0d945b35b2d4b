package market

import (
	"fmt"
	"math"
	"time"
)

// InMemoryMarket is a static Market implementation for tests and the demo
// CLI. Production deployments wire a real market-data service behind the
// same interface; the core never depends on how rates/curves are sourced.
// The FX lookup mirrors the stale-data-is-better-than-no-data fallback idiom
// of the teacher's exchangerate client (same-currency short-circuit, then a
// direct quote, then the inverse of a quote for the reverse pair).
type InMemoryMarket struct {
	fxRates map[string]float64 // "EURUSD" -> units of USD per EUR
	curves  map[string]Curve
	equity  map[string]EquityCurve
	vols    map[string]Surface
}

// NewInMemoryMarket creates an empty in-memory market.
func NewInMemoryMarket() *InMemoryMarket {
	return &InMemoryMarket{
		fxRates: make(map[string]float64),
		curves:  make(map[string]Curve),
		equity:  make(map[string]EquityCurve),
		vols:    make(map[string]Surface),
	}
}

// SetFXRate registers the rate to convert 1 unit of from into to.
func (m *InMemoryMarket) SetFXRate(from, to string, rate float64) {
	m.fxRates[from+to] = rate
	if rate != 0 {
		m.fxRates[to+from] = 1 / rate
	}
}

// SetDiscountCurve registers the discount curve for ccy.
func (m *InMemoryMarket) SetDiscountCurve(ccy string, c Curve) {
	m.curves[ccy] = c
}

// SetEquityCurve registers the equity curve for name.
func (m *InMemoryMarket) SetEquityCurve(name string, c EquityCurve) {
	m.equity[name] = c
}

// SetFXVol registers a vol surface for pair.
func (m *InMemoryMarket) SetFXVol(pair string, s Surface) {
	m.vols[pair] = s
}

// FXRate implements Market.
func (m *InMemoryMarket) FXRate(from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	if rate, ok := m.fxRates[from+to]; ok {
		return rate, nil
	}
	return 0, fmt.Errorf("market: no FX rate for %s/%s", from, to)
}

// DiscountCurve implements Market.
func (m *InMemoryMarket) DiscountCurve(ccy string) (Curve, error) {
	if c, ok := m.curves[ccy]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("market: no discount curve for %s", ccy)
}

// EquityCurve implements Market.
func (m *InMemoryMarket) EquityCurve(name string) (EquityCurve, error) {
	if c, ok := m.equity[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("market: no equity curve for %s", name)
}

// FXVol implements Market.
func (m *InMemoryMarket) FXVol(pair string) (Surface, error) {
	if s, ok := m.vols[pair]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("market: no FX vol surface for %s", pair)
}

// FlatCurve is a constant-zero-rate discount curve, Discount(t) = exp(-r*yearFrac).
type FlatCurve struct {
	AsOf time.Time
	Rate float64
}

// Discount implements Curve using ACT/365F from AsOf to t.
func (c FlatCurve) Discount(t time.Time) (float64, error) {
	yf := t.Sub(c.AsOf).Hours() / 24 / 365.0
	return math.Exp(-c.Rate * yf), nil
}

// FlatEquityCurve is a FlatCurve with a constant spot fixing and currency.
type FlatEquityCurve struct {
	FlatCurve
	Spot    float64
	Ccy     string
}

// Fixing implements EquityCurve; the demo curve ignores the requested date
// and always returns the constant spot.
func (c FlatEquityCurve) Fixing(t time.Time) (float64, error) {
	return c.Spot, nil
}

// Currency implements EquityCurve.
func (c FlatEquityCurve) Currency() string {
	return c.Ccy
}

// StaticNameMapper collapses names via an explicit lookup table.
type StaticNameMapper struct {
	Table map[string]string
}

// Qualifier implements NameMapper.
func (s StaticNameMapper) Qualifier(name string) (string, error) {
	if q, ok := s.Table[name]; ok {
		return q, nil
	}
	return name, nil
}

// StaticBucketMapper resolves buckets via an explicit lookup table keyed by
// qualifier (risk type is always "Commodity" in this engine's usage).
type StaticBucketMapper struct {
	Table map[string]string
}

// Bucket implements BucketMapper.
func (s StaticBucketMapper) Bucket(riskType, qualifier string) (string, error) {
	if b, ok := s.Table[qualifier]; ok {
		return b, nil
	}
	return "", fmt.Errorf("market: no bucket mapping for qualifier %q", qualifier)
}

// StaticReferenceData flags equity names as indices via an explicit set.
type StaticReferenceData struct {
	Indices map[string]bool
}

// EquityIsIndex implements ReferenceData.
func (s StaticReferenceData) EquityIsIndex(name string) (bool, error) {
	return s.Indices[name], nil
}
