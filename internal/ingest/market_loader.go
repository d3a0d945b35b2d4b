package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aristath/saccr-engine/internal/market"
)

// marketFile is the on-disk shape of a market-data snapshot: flat discount
// curves, flat equity curves, and FX spot quotes, matching the
// market.FlatCurve/market.FlatEquityCurve reference implementations.
type marketFile struct {
	AsOf time.Time `json:"asOf"`

	DiscountCurves map[string]float64 `json:"discountCurves"` // ccy -> flat zero rate

	EquityCurves map[string]struct {
		Rate float64 `json:"rate"`
		Spot float64 `json:"spot"`
		Ccy  string  `json:"currency"`
	} `json:"equityCurves"`

	FXRates map[string]float64 `json:"fxRates"` // "EURUSD" -> units of USD per EUR

	CommodityQualifiers map[string]string `json:"commodityQualifiers"`
	CommodityBuckets    map[string]string `json:"commodityBuckets"`
	EquityIndices       map[string]bool   `json:"equityIndices"`
}

// LoadMarket reads a JSON market-data snapshot from path into an
// InMemoryMarket plus its companion SIMM mappers and reference data.
func LoadMarket(path string) (*market.InMemoryMarket, market.NameMapper, market.BucketMapper, market.ReferenceData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("ingest: read market file: %w", err)
	}

	var mf marketFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("ingest: decode market file: %w", err)
	}

	m := market.NewInMemoryMarket()
	for ccy, rate := range mf.DiscountCurves {
		m.SetDiscountCurve(ccy, market.FlatCurve{AsOf: mf.AsOf, Rate: rate})
	}
	for name, eq := range mf.EquityCurves {
		m.SetEquityCurve(name, market.FlatEquityCurve{
			FlatCurve: market.FlatCurve{AsOf: mf.AsOf, Rate: eq.Rate},
			Spot:      eq.Spot,
			Ccy:       eq.Ccy,
		})
	}
	for pair, rate := range mf.FXRates {
		if len(pair) != 6 {
			continue
		}
		m.SetFXRate(pair[:3], pair[3:], rate)
	}

	nameMapper := market.StaticNameMapper{Table: mf.CommodityQualifiers}
	bucketMapper := market.StaticBucketMapper{Table: mf.CommodityBuckets}
	refData := market.StaticReferenceData{Indices: mf.EquityIndices}

	return m, nameMapper, bucketMapper, refData, nil
}
