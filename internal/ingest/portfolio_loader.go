// Package ingest loads the engine's two JSON-file inputs (a priced trade
// population, and a market-data snapshot) the way
// the teacher's handlers decode request bodies: encoding/json against a
// plain Go struct, no schema validation library.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aristath/saccr-engine/internal/market"
)

// LoadPortfolio reads a JSON array of market.StaticTrade from path.
func LoadPortfolio(path string) (*market.StaticPortfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: read portfolio file: %w", err)
	}

	var trades []*market.StaticTrade
	if err := json.Unmarshal(data, &trades); err != nil {
		return nil, fmt.Errorf("ingest: decode portfolio file: %w", err)
	}

	return &market.StaticPortfolio{TradeList: trades}, nil
}
