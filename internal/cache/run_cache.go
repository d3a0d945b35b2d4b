// Package cache stores a binary snapshot of the most recently completed
// SA-CCR run so the HTTP API can serve the last result without re-running
// the pipeline, grounded on the msgpack wire encoding used in
// display/bridge/main.go.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/saccr-engine/internal/domain"
)

// TradeSnapshot is the msgpack-serializable projection of domain.TradeData
// a run snapshot stores; a plain struct (rather than domain.TradeData
// itself) keeps the on-disk schema decoupled from TradeData's internal
// pointer fields (Notional, SD), which msgpack would otherwise need custom
// codecs for.
type TradeSnapshot struct {
	ID            string
	Type          string
	NettingSet    string
	Counterparty  string
	NPVBase       float64
	AssetClass    string
	HedgingSet    string
	HedgingSubset string
	M, S, E, T    float64
	MF            float64
	Notional      float64
	HasNotional   bool
	Delta         float64
	SD            float64
	HasSD         bool
}

// RunSnapshot is the full cached result of one pipeline run.
type RunSnapshot struct {
	RunID       string
	Portfolio   *domain.PortfolioResult
	Trades      []TradeSnapshot
	Diagnostics []domain.Diagnostic
}

// ToSnapshot projects TradeData records into their msgpack-friendly form.
func ToSnapshot(runID string, portfolio *domain.PortfolioResult, trades []*domain.TradeData, diags []domain.Diagnostic) RunSnapshot {
	out := RunSnapshot{RunID: runID, Portfolio: portfolio, Diagnostics: diags}
	for _, td := range trades {
		ts := TradeSnapshot{
			ID:            td.ID,
			Type:          string(td.Type),
			NettingSet:    td.NettingSet.String(),
			Counterparty:  string(td.Counterparty),
			NPVBase:       td.NPVBase,
			AssetClass:    string(td.AssetClass),
			HedgingSet:    td.HedgingSet,
			HedgingSubset: td.HedgingSubset,
			M:             td.M,
			S:             td.S,
			E:             td.E,
			T:             td.T,
			MF:            td.MF,
			Delta:         td.Delta,
		}
		if td.Notional != nil {
			ts.Notional = *td.Notional
			ts.HasNotional = true
		}
		if td.SD != nil {
			ts.SD = *td.SD
			ts.HasSD = true
		}
		out.Trades = append(out.Trades, ts)
	}
	return out
}

// RunCache persists the most recent RunSnapshot to a single msgpack file
// under Dir, and keeps the last value in memory for fast reads.
type RunCache struct {
	mu   sync.RWMutex
	Dir  string
	last *RunSnapshot
}

// NewRunCache constructs a cache rooted at dir.
func NewRunCache(dir string) *RunCache {
	return &RunCache{Dir: dir}
}

func (c *RunCache) path() string {
	return filepath.Join(c.Dir, "last_run.msgpack")
}

// Store persists snap both to memory and to disk.
func (c *RunCache) Store(snap RunSnapshot) error {
	c.mu.Lock()
	c.last = &snap
	c.mu.Unlock()

	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("run cache: marshal: %w", err)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("run cache: create dir: %w", err)
	}
	if err := os.WriteFile(c.path(), data, 0o644); err != nil {
		return fmt.Errorf("run cache: write file: %w", err)
	}
	return nil
}

// Load returns the in-memory snapshot if present, otherwise reads it back
// from disk (e.g. after a process restart).
func (c *RunCache) Load() (*RunSnapshot, error) {
	c.mu.RLock()
	if c.last != nil {
		defer c.mu.RUnlock()
		return c.last, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("run cache: read file: %w", err)
	}

	var snap RunSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("run cache: unmarshal: %w", err)
	}

	c.mu.Lock()
	c.last = &snap
	c.mu.Unlock()

	return &snap, nil
}
