package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/saccr-engine/internal/cache"
	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/events"
	"github.com/aristath/saccr-engine/internal/market"
	"github.com/aristath/saccr-engine/internal/report"
	"github.com/aristath/saccr-engine/internal/saccr"
	"github.com/aristath/saccr-engine/pkg/logger"
)

// Repositories is the subset of internal/database/repositories a valuation
// run needs, expressed as an interface so this package never imports
// internal/database directly (mirrors the teacher's *Repo-field-on-Config
// job-constructor convention).
type Repositories struct {
	NettingSets    NettingSetLoader
	Counterparties CounterpartyLoader
	UserBalances   CollateralLoader
	CalcBalances   CollateralLoader
	SaveCalculated func(*domain.CollateralBalanceStore) error
}

// NettingSetLoader loads the configured netting-set universe.
type NettingSetLoader interface {
	LoadAll() (*domain.NettingSetStore, error)
}

// CounterpartyLoader loads the configured counterparty universe.
type CounterpartyLoader interface {
	LoadAll() (*domain.CounterpartyStore, error)
}

// CollateralLoader loads one collateral-balance source (user or calculated).
type CollateralLoader interface {
	LoadAll() (*domain.CollateralBalanceStore, error)
}

// PortfolioLoader supplies the priced trade population for one run.
type PortfolioLoader func() (market.Portfolio, error)

// ValuationJobConfig configures one ValuationJob, following the teacher's
// NewXJob(XConfig{...}) constructor convention (e.g. scheduler.NewTagUpdateJob).
type ValuationJobConfig struct {
	Log      zerolog.Logger
	Repos    Repositories
	Defaults saccr.Defaults
	Market   market.Market

	NameMapper    market.NameMapper
	BucketMapper  market.BucketMapper
	ReferenceData market.ReferenceData

	ValuationDate func() time.Time
	BaseCurrency  string

	LoadPortfolio PortfolioLoader

	Emitter  *report.Emitter
	RunCache *cache.RunCache
	Bus      *events.Bus
}

// ValuationJob is the scheduler.Job that runs one end-to-end SA-CCR pass:
// load the input stores and portfolio, run the pipeline, emit reports, cache
// the snapshot, and back-fill combined collateral.
type ValuationJob struct {
	cfg ValuationJobConfig
}

// NewValuationJob constructs a ValuationJob from cfg.
func NewValuationJob(cfg ValuationJobConfig) *ValuationJob {
	return &ValuationJob{cfg: cfg}
}

// Name implements scheduler.Job.
func (j *ValuationJob) Name() string { return "saccr-valuation" }

// Run implements scheduler.Job. It never returns a partial success: any
// input-store or portfolio-load failure aborts before the pipeline runs.
func (j *ValuationJob) Run() error {
	_, err := j.RunWithResult()
	return err
}

// RunWithResult is Run, but also returns the PipelineResult and run id so
// HTTP handlers can report what happened without re-running the pipeline.
func (j *ValuationJob) RunWithResult() (*saccr.PipelineResult, error) {
	runID := uuid.NewString()
	log := j.cfg.Log.With().Str("run_id", runID).Logger()

	nettingSets, err := j.cfg.Repos.NettingSets.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("valuation job: load netting sets: %w", err)
	}
	counterparties, err := j.cfg.Repos.Counterparties.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("valuation job: load counterparties: %w", err)
	}
	userBalances, err := j.cfg.Repos.UserBalances.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("valuation job: load user collateral balances: %w", err)
	}
	calcBalances, err := j.cfg.Repos.CalcBalances.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("valuation job: load calculated collateral balances: %w", err)
	}

	portfolio, err := j.cfg.LoadPortfolio()
	if err != nil {
		return nil, fmt.Errorf("valuation job: load portfolio: %w", err)
	}
	trades := portfolio.Trades()

	if j.cfg.Bus != nil {
		j.cfg.Bus.Publish(events.Event{
			Type:      events.RunStarted,
			Timestamp: time.Now(),
			Data:      events.RunStartedData{RunID: runID, TradeCount: len(trades)},
		})
	}

	valuationDate := time.Now()
	if j.cfg.ValuationDate != nil {
		valuationDate = j.cfg.ValuationDate()
	}

	ctx := &market.Context{
		ValuationDate: valuationDate,
		BaseCurrency:  j.cfg.BaseCurrency,
		Market:        j.cfg.Market,
		NameMapper:    j.cfg.NameMapper,
		BucketMapper:  j.cfg.BucketMapper,
		ReferenceData: j.cfg.ReferenceData,
	}

	pipeline := saccr.NewPipeline(ctx, j.cfg.Defaults)
	result, err := pipeline.Run(saccr.PipelineInput{
		Trades:         trades,
		NettingSets:    nettingSets,
		UserBalances:   userBalances,
		CalcBalances:   calcBalances,
		Counterparties: counterparties,
	})

	for _, d := range result.Diagnostics {
		logger.EmitDiagnostic(log, string(d.Severity), d.Source, d.Category, d.Subject, d.Action, d.Detail)

		if j.cfg.Bus != nil {
			j.cfg.Bus.Publish(events.Event{
				Type:      events.DiagnosticRaised,
				Timestamp: time.Now(),
				Data: events.DiagnosticData{
					RunID: runID, Severity: string(d.Severity), Category: d.Category,
					Subject: d.Subject, Action: d.Action, Detail: d.Detail,
				},
			})
		}
	}

	if err != nil {
		log.Error().Err(err).Msg("valuation run failed")
		if j.cfg.Bus != nil {
			j.cfg.Bus.Publish(events.Event{
				Type: events.RunFailed, Timestamp: time.Now(),
				Data: events.RunFailedData{RunID: runID, Error: err.Error()},
			})
		}
		return result, fmt.Errorf("valuation job: pipeline run: %w", err)
	}

	ctx2 := context.Background()
	if j.cfg.Emitter != nil {
		if err := j.cfg.Emitter.Emit(ctx2, result.Portfolio, result.Trades); err != nil {
			return result, fmt.Errorf("valuation job: emit reports: %w", err)
		}
	}

	if err := j.backfillAndPersist(nettingSets, userBalances, calcBalances, result); err != nil {
		return result, err
	}

	if j.cfg.RunCache != nil {
		snap := cache.ToSnapshot(runID, result.Portfolio, result.Trades, result.Diagnostics)
		if err := j.cfg.RunCache.Store(snap); err != nil {
			return result, fmt.Errorf("valuation job: store run cache: %w", err)
		}
	}

	if j.cfg.Bus != nil {
		j.cfg.Bus.Publish(events.Event{
			Type:      events.RunCompleted,
			Timestamp: time.Now(),
			Data: events.RunCompletedData{
				RunID:           runID,
				TotalCC:         result.Portfolio.TotalCC,
				NettingSets:     len(result.Portfolio.NettingSets),
				TradesProcessed: len(result.Trades),
			},
		})
	}

	log.Info().Float64("total_cc", result.Portfolio.TotalCC).Int("netting_sets", len(result.Portfolio.NettingSets)).
		Msg("valuation run completed")
	return result, nil
}

// backfillAndPersist implements spec.md §4.5's combined-collateral back-fill
// and persists the result as the durable "calculated" balance set for the
// next run's IM fallback.
func (j *ValuationJob) backfillAndPersist(
	nettingSets *domain.NettingSetStore,
	userBalances, calcBalances *domain.CollateralBalanceStore,
	result *saccr.PipelineResult,
) error {
	resolved := make(map[string]domain.ResolvedCollateral, len(result.Portfolio.NettingSets))
	for _, ns := range result.Portfolio.NettingSets {
		resolved[ns.ID.String()] = ns.Collateral
	}

	toCurrency := func(amountBase float64, toCcy string) (float64, error) {
		if toCcy == "" || toCcy == j.cfg.BaseCurrency {
			return amountBase, nil
		}
		rate, err := j.cfg.Market.FXRate(j.cfg.BaseCurrency, toCcy)
		if err != nil {
			return 0, fmt.Errorf("valuation job: convert collateral to %s: %w", toCcy, err)
		}
		return amountBase * rate, nil
	}

	if err := report.BackfillCollateralBalances(nettingSets, userBalances, calcBalances, resolved, toCurrency); err != nil {
		return fmt.Errorf("valuation job: backfill collateral: %w", err)
	}

	if j.cfg.Repos.SaveCalculated != nil {
		if err := j.cfg.Repos.SaveCalculated(userBalances); err != nil {
			return fmt.Errorf("valuation job: persist calculated collateral: %w", err)
		}
	}
	return nil
}
