// Package di wires the engine's dependencies into one Container, mirroring
// the staged Wire(cfg, log) (*Container, error) entry point of the teacher's
// internal/di/wire.go (databases -> repositories -> services -> jobs), scoped
// down from its eight-database/dozens-of-services graph to this engine's much
// smaller dependency set.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/saccr-engine/internal/cache"
	"github.com/aristath/saccr-engine/internal/config"
	"github.com/aristath/saccr-engine/internal/database"
	"github.com/aristath/saccr-engine/internal/database/repositories"
	"github.com/aristath/saccr-engine/internal/domain"
	"github.com/aristath/saccr-engine/internal/events"
	"github.com/aristath/saccr-engine/internal/ingest"
	"github.com/aristath/saccr-engine/internal/market"
	"github.com/aristath/saccr-engine/internal/report"
	"github.com/aristath/saccr-engine/internal/scheduler"
)

// Container holds every long-lived dependency the engine needs: the
// database, its repositories, the event bus, the run cache, the report
// emitter, and the valuation job that ties them to one pipeline run.
type Container struct {
	DB *database.DB

	NettingSetRepo    *repositories.NettingSetRepository
	CounterpartyRepo  *repositories.CounterpartyRepository
	CollateralRepo    *repositories.CollateralRepository

	Bus      *events.Bus
	RunCache *cache.RunCache
	Emitter  *report.Emitter

	Job       *scheduler.ValuationJob
	Scheduler *scheduler.Scheduler
}

// Wire initializes the database, repositories, ambient services, and the
// valuation job, in that order, cleaning up already-opened resources if a
// later step fails.
func Wire(cfg *config.Config, log zerolog.Logger, portfolioPath, marketDataPath string) (*Container, error) {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("di: open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("di: migrate database: %w", err)
	}

	nettingSetRepo := repositories.NewNettingSetRepository(db)
	counterpartyRepo := repositories.NewCounterpartyRepository(db)
	collateralRepo := repositories.NewCollateralRepository(db)

	bus := events.NewBus()
	runCache := cache.NewRunCache(cfg.DataDir)

	emitter := report.NewEmitter()
	emitter.TradeDetailSinks = append(emitter.TradeDetailSinks, report.NewCSVSink(cfg.DataDir))
	emitter.SummarySinks = append(emitter.SummarySinks, report.NewCSVSink(cfg.DataDir))
	if cfg.ReportS3Bucket != "" {
		s3Sink, err := report.NewS3Sink(context.Background(), cfg.ReportS3Bucket, cfg.ReportS3Region, cfg.ReportS3Endpoint,
			cfg.AWSAccessKeyID, cfg.AWSSecretKey, "saccr-reports/", log)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("di: build s3 report sink: %w", err)
		}
		emitter.TradeDetailSinks = append(emitter.TradeDetailSinks, s3Sink)
		emitter.SummarySinks = append(emitter.SummarySinks, s3Sink)
	}

	mkt, nameMapper, bucketMapper, refData, err := ingest.LoadMarket(marketDataPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("di: load market data: %w", err)
	}

	job := scheduler.NewValuationJob(scheduler.ValuationJobConfig{
		Log: log,
		Repos: scheduler.Repositories{
			NettingSets:    nettingSetRepo,
			Counterparties: counterpartyRepo,
			UserBalances:   userBalanceLoader{collateralRepo},
			CalcBalances:   calcBalanceLoader{collateralRepo},
			SaveCalculated: collateralRepo.SaveCalculated,
		},
		Defaults:      cfg.SACCRDefaults(),
		Market:        mkt,
		NameMapper:    nameMapper,
		BucketMapper:  bucketMapper,
		ReferenceData: refData,
		ValuationDate: time.Now,
		BaseCurrency:  cfg.BaseCurrency,
		LoadPortfolio: func() (market.Portfolio, error) { return ingest.LoadPortfolio(portfolioPath) },
		Emitter:       emitter,
		RunCache:      runCache,
		Bus:           bus,
	})

	sched := scheduler.New(log)

	return &Container{
		DB:               db,
		NettingSetRepo:   nettingSetRepo,
		CounterpartyRepo: counterpartyRepo,
		CollateralRepo:   collateralRepo,
		Bus:              bus,
		RunCache:         runCache,
		Emitter:          emitter,
		Job:              job,
		Scheduler:        sched,
	}, nil
}

// Close releases the container's resources.
func (c *Container) Close() error {
	return c.DB.Close()
}

// userBalanceLoader adapts CollateralRepository.LoadUser to the
// scheduler.CollateralLoader interface.
type userBalanceLoader struct{ repo *repositories.CollateralRepository }

func (l userBalanceLoader) LoadAll() (*domain.CollateralBalanceStore, error) { return l.repo.LoadUser() }

// calcBalanceLoader adapts CollateralRepository.LoadCalculated to the
// scheduler.CollateralLoader interface.
type calcBalanceLoader struct{ repo *repositories.CollateralRepository }

func (l calcBalanceLoader) LoadAll() (*domain.CollateralBalanceStore, error) {
	return l.repo.LoadCalculated()
}
