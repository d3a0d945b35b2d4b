// Command server is the engine's entrypoint: it wires configuration,
// logging, and the dependency container, then either runs one valuation
// pass and exits (--once) or serves the HTTP API alongside the cron
// scheduler — mirroring the teacher's cmd/server/main.go orchestration
// pattern.
package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aristath/saccr-engine/internal/config"
	"github.com/aristath/saccr-engine/internal/di"
	"github.com/aristath/saccr-engine/internal/server"
	"github.com/aristath/saccr-engine/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single valuation pass and exit, instead of serving")
	portfolioPath := flag.String("portfolio", "./data/portfolio.json", "path to the priced trade population JSON file")
	marketDataPath := flag.String("market-data", "./data/market.json", "path to the market-data snapshot JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	container, err := di.Wire(cfg, log, *portfolioPath, *marketDataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	defer container.Close()

	if *once {
		if _, err := container.Job.RunWithResult(); err != nil {
			log.Fatal().Err(err).Msg("valuation run failed")
		}
		return
	}

	container.Scheduler.Start()
	defer container.Scheduler.Stop()
	if cfg.RunSchedule != "" {
		if err := container.Scheduler.AddJob(cronSixField(cfg.RunSchedule), container.Job); err != nil {
			log.Fatal().Err(err).Msg("failed to register valuation job")
		}
	}

	srv := server.New(server.Config{
		Addr:        fmtAddr(cfg.Port),
		Log:         log,
		Job:         container.Job,
		RunCache:    container.RunCache,
		Bus:         container.Bus,
		StartupTime: time.Now(),
		DevMode:     cfg.LogPretty,
	})

	httpErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-httpErr:
		log.Error().Err(err).Msg("http server failed")
	}
}

// cronSixField prefixes a five-field cron expression with a leading
// "0" seconds field, since the scheduler is built with cron.WithSeconds().
// A descriptor ("@every ...", "@daily", ...) or an expression that already
// carries six fields is passed through unchanged.
func cronSixField(expr string) string {
	if len(expr) > 0 && expr[0] == '@' {
		return expr
	}
	fields := 1
	for _, r := range expr {
		if r == ' ' {
			fields++
		}
	}
	if fields >= 6 {
		return expr
	}
	return "0 " + expr
}

func fmtAddr(port int) string {
	return ":" + strconv.Itoa(port)
}
