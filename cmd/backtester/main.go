package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rzzdr/options-backtester/config"
	"github.com/rzzdr/options-backtester/internal/backtest"
	"github.com/rzzdr/options-backtester/internal/kafka"
	"github.com/rzzdr/options-backtester/internal/market"
	"github.com/rzzdr/options-backtester/internal/pricing"
	"github.com/rzzdr/options-backtester/internal/strategy"
	"github.com/rzzdr/options-backtester/internal/websocket"
	"github.com/rzzdr/options-backtester/pkg/api"
	"github.com/rzzdr/options-backtester/pkg/metrics"
	"github.com/rzzdr/options-backtester/pkg/models"
	"github.com/rzzdr/options-backtester/pkg/utils/dateutil"
	"github.com/rzzdr/options-backtester/pkg/utils/errors"
	"github.com/rzzdr/options-backtester/pkg/utils/logger"
)

var (
	serve = flag.Bool("serve", true, "Keep the results API running after the backtest finishes")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger("main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("main")
	log.Info("Starting options backtester")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startDate, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	endDate, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		log.Fatalf("Invalid end date: %v", err)
	}

	mkt, err := buildMarket(cfg, startDate, endDate)
	if err != nil {
		log.Fatalf("Failed to build market data: %v", err)
	}

	model, err := buildModel(cfg)
	if err != nil {
		log.Fatalf("Failed to build pricing model: %v", err)
	}

	engine, err := backtest.New(mkt, backtest.Config{
		StartDate:          startDate,
		EndDate:            endDate,
		InitialCapital:     cfg.Backtest.InitialCapital,
		RebalanceFrequency: cfg.Backtest.RebalanceFrequency,
		CostPerContract:    cfg.Backtest.CostPerContract,
		CostPct:            cfg.Backtest.CostPct,
		SlippageBps:        cfg.Backtest.SlippageBps,
		Model:              model,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	recorder := metrics.NewRecorder()
	hub := websocket.NewHub()
	go hub.Run(ctx)

	var publisher *kafka.Publisher
	if cfg.Kafka.Enabled {
		publisher = kafka.NewPublisher(kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			ResultsTopic: cfg.Kafka.ResultsTopic,
			TradesTopic:  cfg.Kafka.TradesTopic,
		})
		defer publisher.Close()
	}

	underlying := cfg.Backtest.Underlying
	lastTick := time.Now()
	seenTrades := 0
	engine.OnDailyResult = func(r models.DailyResult) {
		recorder.RecordDayProcessed(underlying, time.Since(lastTick))
		lastTick = time.Now()
		recorder.RecordPortfolioState(underlying, r.PortfolioValue, r.Cash, r.Greeks.Delta, r.NumStrategies)
		trades := engine.Trades()
		for _, trade := range trades[seenTrades:] {
			recorder.RecordTrade(underlying)
			if strings.HasPrefix(trade.Description, "Expiration") {
				recorder.RecordExpiration(underlying)
			}
		}
		seenTrades = len(trades)
		hub.BroadcastDailyResult(r)
		if publisher != nil {
			if err := publisher.PublishDailyResult(ctx, r); err != nil {
				log.Warnf("Failed to publish daily result: %v", err)
			}
		}
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(api.Config{
			Host:         cfg.API.Host,
			Port:         cfg.API.Port,
			ReadTimeout:  cfg.API.ReadTimeout,
			WriteTimeout: cfg.API.WriteTimeout,
		}, engine, hub, recorder)

		go func() {
			if err := apiServer.Start(); err != nil {
				log.Errorf("API server error: %v", err)
			}
		}()
	}

	if err := addDemoStrategies(engine, mkt, startDate); err != nil {
		log.Fatalf("Failed to add strategies: %v", err)
	}

	results, err := engine.Run(ctx)
	if err != nil {
		log.Errorf("Backtest failed: %v", err)
	}

	if len(results) > 0 {
		summary := backtest.Summarize(results, engine.Trades(), market.DefaultRate)
		log.Infow("run summary",
			"final_value", summary.FinalValue,
			"total_return", summary.TotalReturn,
			"sharpe", summary.SharpeRatio,
			"max_drawdown", summary.MaxDrawdown,
			"trades", summary.NumTrades,
		)
	}

	if publisher != nil {
		for _, trade := range engine.Trades() {
			if err := publisher.PublishTrade(ctx, trade); err != nil {
				log.Warnf("Failed to publish trade: %v", err)
				break
			}
		}
	}

	if apiServer != nil && *serve {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Infof("Received signal %v, initiating shutdown", sig)
	}

	if apiServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer shutdownCancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Errorf("API server shutdown error: %v", err)
		}
	}

	log.Info("Shutdown complete")
}

// buildMarket assembles a synthetic market: a GBM spot path with weekly
// flat-vol surface snapshots. A production deployment would load real
// series here instead.
func buildMarket(cfg *config.Config, start, end time.Time) (*market.Context, error) {
	days := int(end.Sub(start).Hours()/24) + 1
	spots := market.GBMPath(start, 450.0, 0.05, cfg.Backtest.DefaultVol, days, 42)

	mkt, err := market.NewContext(cfg.Backtest.Underlying, spots)
	if err != nil {
		return nil, err
	}

	for i := 0; i < days; i += 7 {
		date := start.AddDate(0, 0, i)
		surf, err := market.FlatSurface(date, cfg.Backtest.Underlying, spots[i].Value, cfg.Backtest.DefaultVol)
		if err != nil {
			return nil, err
		}
		mkt.AddSurface(surf)
	}
	return mkt, nil
}

func buildModel(cfg *config.Config) (pricing.Model, error) {
	switch cfg.Backtest.Model {
	case "black_scholes":
		return pricing.NewBlackScholes(true), nil
	case "bachelier":
		return pricing.NewBachelier(true), nil
	case "sabr":
		return pricing.NewSABR(cfg.SABR.Alpha, cfg.SABR.Beta, cfg.SABR.Rho, cfg.SABR.Nu), nil
	case "surface_greeks":
		return pricing.NewSurfaceGreeks(pricing.NewBlackScholes(true)), nil
	default:
		return nil, errors.InvalidArgumentf("unknown pricing model: %q", cfg.Backtest.Model)
	}
}

// addDemoStrategies opens an ATM straddle on the next monthly expiry and
// a calendar spread across the two expiries after it, all on the first
// trading day.
func addDemoStrategies(engine *backtest.Engine, mkt *market.Context, start time.Time) error {
	spot, err := mkt.Spot(start)
	if err != nil {
		return err
	}
	atm := float64(int(spot/5.0)) * 5.0

	expiries, err := dateutil.GenerateExpiryDates(start.AddDate(0, 0, 14), start.AddDate(0, 0, 120),
		dateutil.ExpiryMonthly, time.Friday)
	if err != nil {
		return err
	}
	if len(expiries) < 3 {
		return errors.InvalidArgumentf("backtest window too short for demo strategies")
	}

	straddle, err := strategy.NewStraddle(mkt.Underlying(), atm, expiries[0], strategy.DirectionLong, 1)
	if err != nil {
		return err
	}
	if err := engine.AddStrategy(straddle, start); err != nil {
		return err
	}

	calendar, err := strategy.NewCalendarSpread(mkt.Underlying(), models.OptionTypeCall, atm,
		expiries[1], expiries[2], 1)
	if err != nil {
		return err
	}
	return engine.AddStrategy(calendar, start)
}
