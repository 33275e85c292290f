package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantfold/trading-engine/internal/api"
	"github.com/quantfold/trading-engine/internal/config"
	"github.com/quantfold/trading-engine/internal/engine"
	"github.com/quantfold/trading-engine/internal/exchange"
	"github.com/quantfold/trading-engine/internal/exchange/bybit"
	"github.com/quantfold/trading-engine/internal/logger"
	"github.com/quantfold/trading-engine/internal/ml"
	"github.com/quantfold/trading-engine/internal/monitoring"
	"github.com/quantfold/trading-engine/internal/portfolio"
	"github.com/quantfold/trading-engine/internal/risk"
	"github.com/quantfold/trading-engine/internal/signal"
	"github.com/quantfold/trading-engine/pkg/reporting"
)

func main() {
	var (
		envFile  = flag.String("env", ".env", "Environment file path")
		interval = flag.String("interval", "60", "Kline interval (Bybit notation: 1, 5, 15, 60, 240, D)")
	)
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: could not load env file (%v), using process environment", err)
	}

	cfg := config.Load()

	appLog, err := logger.NewSession("trader", cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to open session log: %v", err)
	}
	defer appLog.Close()

	eng, apiServer, err := buildEngine(cfg, bybit.KlineInterval(*interval), appLog)
	if err != nil {
		appLog.Critical("startup failed: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		appLog.Critical("engine start failed: %v", err)
		os.Exit(1)
	}

	go func() {
		if err := apiServer.Start(); err != nil {
			appLog.Error("API server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLog.Status("shutdown signal received")
	cancel()
	eng.Stop()

	writeAuditWorkbook(eng, cfg, appLog)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("API shutdown: %v", err)
	}
	appLog.Status("trader stopped")
}

// buildEngine wires every component from the loaded configuration
func buildEngine(cfg *config.Config, interval bybit.KlineInterval, appLog *logger.Logger) (*engine.Engine, *api.Server, error) {
	client := bybit.NewClient(bybit.Config{
		APIKey:    cfg.Exchange.APIKey,
		APISecret: cfg.Exchange.APISecret,
		Category:  cfg.Exchange.Category,
		Testnet:   cfg.Exchange.Testnet,
		Demo:      cfg.Exchange.Demo,
	})
	adapter := exchange.NewBybitAdapter(client, interval)
	appLog.Info("exchange: bybit %s, category %s", client.Environment(), cfg.Exchange.Category)

	gen, err := signal.NewGenerator(config.DefaultGeneratorConfig(), defaultRegistry(), appLog)
	if err != nil {
		return nil, nil, fmt.Errorf("signal generator: %w", err)
	}

	ledger, err := portfolio.NewLedger(cfg.Trading.InitialValue, appLog)
	if err != nil {
		return nil, nil, fmt.Errorf("portfolio ledger: %w", err)
	}

	metrics := monitoring.NewCollector(appLog)
	estimator := risk.NewRollingEstimator(cfg.Trading.HistoryWindow)

	enforcer, err := risk.NewEnforcer(config.DefaultRiskLimits(), ledger, estimator, estimator, metrics, appLog)
	if err != nil {
		return nil, nil, fmt.Errorf("risk enforcer: %w", err)
	}
	emergency := risk.NewEmergencyController(ledger, adapter, metrics, appLog)

	health := monitoring.NewHealthChecker()
	health.SetConnected(true)

	eng := engine.New(engine.Deps{
		Config:    cfg,
		Market:    adapter,
		Broker:    adapter,
		Generator: gen,
		Ledger:    ledger,
		Enforcer:  enforcer,
		Emergency: emergency,
		Estimator: estimator,
		Metrics:   metrics,
		Reporter:  reporting.NewConsoleReporter(),
		Health:    health,
		Logger:    appLog,
	})

	apiServer := api.NewServer(cfg.Monitoring.APIPort, eng, health, appLog)

	return eng, apiServer, nil
}

// defaultRegistry is the built-in scoring ensemble: logistic models
// over the standard feature vector. Real model weights come from an
// external training pipeline; these are neutral placeholders that keep
// the ML strategy exercised end to end.
func defaultRegistry() ml.ModelRegistry {
	scorers := make([]ml.Scorer, 0, 3)
	for i := 0; i < 3; i++ {
		weights := make([]float64, signal.FeatureCount)
		means := make([]float64, signal.FeatureCount)
		stds := make([]float64, signal.FeatureCount)
		for j := range stds {
			stds[j] = 1
		}
		scorer, err := ml.NewLogisticScorer(fmt.Sprintf("logistic-%d", i), weights, 0, means, stds)
		if err != nil {
			continue
		}
		scorers = append(scorers, scorer)
	}
	return ml.NewStaticRegistry(scorers...)
}

// writeAuditWorkbook dumps the session's signal history and risk events
// to an xlsx in the log directory
func writeAuditWorkbook(eng *engine.Engine, cfg *config.Config, appLog *logger.Logger) {
	signals := eng.Generator().History().Recent(1000)
	events := eng.Ledger().RiskEvents(1000)
	if len(signals) == 0 && len(events) == 0 {
		return
	}

	path := filepath.Join(cfg.LogDir, fmt.Sprintf("audit_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := reporting.NewExcelReporter().WriteAuditWorkbook(signals, events, path); err != nil {
		appLog.Error("audit workbook: %v", err)
		return
	}
	appLog.Info("audit workbook written to %s", path)
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}
