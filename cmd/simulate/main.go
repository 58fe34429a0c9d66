package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"marketmaker/engine"
	"marketmaker/internal/bots"
	"marketmaker/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (empty uses built-in defaults)")
	duration := flag.Duration("duration", 0, "override simulation duration")
	interval := flag.Duration("interval", 0, "override order throttle interval")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile := flag.String("memprofile", "", "write heap profile to file")
	flag.Parse()

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *duration > 0 {
		cfg.Simulation.Duration = *duration
	}
	if *interval > 0 {
		cfg.Simulation.OrderInterval = *interval
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.Fatal("create cpu profile", zap.Error(err))
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal("start cpu profile", zap.Error(err))
		}
		defer pprof.StopCPUProfile()
	}

	eng := engine.NewEngine()
	if err := cfg.Seed(eng); err != nil {
		logger.Fatal("seed engine", zap.Error(err))
	}
	logger.Info("engine seeded",
		zap.Int("instruments", len(cfg.Instruments)),
		zap.Int("risk_entries", len(cfg.Risk)))

	sup := bots.NewSupervisor(eng, bots.SwarmConfig{
		InstrumentID:   engine.InstrumentId(cfg.Simulation.InstrumentID),
		OrderInterval:  cfg.Simulation.OrderInterval,
		QuotersPerSide: cfg.Simulation.QuotersPerSide,
		BasePrice:      engine.Price(cfg.Simulation.BasePrice),
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Simulation.Duration)
	defer cancel()

	start := time.Now()
	sup.Start(ctx)
	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err == nil {
			defer f.Close()
			_ = pprof.WriteHeapProfile(f)
		}
	}

	stats := sup.Client().Stats()
	ordersPerSec := float64(stats.TotalOrders) / elapsed.Seconds()

	fmt.Printf("ran for %s: %d orders (%.0f orders/s), %d fills, %d cancels, %d rejects\n",
		elapsed.Truncate(time.Millisecond), stats.TotalOrders, ordersPerSec,
		stats.TotalFills, stats.TotalCancels, stats.TotalRejects)
	for _, user := range sup.Users() {
		fmt.Printf("user %d total pnl %.2f\n", user, sup.Client().TotalPnL(user))
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
