package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rental-booking/cmd"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/payment"
	"rental-booking/internal/scheduler"
	"rental-booking/internal/usecase"
	"rental-booking/internal/wire"
	"rental-booking/pkg/cache"
	"rental-booking/pkg/database"
	"rental-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Without redis the payment cooldown is skipped, nothing else depends on it.
	var cooldown usecase.Cooldown
	rdb, err := cache.InitRedis(ctx, config.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, payment cooldown disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		cooldown = cache.NewCooldown(rdb, config.App.Name)
	}

	provider, err := payment.NewProvider(config.Payment.Provider, config.Payment.AutoSettle)
	if err != nil {
		logger.Fatal("Failed to init payment provider", zap.Error(err))
	}

	repos := repository.NewRepository(db, logger, config.Booking.TxRetries)

	app := wire.Wiring(repos, provider, cooldown, config, logger)
	sched := scheduler.NewScheduler(app.Service.Sweep, config.Sweep, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App.Port, logger)
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		return
	}
	logger.Info("Application stopped")
}
