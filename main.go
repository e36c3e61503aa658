package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"coursehub/config"
	"coursehub/database"
	"coursehub/logger"
	"coursehub/routers"
	"coursehub/services/payment"
	"coursehub/utils"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.ConnectDb(cfg)
	if err != nil {
		log.Fatal("failed to connect to the database", "driver", cfg.DBDriver, "error", err)
	}
	log.Info("database connected and migrated", "driver", cfg.DBDriver)

	gateway, err := payment.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransProduction)
	if err != nil {
		log.Warn("payment gateway disabled", "error", err)
		gateway = nil
	}
	mailer := utils.NewMailer(cfg, log)

	deps := routers.Deps{Config: cfg, DB: db, Log: log, Gateway: gateway, Mailer: mailer}
	app := routers.NewApp(deps)

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	routers.Setup(app, deps)

	if gateway != nil {
		reconciler := utils.NewPaymentReconciler(db, gateway, mailer, log)
		scheduler, err := utils.StartPaymentScheduler(cfg.ReconcileCron, reconciler)
		if err != nil {
			log.Fatal("invalid RECONCILE_CRON", "spec", cfg.ReconcileCron, "error", err)
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	go func() {
		log.Info("server is running", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
