// Package main is the entry point for the KudiPay API server. It wires
// the database, cache, background reconciliation and HTTP layer together.
package main

import (
	"fmt"
	"time"

	"kudipay/internal/config"
	"kudipay/internal/jobs"
	"kudipay/internal/repositories"
	"kudipay/internal/repositories/cache"
	"kudipay/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if config.IsProduction() {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err := repositories.InitDB()
	if err != nil {
		logrus.WithError(err).Fatal("database initialization failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Fatal("failed to get database handle")
	}
	defer sqlDB.Close()

	// Redis is optional: without it the service runs uncached.
	var cacheSvc *cache.Service
	if host := config.GetEnv("REDIS_HOST", ""); host != "" {
		client := cache.NewRedisClient(&cache.RedisConfig{
			Host:     host,
			Port:     config.GetEnv("REDIS_PORT", "6379"),
			Password: config.GetEnv("REDIS_PASSWORD", ""),
			DB:       config.GetIntEnv("REDIS_DB", 0),
		})
		cacheSvc = cache.NewService(client, config.GetDurationEnv("CACHE_TTL", 5*time.Minute))
		defer cacheSvc.Close()
	} else {
		logrus.Warn("REDIS_HOST not set, running without cache")
	}

	app := fiber.New(fiber.Config{
		AppName:      "KudiPay",
		ErrorHandler: fiberErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	deps := routes.SetupRoutes(app, db, cacheSvc)

	// Background reconciliation of stale pending transactions.
	reconcile := jobs.NewReconcileJob(deps.Ledger, deps.Settlement)
	scheduler, err := jobs.StartScheduler(reconcile, config.GetEnv("RECONCILE_SCHEDULE", "@every 5m"))
	if err != nil {
		logrus.WithError(err).Fatal("failed to start reconciliation scheduler")
	}
	defer scheduler.Stop()

	port := config.GetIntEnv("PORT", 8080)
	logrus.WithField("port", port).Info("starting server")
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func fiberErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
