package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/fitness-hub/internal/api"
	"alcyxob/fitness-hub/internal/billing"
	"alcyxob/fitness-hub/internal/config"
	"alcyxob/fitness-hub/internal/logging"
	"alcyxob/fitness-hub/internal/processor"
	"alcyxob/fitness-hub/internal/repository"
	"alcyxob/fitness-hub/internal/repository/memory"
	"alcyxob/fitness-hub/internal/repository/mongo"
	"alcyxob/fitness-hub/internal/service"
	"alcyxob/fitness-hub/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// @title Fitness Hub API
// @version 1.0
// @description API for users, trainers, appointments, workout and nutrition logging, plans and billing.
// @contact.name API Support
// @contact.email support@example.com
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("Could not load config: %v", err)
	}
	log := logging.New(cfg.Log)
	log.Info("Starting Fitness Hub server...")
	gin.SetMode(cfg.Server.Mode)

	// --- Database Connection ---
	var repos *repository.Repositories
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("Using the in-memory store; data is lost on restart")
		repos = memory.NewRepositories()
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("Could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Info("Disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.WithError(err).Error("Failed to disconnect MongoDB")
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		log.WithField("database", cfg.Database.Name).Info("Database connection established")

		go func() { // Index creation runs in the background
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			for collection, err := range mongo.EnsureIndexes(ctx, appDB) {
				log.WithError(err).WithField("collection", collection).Error("Failed to ensure indexes")
			}
			log.Info("Index creation process completed")
		}()
		repos = mongo.NewRepositories(appDB)
	}

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3, log)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Warn("S3 bucket not configured; avatar uploads are disabled")
	}

	// --- Payment Processor ---
	proc, err := processor.NewStripeProcessor(cfg.Stripe)
	if err != nil {
		log.Fatalf("Failed to initialize payment processor: %v", err)
	}
	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("stripe.webhook_secret is empty; every webhook will be rejected")
	}

	// --- Rate Limiting ---
	var counter api.WindowCounter
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis unreachable at startup; rate limiting fails open until it recovers")
		}
		cancel()
		counter = api.NewRedisCounter(rdb)
	} else if cfg.RateLimit.Enabled {
		log.Warn("Redis disabled; auth rate limiting is off")
	}

	// --- Initialize Services ---
	currency := cfg.Stripe.Currency
	deps := api.Dependencies{
		Auth:          service.NewAuthService(repos, cfg.JWT.Secret, cfg.JWT.Expiration, log),
		Users:         service.NewUserService(repos, fileStorage, log),
		Trainers:      service.NewTrainerService(repos, log),
		Appointments:  service.NewAppointmentService(repos, log),
		Workouts:      service.NewWorkoutService(repos),
		Nutrition:     service.NewNutritionService(repos),
		MealPlans:     service.NewPlanService(repos.MealPlans, repos.Users),
		WorkoutPlans:  service.NewPlanService(repos.WorkoutPlans, repos.Users),
		Payments:      service.NewPaymentService(repos, proc, currency, log),
		Subscriptions: service.NewSubscriptionService(repos, proc, currency, log),
		Webhooks:      processor.NewWebhookParser(cfg.Stripe.WebhookSecret),
		Reconciler:    billing.NewReconciler(repos, log.WithField("component", "billing")),
		RateLimit:     cfg.RateLimit,
		RateCounter:   counter,
		Log:           log,
	}

	// --- Setup Routes ---
	router := gin.New()
	api.SetupRoutes(router, deps)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("address", cfg.Server.Address).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	log.Info("Server exiting.")
}
