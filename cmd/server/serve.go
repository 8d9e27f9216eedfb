package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/api/handlers"
	"github.com/maheshrc27/social-publisher/internal/api/middleware"
	"github.com/maheshrc27/social-publisher/internal/database"
	job "github.com/maheshrc27/social-publisher/internal/jobs"
	"github.com/maheshrc27/social-publisher/internal/metrics"
	"github.com/maheshrc27/social-publisher/internal/queue"
	"github.com/maheshrc27/social-publisher/internal/repository"
	"github.com/maheshrc27/social-publisher/internal/service"
	"github.com/maheshrc27/social-publisher/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the refresh worker and the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before starting")

	return cmd
}

func serve(ctx context.Context, migrateFirst bool) error {
	cfg := config.LoadConfig()

	cipher, err := utils.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		return fmt.Errorf("invalid TOKEN_ENCRYPTION_KEY: %w", err)
	}

	db, err := database.Connect(ctx, cfg.PostgresURI)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)

	if migrateFirst {
		if err := database.MigrateUp(db); err != nil {
			return err
		}
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsRegistry := metrics.NewRegistry(promRegistry)

	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	postResultRepo := repository.NewPostResultRepository(db)
	captionTemplateRepo := repository.NewCaptionTemplateRepository(db)
	photoRepo := repository.NewPhotoRepository(db)

	var signer service.BlobURLSigner
	if cfg.R2.BucketName != "" {
		signer, err = service.NewR2Signer(ctx, *cfg)
		if err != nil {
			return fmt.Errorf("failed to configure photo bucket: %w", err)
		}
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	accountStore := service.NewAccountStore(socialAccountRepo, cipher)
	photoService := service.NewPhotoService(*cfg, photoRepo, signer)
	linkedInService := service.NewLinkedInService(*cfg, httpClient)
	facebookService := service.NewFacebookService(*cfg, httpClient)
	instagramService := service.NewInstagramService(*cfg, httpClient)
	threadsService := service.NewThreadsService(*cfg, httpClient)

	oauthService := service.NewOAuthService(accountStore, metricsRegistry, linkedInService, facebookService, threadsService)
	publishService := service.NewPublishService(*cfg, postRepo, postResultRepo, captionTemplateRepo, accountStore, photoService, metricsRegistry,
		linkedInService, facebookService, instagramService, threadsService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: cfg.PublishTimeout + 30*time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	authMiddleware := middleware.NewAuthMiddleware(*cfg)
	handlers.RegisterRoutes(app,
		authMiddleware,
		handlers.NewSocialHandler(oauthService, accountStore, authMiddleware, *cfg),
		handlers.NewPostHandler(publishService),
	)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(accountStore, client, cfg.TokenRefreshWindow)

	c := cron.New()
	if err := c.AddFunc(cfg.TokenRefreshSchedule, refreshTokenJob.RefreshTokens); err != nil {
		return fmt.Errorf("invalid TOKEN_REFRESH_SCHEDULE: %w", err)
	}
	c.Start()
	defer c.Stop()

	// queue
	queueW := queue.NewQueue(oauthService)

	worker := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 2,
	})
	mux := asynq.NewServeMux()
	queueW.Register(mux)

	log.Println("Starting the Asynq server...")
	if err := worker.Start(mux); err != nil {
		return fmt.Errorf("could not start Asynq server: %w", err)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, worker)
	return nil
}

func closeDB(db *sqlx.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, worker *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	worker.Shutdown()

	log.Println("Server shutdown complete.")
}
