package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/dashqrcodes/dash-memories/internal/auth"
	"github.com/dashqrcodes/dash-memories/internal/checkout"
	"github.com/dashqrcodes/dash-memories/internal/config"
	"github.com/dashqrcodes/dash-memories/internal/database"
	"github.com/dashqrcodes/dash-memories/internal/drafts"
	"github.com/dashqrcodes/dash-memories/internal/fulfillment"
	"github.com/dashqrcodes/dash-memories/internal/health"
	"github.com/dashqrcodes/dash-memories/internal/logging"
	"github.com/dashqrcodes/dash-memories/internal/mockup"
	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/dashqrcodes/dash-memories/internal/products"
	"github.com/dashqrcodes/dash-memories/internal/storage"
	"github.com/dashqrcodes/dash-memories/internal/streams"
	"github.com/dashqrcodes/dash-memories/internal/video"
	"github.com/dashqrcodes/dash-memories/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// Database
	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	if cfg.Env == "development" {
		if err := database.SeedDevData(db); err != nil {
			log.Printf("Warning: failed to seed dev data: %v", err)
		}
	}

	// Token encryption for partner identities
	if cfg.EncryptionKey != "" {
		if err := models.InitEncryption(cfg.EncryptionKey); err != nil {
			log.Fatalf("failed to initialize encryption: %v", err)
		}
	} else {
		log.Println("WARNING: ENCRYPTION_KEY not set. Partner OAuth tokens will be stored unencrypted.")
	}

	// Product templates
	registry, err := products.InitProducts(db, cfg.ProductDir)
	if err != nil {
		log.Printf("Warning: product discovery failed (%v), starting with empty catalog", err)
		registry = products.NewRegistry()
	}

	// Background jobs
	if err := worker.InitClient(cfg.RedisURL); err != nil {
		log.Fatalf("failed to initialize task client: %v", err)
	}
	defer worker.CloseClient()

	publisher, err := streams.NewPublisher(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: streams publisher unavailable: %v", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	stopConsumer, err := streams.StartAckConsumer(cfg.RedisURL, db)
	if err != nil {
		log.Printf("Warning: fulfillment ack consumer unavailable: %v", err)
	} else {
		defer stopConsumer()
	}

	// Vendor clients
	muxClient := video.NewMuxClient(cfg.MuxTokenID, cfg.MuxTokenSecret, cfg.VendorStubMode)
	stripeClient := checkout.NewStripeClient(cfg.StripeSecretKey, cfg.VendorStubMode)
	printShop := fulfillment.NewClient(cfg.PrintShopWebhookURL, cfg.PrintShopSecret, cfg.VendorStubMode)

	var blobs storage.Storage
	if cfg.S3Bucket != "" {
		s3Storage, err := storage.NewS3Storage(context.Background(), storage.Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
		blobs = s3Storage
	} else {
		log.Println("WARNING: S3_BUCKET not set. Mockup generation is disabled.")
	}

	// Embedded worker and scheduler
	stopWorker, err := worker.Start(cfg, db, muxClient, printShop, publisher)
	if err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}
	defer stopWorker()

	stopScheduler, err := worker.StartScheduler(cfg)
	if err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer stopScheduler()

	// Partner sign-in
	auth.InitProviders(cfg)

	// HTTP routes
	store := drafts.NewStore(db)
	allocator := drafts.NewAllocator(store)
	compositor := mockup.NewCompositor()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.Env == "production",
	})
	r.Use(sessions.Sessions("dash_session", sessionStore))

	r.GET("/health", gin.WrapF(health.Handler))

	api := r.Group("/api")
	api.Use(auth.OptionalIdentity())
	{
		api.POST("/drafts", drafts.CreateDraftHandler(store, allocator, cfg.PublicBaseURL))
		api.GET("/me/draft", drafts.LatestDraftHandler(store, cfg.PublicBaseURL))
		api.GET("/drafts/:slug", drafts.GetDraftHandler(store, cfg.PublicBaseURL))
		api.PATCH("/drafts/:slug", drafts.SaveDraftHandler(store, cfg.PublicBaseURL))

		api.GET("/drafts/:slug/video", video.GetSourceHandler(store))
		api.POST("/drafts/:slug/video/uploads", video.CreateUploadHandler(store, muxClient))
		api.POST("/drafts/:slug/video/finalize", video.FinalizeVideoHandler(store, worker.EnqueueFinalizeVideo))

		if blobs != nil {
			api.POST("/drafts/:slug/mockup", mockup.GenerateHandler(store, registry, compositor, blobs, cfg.PublicBaseURL))
		}

		api.GET("/products", products.ListProductsHandler(registry))

		api.POST("/checkout/:slug", checkout.BeginCheckoutHandler(db, store, stripeClient, registry, cfg.PublicBaseURL))
		api.POST("/checkout/:slug/verify", checkout.VerifyCheckoutHandler(db, store, stripeClient, worker.EnqueueFulfillOrder))
	}

	r.GET("/auth/login", auth.HandleLogin)
	r.GET("/auth/callback", auth.HandleCallback(db))
	r.GET("/auth/logout", auth.HandleLogout)

	partner := r.Group("/partner", auth.RequirePartner())
	{
		partner.GET("/orders", fulfillment.ListOrdersHandler(db))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Serve until interrupted, then drain in-flight requests
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
