package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tripdesk/internal/config"
	"tripdesk/internal/database"
	"tripdesk/internal/middleware"
	"tripdesk/internal/modules/catalog"
	"tripdesk/internal/modules/confirmation"
	"tripdesk/internal/modules/payment"
	"tripdesk/internal/modules/sweeper"
	"tripdesk/internal/modules/wizard"
	jwtsvc "tripdesk/internal/pkg/jwt"
	"tripdesk/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	draftRepo := repository.NewDraftRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)
	packageRepo := repository.NewPackageRepository(db)

	tokens := jwtsvc.New(cfg.WizardTokenSecret, cfg.WizardTokenTTL)

	var aggregator catalog.InventoryAggregator
	if cfg.AggregatorBaseURL != "" {
		aggregator = catalog.NewAggregatorClient(cfg.AggregatorBaseURL, cfg.AggregatorAPIKey, cfg.ProviderTimeout)
	}
	catalogService := catalog.NewService(packageRepo, aggregator, log.Printf)
	catalogHandler := catalog.NewHandler(catalogService)

	wizardService := wizard.NewService(draftRepo, packageRepo, tokens)
	wizardHandler := wizard.NewHandler(wizardService)

	provider := payment.NewProviderClient(
		cfg.ProviderBaseURL,
		cfg.ProviderAPIKey,
		cfg.WebhookSecret,
		cfg.ReturnURL,
		cfg.CancelURL,
		cfg.ProviderTimeout,
	)
	paymentService := payment.NewService(draftRepo, provider, catalogService, log.Printf)
	paymentHandler := payment.NewHandler(paymentService, cfg.FrontendBaseURL)

	confirmationService := confirmation.NewService(
		draftRepo, bookingRepo, eventRepo,
		cfg.PromotionRetries, cfg.PollInterval, log.Printf,
	)
	confirmationHandler := confirmation.NewHandler(confirmationService, provider)

	sweepService := sweeper.NewService(draftRepo, cfg.HoldWindow, log.Printf)
	sched, err := sweepService.Schedule(context.Background(), cfg.SweepInterval)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("level=error msg=scheduler shutdown failed err=%v", err)
		}
	}()

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		catalogHandler.RegisterRoutes(v1)
		wizardHandler.RegisterPublicRoutes(v1)
		confirmationHandler.RegisterWebhookRoutes(v1)
		paymentHandler.RegisterRedirectRoutes(v1)

		// wizard-token protected (step writes, payment handoff, polling)
		protected := v1.Group("/")
		protected.Use(middleware.DraftToken(tokens))
		{
			wizardHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
			confirmationHandler.RegisterRoutes(protected)
		}
	}

	srvAddr := ":" + cfg.Port
	log.Printf("level=info msg=starting api addr=%s hold_window=%s sweep_interval=%s",
		srvAddr, cfg.HoldWindow, cfg.SweepInterval)
	if err := r.Run(srvAddr); err != nil {
		log.Fatal(err)
	}
}
