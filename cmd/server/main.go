package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticket-resale-market/internal/checkout"
	"github.com/iliyamo/ticket-resale-market/internal/config"
	"github.com/iliyamo/ticket-resale-market/internal/database"
	"github.com/iliyamo/ticket-resale-market/internal/handler"
	"github.com/iliyamo/ticket-resale-market/internal/identity"
	"github.com/iliyamo/ticket-resale-market/internal/ingest"
	"github.com/iliyamo/ticket-resale-market/internal/mailer"
	"github.com/iliyamo/ticket-resale-market/internal/notify"
	"github.com/iliyamo/ticket-resale-market/internal/payment"
	"github.com/iliyamo/ticket-resale-market/internal/pricing"
	"github.com/iliyamo/ticket-resale-market/internal/queue"
	"github.com/iliyamo/ticket-resale-market/internal/repository"
	"github.com/iliyamo/ticket-resale-market/internal/router"
	"github.com/iliyamo/ticket-resale-market/internal/securefield"
	queue_publisher "github.com/iliyamo/ticket-resale-market/internal/service"
	"github.com/iliyamo/ticket-resale-market/internal/settlement"
	"github.com/iliyamo/ticket-resale-market/internal/storage"
)

func main() {
	// .env is optional; real deployments inject the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	codec, err := securefield.NewCodec(cfg.FieldEncryptionKey)
	if err != nil {
		log.Fatalf("field encryption key: %v", err)
	}

	// Outbound clients.
	processor := payment.NewClient(cfg.ProcessorBaseURL, cfg.ProcessorAPIKey)
	idp := identity.NewClient(cfg.IdentityBaseURL, cfg.IdentityAPIKey)
	emails := mailer.NewClient(cfg.EmailBaseURL, cfg.EmailAPIKey)
	artifacts := storage.NewClient(cfg.StorageBaseURL, cfg.StorageAPIKey)

	// Repositories.
	events := repository.NewEventRepo(db)
	tickets := repository.NewTicketRepo(db)
	transactions := repository.NewTransactionRepo(db)
	users := repository.NewUserRepo(db)
	accounts := repository.NewSellerAccountRepo(db)

	publisher := queue_publisher.NewPublisher(cfg.AMQPURL)
	notifier := notify.NewNotifier(emails, cfg.EmailSender)

	aggregator := pricing.NewAggregator(events)
	ingestor := ingest.NewIngestor(events, tickets, idp, publisher)
	reconciler := settlement.NewReconciler(transactions, tickets, events, accounts, idp, artifacts, notifier, publisher)
	calculator := checkout.NewCalculator(tickets, accounts, transactions, processor, checkout.FeePolicy{
		Bps:        cfg.FeeBps,
		FixedCents: int64(cfg.FeeFixedCents),
	})

	// Broker consumers run for the life of the process and reconnect
	// on their own.
	go queue.StartListingConsumer(ingestor)
	go queue.StartPricingConsumer(aggregator)
	go queue.StartSaleLogConsumer()

	e := echo.New()
	router.RegisterRoutes(e,
		handler.NewMarketHandler(events, rdb),
		handler.NewWebhookHandler(cfg.PaymentWebhookSecret, cfg.AccountWebhookSecret, reconciler),
	)
	router.RegisterSeller(e, handler.NewOnboardingHandler(
		codec, idp, users, accounts, processor,
		cfg.OnboardingRefreshURL, cfg.OnboardingReturnURL,
	), cfg.JWTSecret)
	router.RegisterBuyer(e, handler.NewPurchaseHandler(calculator), cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
