package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/checkout"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/clock"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/config"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/database"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/handler"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/middleware"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/notify"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/queue"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/router"
	queue_publisher "github.com/munoimshahriar/Event-Ticketing-System/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.Seed(seedCtx, db, cfg); err != nil {
		log.Fatalf("seed: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	categories := repository.NewCategoryRepo(db)
	inventory := repository.NewInventoryRepo(db)
	purchases := repository.NewPurchaseRepo(db)

	// Expired refresh tokens accumulate forever otherwise.
	go purgeTokensLoop(tokens)

	store := repository.NewCheckoutStore(db, events, inventory, purchases)
	coordinator := checkout.NewCoordinator(store, clock.NewSystem())

	authH := handler.NewAuthHandler(cfg, users, tokens)
	catalogH := handler.NewCatalogHandler(events, categories)
	organizerH := handler.NewOrganizerHandler(events, categories)
	purchaseH := handler.NewPurchaseHandler(coordinator, purchases,
		queue_publisher.PublishPurchaseConfirmed)

	// Confirmation consumer runs for the lifetime of the process and
	// reconnects on its own when the broker drops.
	sender := notify.NewLogSender()
	go func() {
		if err := queue.StartConfirmedConsumer(sender.SendConfirmation); err != nil {
			log.Printf("confirmation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	rdb := config.NewRedisClient()
	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	if rdb != nil {
		router.RegisterCatalog(e, catalogH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		router.RegisterCatalog(e, catalogH)
	}
	router.RegisterPurchase(e, purchaseH, cfg.JWTSecret)
	router.RegisterOrganizer(e, organizerH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

func purgeTokensLoop(tokens *repository.TokenRepo) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := tokens.PurgeExpired(ctx, 24*time.Hour)
		cancel()
		if err != nil {
			log.Printf("token purge failed: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("purged %d expired refresh tokens", n)
		}
	}
}
