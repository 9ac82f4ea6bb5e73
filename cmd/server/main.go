package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/board"
	"github.com/rivieraos/riviera/internal/config"
	"github.com/rivieraos/riviera/internal/database"
	"github.com/rivieraos/riviera/internal/feedback"
	"github.com/rivieraos/riviera/internal/handler"
	"github.com/rivieraos/riviera/internal/middleware"
	"github.com/rivieraos/riviera/internal/queue"
	"github.com/rivieraos/riviera/internal/repository"
	"github.com/rivieraos/riviera/internal/router"
	"github.com/rivieraos/riviera/internal/storage"
	"github.com/rivieraos/riviera/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis carries the device stores, the response cache and the
	// rate limiter.  Without it the server still runs: stores fall
	// back to process memory, cache and limiter disable themselves.
	rdb := config.NewRedisClient()
	var kv storage.KV
	if rdb != nil {
		kv = storage.NewRedisKV(rdb)
	} else {
		log.Println("redis unavailable, using in-memory state store")
		kv = storage.NewMemoryKV()
	}

	sessions := store.NewSessionStore(kv)
	carts := store.NewCartStore(kv)
	hub := board.NewHub()
	feedbackSvc := feedback.NewService(cfg.FeedbackURL, kv)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	holds := repository.NewUnitHoldRepo(db)
	bookings := repository.NewBookingRepo(db)
	layouts := repository.NewLayoutRepo(db)
	reviews := repository.NewReviewRepo(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)
	go queue.StartOrderConsumer(ctx, hub)
	go feedbackSvc.RunFlusher(ctx, time.Duration(cfg.FlushIntervalSec)*time.Second)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(venues, products, reviews)
	sessionH := handler.NewSessionHandler(sessions, venues)
	cartH := handler.NewCartHandler(carts, products)
	orderH := handler.NewOrderHandler(orders, products, venues, hub)
	boardH := handler.NewBoardHandler(hub)
	bookingH := handler.NewBookingHandler(cfg, holds, bookings, venues)
	feedbackH := handler.NewFeedbackHandler(reviews, feedbackSvc)
	adminH := handler.NewAdminHandler(venues, products, layouts)

	router.RegisterHealth(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, feedbackH, rdb)
	router.RegisterDevice(e, sessionH, cartH)
	router.RegisterOrders(e, orderH, boardH, cfg.JWTSecret)
	router.RegisterBookings(e, bookingH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, feedbackH, cfg.JWTSecret)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
