package main // Entry point package

import (
    "context"
    "log"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/config"
    "marina-reservation/internal/database"
    "marina-reservation/internal/handler"
    "marina-reservation/internal/middleware"
    "marina-reservation/internal/queue"
    "marina-reservation/internal/repository"
    "marina-reservation/internal/router"
    "marina-reservation/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional: a nil client disables rate limiting, response
    // caching and policy caching, and everything degrades to the DB.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable; rate limiting and caching disabled")
    }

    reservations := repository.NewReservationStore(db)
    fleet := repository.NewFleetRepo(db)
    customers := repository.NewCustomerRepo(db)
    policies := repository.NewPolicyRepo(db, rdb)
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)

    svc := booking.NewService(reservations, fleet, customers, policies, booking.SystemClock())

    e := echo.New()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, policies), cfg.JWTSecret)
    router.RegisterBooking(e, handler.NewReservationHandler(svc), cfg.JWTSecret)
    router.RegisterFleet(e, handler.NewFleetHandler(fleet), cfg.JWTSecret)
    router.RegisterCustomers(e, handler.NewCustomerHandler(customers), cfg.JWTSecret)
    router.RegisterPolicy(e, handler.NewPolicyHandler(policies), cfg.JWTSecret)

    // Background expiration sweeper. It owns the PENDING -> EXPIRED
    // transition; nothing in the request path expires reservations.
    notifier := service.NewQueueNotifier(queue.BrokerURL())
    sweeper := booking.NewSweeper(reservations, notifier, booking.SystemClock(),
        time.Duration(cfg.SweepInterval)*time.Second, cfg.SweepBatch)
    sweepCtx, stopSweep := context.WithCancel(context.Background())
    go sweeper.Run(sweepCtx)

    // Event consumer writes reservation lifecycle logs. It reconnects
    // forever on broker failures.
    go func() {
        if err := queue.StartReservationConsumer(); err != nil {
            log.Printf("reservation consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    go func() {
        if err := e.Start(addr); err != nil {
            log.Printf("server stopped: %v", err)
        }
    }()

    // Graceful shutdown: stop accepting requests, then stop the sweeper.
    quit := make(chan os.Signal, 1)
    signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
    <-quit

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
    stopSweep()
}
