package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/database"
	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/router"
	"github.com/iliyamo/hotel-booking/internal/service"
	"github.com/iliyamo/hotel-booking/internal/vnpay"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.Load()
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis is optional
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and notification dedup disabled")
	} else {
		defer rdb.Close()
	}

	gateway, err := vnpay.NewClient(cfg.VNPay)
	if err != nil {
		logger.Fatal("vnpay config", zap.Error(err))
	}

	rooms := repository.NewRoomRepo(db)
	services := repository.NewServiceRepo(db)
	bookings := repository.NewBookingRepo(db)
	invoices := repository.NewInvoiceRepo(db)

	publisher := queue.NewPublisher(cfg.RabbitMQURL, logger.Named("publisher"))
	defer publisher.Close()

	bookingSvc := service.NewBookingService(db, rooms, services, bookings, invoices, gateway, logger.Named("booking"))
	paymentSvc := service.NewPaymentService(db, invoices, bookings, gateway, publisher, cfg.PublishTimeout, logger.Named("payment"))

	// Background workers stop with ctx.
	consumer := queue.NewConsumer(cfg.RabbitMQURL, queue.NewFileMailer(),
		queue.NewRedisDeduper(rdb, 24*time.Hour), logger.Named("notifier"))
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification consumer stopped", zap.Error(err))
		}
	}()
	monitor := service.NewPendingInvoiceMonitor(invoices, cfg.PendingInvoiceTTL, cfg.PendingSweepInterval, logger.Named("monitor"))
	go monitor.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	rlCfg := config.LoadRateLimitConfig()
	limiter := middleware.NewRateLimiter(rlCfg, rdb, logger.Named("ratelimit"))
	bookingHandler := handler.NewBookingHandler(bookingSvc, logger.Named("http"))
	paymentHandler := handler.NewPaymentHandler(paymentSvc, logger.Named("http"))

	router.RegisterRoutes(e)
	router.RegisterBooking(e, bookingHandler, cfg.JWTSecret, limiter.PerUser("booking", rlCfg.Booking))
	router.RegisterPayment(e, paymentHandler, limiter.PerIP("vnpay_return", rlCfg.Return, paymentHandler.ReturnThrottled))

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	cancel()
}
