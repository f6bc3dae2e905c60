package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dkotenko/eshop/internal/config"
	"github.com/dkotenko/eshop/internal/es"
	"github.com/dkotenko/eshop/internal/handlers"
	"github.com/dkotenko/eshop/internal/handlers/cart"
	"github.com/dkotenko/eshop/internal/logging"
	"github.com/dkotenko/eshop/internal/mykafka"
	"github.com/dkotenko/eshop/internal/payments"
	"github.com/dkotenko/eshop/internal/service"
	"github.com/dkotenko/eshop/internal/sessions"
	httpserver "github.com/dkotenko/eshop/internal/transport/http"
	"github.com/dkotenko/eshop/internal/validate"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)
	webhookSecret := []byte(configuration.WEBHOOK_SECRET)

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	var sessionStore *sessions.Store
	if configuration.REDIS_ADDR != "" {
		sessionStore = sessions.NewStore(configuration.REDIS_ADDR, 24*time.Hour)
	}

	var paymentClient *payments.Client
	if configuration.PAYMENT_URL != "" {
		paymentClient = payments.NewClient(configuration.PAYMENT_URL, webhookSecret)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = httpserver.NewErrorHandler(configuration.IsProduction(), logger)
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: producer,
		},
		TokenService:  &service.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
		Categories:    handlers.NewCategoryHandler(db, configuration.BASE_URL),
		SubCategories: handlers.NewSubCategoryHandler(db),
		Brands:        handlers.NewBrandHandler(db, configuration.BASE_URL),
		Products:      handlers.NewProductHandler(db, producer, configuration.BASE_URL),
		Coupons:       handlers.NewCouponHandler(db),
		Users:         handlers.NewUserAdminHandler(db, configuration.BASE_URL),
		Reviews:       handlers.NewReviewHandler(db),
		CartHandler:   &cart.CartHandler{DB: db, Producer: producer},
		OrderHandler: handlers.NewOrderHandler(db, producer, sessionStore, paymentClient,
			webhookSecret, configuration.TAX_PRICE, configuration.SHIPPING_PRICE),
		WishlistHandler: &handlers.WishlistHandler{DB: db, BaseURL: configuration.BASE_URL},
		AddressHandler:  &handlers.AddressHandler{DB: db},
		ProfileHandler:  &handlers.ProfileHandler{DB: db, BaseURL: configuration.BASE_URL},
		UploadHandler:   &handlers.UploadHandler{Dir: configuration.UPLOADS_DIR, BaseURL: configuration.BASE_URL},
		UploadsDir:      configuration.UPLOADS_DIR,
	}

	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: "products"}
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", configuration.PORT, "env", configuration.APP_ENV)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
	if err := sessionStore.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	logger.Info("shutdown complete")
}
