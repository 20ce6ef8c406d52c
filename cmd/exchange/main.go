package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	exapp "github.com/wyfcoding/exchangesim/internal/exchange/application"
	exdomain "github.com/wyfcoding/exchangesim/internal/exchange/domain"
	"github.com/wyfcoding/exchangesim/internal/exchange/infrastructure/messaging"
	exmem "github.com/wyfcoding/exchangesim/internal/exchange/infrastructure/persistence/memory"
	exmysql "github.com/wyfcoding/exchangesim/internal/exchange/infrastructure/persistence/mysql"
	exhttp "github.com/wyfcoding/exchangesim/internal/exchange/interfaces/http"
	liqapp "github.com/wyfcoding/exchangesim/internal/liquidity/application"
	liqhttp "github.com/wyfcoding/exchangesim/internal/liquidity/interfaces/http"
	mdapp "github.com/wyfcoding/exchangesim/internal/marketdata/application"
	mdclient "github.com/wyfcoding/exchangesim/internal/marketdata/infrastructure/client"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/exchange/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetDefault("server.http_port", "8080")
	viper.SetDefault("liquidity.enabled", true)
	viper.SetDefault("liquidity.fallback_price", "100.00")
	viper.SetDefault("liquidity.refresh_interval_ms", 5000)
	viper.SetDefault("finnhub.base_url", mdclient.DefaultBaseURL)
	viper.SetDefault("finnhub.cache_ttl_seconds", 30)
	viper.SetDefault("finnhub.timeout_seconds", 5)
	viper.SetDefault("kafka.topic", "exchange.executions")
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("read config failed: %v", err))
	}

	// 2. Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 3. Market data (reference prices and company profiles)
	finnhub := mdclient.NewFinnhubClient(
		viper.GetString("finnhub.base_url"),
		viper.GetString("finnhub.api_key"),
		time.Duration(viper.GetInt("finnhub.timeout_seconds"))*time.Second,
		logger,
	)
	if viper.GetString("finnhub.api_key") == "" {
		logger.Warn("no finnhub api key configured, liquidity provider will use fallback prices")
	}
	priceService := mdapp.NewPriceService(
		finnhub,
		time.Duration(viper.GetInt("finnhub.cache_ttl_seconds"))*time.Second,
		logger,
	)
	profileService := liqapp.NewProfileService(finnhub, logger)

	// 4. Execution journal: MySQL when configured, in-memory otherwise
	var execRepo exdomain.ExecutionRepository
	if dsn := viper.GetString("database.source"); dsn != "" {
		db, err := gorm.Open(gorm_mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			panic(fmt.Sprintf("connect db failed: %v", err))
		}
		if err := exmysql.AutoMigrate(db); err != nil {
			panic(fmt.Sprintf("migrate failed: %v", err))
		}
		execRepo = exmysql.NewExecutionRepository(db)
	} else {
		execRepo = exmem.NewExecutionRepository()
	}

	// 5. Execution report publisher
	var publisher exapp.ExecutionPublisher
	if brokers := viper.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
		publisher = messaging.NewKafkaExecutionPublisher(brokers, viper.GetString("kafka.topic"))
	} else {
		publisher = messaging.NewNoopExecutionPublisher()
	}

	// 6. Engine + services
	engine := exdomain.NewMatchingEngine(logger)
	exchangeService := exapp.NewExchangeService(engine, execRepo, publisher, logger)

	fallback, err := decimal.NewFromString(viper.GetString("liquidity.fallback_price"))
	if err != nil {
		panic(fmt.Sprintf("invalid fallback price: %v", err))
	}
	provider := liqapp.NewProvider(
		liqapp.Config{
			Enabled:         viper.GetBool("liquidity.enabled"),
			FallbackPrice:   fallback,
			RefreshInterval: time.Duration(viper.GetInt("liquidity.refresh_interval_ms")) * time.Millisecond,
		},
		engine,
		priceService,
		profileService,
		logger,
	)
	engine.SetLiquiditySeeder(provider)
	provider.Start()

	// 7. Interfaces (HTTP)
	router := gin.New()
	router.Use(gin.Recovery())
	root := router.Group("")
	exhttp.NewExchangeHandler(exchangeService, logger).RegisterRoutes(root)
	liqhttp.NewLiquidityHandler(provider, priceService).RegisterRoutes(root)

	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.http_port"),
		Handler: router,
	}

	// 8. Start
	go func() {
		logger.Info("starting http server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	provider.Stop()
	if err := exchangeService.Close(); err != nil {
		logger.Error("service close failed", "error", err)
	}
	logger.Info("exchange exiting")
}
