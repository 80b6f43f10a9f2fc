package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ridgeline-auto/dms-api/api/swagger"
	"github.com/ridgeline-auto/dms-api/internal/handler"
	"github.com/ridgeline-auto/dms-api/internal/middleware"
	"github.com/ridgeline-auto/dms-api/internal/repository"
	"github.com/ridgeline-auto/dms-api/internal/service"
	"github.com/ridgeline-auto/dms-api/pkg/cache"
	"github.com/ridgeline-auto/dms-api/pkg/config"
	"github.com/ridgeline-auto/dms-api/pkg/database"
	"github.com/ridgeline-auto/dms-api/pkg/logger"
	"github.com/ridgeline-auto/dms-api/pkg/storage"

	corsmiddleware "github.com/ridgeline-auto/dms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ridgeline-auto/dms-api/pkg/middleware/requestid"
)

// @title Ridgeline DMS API
// @version 1.0.0
// @description Dealership management REST API
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	docStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	validate := validator.New()

	leadRepo := repository.NewLeadRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	repairOrderRepo := repository.NewRepairOrderRepository(db)
	partRepo := repository.NewPartRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	metricsSvc := service.NewMetricsService()

	var vehicleSvc *service.VehicleService
	var saleSvc *service.SaleService
	if cfg.Inventory.CacheEnabled {
		inventoryCache := repository.NewCacheRepository(redisClient, logr)
		vehicleSvc = service.NewVehicleService(vehicleRepo, inventoryCache, cfg.Inventory.CacheTTL, metricsSvc, validate, logr)
		saleSvc = service.NewSaleService(saleRepo, inventoryCache, validate, logr)
	} else {
		vehicleSvc = service.NewVehicleService(vehicleRepo, nil, cfg.Inventory.CacheTTL, metricsSvc, validate, logr)
		saleSvc = service.NewSaleService(saleRepo, nil, validate, logr)
	}

	leadSvc := service.NewLeadService(leadRepo, validate, logr)
	customerSvc := service.NewCustomerService(customerRepo, validate, logr)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, validate, logr)
	repairOrderSvc := service.NewRepairOrderService(repairOrderRepo, validate, logr)
	partSvc := service.NewPartService(partRepo, validate, logr)
	taskSvc := service.NewTaskService(taskRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, docStore, signer, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)
	exportSvc := service.NewExportService(vehicleRepo, saleRepo, customerRepo, logr)

	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Leads:        handler.NewLeadHandler(leadSvc),
		Vehicles:     handler.NewVehicleHandler(vehicleSvc),
		Customers:    handler.NewCustomerHandler(customerSvc),
		Sales:        handler.NewSaleHandler(saleSvc),
		Appointments: handler.NewAppointmentHandler(appointmentSvc),
		RepairOrders: handler.NewRepairOrderHandler(repairOrderSvc),
		Parts:        handler.NewPartHandler(partSvc),
		Tasks:        handler.NewTaskHandler(taskSvc),
		Documents:    handler.NewDocumentHandler(documentSvc),
		Messages:     handler.NewMessageHandler(messageSvc),
		Users:        handler.NewUserHandler(userSvc),
		Audit:        handler.NewAuditHandler(auditSvc),
		Exports:      handler.NewExportHandler(exportSvc),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg, authSvc, handlers)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
