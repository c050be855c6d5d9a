// Package main runs the office layout HTTP server with a WebSocket change
// feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/officegrid/backend/config"
	"github.com/officegrid/backend/internal/employees"
	"github.com/officegrid/backend/internal/floors"
	"github.com/officegrid/backend/internal/middleware"
	"github.com/officegrid/backend/internal/realtime"
	"github.com/officegrid/backend/internal/rooms"
	"github.com/officegrid/backend/internal/seats"
	"github.com/officegrid/backend/internal/stats"
	"github.com/officegrid/backend/pkg/database"
	"github.com/officegrid/backend/pkg/redis"
	"github.com/officegrid/backend/pkg/response"
	"github.com/officegrid/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis only fans change events out across instances; without it the
	// hub broadcasts locally.
	var pub realtime.Publisher
	var sub realtime.Subscriber
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
			pub, sub = pubsub, pubsub
		}
	}
	hub := realtime.NewHub(logger, pub, sub)
	defer hub.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			PlansBucket:     cfg.AWS.PlansBucket,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	// Floors
	floorRepo := floors.NewRepository(pool)
	floorHandler := floors.NewHandler(floorRepo, hub, s3Client, logger)

	// Rooms
	roomRepo := rooms.NewRepository(pool)
	roomHandler := rooms.NewHandler(roomRepo, hub, logger)

	// Seats
	seatRepo := seats.NewRepository(pool)
	seatHandler := seats.NewHandler(seatRepo, hub, logger)

	// Employees and seat assignment
	employeeRepo := employees.NewRepository(pool)
	employeeHandler := employees.NewHandler(employeeRepo, hub, logger)

	// Stats
	statsRepo := stats.NewRepository(pool)
	statsHandler := stats.NewHandler(statsRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Floors and floor plans
	router.GET("/floors", floorHandler.List)
	router.POST("/floors", floorHandler.Create)
	router.GET("/floors/:id", floorHandler.GetByID)
	router.PUT("/floors/:id", floorHandler.Update)
	router.DELETE("/floors/:id", floorHandler.Delete)
	router.GET("/floors/:id/svg", floorHandler.GetPlan)
	router.PUT("/floors/:id/svg", floorHandler.PutPlan)

	// Rooms
	router.POST("/rooms", roomHandler.Create)
	router.GET("/rooms/:id", roomHandler.GetByID)
	router.GET("/rooms/:id/seats", roomHandler.GetSeats)
	router.PUT("/rooms/:id", roomHandler.Update)
	router.PATCH("/rooms/:id/geometry", roomHandler.UpdateGeometry)
	router.DELETE("/rooms/:id", roomHandler.Delete)

	// Seats
	router.POST("/seats", seatHandler.Create)
	router.GET("/seats/:id", seatHandler.GetByID)
	router.PUT("/seats/:id", seatHandler.Update)
	router.PATCH("/seats/:id/geometry", seatHandler.UpdateGeometry)
	router.DELETE("/seats/:id", seatHandler.Delete)

	// Employees and seat assignment
	router.POST("/employees", employeeHandler.Create)
	router.GET("/employees/search", employeeHandler.Search)
	router.GET("/employees/:id", employeeHandler.GetByID)
	router.GET("/employees/:id/seats", employeeHandler.GetSeats)
	router.PUT("/employees/:id/assign-seat/:seatId", employeeHandler.Assign)
	router.DELETE("/employees/:id/unassign-seat/:seatId", employeeHandler.Unassign)
	router.DELETE("/employees/:id", employeeHandler.Delete)

	// Stats
	router.GET("/stats", statsHandler.Get)

	// WebSocket change-event feed
	router.GET("/ws", realtime.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
