package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"taskmirror/internal/calendar"
	"taskmirror/internal/config"
	"taskmirror/internal/handler"
	"taskmirror/internal/metric"
	"taskmirror/internal/repositories"
	"taskmirror/internal/service"
	"taskmirror/migrations"
)

func main() {

	// Init Metrics
	metric.InitMetrics()

	// Configuration is validated up front; a missing required key stops the
	// process before any collaborator is dialed.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Connect to Postgres
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	defer db.Close()

	// Ensure schema (migration-lite)
	if err := migrations.EnsureSchema(db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	// initialize tasks_count metric
	if err := metric.UpdateTasksCountFromDB(db); err != nil {
		log.Printf("warning: failed to update tasks_count metric: %v", err)
	}

	// Repository / Gateway / Service / Handler wiring
	repo := repositories.NewTaskRepository(db)

	var gateway service.CalendarGateway
	if cfg.Google.Enabled() {
		session := calendar.NewSession(cfg.Google)
		gw, err := calendar.NewGateway(session, cfg.Google, nil)
		if err != nil {
			log.Fatalf("failed to build calendar gateway: %v", err)
		}
		gateway = gw
		log.Printf("calendar mirroring enabled (calendar=%s)", cfg.Google.CalendarID)
	} else {
		log.Printf("calendar mirroring disabled: no Google credentials configured")
	}

	svc := service.NewTaskService(repo, gateway, cfg.UserID)

	// Redis cache-aside for the list endpoint
	// Accepts REDIS_ADDR like "localhost:6379" or "redis://localhost:6379"
	if cfg.RedisAddr != "" {
		redisAddr := strings.TrimPrefix(cfg.RedisAddr, "redis://")
		rdb := redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis not available at %s: %v, continuing without cache", redisAddr, err)
		} else {
			svc.SetCacheClient(rdb)
			log.Printf("redis cache enabled (addr=%s)", redisAddr)
		}
	}

	h := handler.NewTaskHandler(svc)

	// Gin router setup
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(metric.PrometheusMiddleware())

	// Health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	api := r.Group("/api/v1")
	{
		api.POST("/tasks", h.CreateTask)
		api.GET("/tasks", h.ListTasks)
		api.POST("/tasks/refresh", h.RefreshTasks)
		api.GET("/tasks/:id", h.GetTask)
		api.PUT("/tasks/:id", h.UpdateTask)
		api.POST("/tasks/:id/toggle", h.ToggleTask)
		api.DELETE("/tasks/:id", h.DeleteTask)
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting server on %s", addr)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server exited: %v", err)
	}
}
