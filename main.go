package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campuslink/campuslink-server/handlers"
	"github.com/campuslink/campuslink-server/internal/catalog"
	"github.com/campuslink/campuslink-server/internal/config"
	"github.com/campuslink/campuslink-server/internal/database"
	"github.com/campuslink/campuslink-server/internal/forum"
	"github.com/campuslink/campuslink-server/internal/sessions"
	"github.com/campuslink/campuslink-server/internal/storage"
	"github.com/campuslink/campuslink-server/internal/tokens"
	"github.com/campuslink/campuslink-server/internal/users"
	"github.com/campuslink/campuslink-server/pkg/logger"
	"github.com/campuslink/campuslink-server/pkg/metrics"
	"github.com/campuslink/campuslink-server/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: mongo=%v redis=%v rate_limit=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.RateLimit.Enabled)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond
	// to OPTIONS. Production should front this with a stricter policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis is optional: it backs token revocation and the distributed rate
	// limiter when available.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			sessions.SetBlacklistClient(redisClient)
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimit(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// MongoDB with retry/backoff to tolerate startup races
	var client *mongo.Client
	if cfg.MongoDB.URI == "" {
		logger.Fatalf("MONGODB_URI is required")
	}
	const maxAttempts = 5
	backoff := time.Second
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if err != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	db := client.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("failed to ensure indexes: %v", err)
	}

	// repositories and services
	userRepo := users.NewMongoRepository(db.Collection("users"))
	uniRepo := catalog.NewMongoUniversityRepository(db.Collection("universities"))
	majorRepo := catalog.NewMongoMajorRepository(db.Collection("majors"))
	postRepo := forum.NewMongoRepository(db.Collection("posts"))

	userSvc := users.NewService(userRepo)
	catalogSvc := catalog.NewService(uniRepo, majorRepo)
	forumSvc := forum.NewService(postRepo, userRepo, uniRepo)
	issuer := tokens.NewIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	// object storage is optional; uploads 500 cleanly when unconfigured
	var imageStore *storage.ImageStore
	if mc := storage.LoadMinIOConfig(); mc.Endpoint != "" {
		imageStore, err = storage.NewImageStore(mc)
		if err != nil {
			logger.Warnf("object storage unavailable: %v", err)
		}
	}

	authed := middleware.Auth(issuer, userRepo)
	optional := middleware.OptionalAuth(issuer, userRepo)
	admin := middleware.RequireAdmin()

	api := r.Group("/api")
	handlers.NewAuthHandler(cfg, userSvc, issuer).Register(api, authed)
	handlers.NewUsersHandler(userSvc).Register(api, authed, optional, admin)
	handlers.NewPostsHandler(forumSvc).Register(api, authed, optional)
	handlers.NewUniversitiesHandler(catalogSvc).Register(api, authed, admin)
	handlers.NewMajorsHandler(catalogSvc).Register(api, authed, admin)
	handlers.NewUploadsHandler(imageStore).Register(api, authed)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// return 200 only when critical dependencies answer
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"mongodb": true, "redis": true}
		ready := true
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			deps["mongodb"] = false
			ready = false
		}
		if redisClient != nil {
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				deps["redis"] = false
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting campuslink server on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
