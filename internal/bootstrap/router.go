package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/config"
	httpapi "github.com/GoSim-25-26J-441/erp-backend/internal/api/http"
	apimw "github.com/GoSim-25-26J-441/erp-backend/internal/api/http/middleware"
	"github.com/GoSim-25-26J-441/erp-backend/internal/api/http/routes"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	authmw "github.com/GoSim-25-26J-441/erp-backend/internal/auth/middleware"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

type RouterDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Clock    clock.Clock
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Verifier auth.TokenVerifier
	Resolver *auth.Resolver
	API      routes.APIDeps
}

// BuildRouter assembles the middleware chain and mounts every route group.
func BuildRouter(dep RouterDeps) *gin.Engine {
	cfg := dep.Config
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(apimw.RequestIDMiddleware())
	r.Use(apimw.RequestLogger(dep.Logger))
	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(apimw.Problems(dep.Logger))
	r.Use(apimw.TenantSubdomain(dep.Logger))
	r.Use(authmw.Authenticate(dep.Verifier, dep.Resolver, dep.Logger))
	r.Use(apimw.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())

	healthHandler := httpapi.NewHealthHandler(cfg.App.Version, cfg.App.Environment, dep.DB, dep.Redis, dep.Clock)
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.RegisterAPI(r, dep.API)

	return r
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowOrigins = c.AllowedOrigins
	cc.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cc.AllowHeaders = []string{"*"}
	cc.ExposeHeaders = []string{apimw.HeaderRequestID}
	cc.AllowCredentials = true
	return cc
}
