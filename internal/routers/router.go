package routers

import (
	"github.com/haierkeys/note-keeper-service/internal/app"
	"github.com/haierkeys/note-keeper-service/internal/middleware"
	"github.com/haierkeys/note-keeper-service/internal/routers/api_router"
	"github.com/haierkeys/note-keeper-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/prometheus/client_golang/prometheus"
)

// authLimiter 登录注册接口的令牌桶限流
func authLimiter(cfg *app.AppConfig) limiter.Face {
	capacity := cfg.Security.AuthRateCapacity
	if capacity <= 0 {
		capacity = 20
	}
	return limiter.NewMethodLimiter().AddBuckets(
		limiter.BucketRule{
			Key:          "/api/auth",
			FillInterval: cfg.GetAuthRateInterval(),
			Capacity:     capacity,
			Quantum:      1,
		},
	)
}

// NewRouter builds the public HTTP engine
// reg may be nil, in which case request metrics are not collected
// NewRouter 创建公开 HTTP 路由，reg 为 nil 时不采集请求指标
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator, reg prometheus.Registerer) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	r := gin.New()
	r.HandleMethodNotAllowed = false

	r.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
	r.Use(middleware.Cors(cfg.Server.CorsAllowOrigins, cfg.Tracer.Header))
	r.Use(middleware.LangWithTranslator(uni))
	r.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
	r.Use(middleware.RecoveryWithLogger(appContainer.Logger()))
	if reg != nil {
		r.Use(middleware.NewHTTPMetrics(reg).Handler())
	}

	healthHandler := api_router.NewHealthHandler(appContainer)
	r.GET("/health", healthHandler.Check)

	api := r.Group("/api")
	{
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))

		// 创建 Handlers（注入 App Container）
		userHandler := api_router.NewUserHandler(appContainer)
		noteHandler := api_router.NewNoteHandler(appContainer)
		tagHandler := api_router.NewTagHandler(appContainer)

		api.GET("/version", healthHandler.Version)

		auth := api.Group("/auth", middleware.RateLimiter(authLimiter(cfg)))
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
		}

		authed := api.Group("", middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey))
		{
			authed.GET("/user/info", userHandler.UserInfo)

			authed.GET("/notes", noteHandler.List)
			authed.POST("/notes", noteHandler.Create)
			authed.GET("/notes/:id", noteHandler.Get)
			authed.PUT("/notes/:id", noteHandler.Update)
			authed.DELETE("/notes/:id", noteHandler.Delete)
			authed.GET("/notes/:id/history", noteHandler.History)
			authed.GET("/notes/:id/history/:index/diff", noteHandler.HistoryDiff)
			authed.PUT("/notes/:id/history/:index/restore", noteHandler.RestoreHistory)

			authed.GET("/tags", tagHandler.List)
			authed.POST("/tags", tagHandler.Create)
			authed.DELETE("/tags/:id", tagHandler.Delete)
		}
	}

	r.NoRoute(middleware.NoFound())

	return r
}
