package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"baroni/internal/appointment"
	"baroni/internal/auth"
	"baroni/internal/config"
	"baroni/internal/dedication"
	"baroni/internal/ledger"
	"baroni/internal/liveshow"
	"baroni/internal/notification"
	"baroni/internal/user"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, notifier *notification.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	engine := ledger.NewEngine(db)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	walletHandler := ledger.NewHandler(engine)
	appointmentHandler := appointment.NewHandler(
		appointment.NewService(appointment.NewRepository(db), engine, notifier))
	dedicationHandler := dedication.NewHandler(
		dedication.NewService(dedication.NewRepository(db), engine, notifier))
	liveShowHandler := liveshow.NewHandler(
		liveshow.NewService(liveshow.NewRepository(db), engine, notifier, cfg.PlatformAccountID))

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.POST("/wallet/topup", walletHandler.TopUp)

		protected.GET("/appointments", appointmentHandler.List)
		protected.POST("/appointments", auth.RequireRole(auth.RoleFan), appointmentHandler.Book)
		protected.POST("/appointments/:appointmentID/approve", auth.RequireRole(auth.RoleStar, auth.RoleAdmin), appointmentHandler.Approve)
		protected.POST("/appointments/:appointmentID/reject", auth.RequireRole(auth.RoleStar, auth.RoleAdmin), appointmentHandler.Reject)
		protected.POST("/appointments/:appointmentID/cancel", auth.RequireRole(auth.RoleFan), appointmentHandler.Cancel)

		protected.GET("/dedications", dedicationHandler.List)
		protected.POST("/dedications", auth.RequireRole(auth.RoleFan), dedicationHandler.Request)
		protected.POST("/dedications/:requestID/approve", auth.RequireRole(auth.RoleStar, auth.RoleAdmin), dedicationHandler.Approve)
		protected.POST("/dedications/:requestID/reject", auth.RequireRole(auth.RoleStar, auth.RoleAdmin), dedicationHandler.Reject)
		protected.POST("/dedications/:requestID/video", auth.RequireRole(auth.RoleStar), dedicationHandler.UploadVideo)
		protected.POST("/dedications/:requestID/cancel", auth.RequireRole(auth.RoleFan), dedicationHandler.Cancel)

		protected.GET("/shows", liveShowHandler.List)
		protected.GET("/shows/code/:code", liveShowHandler.GetByCode)
		protected.POST("/shows", auth.RequireRole(auth.RoleStar), liveShowHandler.Host)
		protected.POST("/shows/:showID/join", auth.RequireRole(auth.RoleFan), liveShowHandler.Join)
		protected.POST("/shows/:showID/cancel", auth.RequireRole(auth.RoleStar), liveShowHandler.Cancel)
		protected.POST("/shows/:showID/complete", auth.RequireRole(auth.RoleStar), liveShowHandler.Complete)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/users/:userID/gold-id", userHandler.AssignGoldID)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
