package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/eduAbreu/train-book/internal/auth"
	"github.com/eduAbreu/train-book/internal/booking"
	"github.com/eduAbreu/train-book/internal/config"
	"github.com/eduAbreu/train-book/internal/gym"
	"github.com/eduAbreu/train-book/internal/notify"
	"github.com/eduAbreu/train-book/internal/plan"
	"github.com/eduAbreu/train-book/internal/schedule"
	"github.com/eduAbreu/train-book/internal/user"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, notifier *notify.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))

	gymRepo := gym.NewRepository(db)
	planRepo := plan.NewRepository(db)
	scheduleRepo := schedule.NewRepository(db)
	notifyRepo := notify.NewRepository(db)
	bookingRepo := booking.NewRepository()
	userRepo := user.NewRepository(db, bookingRepo)

	gymHandler := gym.NewHandler(gym.NewService(gymRepo))
	planHandler := plan.NewHandler(plan.NewService(planRepo, gymRepo))
	scheduleHandler := schedule.NewHandler(schedule.NewService(scheduleRepo, gymRepo))
	userHandler := user.NewHandler(user.NewService(userRepo, gymRepo, cfg.JWTSecret))
	notifyHandler := notify.NewHandler(notifyRepo)
	bookingHandler := booking.NewHandler(
		booking.NewService(db, bookingRepo, gymRepo, planRepo, notifier))

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

		protected.GET("/gyms", gymHandler.ListGyms)
		protected.GET("/gyms/:gymID", gymHandler.GetGym)
		protected.GET("/gyms/:gymID/classes", scheduleHandler.ListClasses)
		protected.GET("/gyms/:gymID/slots", scheduleHandler.ListSlots)
		protected.GET("/gyms/:gymID/class-types", gymHandler.ListClassTypes)
		protected.POST("/gyms/:gymID/join", userHandler.JoinGym)

		protected.POST("/classes/:classID/book", bookingHandler.BookClass)
		protected.POST("/bookings/:bookingID/cancel", bookingHandler.CancelBooking)
		protected.GET("/bookings", bookingHandler.ListMyBookings)

		protected.GET("/notifications", notifyHandler.List)
		protected.POST("/notifications/:id/read", notifyHandler.MarkRead)
	}

	ownerMiddleware := auth.RequireRole(auth.RoleOwner)
	owner := router.Group("/owner")
	owner.Use(authMiddleware, ownerMiddleware)
	{
		owner.POST("/gym", gymHandler.CreateGym)
		owner.GET("/gym", gymHandler.GetOwnGym)
		owner.PATCH("/gym", gymHandler.UpdateGym)
		owner.PATCH("/gym/settings", gymHandler.UpdateSettings)
		owner.POST("/gym/close", gymHandler.CloseGym)
		owner.POST("/class-types", gymHandler.CreateClassType)

		owner.POST("/slots", scheduleHandler.CreateSlot)
		owner.PATCH("/slots/:slotID", scheduleHandler.UpdateSlot)
		owner.DELETE("/slots/:slotID", scheduleHandler.DeleteSlot)
		owner.POST("/slots/apply", scheduleHandler.ApplySlotToDays)

		owner.POST("/classes", scheduleHandler.CreateClass)
		owner.PATCH("/classes/:classID/capacity", scheduleHandler.SetClassCapacity)
		owner.POST("/classes/generate", scheduleHandler.GenerateClasses)

		owner.POST("/classes/:classID/book", bookingHandler.OwnerBook)
		owner.POST("/classes/:classID/promote", bookingHandler.Promote)
		owner.GET("/classes/:classID/bookings", bookingHandler.ListByClass)
		owner.GET("/gyms/:gymID/bookings", bookingHandler.ListByGym)

		owner.POST("/plans", planHandler.CreatePlan)
		owner.GET("/plans", planHandler.ListPlans)
		owner.DELETE("/plans/:planID", planHandler.DeactivatePlan)
		owner.POST("/plans/assign", planHandler.AssignPlan)

		owner.GET("/students", userHandler.ListMembers)
		owner.POST("/students/:studentID/unlink", userHandler.UnlinkStudent)
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
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
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
