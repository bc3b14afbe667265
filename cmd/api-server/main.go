package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/remon-atef/sunday-school-api/api/swagger"
	"github.com/remon-atef/sunday-school-api/internal/handler"
	"github.com/remon-atef/sunday-school-api/internal/middleware"
	"github.com/remon-atef/sunday-school-api/internal/models"
	"github.com/remon-atef/sunday-school-api/internal/repository"
	"github.com/remon-atef/sunday-school-api/internal/service"
	"github.com/remon-atef/sunday-school-api/pkg/cache"
	"github.com/remon-atef/sunday-school-api/pkg/config"
	"github.com/remon-atef/sunday-school-api/pkg/database"
	"github.com/remon-atef/sunday-school-api/pkg/logger"
	corsmiddleware "github.com/remon-atef/sunday-school-api/pkg/middleware/cors"
	reqidmiddleware "github.com/remon-atef/sunday-school-api/pkg/middleware/requestid"
)

// @title Sunday School API
// @version 0.1.0
// @description Multi-tenant Sunday school management for dioceses, churches and classes
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	announcementRepo := repository.NewAnnouncementRepository(db)
	dioceseRepo := repository.NewDioceseRepository(db)
	churchRepo := repository.NewChurchRepository(db)
	classRepo := repository.NewClassRepository(db)
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	gamificationRepo := repository.NewGamificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Gamification.LeaderboardTTL, logr, cfg.Gamification.Enabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sunday-school-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, validate, logr, cfg.Announcements.SuggestionLimit)
	scopeSvc := service.NewScopeService(dioceseRepo, churchRepo, classRepo, logr)
	dioceseSvc := service.NewDioceseService(dioceseRepo, validate, logr)
	churchSvc := service.NewChurchService(churchRepo, dioceseRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, churchRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, validate, logr, cfg.Attendance.ExportTitle)
	gamificationSvc := service.NewGamificationService(gamificationRepo, attendanceRepo, cacheSvc, validate, logr,
		cfg.Gamification.LeaderboardTTL, cfg.Gamification.LeaderboardLimit, cfg.Gamification.StreakGraceDays)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc, scopeSvc)
	dioceseHandler := handler.NewDioceseHandler(dioceseSvc)
	churchHandler := handler.NewChurchHandler(churchSvc)
	classHandler := handler.NewClassHandler(classSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	gamificationHandler := handler.NewGamificationHandler(gamificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authSvc,
		authHandler, userHandler, announcementHandler,
		dioceseHandler, churchHandler, classHandler,
		studentHandler, attendanceHandler, gamificationHandler, metricsHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	authSvc *service.AuthService,
	auth *handler.AuthHandler,
	users *handler.UserHandler,
	announcements *handler.AnnouncementHandler,
	dioceses *handler.DioceseHandler,
	churches *handler.ChurchHandler,
	classes *handler.ClassHandler,
	students *handler.StudentHandler,
	attendance *handler.AttendanceHandler,
	gamification *handler.GamificationHandler,
	metrics *handler.MetricsHandler,
) {
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/refresh", auth.Refresh)
		authGroup.POST("/logout", middleware.JWT(authSvc), auth.Logout)
		authGroup.GET("/me", middleware.JWT(authSvc), auth.Me)
	}

	adminRoles := models.AdminRoles()

	userGroup := api.Group("/users", middleware.JWT(authSvc))
	{
		userGroup.GET("", middleware.RequireRoles(adminRoles...), users.List)
		userGroup.GET("/:id", middleware.RBAC("SUPERADMIN", "DIOCESE_ADMIN", "CHURCH_ADMIN", "SELF"), users.Get)
		userGroup.POST("", middleware.RequireRoles(adminRoles...), users.Create)
	}

	// The feed is readable without a session; everything else under
	// announcements is management and requires an admin role.
	api.GET("/announcements/feed", middleware.OptionalJWT(authSvc), announcements.Feed)

	annGroup := api.Group("/announcements", middleware.JWT(authSvc), middleware.RequireRoles(adminRoles...))
	{
		annGroup.GET("", announcements.List)
		annGroup.GET("/:id", announcements.Get)
		annGroup.POST("", announcements.Create)
		annGroup.PUT("/:id", announcements.Update)
		annGroup.POST("/:id/deactivate", announcements.Deactivate)
		annGroup.POST("/:id/republish", announcements.Republish)
		annGroup.GET("/types/suggestions", announcements.SuggestTypes)
		annGroup.POST("/scope/resolve", announcements.ResolveScope)
	}

	dioGroup := api.Group("/dioceses", middleware.JWT(authSvc))
	{
		dioGroup.GET("", dioceses.List)
		dioGroup.GET("/:id", dioceses.Get)
		dioGroup.POST("", middleware.RequireRoles(models.RoleSuperAdmin), dioceses.Create)
		dioGroup.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin), dioceses.Update)
		dioGroup.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin), dioceses.Delete)
	}

	churchGroup := api.Group("/churches", middleware.JWT(authSvc))
	{
		churchGroup.GET("", churches.List)
		churchGroup.GET("/:id", churches.Get)
		churchGroup.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleDioceseAdmin), churches.Create)
		churchGroup.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleDioceseAdmin), churches.Update)
		churchGroup.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleDioceseAdmin), churches.Delete)
	}

	classGroup := api.Group("/classes", middleware.JWT(authSvc))
	{
		classGroup.GET("", classes.List)
		classGroup.GET("/:id", classes.Get)
		classGroup.POST("", middleware.RequireRoles(adminRoles...), classes.Create)
		classGroup.PUT("/:id", middleware.RequireRoles(adminRoles...), classes.Update)
		classGroup.DELETE("/:id", middleware.RequireRoles(adminRoles...), classes.Delete)
	}

	studentGroup := api.Group("/students", middleware.JWT(authSvc))
	{
		studentGroup.GET("", students.List)
		studentGroup.GET("/:id", students.Get)
		studentGroup.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleChurchAdmin, models.RoleServant), students.Create)
		studentGroup.PUT("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleChurchAdmin, models.RoleServant), students.Update)
		studentGroup.DELETE("/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleChurchAdmin), students.Delete)
	}

	attGroup := api.Group("/attendance", middleware.JWT(authSvc))
	{
		attGroup.GET("", attendance.List)
		attGroup.POST("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleChurchAdmin, models.RoleServant), attendance.Mark)
		attGroup.GET("/summary", attendance.Summary)
		if cfg.Attendance.ExportEnabled {
			attGroup.GET("/export", attendance.Export)
		}
	}

	gamGroup := api.Group("/gamification", middleware.JWT(authSvc))
	{
		gamGroup.POST("/points", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleChurchAdmin, models.RoleServant), gamification.AwardPoints)
		gamGroup.GET("/leaderboard", gamification.Leaderboard)
		gamGroup.GET("/badges", gamification.ListBadges)
		gamGroup.POST("/badges/award", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleChurchAdmin, models.RoleServant), gamification.AwardBadge)
		gamGroup.GET("/students/:id/points", gamification.TotalPoints)
		gamGroup.GET("/students/:id/badges", gamification.StudentBadges)
		gamGroup.GET("/students/:id/streak", gamification.Streak)
	}

	api.GET("/metrics/snapshot", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleSuperAdmin), metrics.Snapshot)
}
