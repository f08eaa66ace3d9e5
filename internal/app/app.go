package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/config"
	"disaster_edu_backend/internal/controller"
	"disaster_edu_backend/internal/repository"
	"disaster_edu_backend/internal/service"
	"disaster_edu_backend/internal/session"
	"disaster_edu_backend/pkg/database"
	"disaster_edu_backend/pkg/logger"
	"disaster_edu_backend/pkg/monitoring"
	"disaster_edu_backend/pkg/security"
	"disaster_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user    *repository.UserRepository
	checkin *repository.CheckinRepository
}

type services struct {
	auth      *service.AuthService
	user      *service.UserService
	storage   *service.StorageService
	progress  *service.ProgressService
	dashboard *service.DashboardService
}

type controllers struct {
	auth      *controller.AuthController
	user      *controller.UserController
	learning  *controller.LearningController
	dashboard *controller.DashboardController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		checkin: repository.NewCheckinRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client, cat *catalog.Catalog, sessions *session.Manager) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.storage = service.NewStorageService(cfg)
	s.progress = service.NewProgressService(repos.user, sessions, cat, cfg.Sync.PersistTimeout())
	s.user = service.NewUserService(repos.user, repos.checkin, sessions, cat, rdb, cfg.Sync.StatsCacheTTL())
	s.dashboard = service.NewDashboardService(s.progress, cat)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, cat *catalog.Catalog, sessions *session.Manager) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, s.user, s.progress, sessions),
		user:      controller.NewUserController(s.user, s.storage),
		learning:  controller.NewLearningController(s.progress, cat),
		dashboard: controller.NewDashboardController(s.dashboard),
		health:    controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	cat := catalog.Default()
	sessions := session.NewManager()

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb, cat, sessions)
	app.services = services
	controllers := app.initControllers(services, db, cat, sessions)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("disaster-edu-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// ApplyConfig 吸收配置热更新里可以在线调整的部分
func (a *App) ApplyConfig(cfg *config.Config) {
	if a.services != nil && a.services.progress != nil {
		a.services.progress.SetPersistTimeout(cfg.Sync.PersistTimeout())
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 等待在途的进度持久化落库
	if a.services != nil && a.services.progress != nil {
		a.services.progress.Flush()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
