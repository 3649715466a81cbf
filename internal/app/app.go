package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillsprint_backend/internal/config"
	"skillsprint_backend/internal/controller"
	"skillsprint_backend/internal/repository"
	"skillsprint_backend/internal/service"
	"skillsprint_backend/pkg/database"
	"skillsprint_backend/pkg/logger"
	"skillsprint_backend/pkg/monitoring"
	"skillsprint_backend/pkg/security"
	"skillsprint_backend/pkg/tracing"

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

	workerCancel context.CancelFunc
}

type repositories struct {
	user       *repository.UserRepository
	objective  *repository.ObjectiveRepository
	sprint     *repository.SprintRepository
	generation *repository.GenerationRepository
	skill      *repository.SkillRepository
	quiz       *repository.QuizRepository
	assessment *repository.AssessmentRepository
}

type services struct {
	cache      *service.CacheService
	auth       *service.AuthService
	storage    *service.StorageService
	generation *service.GenerationService
	objective  *service.ObjectiveService
	sprint     *service.SprintService
	quiz       *service.QuizService
	assessment *service.AssessmentService
}

type controllers struct {
	auth       *controller.AuthController
	objective  *controller.ObjectiveController
	sprint     *controller.SprintController
	quiz       *controller.QuizController
	assessment *controller.AssessmentController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		objective:  repository.NewObjectiveRepository(db),
		sprint:     repository.NewSprintRepository(db),
		generation: repository.NewGenerationRepository(db),
		skill:      repository.NewSkillRepository(db),
		quiz:       repository.NewQuizRepository(db),
		assessment: repository.NewAssessmentRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.cache = service.NewCacheService(rdb)
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.generation = service.NewGenerationService(repos.objective, repos.sprint, repos.generation, s.cache, cfg)
	s.objective = service.NewObjectiveService(repos.objective, repos.sprint, s.generation, s.cache)
	s.sprint = service.NewSprintService(repos.sprint, repos.objective, repos.skill, s.generation, s.cache, cfg)
	s.quiz = service.NewQuizService(repos.quiz)
	s.assessment = service.NewAssessmentService(repos.assessment, cfg)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		objective:  controller.NewObjectiveController(s.objective, s.generation),
		sprint:     controller.NewSprintController(s.sprint, s.storage),
		quiz:       controller.NewQuizController(s.quiz),
		assessment: controller.NewAssessmentController(s.assessment),
		health:     controller.NewHealthController(db),
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

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ApplyConfig 热更新可以安全在线调整的配置项（生成配额、测验阈值）
func (a *App) ApplyConfig(newCfg *config.Config) {
	a.Config.Generation = newCfg.Generation
	a.Config.Quiz = newCfg.Quiz
	logger.Log.Info("runtime config applied",
		zap.Int("dailyLimit", newCfg.Generation.DailyLimit),
		zap.Int("reviewInterval", newCfg.Generation.ReviewInterval),
		zap.Int("maxAttempts", newCfg.Quiz.MaxAttempts))
}

// startBackgroundTasks 启动冲刺生成worker
func (a *App) startBackgroundTasks(s *services) {
	ctx, cancel := context.WithCancel(context.Background())
	a.workerCancel = cancel
	go s.generation.RunWorker(ctx)
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.MigrateOnly {
		logger.Log.Info("Migration completed, exiting (migrate-only mode)")
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("skillsprint-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

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

	if a.workerCancel != nil {
		a.workerCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
