package app

import (
	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/controller"
	"campus_hunt_backend/internal/repository"
	"campus_hunt_backend/internal/service"
	"campus_hunt_backend/internal/util"
	"campus_hunt_backend/pkg/database"
	"campus_hunt_backend/pkg/logger"
	"campus_hunt_backend/pkg/monitoring"
	"campus_hunt_backend/pkg/security"
	"campus_hunt_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	allowedOrigins  *security.OriginSet
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	hunt       *repository.HuntRepository
	question   *repository.QuestionRepository
	submission *repository.SubmissionRepository
	photo      *repository.PhotoSubmissionRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	hunt        *service.HuntService
	progression *service.ProgressionService
	student     *service.StudentService
	progress    service.ProgressStore
}

type controllers struct {
	auth     *controller.AuthController
	hunt     *controller.HuntController
	question *controller.QuestionController
	student  *controller.StudentController
	qr       *controller.QRController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig feeds a hot-reloaded config to everything that can pick
// up changes at runtime.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.allowedOrigins.Update(cfg.CORS.AllowedOrigins)
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("Runtime config applied",
		zap.Strings("allowedOrigins", cfg.CORS.AllowedOrigins),
		zap.Int64("maxImageSizeMB", cfg.Upload.MaxImageSizeMB),
	)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		hunt:       repository.NewHuntRepository(db),
		question:   repository.NewQuestionRepository(db),
		submission: repository.NewSubmissionRepository(db),
		photo:      repository.NewPhotoSubmissionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.progress = service.NewProgressStore(cfg, rdb)
	s.hunt = service.NewHuntService(repos.hunt, repos.question, repos.submission, repos.photo, db)
	s.progression = service.NewProgressionService(repos.question, repos.hunt, repos.submission)
	s.student = service.NewStudentService(repos.hunt, repos.question, repos.photo, s.progress)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	studentController := controller.NewStudentController(s.student, s.progression, s.progress, s.storage, a.Config)
	a.RegisterConfigCallback(studentController.ApplyConfig)

	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		hunt:     controller.NewHuntController(s.hunt, a.Config),
		question: controller.NewQuestionController(s.hunt),
		student:  studentController,
		qr:       controller.NewQRController(s.hunt, a.Config),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	a.allowedOrigins = security.NewOriginSet(cfg.CORS.AllowedOrigins)
	router.Use(security.CORS(a.allowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 6000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	// Redis is optional: without it, progress lives in process memory.
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	} else {
		logger.Log.Warn("Redis disabled, participant progress is stored in memory")
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("campus-hunt", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
