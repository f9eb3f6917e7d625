package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	"toefl_sim_backend/internal/config"
	"toefl_sim_backend/internal/controller"
	"toefl_sim_backend/internal/repository"
	"toefl_sim_backend/internal/service"
	"toefl_sim_backend/pkg/configwatcher"
	"toefl_sim_backend/pkg/database"
	"toefl_sim_backend/pkg/logger"
	"toefl_sim_backend/pkg/monitoring"
	"toefl_sim_backend/pkg/security"
	"toefl_sim_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type App struct {
	Config          *config.Config
	ConfigPath      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	question  *repository.QuestionRepository
	prompt    *repository.PromptRepository
	answerKey *repository.AnswerKeyRepository
	bank      *repository.BankRepository
	history   *repository.HistoryRepository
	session   service.SessionStore
}

type services struct {
	storage    *service.StorageService
	sampler    *service.QuestionSampler
	sessions   *service.SessionTracker
	simulation *service.SimulationService
	scorer     *service.Scorer
	history    *service.HistoryService
	content    *service.ContentService
	importer   *service.QuestionImportService
}

type controllers struct {
	simulation *controller.SimulationController
	history    *controller.HistoryController
	content    *controller.ContentController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	repos := &repositories{
		question: repository.NewQuestionRepository(db),
		prompt:   repository.NewPromptRepository(db),
		history:  repository.NewHistoryRepository(db),
	}
	repos.answerKey = repository.NewAnswerKeyRepository(db, rdb, cfg.Simulation.AnswerKeyCacheTTL())
	repos.bank = repository.NewBankRepository(repos.question, repos.prompt)

	if cfg.Simulation.SessionStore == config.SessionStoreRedis {
		repos.session = repository.NewRedisSessionRepository(rdb)
	} else {
		repos.session = repository.NewSessionRepository(db)
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.sampler = service.NewQuestionSampler(repos.question, cfg.Simulation, nil)
	s.sessions = service.NewSessionTracker(repos.session, cfg.Simulation.SessionTTL())
	s.simulation = service.NewSimulationService(s.sampler, s.sessions)
	s.scorer = service.NewScorer(repos.answerKey, repos.history, s.sessions)
	s.history = service.NewHistoryService(repos.history, repos.question, repos.prompt, s.storage)
	s.content = service.NewContentService(repos.question, repos.prompt, s.storage)
	s.importer = service.NewQuestionImportService(repos.bank, s.storage, repos.answerKey)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.sampler.UpdateConfig(newCfg.Simulation)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		simulation: controller.NewSimulationController(s.sampler, s.sessions, s.simulation, s.scorer),
		history:    controller.NewHistoryController(s.history),
		content:    controller.NewContentController(s.content, s.sampler),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func gormLogLevel(cfg *config.Config) gormlogger.LogLevel {
	if cfg.Server.Mode == "debug" {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := database.InitDB(&cfg.Database, gormLogLevel(cfg))
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		if cfg.Simulation.SessionStore == config.SessionStoreRedis {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		logger.Log.Warn("Redis unavailable, answer key cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config:     cfg,
		ConfigPath: filepath.Join("configs", "config.yaml"),
		DB:         db,
		Redis:      rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	app.services = app.initServices(repos, cfg)
	if cfg.MigrateOnly || cfg.ImportPath != "" {
		return app
	}

	controllers := app.initControllers(app.services, db, rdb)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// ImportBank loads a question bank file into the database.
func (a *App) ImportBank(ctx context.Context, path string) error {
	result, err := a.services.importer.ImportFile(ctx, path)
	if err != nil {
		return err
	}
	logger.Log.Info("Import finished",
		zap.String("file", path),
		zap.Int("prompts", result.Prompts),
		zap.Int("questions", result.Questions),
	)
	return nil
}

func (a *App) watchConfig(ctx context.Context) {
	err := configwatcher.WatchConfig(ctx, a.ConfigPath, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(watchCtx)

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
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
