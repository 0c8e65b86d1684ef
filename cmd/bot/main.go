package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shred03/filestore-bot/internal/config"
	"github.com/shred03/filestore-bot/internal/handler"
	pgRepo "github.com/shred03/filestore-bot/internal/repository/postgres"
	redisRepo "github.com/shred03/filestore-bot/internal/repository/redis"
	"github.com/shred03/filestore-bot/internal/service"
	"github.com/shred03/filestore-bot/internal/shortener"
	"github.com/shred03/filestore-bot/internal/telegram"
	"github.com/shred03/filestore-bot/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	adminRepo := pgRepo.NewAdminRepo(db)
	fileRepo := pgRepo.NewFileRepo(db)
	verificationRepo := pgRepo.NewUserVerificationRepo(db)
	limitRepo := pgRepo.NewRetrievalLimitRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Настройки подсистем доступа, общие для всех сервисов
	settings := service.NewAccessSettings(cfg.Access)

	// Инициализируем сервисы
	verificationService, err := service.NewVerificationService(verificationRepo, settings)
	if err != nil {
		log.Printf("Failed to initialize VerificationService: %v", err)
		os.Exit(1)
	}
	limitService, err := service.NewRetrievalLimitService(limitRepo, settings)
	if err != nil {
		log.Printf("Failed to initialize RetrievalLimitService: %v", err)
		os.Exit(1)
	}
	fileService, err := service.NewFileService(fileRepo)
	if err != nil {
		log.Printf("Failed to initialize FileService: %v", err)
		os.Exit(1)
	}
	broadcastService, err := service.NewBroadcastService(userRepo)
	if err != nil {
		log.Printf("Failed to initialize BroadcastService: %v", err)
		os.Exit(1)
	}
	reportService, err := service.NewReportService(limitService)
	if err != nil {
		log.Printf("Failed to initialize ReportService: %v", err)
		os.Exit(1)
	}

	// TMDB сервис необязателен: без ключа команды постов отвечают заглушкой
	var metadataService *service.MetadataService
	if cfg.Metadata.APIKey != "" {
		metadataService, err = service.NewMetadataService(cfg.Metadata)
		if err != nil {
			log.Printf("Failed to initialize MetadataService: %v", err)
			os.Exit(1)
		}
	} else {
		log.Println("TMDB API key not set, metadata posts disabled")
	}

	shortenerClient := shortener.NewClient(cfg.Shortener)
	if !shortenerClient.Enabled() {
		log.Println("Shortener API key not set, verification links stay long")
	}

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем Telegram бота
	bot, err := telegram.NewBot(cfg.Telegram, telegram.Deps{
		Settings:     settings,
		Files:        fileService,
		Verification: verificationService,
		Limits:       limitService,
		Broadcast:    broadcastService,
		Reports:      reportService,
		Metadata:     metadataService,
		Shortener:    shortenerClient,
		UserRepo:     userRepo,
		AdminRepo:    adminRepo,
		Cache:        cacheRepo,
	})
	if err != nil {
		log.Printf("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	// Проверка членства ходит через API авторизованного бота
	membership := telegram.NewMembershipChecker(bot.API(), cacheRepo)

	var requiredChannels []int64
	if cfg.Telegram.ForceChannelID != 0 {
		requiredChannels = append(requiredChannels, cfg.Telegram.ForceChannelID)
	}
	gatingService, err := service.NewGatingService(
		membership,
		limitService,
		verificationService,
		settings,
		cfg.Telegram.AdminIDList(),
		requiredChannels,
	)
	if err != nil {
		log.Printf("Failed to initialize GatingService: %v", err)
		os.Exit(1)
	}
	bot.SetGating(gatingService)

	// Запускаем фоновую очистку истекших верификаций и устаревших лимитов
	janitor := service.NewJanitor(verificationService, limitService)
	go janitor.Run(ctx)

	// Запускаем цикл обновлений бота
	go bot.Run(ctx)

	// Инициализируем роутер Gin для статусной панели
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS: панель только читается, поэтому только GET
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	statusHandler := handler.NewStatusHandler(userRepo, fileService, limitService, settings)
	router.GET("/", statusHandler.Liveness)
	router.GET("/json", statusHandler.Status)
	router.GET("/health", statusHandler.Health)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting status server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// После получения сигнала SIGINT или SIGTERM вызываем cancel() для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Shutdown complete")
}
