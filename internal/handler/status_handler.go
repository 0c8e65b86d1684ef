package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shred03/filestore-bot/internal/domain/repository"
	"github.com/shred03/filestore-bot/internal/service"
)

// StatusHandler обрабатывает HTTP запросы статусной панели
type StatusHandler struct {
	userRepo  repository.UserRepository
	files     *service.FileService
	limits    *service.RetrievalLimitService
	settings  *service.AccessSettings
	startedAt time.Time
}

// NewStatusHandler создает новый обработчик статуса
func NewStatusHandler(
	userRepo repository.UserRepository,
	files *service.FileService,
	limits *service.RetrievalLimitService,
	settings *service.AccessSettings,
) *StatusHandler {
	return &StatusHandler{
		userRepo:  userRepo,
		files:     files,
		limits:    limits,
		settings:  settings,
		startedAt: time.Now(),
	}
}

// Liveness отвечает простым текстом, что бот работает
// GET /
func (h *StatusHandler) Liveness(c *gin.Context) {
	c.String(http.StatusOK, "Bot is Running..")
}

// Health возвращает состояние сервиса
// GET /health
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status возвращает статусный документ в JSON
// GET /json
func (h *StatusHandler) Status(c *gin.Context) {
	userCount, err := h.userRepo.Count()
	if err != nil {
		log.Printf("[StatusHandler] failed to count users: %v", err)
	}
	fileCount, err := h.files.Count()
	if err != nil {
		log.Printf("[StatusHandler] failed to count files: %v", err)
	}

	doc := gin.H{
		"status":               "running",
		"uptime":               time.Since(h.startedAt).Round(time.Second).String(),
		"users":                userCount,
		"stored_files":         fileCount,
		"verification_enabled": h.settings.VerificationEnabled(),
		"limit_enabled":        h.settings.LimitEnabled(),
		"file_limit":           h.settings.FileLimit(),
	}

	if stats, err := h.limits.Stats(); err == nil {
		doc["quota"] = stats
	} else {
		log.Printf("[StatusHandler] failed to load quota stats: %v", err)
	}

	c.JSON(http.StatusOK, doc)
}
