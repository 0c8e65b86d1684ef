package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Telegram  TelegramConfig
	Access    AccessConfig
	Metadata  MetadataConfig
	Shortener ShortenerConfig
}

// ServerConfig содержит настройки HTTP сервера статуса
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`
}

// TelegramConfig содержит настройки бота и каналов
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`

	// AdminIDs: Список Telegram id администраторов через запятую.
	AdminIDs string `mapstructure:"admin_ids"`

	// TargetChannel: Канал-архив, из которого бот копирует файлы.
	TargetChannel int64 `mapstructure:"target_channel"`

	// ForceChannelID / ForceChannelUsername: Обязательный канал для force-join.
	ForceChannelID       int64  `mapstructure:"force_channel_id"`
	ForceChannelUsername string `mapstructure:"force_channel_username"`

	// LogChannelID: Канал для журналирования команд (0 — выключено).
	LogChannelID int64 `mapstructure:"log_channel_id"`

	// AutoDeleteFiles / AutoDeleteMinutes: Автоудаление доставленных файлов.
	AutoDeleteFiles   bool `mapstructure:"auto_delete_files"`
	AutoDeleteMinutes int  `mapstructure:"auto_delete_minutes"`
}

// AccessConfig содержит стартовые значения подсистем ограничения доступа
type AccessConfig struct {
	VerificationEnabled bool `mapstructure:"verification_enabled"`
	LimitEnabled        bool `mapstructure:"limit_enabled"`
	FileLimit           int  `mapstructure:"file_limit"`

	// VerificationHours: Срок действия верификации после подтверждения.
	VerificationHours int `mapstructure:"verification_hours"`

	// ResetHours: Окно автоматического сброса счетчиков.
	ResetHours int `mapstructure:"reset_hours"`
}

// MetadataConfig содержит настройки TMDB API
type MetadataConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ShortenerConfig содержит настройки сервиса сокращения ссылок
type ShortenerConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// AdminIDList разбирает список администраторов из конфигурации.
// Нечисловые элементы пропускаются с предупреждением.
func (t *TelegramConfig) AdminIDList() []int64 {
	var ids []int64
	for _, part := range strings.Split(t.AdminIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Предупреждение: некорректный admin id %q пропущен", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	vip.SetDefault("server.port", "8000")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 10)
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("access.file_limit", 10)
	vip.SetDefault("access.verification_hours", 12)
	vip.SetDefault("access.reset_hours", 24)
	vip.SetDefault("telegram.auto_delete_minutes", 30)
	vip.SetDefault("metadata.base_url", "https://api.themoviedb.org/3")
	vip.SetDefault("shortener.base_url", "https://shrinkme.io/api")

	// 2. Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("telegram.bot_token", "BOT_TOKEN")
	vip.BindEnv("telegram.admin_ids", "ADMIN_IDS")
	vip.BindEnv("telegram.target_channel", "TARGET_CHANNEL")
	vip.BindEnv("telegram.force_channel_id", "FORCE_CHANNEL_ID")
	vip.BindEnv("telegram.force_channel_username", "FORCE_CHANNEL_USERNAME")
	vip.BindEnv("telegram.log_channel_id", "LOG_CHANNEL_ID")
	vip.BindEnv("telegram.auto_delete_files", "AUTO_DELETE_FILES")
	vip.BindEnv("telegram.auto_delete_minutes", "AUTO_DELETE_TIME")

	vip.BindEnv("access.verification_enabled", "VERIFICATION_ENABLED")
	vip.BindEnv("access.limit_enabled", "LIMIT_ENABLED")
	vip.BindEnv("access.file_limit", "FILE_LIMIT")

	vip.BindEnv("metadata.api_key", "TMDB_API_KEY")
	vip.BindEnv("shortener.api_key", "SHORTENER_API_KEY")

	vip.BindEnv("server.port", "SERVER_PORT")

	// 3. Путь к файлу конфигурации (необязателен, есть BindEnv)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Логирование конфигурации (только вне release режима)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Target Channel: %d", cfg.Telegram.TargetChannel)
		log.Printf("Force Channel: %d (@%s)", cfg.Telegram.ForceChannelID, cfg.Telegram.ForceChannelUsername)
		log.Printf("Admin IDs: %s", cfg.Telegram.AdminIDs)
		log.Printf("File Limit: %d", cfg.Access.FileLimit)
		log.Printf("TMDB API Key Set: %t", cfg.Metadata.APIKey != "")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("bot token is required in config (check BOT_TOKEN env var)")
	}
	if len(cfg.Telegram.AdminIDList()) == 0 {
		return nil, fmt.Errorf("at least one admin id is required in config (check ADMIN_IDS env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}

	return &cfg, nil
}
