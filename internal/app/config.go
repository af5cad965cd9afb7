package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	httpMW "github.com/yungbote/promptlift-backend/internal/http/middleware"
	"github.com/yungbote/promptlift-backend/internal/platform/envutil"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// Config is loaded from an optional YAML file (CONFIG_PATH) and then from the
// environment; a set environment variable always wins over the file.
type Config struct {
	Env         string `yaml:"env"`
	ServiceName string `yaml:"service_name"`
	Port        int    `yaml:"port"`

	DBDriver string `yaml:"db_driver"`

	DailyCredits     int    `yaml:"daily_credits"`
	UserAutoCreate   string `yaml:"user_autocreate"`
	CreditCheckOrder string `yaml:"credit_check_order"`

	InstructionStrategy string        `yaml:"instruction_strategy"`
	ModelTimeout        time.Duration `yaml:"model_timeout"`
	LLMProvider         string        `yaml:"llm_provider"`
	LLMModel            string        `yaml:"llm_model"`

	RedisAddr           string        `yaml:"redis_addr"`
	GuideCacheTTL       time.Duration `yaml:"guide_cache_ttl"`
	GuideLRUSize        int           `yaml:"guide_lru_size"`
	GuideLRUTTL         time.Duration `yaml:"guide_lru_ttl"`
	InvalidationChannel string        `yaml:"invalidation_channel"`

	GuideSource        string        `yaml:"guide_source"`
	GuideWatch         bool          `yaml:"guide_watch"`
	GuideWatchDebounce time.Duration `yaml:"guide_watch_debounce"`

	AuthJWTSecret   string `yaml:"-"`
	AuthJWTIssuer   string `yaml:"auth_jwt_issuer"`
	AuthJWTAudience string `yaml:"auth_jwt_audience"`

	// Guide writes need the admin token header or a bearer token carrying
	// GuideAdminRole. With neither configured they are refused.
	GuideAdminToken string `yaml:"-"`
	GuideAdminRole  string `yaml:"guide_admin_role"`

	CORSOrigins []string `yaml:"cors_origins"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func defaultConfig() Config {
	return Config{
		Env:                 "development",
		ServiceName:         "promptlift",
		Port:                8080,
		DBDriver:            "postgres",
		DailyCredits:        10,
		UserAutoCreate:      "placeholder",
		CreditCheckOrder:    "before_guide",
		InstructionStrategy: "tiered",
		ModelTimeout:        60 * time.Second,
		GuideCacheTTL:       10 * time.Minute,
		GuideLRUSize:        64,
		GuideLRUTTL:         time.Minute,
		InvalidationChannel: "guide-invalidation",
		GuideWatchDebounce:  500 * time.Millisecond,
		GuideAdminRole:      "admin",
		ShutdownTimeout:     15 * time.Second,
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("CONFIG_PATH", ""); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("APP_ENV", cfg.Env)
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName)
	cfg.Port = envutil.Int("PORT", cfg.Port)

	cfg.DBDriver = strings.ToLower(envutil.String("DB_DRIVER", cfg.DBDriver))

	cfg.DailyCredits = envutil.Int("DAILY_CREDITS", cfg.DailyCredits)
	cfg.UserAutoCreate = strings.ToLower(envutil.String("USER_AUTOCREATE", cfg.UserAutoCreate))
	cfg.CreditCheckOrder = strings.ToLower(envutil.String("CREDIT_CHECK_ORDER", cfg.CreditCheckOrder))

	cfg.InstructionStrategy = envutil.String("INSTRUCTION_STRATEGY", cfg.InstructionStrategy)
	cfg.ModelTimeout = envutil.Seconds("MODEL_TIMEOUT_SECONDS", cfg.ModelTimeout)
	cfg.LLMProvider = strings.ToLower(envutil.String("LLM_PROVIDER", cfg.LLMProvider))
	cfg.LLMModel = envutil.String("LLM_MODEL", cfg.LLMModel)

	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.GuideCacheTTL = envutil.Seconds("GUIDE_CACHE_TTL_SECONDS", cfg.GuideCacheTTL)
	cfg.GuideLRUSize = envutil.Int("GUIDE_LRU_SIZE", cfg.GuideLRUSize)
	cfg.GuideLRUTTL = envutil.Seconds("GUIDE_LRU_TTL_SECONDS", cfg.GuideLRUTTL)
	cfg.InvalidationChannel = envutil.String("GUIDE_INVALIDATION_CHANNEL", cfg.InvalidationChannel)

	cfg.GuideSource = envutil.String("GUIDE_SOURCE", cfg.GuideSource)
	cfg.GuideWatch = envutil.Bool("GUIDE_WATCH", cfg.GuideWatch)

	cfg.AuthJWTSecret = envutil.String("AUTH_JWT_SECRET", cfg.AuthJWTSecret)
	cfg.AuthJWTIssuer = envutil.String("AUTH_JWT_ISSUER", cfg.AuthJWTIssuer)
	cfg.AuthJWTAudience = envutil.String("AUTH_JWT_AUDIENCE", cfg.AuthJWTAudience)

	cfg.GuideAdminToken = envutil.String("GUIDE_ADMIN_TOKEN", cfg.GuideAdminToken)
	cfg.GuideAdminRole = envutil.String("GUIDE_ADMIN_ROLE", cfg.GuideAdminRole)

	cfg.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	switch c.UserAutoCreate {
	case "placeholder", "admin_lookup", "disabled":
	default:
		return fmt.Errorf("USER_AUTOCREATE must be placeholder, admin_lookup or disabled, got %q", c.UserAutoCreate)
	}
	switch c.CreditCheckOrder {
	case "before_guide", "after_guide":
	default:
		return fmt.Errorf("CREDIT_CHECK_ORDER must be before_guide or after_guide, got %q", c.CreditCheckOrder)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if err := httpMW.ValidateOrigins(c.CORSOrigins); err != nil {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS: %w", err)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
