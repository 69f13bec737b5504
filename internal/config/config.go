package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-key-change-in-production"

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DatabaseDriver                string        `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	DatabaseDSN                   string        `mapstructure:"DATABASE_DSN"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	JWTTTL                        time.Duration `mapstructure:"JWT_TTL"`
	AdminEmails                   []string      `mapstructure:"ADMIN_EMAILS"`
	EnableCORS                    bool          `mapstructure:"ENABLE_CORS"`
	CORSOrigin                    string        `mapstructure:"CORS_ORIGIN"`
	PublicURL                     string        `mapstructure:"PUBLIC_URL"`
	RedisAddr                     string        `mapstructure:"REDIS_ADDR"`
	CacheTTL                      time.Duration `mapstructure:"CACHE_TTL"`
	AuthRateLimitRPS              float64       `mapstructure:"AUTH_RATE_LIMIT_RPS"`
	AuthRateLimitBurst            int           `mapstructure:"AUTH_RATE_LIMIT_BURST"`
	DiscordClientID               string        `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string        `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string        `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string        `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
}

// IsAdminEmail reports whether new accounts with this email start as admins.
// Matching ignores case and surrounding spaces.
func (c *Config) IsAdminEmail(email string) bool {
	email = normalizeEmail(email)
	for _, e := range c.AdminEmails {
		if normalizeEmail(e) == email {
			return true
		}
	}
	return false
}

func LoadConfig() *Config {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "badminton.db")
	v.SetDefault("JWT_TTL", "168h")
	v.SetDefault("ENABLE_CORS", true)
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("PUBLIC_URL", "http://localhost:3000")
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 0.5)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 2)
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/api/auth/discord/callback")

	v.BindEnv("DATABASE_DSN")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("ADMIN_EMAILS")
	v.BindEnv("REDIS_ADDR")
	v.BindEnv("DISCORD_CLIENT_ID")
	v.BindEnv("DISCORD_CLIENT_SECRET")
	v.BindEnv("DISCORD_GUILD_ID")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	admins := make([]string, 0, len(config.AdminEmails))
	for _, e := range config.AdminEmails {
		if e = normalizeEmail(e); e != "" {
			admins = append(admins, e)
		}
	}
	config.AdminEmails = admins

	if config.JWTSecret == "" {
		log.Printf("JWT_SECRET not configured, using development default (unsafe for production)")
		config.JWTSecret = devJWTSecret
	}

	return &config
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
