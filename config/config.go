package config

import (
	"strings"

	"optik-backend/internal/models"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Defaults DefaultsConfig
	Events   EventsConfig
	Store    models.StoreInfo
}

type ServerConfig struct {
	Port               string
	Env                string
	JWTSecret          string   `mapstructure:"jwt_secret"`
	JWTExpirationHours int      `mapstructure:"jwt_expiration_hours"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	URL      string
}

type DefaultsConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminName     string `mapstructure:"admin_name"`
}

type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string
}

var AppConfig *Config

// LoadConfig reads .env and config/config.toml from the working directory.
func LoadConfig(log *zap.SugaredLogger) *Config {
	return Load(".env", "config/config.toml", log)
}

// Load reads the env-style file at envFile, lets OS environment variables
// override it, and takes the public store profile from the [store] table of
// tomlFile. Missing files are tolerated.
func Load(envFile, tomlFile string, log *zap.SugaredLogger) *Config {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		log.Warnf(".env file not found, checking environment variables: %v", err)
	}

	v.AutomaticEnv()
	v.BindEnv("SERVER_PORT", "PORT") // Fallback to PORT if SERVER_PORT is missing
	v.BindEnv("DATABASE_URL")

	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("AMQP_EXCHANGE", "optik.events")
	v.SetDefault("ADMIN_NAME", "Admin User")

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetString("SERVER_PORT"),
			Env:                v.GetString("SERVER_ENV"),
			JWTSecret:          v.GetString("JWT_SECRET"),
			JWTExpirationHours: v.GetInt("JWT_EXPIRATION_HOURS"),
			AllowedOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			URL:      v.GetString("DATABASE_URL"),
		},
		Defaults: DefaultsConfig{
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
			AdminName:     v.GetString("ADMIN_NAME"),
		},
		Events: EventsConfig{
			AMQPURL:  v.GetString("AMQP_URL"),
			Exchange: v.GetString("AMQP_EXCHANGE"),
		},
	}

	storeViper := viper.New()
	storeViper.SetConfigFile(tomlFile)
	storeViper.SetConfigType("toml")
	if err := storeViper.ReadInConfig(); err != nil {
		log.Warnf("%s not found, using empty store info: %v", tomlFile, err)
	} else if err := storeViper.UnmarshalKey("store", &cfg.Store); err != nil {
		log.Errorf("failed to unmarshal store info from TOML: %v", err)
	}

	log.Infow("configuration loaded",
		"port", cfg.Server.Port,
		"env", cfg.Server.Env,
		"jwt_secret", setOrNot(cfg.Server.JWTSecret),
		"db_driver", cfg.Database.Driver,
		"db_host", cfg.Database.Host,
		"db_name", cfg.Database.Name,
		"database_url", setOrNot(cfg.Database.URL),
		"amqp_url", setOrNot(cfg.Events.AMQPURL),
		"store", cfg.Store.Name,
	)

	AppConfig = cfg
	return cfg
}

func setOrNot(s string) string {
	if s != "" {
		return "SET"
	}
	return "NOT SET"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
