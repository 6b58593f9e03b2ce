package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server   `mapstructure:"server"`
	API      API      `mapstructure:"api"`
	Minio    Minio    `mapstructure:"minio"`
	RabbitMQ RabbitMQ `mapstructure:"rabbitmq"`
	Email    Email    `mapstructure:"email"`
	Form     Form     `mapstructure:"form"`
	Cache    Cache    `mapstructure:"cache"`
}

type Server struct {
	Port string `mapstructure:"port"`
	// AllowedOrigins may open notification websockets besides the service's own host.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// API points at the gallery backend that owns the images resource.
type API struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Minio struct {
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	Bucket     string        `mapstructure:"bucket"`
	Secure     bool          `mapstructure:"secure"`
	PreviewTTL time.Duration `mapstructure:"preview_ttl"`
}

type RabbitMQ struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Exchange string `mapstructure:"exchange"` //fanout for cache invalidation
}

// Email is optional, an empty APIKey disables mail notifications.
type Email struct {
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

type Form struct {
	Locale string `mapstructure:"locale"`
}

type Cache struct {
	StaleTime time.Duration `mapstructure:"stale_time"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("api.base_url", "http://localhost:3000/api")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "gallery")
	v.SetDefault("minio.secure", true)
	v.SetDefault("minio.preview_ttl", 15*time.Minute)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.username", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.exchange", "gallery.cache")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "ImageGallery")
	v.SetDefault("form.locale", "pt-BR")
	v.SetDefault("cache.stale_time", 5*time.Minute)
}

// InitConfig reads the yaml file and lets GALLERY_* environment variables
// (also taken from a .env file when present) override any key.
func InitConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GALLERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
