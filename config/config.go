// Ininicializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	App     AppConfig     `mapstructure:"app"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Worker  WorkerConfig  `mapstructure:"worker"`
}

type ServerConfig struct {
	AppVersion   string `json:"appVersion"`
	Host         string `json:"host" validate:"required"`
	Port         string `json:"port" validate:"required"`
	Timeout      time.Duration
	Idle_timeout time.Duration
	Env          string `json:"environment"`
	Mode         string `mapstructure:"mode"`
}

// BackendConfig points at the remote multimodal model that does the
// actual text extraction. Accounts carry the backend credentials; the
// client rotates across enabled ones.
type BackendConfig struct {
	BaseURL  string          `mapstructure:"base_url"`
	Model    string          `mapstructure:"model"`
	Prompt   string          `mapstructure:"prompt"`
	Timeout  time.Duration   `mapstructure:"timeout"`
	Accounts []AccountConfig `mapstructure:"accounts"`
}

type AccountConfig struct {
	Name    string `mapstructure:"name"`
	Token   string `mapstructure:"token"`
	Cookie  string `mapstructure:"cookie"`
	Enabled bool   `mapstructure:"enabled"`
}

type AppConfig struct {
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxDimension  int           `mapstructure:"max_dimension"`
	DataDir       string        `mapstructure:"data_dir"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"required"`
	Password string `json:"password"`
	DB       int    `json:"db"`

	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type WorkerConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
