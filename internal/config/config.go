package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	WebServer  WebServer  `yaml:"web_server"`
	MockServer MockServer `yaml:"mock_server"`
	Backend    Backend    `yaml:"backend"`
}

type WebServer struct {
	Address string `yaml:"address" env:"WEB_SERVER_ADDRESS" env-default:"0.0.0.0:8501"`
	// Must stay above the backend request timeout or slow calls get
	// cut off mid-render.
	Timeout     time.Duration `yaml:"timeout" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"120s"`
	SessionTTL  time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"12h"`
}

type MockServer struct {
	Address string `yaml:"address" env:"MOCK_SERVER_ADDRESS" env-default:"0.0.0.0:8000"`
}

type Backend struct {
	BaseURL         string `yaml:"base_url" env:"BACKEND_URL"`
	Token           string `yaml:"token" env:"BACKEND_TOKEN"`
	RequestTimeoutS int    `yaml:"request_timeout_s" env:"REQUEST_TIMEOUT_S" env-default:"20"`
	UploadMode      string `yaml:"upload_mode" env:"UPLOAD_MODE" env-default:"mvp"`
	UseMock         bool   `yaml:"use_mock" env:"USE_MOCK" env-default:"true"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	var config Config
	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		log.Fatalf("cannot read config %s: %v", configPath, err)
	}
	return &config
}
