package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`
	TokenTTLHours  int    `envconfig:"TOKEN_TTL_HOURS" default:"24"`
	AdminEmail     string `envconfig:"ADMIN_EMAIL"`
	AdminPassword  string `envconfig:"ADMIN_PASSWORD"`
	DefaultCredits int    `envconfig:"DEFAULT_IMAGE_CREDITS" default:"5"`

	// Artifact storage (S3-compatible)
	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	// External image generation model
	GeminiAPIKey        string  `envconfig:"GEMINI_API_KEY"`
	GeminiModel         string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash-image-preview"`
	GeminiTimeoutSec    int     `envconfig:"GEMINI_TIMEOUT_SEC" default:"120"`
	WatermarkAssetPath  string  `envconfig:"WATERMARK_ASSET_PATH" default:"assets/logo_watermark.png"`
	WatermarkWidthRatio float64 `envconfig:"WATERMARK_WIDTH_RATIO" default:"0.8"`

	// Ordered SMTP delivery channels; channel 1 has the highest priority.
	// A channel with an empty host is considered unconfigured and skipped.
	SMTP1Host      string `envconfig:"SMTP1_HOST"`
	SMTP1Port      int    `envconfig:"SMTP1_PORT" default:"587"`
	SMTP1Username  string `envconfig:"SMTP1_USERNAME"`
	SMTP1Password  string `envconfig:"SMTP1_PASSWORD"`
	SMTP1From      string `envconfig:"SMTP1_FROM"`
	SMTP2Host      string `envconfig:"SMTP2_HOST"`
	SMTP2Port      int    `envconfig:"SMTP2_PORT" default:"587"`
	SMTP2Username  string `envconfig:"SMTP2_USERNAME"`
	SMTP2Password  string `envconfig:"SMTP2_PASSWORD"`
	SMTP2From      string `envconfig:"SMTP2_FROM"`
	SMTP3Host      string `envconfig:"SMTP3_HOST"`
	SMTP3Port      int    `envconfig:"SMTP3_PORT" default:"465"`
	SMTP3Username  string `envconfig:"SMTP3_USERNAME"`
	SMTP3Password  string `envconfig:"SMTP3_PASSWORD"`
	SMTP3From      string `envconfig:"SMTP3_FROM"`
	SMTPTimeoutSec int    `envconfig:"SMTP_TIMEOUT_SEC" default:"15"`

	// Optional Pub/Sub notification when an email falls into the manual queue.
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	EmailQueuedTopic   string `envconfig:"EMAIL_QUEUED_TOPIC"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`

	// Optional Secret Manager indirection for SMTP passwords and the model
	// API key. When unset, values come straight from the environment.
	UseSecretManager bool `envconfig:"USE_SECRET_MANAGER" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
