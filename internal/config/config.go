package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/waribiz.db"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz + /metrics
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error

	OpenAIKey   string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	FacebookAppID     string `envconfig:"FACEBOOK_APP_ID"`
	FacebookAppSecret string `envconfig:"FACEBOOK_APP_SECRET"`
	RedirectURI       string `envconfig:"REDIRECT_URI" default:"https://your-redirect-uri.com/facebook_callback"`

	AdminChatID int64  `envconfig:"ADMIN_CHAT_ID"` // 0 disables admin alerts
	ImagesDir   string `envconfig:"IMAGES_DIR" default:"images"`
	BotLink     string `envconfig:"BOT_LINK" default:"https://t.me/Hcfa_bot"`

	DefaultTheme       string `envconfig:"DEFAULT_THEME" default:"promo du bot MATCH_PREDICTION_AI"`
	DefaultIntervalMin int    `envconfig:"DEFAULT_INTERVAL_MIN" default:"60"`
	MinIntervalMin     int    `envconfig:"MIN_INTERVAL_MIN" default:"30"`
	TokenCheckHour     int    `envconfig:"TOKEN_CHECK_HOUR" default:"9"` // local hour of daily expiry scan
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
