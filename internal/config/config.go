package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`

	Razorpay struct {
		WebhookSecret string `koanf:"webhook_secret"`
	} `koanf:"razorpay"`

	SMTP struct {
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		Username string `koanf:"username"`
		Password string `koanf:"password"`
		From     string `koanf:"from"`
	} `koanf:"smtp"`

	Store struct {
		Backend string `koanf:"backend"`
		Path    string `koanf:"path"`
		DSN     string `koanf:"dsn"`
	} `koanf:"store"`

	Debug struct {
		ExposeCodes bool `koanf:"expose_codes"`
	} `koanf:"debug"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":   8080,
		"smtp.host":     "smtp.gmail.com",
		"smtp.port":     465,
		"store.backend": "file",
		"store.path":    "premium_codes.json",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config: %w", err)
			}
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./codemint.toml", "$HOME/.codemint.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix CODEMINT_. A double
	// underscore separates sections, so keys containing underscores
	// survive: CODEMINT_RAZORPAY__WEBHOOK_SECRET -> razorpay.webhook_secret
	k.Load(env.Provider("CODEMINT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CODEMINT_")
		return strings.Replace(strings.ToLower(s), "__", ".", -1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# codemint Configuration
#
# Secrets should come from the environment in production:
#   CODEMINT_RAZORPAY__WEBHOOK_SECRET
#   CODEMINT_SMTP__USERNAME
#   CODEMINT_SMTP__PASSWORD

[server]
port = 8080

[razorpay]
webhook_secret = ""

[smtp]
host = "smtp.gmail.com"
port = 465
username = ""
password = ""

[store]
# "file" or "postgres"
backend = "file"
path = "premium_codes.json"
dsn = ""

[debug]
# Exposes GET /_debug/codes with every stored code and payer email.
# Never enable in production.
expose_codes = false
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", config.Server.Port)
	}

	switch config.Store.Backend {
	case "file":
		if config.Store.Path == "" {
			return fmt.Errorf("store path is required for the file backend")
		}
	case "postgres":
		if config.Store.DSN == "" && os.Getenv("DATABASE_URL") == "" {
			return fmt.Errorf("store dsn or DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", config.Store.Backend)
	}

	return nil
}
