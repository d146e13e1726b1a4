package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnv names the environment variable pointing at an optional YAML file
const FileEnv = "CONFIG_FILE"

// keys lists the recognised configuration keys, matching the koanf tags
var keys = map[string]bool{
	"fixtures_url":         true,
	"fixtures_api_url":     true,
	"fixtures_api_token":   true,
	"team_name":            true,
	"output_ics":           true,
	"state_file":           true,
	"event_duration_hours": true,
	"alarm_time":           true,
	"timezone":             true,
	"http_timeout":         true,
	"http_retries":         true,
	"http_retry_wait":      true,
	"user_agent":           true,
	"calendar_name":        true,
	"debug_dump":           true,
	"metrics_file":         true,
	"log_level":            true,
	"log_file":             true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// The result is not validated; call Validate after applying flag overrides.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "loading %s", path), ErrInvalidConfig)
		}
	}

	// TEAM_NAME -> team_name. Unknown and empty variables are ignored so
	// that an exported but blank variable keeps the default.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		if !keys[key] || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding configuration"), ErrInvalidConfig)
	}
	return &cfg, nil
}
