// Package config builds the run configuration once at process start.
//
// Values are layered, lowest precedence first: built-in defaults, an optional
// YAML file named by CONFIG_FILE, then environment variables (a .env file in
// the working directory is loaded into the environment first). Command-line
// flags are applied on top by the CLI, after which Validate must be called.
package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/golang-sql/civil"

	"github.com/pfrederiksen/fixture-calendar/internal/calendar"
	"github.com/pfrederiksen/fixture-calendar/internal/logger"
	"github.com/pfrederiksen/fixture-calendar/internal/scraper"
)

// ErrInvalidConfig marks configuration that failed validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete run configuration
type Config struct {
	// SourceURL is the fixtures page scanned by the text strategy.
	SourceURL string `koanf:"fixtures_url" validate:"required,url"`

	// APIURL enables the structured strategy when set.
	APIURL   string `koanf:"fixtures_api_url" validate:"omitempty,url"`
	APIToken string `koanf:"fixtures_api_token"`

	Team       string `koanf:"team_name" validate:"required"`
	OutputPath string `koanf:"output_ics" validate:"required"`
	StatePath  string `koanf:"state_file" validate:"required"`

	// DurationHours is the length of timed events, fractions allowed.
	DurationHours float64 `koanf:"event_duration_hours" validate:"gt=0"`

	// AlarmTime is the HH:MM reminder time on the Monday of the match week.
	AlarmTime string `koanf:"alarm_time" validate:"required,clock"`

	TimeZone     string        `koanf:"timezone" validate:"required,timezone"`
	HTTPTimeout  time.Duration `koanf:"http_timeout" validate:"gt=0"`
	UserAgent    string        `koanf:"user_agent"`
	CalendarName string        `koanf:"calendar_name"`

	// HTTPRetries bounds retries of transient fetch failures. The circuit
	// breaker may stop them earlier.
	HTTPRetries   int           `koanf:"http_retries" validate:"gte=0,lte=10"`
	HTTPRetryWait time.Duration `koanf:"http_retry_wait" validate:"gte=0"`

	// DebugDump receives the head of the upstream document when no fixtures are found.
	DebugDump string `koanf:"debug_dump"`
	// MetricsFile receives run metrics in the Prometheus text format.
	MetricsFile string `koanf:"metrics_file"`

	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFile  string `koanf:"log_file"`

	// InputFile replaces the HTTP fetch with a local document. Set by flag only.
	InputFile string `koanf:"-"`
	// Force regenerates the calendar even when nothing changed. Set by flag only.
	Force bool `koanf:"-"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		SourceURL:     scraper.DefaultURL,
		Team:          "KS Wasilków",
		OutputPath:    "betclic3g1_ksw.ics",
		StatePath:     ".state_hash.txt",
		DurationHours: 2,
		AlarmTime:     "09:00",
		TimeZone:      "Europe/Warsaw",
		HTTPTimeout:   scraper.Timeout,
		HTTPRetries:   scraper.DefaultRetries,
		HTTPRetryWait: scraper.DefaultRetryWait,
		UserAgent:     scraper.UserAgent,
		LogLevel:      "info",
	}
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks every field and returns an error marked ErrInvalidConfig
func (c *Config) Validate() error {
	c.Team = strings.TrimSpace(c.Team)
	c.AlarmTime = strings.TrimSpace(c.AlarmTime)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			return errors.Wrapf(ErrInvalidConfig, "invalid fields: %s", strings.Join(fields, ", "))
		}
		return errors.Mark(errors.Wrap(err, "validating configuration"), ErrInvalidConfig)
	}
	return nil
}

// Location loads the configured time zone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "loading time zone %q", c.TimeZone), ErrInvalidConfig)
	}
	return loc, nil
}

// AlarmClock returns AlarmTime as a civil time
func (c *Config) AlarmClock() (civil.Time, error) {
	t, err := time.Parse("15:04", c.AlarmTime)
	if err != nil {
		return civil.Time{}, errors.Mark(errors.Wrapf(err, "parsing alarm time %q", c.AlarmTime), ErrInvalidConfig)
	}
	return civil.TimeOf(t), nil
}

// EventDuration returns the length of timed events
func (c *Config) EventDuration() time.Duration {
	return calendar.DurationFromHours(c.DurationHours)
}

// CalendarTitle returns the calendar display name, defaulting to the team
func (c *Config) CalendarTitle() string {
	if c.CalendarName != "" {
		return c.CalendarName
	}
	return c.Team
}

// LoggerLevel returns the configured log level
func (c *Config) LoggerLevel() logger.Level {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}
