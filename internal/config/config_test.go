package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-sql/civil"
	"github.com/smartystreets/goconvey/convey"

	"github.com/pfrederiksen/fixture-calendar/internal/config"
	"github.com/pfrederiksen/fixture-calendar/internal/logger"
	"github.com/pfrederiksen/fixture-calendar/internal/scraper"
)

var envKeys = []string{
	"CONFIG_FILE",
	"FIXTURES_URL", "FIXTURES_API_URL", "FIXTURES_API_TOKEN",
	"TEAM_NAME", "OUTPUT_ICS", "STATE_FILE", "EVENT_DURATION_HOURS",
	"ALARM_TIME", "TIMEZONE", "HTTP_TIMEOUT", "HTTP_RETRIES", "HTTP_RETRY_WAIT", "USER_AGENT",
	"CALENDAR_NAME", "DEBUG_DUMP", "METRICS_FILE", "LOG_LEVEL", "LOG_FILE",
}

func clearConfigEnvVars() {
	for _, k := range envKeys {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then it should load the built-in defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.SourceURL, convey.ShouldEqual, scraper.DefaultURL)
				convey.So(cfg.APIURL, convey.ShouldBeEmpty)
				convey.So(cfg.Team, convey.ShouldEqual, "KS Wasilków")
				convey.So(cfg.OutputPath, convey.ShouldEqual, "betclic3g1_ksw.ics")
				convey.So(cfg.StatePath, convey.ShouldEqual, ".state_hash.txt")
				convey.So(cfg.DurationHours, convey.ShouldEqual, 2.0)
				convey.So(cfg.AlarmTime, convey.ShouldEqual, "09:00")
				convey.So(cfg.TimeZone, convey.ShouldEqual, "Europe/Warsaw")
				convey.So(cfg.HTTPTimeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.HTTPRetries, convey.ShouldEqual, scraper.DefaultRetries)
				convey.So(cfg.HTTPRetryWait, convey.ShouldEqual, scraper.DefaultRetryWait)
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TEAM_NAME", "Orzeł Białystok")
			_ = os.Setenv("EVENT_DURATION_HOURS", "1.5")
			_ = os.Setenv("ALARM_TIME", "07:30")
			_ = os.Setenv("HTTP_TIMEOUT", "45s")
			_ = os.Setenv("HTTP_RETRIES", "2")
			_ = os.Setenv("HTTP_RETRY_WAIT", "250ms")
			_ = os.Setenv("FIXTURES_API_URL", "https://example.com/api/matches")
			_ = os.Setenv("OUTPUT_ICS", "")

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Team, convey.ShouldEqual, "Orzeł Białystok")
				convey.So(cfg.DurationHours, convey.ShouldEqual, 1.5)
				convey.So(cfg.EventDuration(), convey.ShouldEqual, 90*time.Minute)
				convey.So(cfg.AlarmTime, convey.ShouldEqual, "07:30")
				convey.So(cfg.HTTPTimeout, convey.ShouldEqual, 45*time.Second)
				convey.So(cfg.HTTPRetries, convey.ShouldEqual, 2)
				convey.So(cfg.HTTPRetryWait, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.APIURL, convey.ShouldEqual, "https://example.com/api/matches")
			})

			convey.Convey("Then blank variables keep the default", func() {
				convey.So(cfg.OutputPath, convey.ShouldEqual, "betclic3g1_ksw.ics")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			yamlContent := `
team_name: "Legia II Warszawa"
output_ics: "legia.ics"
event_duration_hours: 3
timezone: "UTC"
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0644), convey.ShouldBeNil)
			_ = os.Setenv("CONFIG_FILE", path)

			convey.Convey("Then it should load from the file", func() {
				cfg, err := config.Load()
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Team, convey.ShouldEqual, "Legia II Warszawa")
				convey.So(cfg.OutputPath, convey.ShouldEqual, "legia.ics")
				convey.So(cfg.DurationHours, convey.ShouldEqual, 3.0)
				convey.So(cfg.TimeZone, convey.ShouldEqual, "UTC")
			})

			convey.Convey("Then env vars should take precedence over the file", func() {
				_ = os.Setenv("TEAM_NAME", "Wigry Suwałki")
				cfg, err := config.Load()
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Team, convey.ShouldEqual, "Wigry Suwałki")
				convey.So(cfg.OutputPath, convey.ShouldEqual, "legia.ics")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load()

			convey.Convey("Then it should fail as invalid configuration", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.Default()

		convey.Convey("It should be valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		cases := []struct {
			name   string
			mutate func(c *config.Config)
		}{
			{"an empty team", func(c *config.Config) { c.Team = "  " }},
			{"a malformed alarm time", func(c *config.Config) { c.AlarmTime = "9am" }},
			{"an out of range alarm", func(c *config.Config) { c.AlarmTime = "24:00" }},
			{"an unknown time zone", func(c *config.Config) { c.TimeZone = "Mars/Olympus" }},
			{"a zero duration", func(c *config.Config) { c.DurationHours = 0 }},
			{"a relative source URL", func(c *config.Config) { c.SourceURL = "rozgrywki" }},
			{"a bad API URL", func(c *config.Config) { c.APIURL = "not a url" }},
			{"an unknown log level", func(c *config.Config) { c.LogLevel = "verbose" }},
			{"a zero timeout", func(c *config.Config) { c.HTTPTimeout = 0 }},
			{"negative retries", func(c *config.Config) { c.HTTPRetries = -1 }},
			{"too many retries", func(c *config.Config) { c.HTTPRetries = 11 }},
		}

		for _, tc := range cases {
			convey.Convey("It should reject "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

func TestConfigAccessors(t *testing.T) {
	convey.Convey("Given a validated config", t, func() {
		cfg := config.Default()
		cfg.AlarmTime = "07:45"
		cfg.LogLevel = "WARN"
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("The alarm clock is parsed", func() {
			clock, err := cfg.AlarmClock()
			convey.So(err, convey.ShouldBeNil)
			convey.So(clock, convey.ShouldResemble, civil.Time{Hour: 7, Minute: 45})
		})

		convey.Convey("The time zone is loaded", func() {
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc.String(), convey.ShouldEqual, "Europe/Warsaw")
		})

		convey.Convey("The log level is normalized", func() {
			convey.So(cfg.LoggerLevel(), convey.ShouldEqual, logger.LevelWarn)
		})

		convey.Convey("The calendar title falls back to the team", func() {
			convey.So(cfg.CalendarTitle(), convey.ShouldEqual, "KS Wasilków")
			cfg.CalendarName = "Mecze KSW"
			convey.So(cfg.CalendarTitle(), convey.ShouldEqual, "Mecze KSW")
		})
	})
}
