package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Database struct {
	Driver string // sqlite | postgres
	DSN    string
	Debug  bool
}

type Mail struct {
	SendgridAPIKey string
	From           string
	FromName       string
}

type Redis struct {
	Addr     string
	Password string
}

type Config struct {
	Env           string
	Addr          string
	Debug         bool
	PublicBaseURL string
	DisplayTZ     string

	SessionSecret string
	SessionTTL    time.Duration

	Database Database
	Mail     Mail
	Redis    Redis

	RollbarToken string
	Build        string

	RegisterRateLimit  int
	RegisterRateWindow time.Duration

	ReminderInterval time.Duration // 0 disables dues reminders
	ReminderGap      time.Duration
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("addr", ":8080")
	v.SetDefault("debug", false)
	v.SetDefault("public_base_url", "http://localhost:8080")
	v.SetDefault("display_tz", "Asia/Kolkata")
	v.SetDefault("session_secret", "dev-session-secret-change-me")
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "tuition.db")
	v.SetDefault("database.debug", false)
	v.SetDefault("mail.from", "noreply@localhost")
	v.SetDefault("mail.from_name", "Tuition Desk")
	v.SetDefault("register_rate_limit", 20)
	v.SetDefault("register_rate_window", time.Hour)
	v.SetDefault("reminder_interval", time.Duration(0))
	v.SetDefault("reminder_gap", 7*24*time.Hour)
	v.SetDefault("build", "dev")

	// viper only resolves env for keys it knows about
	for _, k := range []string{"sendgrid_api_key", "rollbar_token", "redis.addr", "redis.password"} {
		v.SetDefault(k, "")
	}
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the environment, after loading
// config/.env.<env> from the working directory when that file exists.
// ENV selects the environment: DEV (default), TEST, PROD.
func Load() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "config.os.Stat(%s)", dotEnvPath)
	}

	v := newViper()
	cfg := &Config{
		Env:           env,
		Addr:          v.GetString("addr"),
		Debug:         v.GetBool("debug"),
		PublicBaseURL: strings.TrimRight(v.GetString("public_base_url"), "/"),
		DisplayTZ:     v.GetString("display_tz"),
		SessionSecret: v.GetString("session_secret"),
		SessionTTL:    v.GetDuration("session_ttl"),
		Database: Database{
			Driver: strings.ToLower(v.GetString("database.driver")),
			DSN:    v.GetString("database.dsn"),
			Debug:  v.GetBool("database.debug"),
		},
		Mail: Mail{
			SendgridAPIKey: v.GetString("sendgrid_api_key"),
			From:           v.GetString("mail.from"),
			FromName:       v.GetString("mail.from_name"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
		},
		RollbarToken:       v.GetString("rollbar_token"),
		Build:              v.GetString("build"),
		RegisterRateLimit:  v.GetInt("register_rate_limit"),
		RegisterRateWindow: v.GetDuration("register_rate_window"),
		ReminderInterval:   v.GetDuration("reminder_interval"),
		ReminderGap:        v.GetDuration("reminder_gap"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("config: unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Env == "PROD" && c.SessionSecret == "dev-session-secret-change-me" {
		return errors.New("config: SESSION_SECRET must be set in PROD")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.ReminderInterval > 0 && c.ReminderGap <= 0 {
		return errors.New("config: REMINDER_GAP must be positive when reminders are on")
	}
	return nil
}

// Location is the time zone used for dates shown to people.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTZ)
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}
