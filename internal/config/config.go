package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/gymslot/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Booking  BookingConfig  `koanf:"booking"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Store    StoreConfig    `koanf:"store"`
	History  HistoryConfig  `koanf:"history"`
	Adapters AdaptersConfig `koanf:"adapters"`
	Daemon   DaemonConfig   `koanf:"daemon"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	LogFile         string `koanf:"log_file"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

type BookingConfig struct {
	BaseURL       string `koanf:"base_url"`
	LoginPath     string `koanf:"login_path"`
	BookPath      string `koanf:"book_path"`
	FacilityID    string `koanf:"facility_id"`
	SubFacilityID string `koanf:"sub_facility_id"`
	Username      string `koanf:"username"`
	Password      string `koanf:"password"`
	LoginTimeout  string `koanf:"login_timeout"`
	BookTimeout   string `koanf:"book_timeout"`
	SessionTTL    string `koanf:"session_ttl"`
}

type ScheduleConfig struct {
	Collect  string `koanf:"collect"`
	Execute  string `koanf:"execute"`
	Timezone string `koanf:"timezone"`
}

type StoreConfig struct {
	StateDir    string `koanf:"state_dir"`
	LockTimeout string `koanf:"lock_timeout"`
	LockRetry   string `koanf:"lock_retry"`
}

type HistoryConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type AdaptersConfig struct {
	Channel  string         `koanf:"channel"`
	Slack    SlackConfig    `koanf:"slack"`
	Telegram TelegramConfig `koanf:"telegram"`
}

type SlackConfig struct {
	Port          int    `koanf:"port"`
	SigningSecret string `koanf:"signing_secret"`
	BotToken      string `koanf:"bot_token"`
	ChannelID     string `koanf:"channel_id"`
}

type TelegramConfig struct {
	BotToken      string `koanf:"bot_token"`
	ChatID        int64  `koanf:"chat_id"`
	UpdateTimeout int    `koanf:"update_timeout"`
	APIEndpoint   string `koanf:"api_endpoint"`
}

type DaemonConfig struct {
	ShutdownTimeout        string `koanf:"shutdown_timeout"`
	HealthCheckInterval    string `koanf:"health_check_interval"`
	StartupShutdownTimeout string `koanf:"startup_shutdown_timeout"`
	StaleLockTTL           string `koanf:"stale_lock_ttl"`
}

const (
	AppName = "gymslot"

	ChannelTelegram = "telegram"
	ChannelSlack    = "slack"
	ChannelConsole  = "console"
	ChannelNone     = "none"

	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"
	HistoryNone     = "none"

	DefaultServerPort            = 8088
	DefaultServerLogLevel        = "info"
	DefaultServerReadTimeout     = "10s"
	DefaultServerWriteTimeout    = "10s"
	DefaultServerIdleTimeout     = "60s"
	DefaultServerShutdownTimeout = "5s"
	DefaultBookingLoginPath      = "/api/auth/login"
	DefaultBookingBookPath       = "/api/bookings"
	DefaultBookingLoginTimeout   = "8s"
	DefaultBookingBookTimeout    = "5s"
	DefaultBookingSessionTTL     = "1h"
	DefaultScheduleCollect       = "0 12 * * *"
	DefaultScheduleExecute       = "0 22 * * *"
	DefaultScheduleTimezone      = "Local"
	DefaultStoreLockTimeout      = "5s"
	DefaultStoreLockRetry        = "50ms"
	DefaultHistoryDriver         = HistorySQLite
	DefaultAdaptersChannel       = ChannelTelegram
	DefaultSlackPort             = 3000
	DefaultTelegramUpdateTimeout = 60
	DefaultTelegramAPIEndpoint   = "https://api.telegram.org/bot%s/%s"
	DefaultDaemonShutdownTimeout = "30s"
	DefaultDaemonHealthInterval  = "30s"
	DefaultDaemonStartupShutdown = "10s"
	DefaultDaemonStaleLockTTL    = "15m"
	DefaultConfigDirName         = ".gymslot"
	DefaultConfigFileName        = "config.yaml"
	DefaultChoiceFileName        = "choice.json"
	DefaultHistoryFileName       = "history.db"
	DefaultStateDirName          = "state"
	EnvPrefix                    = "GYMSLOT_"
)

// DefaultDir returns ~/.gymslot, falling back to a relative directory when HOME is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigDirName
	}
	return filepath.Join(home, DefaultConfigDirName)
}

func Defaults() map[string]interface{} {
	base := DefaultDir()
	return map[string]interface{}{
		"server.port":                      DefaultServerPort,
		"server.log_level":                 DefaultServerLogLevel,
		"server.log_file":                  "",
		"server.read_timeout":              DefaultServerReadTimeout,
		"server.write_timeout":             DefaultServerWriteTimeout,
		"server.idle_timeout":              DefaultServerIdleTimeout,
		"server.shutdown_timeout":          DefaultServerShutdownTimeout,
		"booking.login_path":               DefaultBookingLoginPath,
		"booking.book_path":                DefaultBookingBookPath,
		"booking.login_timeout":            DefaultBookingLoginTimeout,
		"booking.book_timeout":             DefaultBookingBookTimeout,
		"booking.session_ttl":              DefaultBookingSessionTTL,
		"schedule.collect":                 DefaultScheduleCollect,
		"schedule.execute":                 DefaultScheduleExecute,
		"schedule.timezone":                DefaultScheduleTimezone,
		"store.state_dir":                  filepath.Join(base, DefaultStateDirName),
		"store.lock_timeout":               DefaultStoreLockTimeout,
		"store.lock_retry":                 DefaultStoreLockRetry,
		"history.driver":                   DefaultHistoryDriver,
		"history.dsn":                      filepath.Join(base, DefaultHistoryFileName),
		"adapters.channel":                 DefaultAdaptersChannel,
		"adapters.slack.port":              DefaultSlackPort,
		"adapters.telegram.update_timeout": DefaultTelegramUpdateTimeout,
		"adapters.telegram.api_endpoint":   DefaultTelegramAPIEndpoint,
		"daemon.shutdown_timeout":          DefaultDaemonShutdownTimeout,
		"daemon.health_check_interval":     DefaultDaemonHealthInterval,
		"daemon.startup_shutdown_timeout":  DefaultDaemonStartupShutdown,
		"daemon.stale_lock_ttl":            DefaultDaemonStaleLockTTL,
	}
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		expanded, err := pathutil.Expand(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(expanded), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		globalPath := filepath.Join(DefaultDir(), DefaultConfigFileName)
		if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
			slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
		}
	}

	// GYMSLOT_BOOKING_BASE_URL -> booking.base_url: the first underscore splits
	// section from key, the rest stay as part of the key name.
	k.Load(env.Provider(EnvPrefix, ".", envKey), nil)

	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	cfg.Adapters.Channel = strings.ToLower(strings.TrimSpace(cfg.Adapters.Channel))
	cfg.History.Driver = strings.ToLower(strings.TrimSpace(cfg.History.Driver))

	return &cfg, nil
}

func envKey(s string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, found := strings.Cut(trimmed, "_")
	if !found {
		return trimmed
	}
	if section == "adapters" {
		// adapters_telegram_bot_token -> adapters.telegram.bot_token
		if sub, key, ok := strings.Cut(rest, "_"); ok && (sub == ChannelTelegram || sub == ChannelSlack) {
			return section + "." + sub + "." + key
		}
	}
	return section + "." + rest
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	stateDir, err := expandConfiguredPath(cfg.Store.StateDir)
	if err != nil {
		return err
	}
	if stateDir != "" {
		cfg.Store.StateDir = stateDir
	}

	logFile, err := expandConfiguredPath(cfg.Server.LogFile)
	if err != nil {
		return err
	}
	if logFile != "" {
		cfg.Server.LogFile = logFile
	}

	if cfg.History.Driver == "" || strings.EqualFold(cfg.History.Driver, HistorySQLite) {
		dsn, err := expandConfiguredPath(cfg.History.DSN)
		if err != nil {
			return err
		}
		if dsn != "" {
			cfg.History.DSN = dsn
		}
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}
