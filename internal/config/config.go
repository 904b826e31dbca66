package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultPartSize    = 5 * 1024 * 1024
	DefaultMaxAttempts = 3
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Source  SourceConfig  `mapstructure:"source"`
	Storage StorageConfig `mapstructure:"storage"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	LogColor bool   `mapstructure:"log_color"`
}

type SourceConfig struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// MongoDB specific
	AuthDatabase       string   `mapstructure:"auth_database"`
	ExcludeCollections []string `mapstructure:"exclude_collections"`

	// PostgreSQL specific
	SSLMode string `mapstructure:"ssl_mode"`
}

type StorageConfig struct {
	Type string `mapstructure:"type"`

	// AWS S3 and compatible stores
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Endpoint       string `mapstructure:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	Encrypt        bool   `mapstructure:"encrypt"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`

	// Local directory
	Path string `mapstructure:"path"`

	Prefix      string `mapstructure:"prefix"`
	PartSize    int64  `mapstructure:"part_size"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type BackupConfig struct {
	ScratchDir  string `mapstructure:"scratch_dir"`
	Compression string `mapstructure:"compression"`
	PreClean    bool   `mapstructure:"pre_clean"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BotToken  string `mapstructure:"bot_token"`
	ChatID    int64  `mapstructure:"chat_id"`
	OnFailure bool   `mapstructure:"on_failure_only"`
}

// Load reads the YAML file at path. Every key can be overridden from the
// environment, e.g. DUMPSHIP_STORAGE_SECRET_KEY. An empty path uses the
// environment and defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("dumpship")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Source.Database == "" {
		cfg.Source.Database = cfg.Source.Name
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dumpship")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_color", true)
	v.SetDefault("source.type", "mongodb")
	v.SetDefault("source.host", "localhost")
	v.SetDefault("source.port", 27017)
	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.part_size", DefaultPartSize)
	v.SetDefault("storage.max_attempts", DefaultMaxAttempts)
	v.SetDefault("backup.scratch_dir", filepath.Join(os.TempDir(), "dumpship"))
	v.SetDefault("backup.compression", "tar")
	v.SetDefault("backup.pre_clean", true)
}

// AutomaticEnv only resolves keys viper already knows about, so keys without
// a default are bound explicitly.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"app.log_file",
		"source.name", "source.username", "source.password", "source.database",
		"source.auth_database", "source.ssl_mode",
		"storage.bucket", "storage.access_key", "storage.secret_key", "storage.endpoint",
		"storage.force_path_style", "storage.encrypt", "storage.prefix",
		"storage.credentials_file", "storage.folder_id", "storage.path",
		"notify.telegram.enabled", "notify.telegram.bot_token", "notify.telegram.chat_id",
		"notify.telegram.on_failure_only",
	} {
		_ = v.BindEnv(key)
	}
}

func (c *Config) Validate() error {
	if c.Source.Name == "" {
		return fmt.Errorf("source.name is required")
	}
	switch c.Source.Type {
	case "mongodb", "mysql", "postgresql":
	default:
		return fmt.Errorf("source.type %q is not supported", c.Source.Type)
	}
	if c.Source.Host == "" {
		return fmt.Errorf("source.host is required")
	}
	if c.Source.Port <= 0 || c.Source.Port > 65535 {
		return fmt.Errorf("source.port %d is out of range", c.Source.Port)
	}

	switch c.Storage.Type {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for s3")
		}
	case "gdrive":
		if c.Storage.CredentialsFile == "" {
			return fmt.Errorf("storage.credentials_file is required for gdrive")
		}
	case "local":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for local")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported", c.Storage.Type)
	}
	if c.Storage.PartSize < DefaultPartSize {
		return fmt.Errorf("storage.part_size must be at least %d bytes", DefaultPartSize)
	}
	if c.Storage.MaxAttempts < 1 {
		return fmt.Errorf("storage.max_attempts must be at least 1")
	}

	if c.Backup.ScratchDir == "" {
		return fmt.Errorf("backup.scratch_dir is required")
	}
	switch c.Backup.Compression {
	case "tar", "native":
	default:
		return fmt.Errorf("backup.compression %q is not supported", c.Backup.Compression)
	}

	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == 0) {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id")
	}

	return nil
}
