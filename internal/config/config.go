package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

var mu sync.RWMutex

// Config struct is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Play       PlayConfig       `mapstructure:"play"`
	Report     ReportConfig     `mapstructure:"report"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	SessionSecret string        `mapstructure:"session_secret"`
	SecureCookies bool          `mapstructure:"secure_cookies"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	RateLimit     uint          `mapstructure:"rate_limit"` // session creations per client per minute
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// AssessmentConfig points at the questionnaire. An empty path uses the
// built-in questions.
type AssessmentConfig struct {
	QuestionsPath string `mapstructure:"questions_path"`
}

// PlayConfig tunes the terminal player.
type PlayConfig struct {
	AnalysisDelay time.Duration `mapstructure:"analysis_delay"`
	AreaWidth     float64       `mapstructure:"area_width"`
	AreaHeight    float64       `mapstructure:"area_height"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.session_ttl", "30m")
	v.SetDefault("server.sweep_interval", "1m")
	v.SetDefault("server.rate_limit", 5)

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "debug")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
	v.SetDefault("logging.console", true)

	v.SetDefault("assessment.questions_path", "")

	// Play defaults
	v.SetDefault("play.analysis_delay", "1500ms")
	v.SetDefault("play.area_width", 640)
	v.SetDefault("play.area_height", 360)

	v.SetDefault("report.output_dir", "reports")
}

// Load reads the configuration without installing it globally or watching
// for changes.
func Load(projectRoot string) (*Config, *viper.Viper, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config")) // Search for config file in the config directory
	v.SetConfigName("config")                             // Name of config file (without extension)
	v.SetConfigType("yaml")                               // Type of config file

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("NEUROSCREEN") // e.g., NEUROSCREEN_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := conf.validate(); err != nil {
		return nil, nil, err
	}
	return &conf, v, nil
}

// Watch installs conf as the global configuration and replaces it whenever
// the file v was read from changes. Reloads that fail to decode or validate
// are logged and the previous configuration stays in place.
func Watch(conf *Config, v *viper.Viper, log *zap.Logger) {
	set(conf)
	if v.ConfigFileUsed() == "" {
		log.Info("No configuration file found; hot reload disabled")
		return
	}

	// Set up a watch for configuration changes for hot-reloading
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		var next Config
		if err := v.Unmarshal(&next); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		if err := next.validate(); err != nil {
			log.Error("Rejected reloaded configuration", zap.Error(err))
			return
		}
		set(&next)
	})
	v.WatchConfig()

	log.Info("Watching configuration", zap.String("file", v.ConfigFileUsed()))
}

// Get returns the current configuration snapshot.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return Conf
}

func set(c *Config) {
	mu.Lock()
	Conf = c
	mu.Unlock()
}

func (c *Config) validate() error {
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.session_ttl must be positive, got %s", c.Server.SessionTTL)
	}
	if c.Server.SweepInterval <= 0 {
		return fmt.Errorf("server.sweep_interval must be positive, got %s", c.Server.SweepInterval)
	}
	if c.Play.AreaWidth <= 0 || c.Play.AreaHeight <= 0 {
		return fmt.Errorf("play area must be positive, got %gx%g", c.Play.AreaWidth, c.Play.AreaHeight)
	}
	return nil
}
