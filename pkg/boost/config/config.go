package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/jamesainslie/boost/pkg/boost/logging"
)

const appName = "boost"

// RotationConfig mirrors logging.RotationConfig with a human-readable size.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// SequencerConfig paces the boost and revert cycles.
type SequencerConfig struct {
	StepDelay       time.Duration `mapstructure:"step_delay"`
	FinalizeDelay   time.Duration `mapstructure:"finalize_delay"`
	RevertStepDelay time.Duration `mapstructure:"revert_step_delay"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
}

type GatewayConfig struct {
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	// Mock forces the simulated gateway on every platform.
	Mock bool `mapstructure:"mock"`
}

type ProfilesConfig struct {
	// EnforceFavoriteCap rejects favoriting beyond QuickLimit instead of
	// only truncating the quick list.
	EnforceFavoriteCap bool `mapstructure:"enforce_favorite_cap"`
	QuickLimit         int  `mapstructure:"quick_limit"`
	SeedDefaults       bool `mapstructure:"seed_defaults"`
}

type ActivityConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
	DisplayLimit  int `mapstructure:"display_limit"`
}

type MetricsConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type DetectConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type LibraryConfig struct {
	Paths   []string `mapstructure:"paths"`
	Exclude []string `mapstructure:"exclude"`
	Depth   int      `mapstructure:"depth"`
}

type DaemonConfig struct {
	AutoStart  bool   `mapstructure:"auto_start"`
	BinaryPath string `mapstructure:"binary_path"` // boostd; discovered when empty
	SocketPath string `mapstructure:"socket_path"`
	PIDPath    string `mapstructure:"pid_path"`
	DataDir    string `mapstructure:"data_dir"`
}

// Config is the full settings tree.
type Config struct {
	Sequencer SequencerConfig `mapstructure:"sequencer"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Profiles  ProfilesConfig  `mapstructure:"profiles"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Detect    DetectConfig    `mapstructure:"detect"`
	Library   LibraryConfig   `mapstructure:"library"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Daemon    DaemonConfig    `mapstructure:"daemon"`
}

// Loader owns a viper instance so the file can be re-read when it changes.
type Loader struct {
	v    *viper.Viper
	home string

	mu      sync.Mutex
	watched bool
}

// NewLoader prepares a loader searching, in order:
//   - $XDG_CONFIG_HOME/boost/config.yaml
//   - $HOME/.config/boost/config.yaml
//
// Environment variables use the BOOST_ prefix, with dots replaced by
// underscores (BOOST_SEQUENCER_STEP_DELAY=0s).
func NewLoader() (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		v.AddConfigPath(filepath.Join(xdgHome, appName))
	}
	v.AddConfigPath(filepath.Join(home, ".config", appName))

	v.SetEnvPrefix("BOOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &Loader{v: v, home: home}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sequencer.step_delay", DefaultStepDelay)
	v.SetDefault("sequencer.finalize_delay", DefaultFinalizeDelay)
	v.SetDefault("sequencer.revert_step_delay", DefaultRevertStepDelay)
	v.SetDefault("sequencer.settle_delay", DefaultSettleDelay)

	v.SetDefault("gateway.step_timeout", DefaultStepTimeout)
	v.SetDefault("gateway.mock", false)

	v.SetDefault("profiles.enforce_favorite_cap", false)
	v.SetDefault("profiles.quick_limit", DefaultQuickLimit)
	v.SetDefault("profiles.seed_defaults", true)

	v.SetDefault("activity.retention_days", DefaultRetentionDays)
	v.SetDefault("activity.display_limit", DefaultDisplayLimit)

	v.SetDefault("metrics.poll_interval", DefaultMetricsInterval)

	v.SetDefault("detect.enabled", false)
	v.SetDefault("detect.interval", DefaultDetectInterval)

	v.SetDefault("library.paths", []string{})
	v.SetDefault("library.exclude", DefaultLibraryExclude)
	v.SetDefault("library.depth", DefaultScanDepth)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 14)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"daemon":    "info",
		"sequencer": "info",
		"gateway":   "info",
		"activity":  "info",
	})

	v.SetDefault("daemon.auto_start", true)
	v.SetDefault("daemon.binary_path", "")
	v.SetDefault("daemon.socket_path", "")
	v.SetDefault("daemon.pid_path", "")
	v.SetDefault("daemon.data_dir", "")
}

// Load reads the config file (a missing file is fine) and decodes it.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for i, p := range cfg.Library.Paths {
		cfg.Library.Paths[i] = expand(l.home, p)
	}
	cfg.Daemon.DataDir = expand(l.home, cfg.Daemon.DataDir)
	cfg.Logging.Path = expand(l.home, cfg.Logging.Path)

	if cfg.Profiles.QuickLimit <= 0 {
		cfg.Profiles.QuickLimit = DefaultQuickLimit
	}
	return &cfg, nil
}

// SetFile reads path instead of searching the config directories.
func (l *Loader) SetFile(path string) {
	l.v.SetConfigFile(path)
}

// File reports the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Settings returns the merged settings of defaults, file and environment
// keyed by their config file names.
func (l *Loader) Settings() map[string]any {
	return l.v.AllSettings()
}

// Watch re-decodes the config whenever the file changes and hands the
// result to fn. It is a no-op when no file was found or Watch was already
// called.
func (l *Loader) Watch(fn func(*Config, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watched || l.v.ConfigFileUsed() == "" {
		return
	}
	l.watched = true

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(l.decode())
	})
	l.v.WatchConfig()
}

// Load is NewLoader followed by Loader.Load.
func Load() (*Config, error) {
	l, err := NewLoader()
	if err != nil {
		return nil, err
	}
	return l.Load()
}

// LogConfig converts the logging section for logging.Init.
func (c LoggingConfig) LogConfig() (logging.Config, error) {
	rot := logging.DefaultRotationConfig()
	if c.Rotation.MaxSize != "" {
		size, err := humanize.ParseBytes(c.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("logging.rotation.max_size: %w", err)
		}
		rot.MaxSize = int64(size)
	}
	rot.MaxAge = c.Rotation.MaxAge
	rot.MaxBackups = c.Rotation.MaxBackups
	rot.Daily = c.Rotation.Daily

	return logging.Config{
		Level:      c.Level,
		Path:       c.Path,
		Rotation:   rot,
		Components: c.Components,
	}, nil
}

func expand(home, p string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return expand(home, p), nil
}

// ConfigDir is the directory config.yaml lives in.
func ConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath is ConfigDir()/config.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir holds the database, socket and pid file.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir holds log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

func DefaultSocketPath() string { return filepath.Join(DataDir(), "boostd.sock") }
func DefaultPIDPath() string    { return filepath.Join(DataDir(), "boostd.pid") }
func DefaultDBPath() string     { return filepath.Join(DataDir(), "boost.db") }

// DefaultBinaryPath looks for boostd where `go install` puts it: GOBIN,
// then GOPATH/bin, then ~/go/bin. It returns "" when none has it.
func DefaultBinaryPath() string {
	var dirs []string
	if gobin := os.Getenv("GOBIN"); gobin != "" {
		dirs = append(dirs, gobin)
	}
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		for _, p := range filepath.SplitList(gopath) {
			dirs = append(dirs, filepath.Join(p, "bin"))
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "go", "bin"))
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, "boostd")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// EnsureDataDir creates DataDir if missing.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// WriteDefault writes a commented config.yaml unless one already exists.
// It returns the path either way.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

func defaultTemplate() string {
	return fmt.Sprintf(`# boost configuration

# Pacing of the boost/revert cycle
sequencer:
  step_delay: %s
  finalize_delay: %s
  revert_step_delay: %s
  settle_delay: %s

gateway:
  # Upper bound for a single system command
  step_timeout: %s
  # Simulate every system call, even on Windows
  mock: false

profiles:
  # Refuse to favorite more than quick_limit profiles
  enforce_favorite_cap: false
  quick_limit: %d
  # Create the example profiles on first start
  seed_defaults: true

activity:
  retention_days: %d
  display_limit: %d

metrics:
  poll_interval: %s

# Apply a profile automatically when its game starts (daemon only)
detect:
  enabled: false
  interval: %s

# Directories searched by 'boost library scan'
library:
  paths: []
  depth: %d

logging:
  # debug, info, warn, error
  level: info
  # empty means $XDG_STATE_HOME/boost/boost.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 14
    max_backups: 5
    daily: true
  components:
    daemon: info
    sequencer: info
    gateway: info
    activity: info

daemon:
  auto_start: true
  # empty values resolve under $XDG_DATA_HOME/boost
  socket_path: ""
  pid_path: ""
  data_dir: ""
`,
		DefaultStepDelay, DefaultFinalizeDelay, DefaultRevertStepDelay, DefaultSettleDelay,
		DefaultStepTimeout, DefaultQuickLimit, DefaultRetentionDays, DefaultDisplayLimit,
		DefaultMetricsInterval, DefaultDetectInterval, DefaultScanDepth)
}
