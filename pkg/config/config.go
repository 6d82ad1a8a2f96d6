package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/walletlink/walletlink-go/pkg/log"
	"github.com/walletlink/walletlink-go/pkg/schema"
	"github.com/walletlink/walletlink-go/pkg/usb"
	"github.com/walletlink/walletlink-go/pkg/watch"
)

// Environment variable names.
const (
	EnvDescriptorSet = "WALLETLINK_SCHEMA_DESCRIPTOR_SET"
	EnvMaxIterations = "WALLETLINK_LISTEN_MAX_ITERATIONS"
	EnvDelay         = "WALLETLINK_LISTEN_DELAY"
	EnvSysfsRoot     = "WALLETLINK_USB_SYSFS_ROOT"
	EnvLogLevel      = "WALLETLINK_LOG_LEVEL"
	EnvLogFormat     = "WALLETLINK_LOG_FORMAT"
	EnvProtocolLog   = "WALLETLINK_PROTOCOL_LOG"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the root configuration structure.
type Config struct {
	Schema      SchemaConfig      `yaml:"schema"`
	Listen      ListenConfig      `yaml:"listen"`
	USB         USBConfig         `yaml:"usb"`
	Logging     LoggingConfig     `yaml:"logging"`
	ProtocolLog ProtocolLogConfig `yaml:"protocol_log"`
}

// SchemaConfig locates the message schema.
type SchemaConfig struct {
	// DescriptorSet is a serialized FileDescriptorSet (protoc --descriptor_set_out).
	DescriptorSet string `yaml:"descriptor_set"`

	// MessageTypeEnum is the full name of the enum mapping type ids to messages.
	MessageTypeEnum string `yaml:"message_type_enum"`
}

// ListenConfig contains device watcher settings.
type ListenConfig struct {
	MaxIterations int           `yaml:"max_iterations"`
	Delay         time.Duration `yaml:"delay"`
}

// USBConfig contains device enumeration settings.
type USBConfig struct {
	SysfsRoot string   `yaml:"sysfs_root"`
	IDs       []string `yaml:"ids"`
	MatchAll  bool     `yaml:"match_all"`
}

// LoggingConfig contains operational logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ProtocolLogConfig controls the CBOR event log.
type ProtocolLogConfig struct {
	// Path of the log file. Empty disables the file logger.
	Path string `yaml:"path"`

	// CapturePayload stores decoded message values in the log.
	CapturePayload bool `yaml:"capture_payload"`

	// Slog mirrors protocol events into the operational logger.
	Slog bool `yaml:"slog"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Schema: SchemaConfig{
			MessageTypeEnum: schema.DefaultMessageTypeEnum,
		},
		Listen: ListenConfig{
			MaxIterations: watch.DefaultMaxIterations,
			Delay:         watch.DefaultDelay,
		},
		USB: USBConfig{
			SysfsRoot: usb.DefaultSysfsRoot,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration. An empty path skips the file and uses defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvDescriptorSet); v != "" {
		cfg.Schema.DescriptorSet = v
	}
	if v := os.Getenv(EnvMaxIterations); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxIterations, err)
		}
		cfg.Listen.MaxIterations = n
	}
	if v := os.Getenv(EnvDelay); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDelay, err)
		}
		cfg.Listen.Delay = d
	}
	if v := os.Getenv(EnvSysfsRoot); v != "" {
		cfg.USB.SysfsRoot = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvProtocolLog); v != "" {
		cfg.ProtocolLog.Path = v
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.Schema.MessageTypeEnum == "" {
		errs = append(errs, errors.New("schema.message_type_enum is required"))
	}
	if c.Listen.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("listen.max_iterations must be >= 0, got %d", c.Listen.MaxIterations))
	}
	if c.Listen.Delay < 0 {
		errs = append(errs, fmt.Errorf("listen.delay must be >= 0, got %s", c.Listen.Delay))
	}
	if _, err := c.USBIDs(); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not text or json", c.Logging.Format))
	}
	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr":
	default:
		errs = append(errs, fmt.Errorf("logging.output %q is not stdout or stderr", c.Logging.Output))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// USBIDs parses the configured vendor/product filters.
func (c *Config) USBIDs() ([]usb.ID, error) {
	ids := make([]usb.ID, 0, len(c.USB.IDs))
	for _, s := range c.USB.IDs {
		id, err := usb.ParseID(s)
		if err != nil {
			return nil, fmt.Errorf("usb.ids: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// WatchConfig returns watcher settings reporting to logger.
func (c *Config) WatchConfig(logger log.Logger) watch.Config {
	return watch.Config{
		MaxIterations: c.Listen.MaxIterations,
		Delay:         c.Listen.Delay,
		Logger:        logger,
	}
}

// SysfsConfig returns enumerator settings. Call after Validate.
func (c *Config) SysfsConfig(logger *slog.Logger) usb.SysfsConfig {
	ids, _ := c.USBIDs()
	return usb.SysfsConfig{
		Root:     c.USB.SysfsRoot,
		IDs:      ids,
		MatchAll: c.USB.MatchAll,
		Logger:   logger,
	}
}
