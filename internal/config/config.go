package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/errors"
	"github.com/vango-dev/blueprint/pkg/host"
	"github.com/vango-dev/blueprint/pkg/loader"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "blueprint.json"

	// DefaultPort is the default serve port.
	DefaultPort = 7420

	// DefaultHost is the default serve host.
	DefaultHost = "localhost"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log format.
	DefaultLogFormat = "text"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "blueprint"
)

// Config represents the complete blueprint.json configuration.
type Config struct {
	// Log contains logging configuration.
	Log LogConfig `json:"log"`

	// Serve contains the remote host server configuration.
	Serve ServeConfig `json:"serve"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics"`

	// Spring contains the default spring for animation goals that do
	// not specify one.
	Spring SpringConfig `json:"spring"`

	// Classes is the schema of the in-memory host. When empty, the host
	// accepts any class, property and signal.
	Classes map[string]ClassConfig `json:"classes,omitempty" validate:"dive,keys,required,endkeys"`

	// S3 contains the client configuration for s3:// documents.
	S3 S3Config `json:"s3"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" validate:"oneof=debug info warn error"`

	// Format is text or json.
	Format string `json:"format,omitempty" validate:"oneof=text json"`
}

// ServeConfig contains the remote host server settings.
type ServeConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" validate:"required"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" validate:"min=1,max=65535"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics and records mount metrics.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" validate:"required"`
}

// SpringConfig contains default spring parameters.
type SpringConfig struct {
	Stiffness float64 `json:"stiffness,omitempty" validate:"gte=0"`
	Damping   float64 `json:"damping,omitempty" validate:"gte=0"`
	Mass      float64 `json:"mass,omitempty" validate:"gte=0"`
}

// ClassConfig describes one host class.
type ClassConfig struct {
	// Properties maps property names to kinds: string, number, bool or any.
	Properties map[string]string `json:"properties,omitempty" validate:"dive,keys,required,endkeys,oneof=string number bool any"`

	// Signals lists the signals the class fires.
	Signals []string `json:"signals,omitempty" validate:"dive,required"`
}

// S3Config contains S3 client settings.
type S3Config struct {
	// Region is the AWS region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint for compatible stores.
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`
}

var validate = validator.New()

// New creates a new Config with default values.
func New() *Config {
	spring := animate.DefaultSpring()
	return &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Serve: ServeConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
		},
		Spring: SpringConfig{
			Stiffness: spring.Stiffness,
			Damping:   spring.Damping,
			Mass:      spring.Mass,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for blueprint.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("B071").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass --config")
		}
		return nil, errors.New("B071").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("B071").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("B071").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("B071").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Serve.Host == "" {
		c.Serve.Host = DefaultHost
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.New("B070").Wrap(err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			fields = append(fields, fmt.Sprintf("%s failed %q (%s)", field, fe.Tag(), fe.Param()))
		} else {
			fields = append(fields, fmt.Sprintf("%s failed %q", field, fe.Tag()))
		}
	}
	return errors.New("B070").
		WithKey(strings.TrimPrefix(verrs[0].Namespace(), "Config.")).
		WithDetail(strings.Join(fields, "; ")).
		Wrap(err)
}

// ServeAddress returns the listen address for serve.
func (c *Config) ServeAddress() string {
	return c.Serve.Host + ":" + strconv.Itoa(c.Serve.Port)
}

// Logger builds a slog logger writing to w at the configured level and
// format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// DefaultSpring returns the configured spring. Unset fields fall back to
// animate.DefaultSpring.
func (c *Config) DefaultSpring() animate.Spring {
	def := animate.DefaultSpring()
	s := animate.Spring{Stiffness: c.Spring.Stiffness, Damping: c.Spring.Damping, Mass: c.Spring.Mass}
	if s.Stiffness == 0 {
		s.Stiffness = def.Stiffness
	}
	if s.Damping == 0 {
		s.Damping = def.Damping
	}
	if s.Mass == 0 {
		s.Mass = def.Mass
	}
	return s
}

// HostOptions returns the in-memory host options for the configured class
// schema.
func (c *Config) HostOptions() []host.MemoryOption {
	if len(c.Classes) == 0 {
		return []host.MemoryOption{host.WithAnyClass()}
	}
	opts := make([]host.MemoryOption, 0, len(c.Classes))
	for name, class := range c.Classes {
		schema := host.ClassSchema{
			Properties: make(map[string]host.PropertyKind, len(class.Properties)),
			Signals:    append([]string(nil), class.Signals...),
		}
		for prop, kind := range class.Properties {
			schema.Properties[prop] = host.PropertyKind(kind)
		}
		opts = append(opts, host.WithClass(name, schema))
	}
	return opts
}

// S3Client returns the loader S3 configuration.
func (c *Config) S3Client() loader.S3Config {
	return loader.S3Config{Region: c.S3.Region, Endpoint: c.S3.Endpoint}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// blueprint.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("B071").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest blueprint.json
// at or above the working directory. Without one, it returns the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}
