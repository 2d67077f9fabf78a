package appconfig

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 5000
	DefaultDocsPath     = "/docs"
	DefaultMaxBodyBytes = 10 << 20
)

// Config holds all configuration details. A negative MaxBodyBytes disables
// the request body limit.
type Config struct {
	Host         string         `yaml:"host"`
	Port         int            `yaml:"port" validate:"min=1,max=65535"`
	BasePath     string         `yaml:"basePath"`
	DocsPath     string         `yaml:"docsPath"`
	Debug        bool           `yaml:"debug"`
	MaxBodyBytes int64          `yaml:"maxBodyBytes"`
	Server       ServerConfig   `yaml:"server"`
	Recorder     RecorderConfig `yaml:"recorder"`
	Pulsar       PulsarConfig   `yaml:"pulsar"`
	AWS          AWSConfig      `yaml:"aws"`
}

// ServerConfig defines HTTP server timeouts
type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RecorderConfig tunes the background delivery of payloads to remote sinks
type RecorderConfig struct {
	QueueSize int           `yaml:"queueSize" validate:"gte=0"`
	Workers   int           `yaml:"workers" validate:"gte=0"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
}

// PulsarConfig defines the messaging system connection details
type PulsarConfig struct {
	URL   string `yaml:"url"`
	Topic string `yaml:"topic" validate:"required_with=URL"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
}

type AWSConfig struct {
	Region string   `yaml:"region" validate:"required_with=S3.Bucket"`
	S3     S3Config `yaml:"s3"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads and parses the configuration from a given file path.
// The file is rendered as a template over the environment first, so values
// can be written as {{ .PULSAR_URL }}. An empty path yields Default().
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	// Parse the template file
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file template: %w", err)
	}

	// Unset variables render as empty strings
	tmpl.Option("missingkey=zero")

	// Create a map of environment variables
	envVars := loadEnvVars()

	// Execute the template with environment variables
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envVars); err != nil {
		return nil, fmt.Errorf("error executing config file template: %w", err)
	}

	// Load and unmarshal the YAML
	var config Config
	if err := yaml.UnmarshalStrict(buf.Bytes(), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate reads the `validate` tags on the config structs.
var validate = validator.New()

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DocsPath == "" {
		c.DocsPath = DefaultDocsPath
	}
	c.BasePath = strings.TrimSuffix(c.BasePath, "/")
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
}

// loadEnvVars loads environment variables into a map
func loadEnvVars() map[string]string {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) == 2 {
			envVars[kv[0]] = kv[1]
		}
	}
	return envVars
}
