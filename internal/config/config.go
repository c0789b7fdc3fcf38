// SPDX-FileCopyrightText: 2026 specforge
// SPDX-License-Identifier: FSL-1.1-MIT

// Package config provides configuration loading and validation for specforge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SPECFORGE_SERVER_ADDR.
const EnvPrefix = "SPECFORGE"

// Config represents the specforge configuration.
type Config struct {
	// Output is the archive path written by the generate command
	Output string `mapstructure:"output" yaml:"output" json:"output"`

	// Info is used when a document is assembled from endpoint definitions
	Info InfoConfig `mapstructure:"info" yaml:"info" json:"info"`

	// Models contains model definition discovery configuration
	Models ModelsConfig `mapstructure:"models" yaml:"models" json:"models"`

	// Generation contains generation behavior configuration
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation" json:"generation"`

	// Archive contains packaging configuration
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive" json:"archive"`

	// Staging contains staging directory configuration
	Staging StagingConfig `mapstructure:"staging" yaml:"staging" json:"staging"`

	// Codegen configures the live code generation flow
	Codegen CodegenConfig `mapstructure:"codegen" yaml:"codegen" json:"codegen"`

	// Server contains HTTP server configuration
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Watch contains file watching configuration
	Watch WatchConfig `mapstructure:"watch" yaml:"watch" json:"watch"`

	// Log contains logging configuration
	Log LogConfig `mapstructure:"log" yaml:"log" json:"log"`
}

// InfoConfig contains API metadata.
type InfoConfig struct {
	// Title is the API title
	Title string `mapstructure:"title" yaml:"title" json:"title"`

	// Description is the API description
	Description string `mapstructure:"description" yaml:"description" json:"description"`

	// Version is the API version
	Version string `mapstructure:"version" yaml:"version" json:"version"`
}

// ModelsConfig contains model definition discovery configuration.
type ModelsConfig struct {
	// Paths is a list of directories to scan
	Paths []string `mapstructure:"paths" yaml:"paths" json:"paths"`

	// Include is a list of glob patterns to include
	Include []string `mapstructure:"include" yaml:"include" json:"include"`

	// Exclude is a list of glob patterns to exclude
	Exclude []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
}

// GenerationConfig contains generation behavior configuration.
type GenerationConfig struct {
	// Collisions is the output filename collision policy (overwrite, error)
	Collisions string `mapstructure:"collisions" yaml:"collisions" json:"collisions"`

	// PropertyRequired also marks required properties with required: true
	PropertyRequired bool `mapstructure:"propertyRequired" yaml:"propertyRequired" json:"propertyRequired"`

	// IncludeModelComponents merges mapped models into components.schemas
	IncludeModelComponents bool `mapstructure:"includeModelComponents" yaml:"includeModelComponents" json:"includeModelComponents"`

	// MergeStrategy resolves model/document component conflicts (keep-existing, overwrite)
	MergeStrategy string `mapstructure:"mergeStrategy" yaml:"mergeStrategy" json:"mergeStrategy"`

	// BundleFile is the name of the consolidated model definitions file
	BundleFile string `mapstructure:"bundleFile" yaml:"bundleFile" json:"bundleFile"`

	// MetadataFile is the name of the info file
	MetadataFile string `mapstructure:"metadataFile" yaml:"metadataFile" json:"metadataFile"`

	// PathsDir holds the endpoint files
	PathsDir string `mapstructure:"pathsDir" yaml:"pathsDir" json:"pathsDir"`

	// ComponentsDir holds the component files
	ComponentsDir string `mapstructure:"componentsDir" yaml:"componentsDir" json:"componentsDir"`
}

// ArchiveConfig contains packaging configuration.
type ArchiveConfig struct {
	// Level is the deflate level (1-9)
	Level int `mapstructure:"level" yaml:"level" json:"level"`

	// PreserveModTime keeps file modification times in the archive
	PreserveModTime bool `mapstructure:"preserveModTime" yaml:"preserveModTime" json:"preserveModTime"`

	// Exclude is a list of glob patterns left out of the archive
	Exclude []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
}

// StagingConfig contains staging directory configuration.
type StagingConfig struct {
	// Root is where request-scoped staging directories are created
	// (default: system temporary directory)
	Root string `mapstructure:"root" yaml:"root" json:"root"`
}

// CodegenConfig configures the live code generation flow.
type CodegenConfig struct {
	// Name is the generated package name
	Name string `mapstructure:"name" yaml:"name" json:"name"`

	// Endpoint is the route of the generated app
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Method is the HTTP method of the generated route
	Method string `mapstructure:"method" yaml:"method" json:"method"`

	// Port is the port the generated app listens on
	Port int `mapstructure:"port" yaml:"port" json:"port"`

	// Delay is the pause between streamed stages in milliseconds (demo only)
	Delay int `mapstructure:"delay" yaml:"delay" json:"delay"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Addr is the listen address
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`

	// AllowedOrigins is returned in Access-Control-Allow-Origin
	AllowedOrigins []string `mapstructure:"allowedOrigins" yaml:"allowedOrigins" json:"allowedOrigins"`

	// MaxBodyBytes limits request bodies
	MaxBodyBytes int64 `mapstructure:"maxBodyBytes" yaml:"maxBodyBytes" json:"maxBodyBytes"`

	// ShutdownTimeout is the graceful shutdown timeout in seconds
	ShutdownTimeout int `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// WatchConfig contains file watching configuration.
type WatchConfig struct {
	// Debounce is the debounce duration in milliseconds
	Debounce int `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the logrus level name
	Level string `mapstructure:"level" yaml:"level" json:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// configFileNames is the list of config file names to search for (in order).
var configFileNames = []string{
	"specforge.yaml",
	"specforge.json",
	".specforge.yaml",
	".specforge.json",
}

var (
	supportedCollisions      = []string{"overwrite", "error"}
	supportedMergeStrategies = []string{"keep-existing", "overwrite"}
	supportedMethods         = []string{"get", "post", "put", "delete"}
	supportedLogFormats      = []string{"json", "text"}
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("config validation errors:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Field)
		sb.WriteString(": ")
		sb.WriteString(err.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Output: "api.zip",
		Info: InfoConfig{
			Title:   "API",
			Version: "1.0.0",
		},
		Models: ModelsConfig{
			Paths:   []string{"."},
			Include: []string{"**/*.prisma"},
			Exclude: []string{"node_modules/**", ".git/**", "dist/**", "**/migrations/**"},
		},
		Generation: GenerationConfig{
			Collisions:    "overwrite",
			MergeStrategy: "keep-existing",
			BundleFile:    "schema.prisma",
			MetadataFile:  "info.json",
			PathsDir:      "paths",
			ComponentsDir: "components",
		},
		Archive: ArchiveConfig{
			Level:   9,
			Exclude: []string{},
		},
		Codegen: CodegenConfig{
			Name:     "generated-api",
			Endpoint: "/example",
			Method:   "get",
			Port:     3000,
		},
		Server: ServerConfig{
			Addr:            ":3000",
			AllowedOrigins:  []string{"*"},
			MaxBodyBytes:    10 << 20,
			ShutdownTimeout: 10,
		},
		Watch: WatchConfig{
			Debounce: 500,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads the configuration. Environment variables override the config
// file, which overrides the defaults.
//
// Without configPath the working directory is searched for:
// 1. specforge.yaml
// 2. specforge.json
// 3. .specforge.yaml
// 4. .specforge.json
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = ConfigFilePath()
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults mirrors Default so that every key is known to viper.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("output", d.Output)
	v.SetDefault("info.title", d.Info.Title)
	v.SetDefault("info.description", d.Info.Description)
	v.SetDefault("info.version", d.Info.Version)
	v.SetDefault("models.paths", d.Models.Paths)
	v.SetDefault("models.include", d.Models.Include)
	v.SetDefault("models.exclude", d.Models.Exclude)
	v.SetDefault("generation.collisions", d.Generation.Collisions)
	v.SetDefault("generation.propertyRequired", d.Generation.PropertyRequired)
	v.SetDefault("generation.includeModelComponents", d.Generation.IncludeModelComponents)
	v.SetDefault("generation.mergeStrategy", d.Generation.MergeStrategy)
	v.SetDefault("generation.bundleFile", d.Generation.BundleFile)
	v.SetDefault("generation.metadataFile", d.Generation.MetadataFile)
	v.SetDefault("generation.pathsDir", d.Generation.PathsDir)
	v.SetDefault("generation.componentsDir", d.Generation.ComponentsDir)
	v.SetDefault("archive.level", d.Archive.Level)
	v.SetDefault("archive.preserveModTime", d.Archive.PreserveModTime)
	v.SetDefault("archive.exclude", d.Archive.Exclude)
	v.SetDefault("staging.root", d.Staging.Root)
	v.SetDefault("codegen.name", d.Codegen.Name)
	v.SetDefault("codegen.endpoint", d.Codegen.Endpoint)
	v.SetDefault("codegen.method", d.Codegen.Method)
	v.SetDefault("codegen.port", d.Codegen.Port)
	v.SetDefault("codegen.delay", d.Codegen.Delay)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowedOrigins", d.Server.AllowedOrigins)
	v.SetDefault("server.maxBodyBytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.shutdownTimeout", d.Server.ShutdownTimeout)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs ValidationErrors

	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	oneOf := func(field, value string, allowed []string) {
		if value != "" && !contains(allowed, value) {
			add(field, "unsupported value %q, must be one of: %s", value, strings.Join(allowed, ", "))
		}
	}

	oneOf("generation.collisions", c.Generation.Collisions, supportedCollisions)
	oneOf("generation.mergeStrategy", c.Generation.MergeStrategy, supportedMergeStrategies)
	oneOf("codegen.method", strings.ToLower(c.Codegen.Method), supportedMethods)
	oneOf("log.format", c.Log.Format, supportedLogFormats)

	// Generated file names are relative to the project root
	for _, f := range []struct{ field, name string }{
		{"generation.bundleFile", c.Generation.BundleFile},
		{"generation.metadataFile", c.Generation.MetadataFile},
	} {
		if f.name == "" {
			add(f.field, "file name is required")
		} else if !isRelative(f.name) {
			add(f.field, "%q must be a relative path inside the project", f.name)
		}
	}

	if c.Archive.Level < 1 || c.Archive.Level > 9 {
		add("archive.level", "level must be between 1 and 9, got %d", c.Archive.Level)
	}
	for _, pattern := range c.Archive.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			add("archive.exclude", "invalid pattern %q", pattern)
		}
	}

	if len(c.Models.Include) == 0 {
		add("models.include", "at least one pattern is required")
	}
	for _, pattern := range append(append([]string{}, c.Models.Include...), c.Models.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			add("models", "invalid pattern %q", pattern)
		}
	}

	if c.Codegen.Port < 1 || c.Codegen.Port > 65535 {
		add("codegen.port", "port must be between 1 and 65535, got %d", c.Codegen.Port)
	}
	if c.Codegen.Delay < 0 {
		add("codegen.delay", "delay must be non-negative")
	}

	if c.Server.Addr == "" {
		add("server.addr", "address is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		add("server.maxBodyBytes", "limit must be positive")
	}

	if c.Watch.Debounce < 0 {
		add("watch.debounce", "debounce must be non-negative")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "unknown level %q", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ConfigFilePath returns the config file found in the working directory, if any.
func ConfigFilePath() string {
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func isRelative(name string) bool {
	clean := path.Clean(filepath.ToSlash(name))
	return !path.IsAbs(clean) && clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
