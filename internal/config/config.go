package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultRenderScale = 1.5
	DefaultApplyDelay  = 100 * time.Millisecond
	DefaultCustomColor = "#4CAF50"
	DefaultOutputDir   = "exports"
	DefaultStateFile   = ".pdf-annotator/state.json"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "PDF_ANNOTATOR"
)

// Config holds all configuration for the annotator MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	DocumentDirectory string
	OutputDirectory   string
	StateFile         string
	MaxFileSize       int64 // Maximum document file size in bytes
	RenderScale       float64

	// Viewer configuration
	ApplyDelay  time.Duration
	CustomColor string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio,
		Host:              DefaultHost,
		Port:              DefaultPort,
		DocumentDirectory: currentDir,
		OutputDirectory:   filepath.Join(currentDir, DefaultOutputDir),
		StateFile:         filepath.Join(currentDir, DefaultStateFile),
		MaxFileSize:       DefaultMaxFileSize,
		RenderScale:       DefaultRenderScale,
		ApplyDelay:        DefaultApplyDelay,
		CustomColor:       DefaultCustomColor,
		Version:           "1.0.0",
		ServerName:        "mcp-pdf-annotator",
		LogLevel:          DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.DocumentDirectory)
	viper.SetDefault("out", cfg.OutputDirectory)
	viper.SetDefault("state", cfg.StateFile)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
	viper.SetDefault("render-scale", cfg.RenderScale)
	viper.SetDefault("apply-delay", cfg.ApplyDelay)
	viper.SetDefault("custom-color", cfg.CustomColor)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP (SSE) server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.DocumentDirectory, "Directory containing documents to annotate")
	pflag.String("out", cfg.OutputDirectory, "Directory receiving exported files")
	pflag.String("state", cfg.StateFile, "File holding persisted viewer settings")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum document file size in bytes")
	pflag.Float64("render-scale", cfg.RenderScale, "Scale applied to PDF page dimensions")
	pflag.Duration("apply-delay", cfg.ApplyDelay, "Delay before visibility is applied to a freshly rendered page")
	pflag.String("custom-color", cfg.CustomColor, "Fill colour of the custom annotation mode")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "out", "state",
		"log-level", "max-file-size", "render-scale", "apply-delay", "custom-color",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Annotator - A Model Context Protocol server for highlighting documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/docs --out=/tmp/exports  "+
			"# custom document and export directories\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # SSE server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_MODE           Server mode\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_HOST           Server host\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_PORT           Server port\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_DIR            Document directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_OUT            Export directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_STATE          Settings file\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_LOG_LEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_MAX_FILE_SIZE  Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_RENDER_SCALE   PDF render scale\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_APPLY_DELAY    Visibility apply delay\n")
		fmt.Fprintf(os.Stderr, "  PDF_ANNOTATOR_CUSTOM_COLOR   Custom annotation colour\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DocumentDirectory = viper.GetString("dir")
	cfg.OutputDirectory = viper.GetString("out")
	cfg.StateFile = viper.GetString("state")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.RenderScale = viper.GetFloat64("render-scale")
	cfg.ApplyDelay = viper.GetDuration("apply-delay")
	cfg.CustomColor = viper.GetString("custom-color")
}

func (c *Config) expandPaths() {
	for _, p := range []*string{&c.DocumentDirectory, &c.OutputDirectory, &c.StateFile} {
		if *p == "" {
			continue
		}
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}
	if err := ensureDir(c.DocumentDirectory); err != nil {
		return err
	}

	if c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}
	if c.StateFile == "" {
		return errors.New("state file cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.RenderScale <= 0 {
		return errors.New("render scale must be positive")
	}
	if c.ApplyDelay < 0 {
		return errors.New("apply delay cannot be negative")
	}
	if strings.TrimSpace(c.CustomColor) == "" {
		return errors.New("custom color cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// ensureDir creates dir when it does not exist yet
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", dir, err)
	}
	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DocumentDirectory: %s, OutputDirectory: %s, "+
		"StateFile: %s, LogLevel: %s, MaxFileSize: %d, RenderScale: %.2f, ApplyDelay: %s}",
		c.Mode, c.Host, c.Port, c.DocumentDirectory, c.OutputDirectory,
		c.StateFile, c.LogLevel, c.MaxFileSize, c.RenderScale, c.ApplyDelay)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
