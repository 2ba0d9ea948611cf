package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/xyproto/env/v2"
)

// Version information for the aleph tools
const (
	Version   = "0.3.0"
	BuildDate = "2026-10-19"
	CommitSHA = "unknown" // Will be set during build
)

// VersionInfo contains version and build information
type VersionInfo struct {
	Version       string `json:"version"`
	BuildDate     string `json:"build_date"`
	CommitSHA     string `json:"commit_sha"`
	GoVersion     string `json:"go_version"`
	Platform      string `json:"platform"`
	Arch          string `json:"arch"`
	FormatVersion string `json:"format_version,omitempty"`
}

// GetVersionInfo returns structured version information
func GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion writes version information as text or JSON.
// formatVersion is the document format the tool emits and may be empty.
func PrintVersion(w io.Writer, toolName, formatVersion string, jsonOutput bool) {
	info := GetVersionInfo()
	info.FormatVersion = formatVersion

	if jsonOutput {
		data, err := json.MarshalIndent(map[string]interface{}{
			"tool":         toolName,
			"version_info": info,
		}, "", "  ")
		if err == nil {
			fmt.Fprintln(w, string(data))
			return
		}
		fmt.Fprintf(os.Stderr, "Error: Failed to marshal version info to JSON: %v\n", err)
	}

	fmt.Fprintf(w, "%s v%s\n", toolName, info.Version)
	fmt.Fprintf(w, "Build Date: %s\n", info.BuildDate)
	if info.CommitSHA != "unknown" && info.CommitSHA != "" {
		fmt.Fprintf(w, "Commit: %s\n", info.CommitSHA)
	}
	if info.FormatVersion != "" {
		fmt.Fprintf(w, "Document Format: %s\n", info.FormatVersion)
	}
	fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform: %s/%s\n", info.Platform, info.Arch)
}

// Logger provides leveled logging for CLI tools
type Logger struct {
	Verbose   bool
	DebugMode bool

	out io.Writer
	now func() time.Time
}

// NewLogger creates a logger writing to stderr
func NewLogger(verbose, debug bool) *Logger {
	return NewLoggerTo(os.Stderr, verbose, debug)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(w io.Writer, verbose, debug bool) *Logger {
	return &Logger{
		Verbose:   verbose,
		DebugMode: debug,
		out:       w,
		now:       time.Now,
	}
}

func (l *Logger) log(level, format string, args ...interface{}) {
	fmt.Fprintf(l.out, "[%s] %s: %s\n", level, l.now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose {
		l.log("INFO", format, args...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		l.log("DEBUG", format, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}

// Environment variables consulted by ApplyEnv.
const (
	EnvLevel         = "ALEPH_FOLD_LEVEL"
	EnvMaxIterations = "ALEPH_FOLD_MAX_ITERATIONS"
	EnvMaxDepth      = "ALEPH_FOLD_MAX_DEPTH"
	EnvConcurrency   = "ALEPH_FOLD_CONCURRENCY"
	EnvVerbose       = "ALEPH_FOLD_VERBOSE"
	EnvDebug         = "ALEPH_FOLD_DEBUG"
)

// Config holds the settings of the folding tools. Values are layered:
// defaults, then the JSON config file, then the environment, then flags.
type Config struct {
	Level         string `json:"level"`
	MaxIterations int    `json:"max_iterations"`
	MaxDepth      int    `json:"max_depth"`
	Concurrency   int    `json:"concurrency"`
	Stats         bool   `json:"stats"`
	Verbose       bool   `json:"verbose"`
	Debug         bool   `json:"debug"`

	ConfigFile string `json:"-"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Level:       "default",
		MaxDepth:    10000,
		Concurrency: DefaultConcurrency(),
	}
}

// DefaultConcurrency bounds parallel file processing to the number of CPUs, at least 2
func DefaultConcurrency() int {
	n := runtime.GOMAXPROCS(0)
	if n < 2 {
		n = 2
	}
	return n
}

// LoadConfig loads configuration from file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	config.ConfigFile = configPath

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Default config if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from ALEPH_FOLD_* environment variables.
// Unset variables leave the field alone; unparsable numbers keep the current value.
func (c *Config) ApplyEnv() {
	if level := strings.TrimSpace(env.Str(EnvLevel)); level != "" {
		c.Level = level
	}
	c.MaxIterations = env.Int(EnvMaxIterations, c.MaxIterations)
	c.MaxDepth = env.Int(EnvMaxDepth, c.MaxDepth)
	if n := env.Int(EnvConcurrency, c.Concurrency); n > 0 {
		c.Concurrency = n
	}
	if env.Has(EnvVerbose) {
		c.Verbose = env.Bool(EnvVerbose)
	}
	if env.Has(EnvDebug) {
		c.Debug = env.Bool(EnvDebug)
	}
}

// CommandInfo represents information about a CLI command
type CommandInfo struct {
	Name        string
	Usage       string
	Description string
	Examples    []string
	Flags       []FlagInfo
}

// FlagInfo represents information about a command flag
type FlagInfo struct {
	Name     string
	Usage    string
	Default  string
	Required bool
}

// PrintCommandUsage prints usage for a single-command tool
func PrintCommandUsage(w io.Writer, cmd CommandInfo) {
	fmt.Fprintf(w, "%s - %s\n\n", cmd.Name, cmd.Description)
	fmt.Fprintf(w, "USAGE:\n")
	fmt.Fprintf(w, "    %s\n\n", cmd.Usage)

	if len(cmd.Flags) > 0 {
		fmt.Fprintf(w, "OPTIONS:\n")
		for _, flag := range cmd.Flags {
			required := ""
			if flag.Required {
				required = " (required)"
			}

			fmt.Fprintf(w, "%-24s %s%s\n", "    -"+flag.Name, flag.Usage, required)
			if flag.Default != "" {
				fmt.Fprintf(w, "%-24s Default: %s\n", "", flag.Default)
			}
		}
		fmt.Fprintf(w, "\n")
	}

	if len(cmd.Examples) > 0 {
		fmt.Fprintf(w, "EXAMPLES:\n")
		for _, example := range cmd.Examples {
			fmt.Fprintf(w, "    %s\n", example)
		}
		fmt.Fprintf(w, "\n")
	}
}
