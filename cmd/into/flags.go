package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	GraphPath   string
	LogLevel    string
	LogFormat   string
	Debug       bool
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.GraphPath, "graph",
		getEnv("INTO_GRAPH", "graphs/example.yaml"),
		"Path to graph definition file (env: INTO_GRAPH)")

	flag.StringVar(&cfg.GraphPath, "g",
		getEnv("INTO_GRAPH", "graphs/example.yaml"),
		"Path to graph definition file (env: INTO_GRAPH)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("INTO_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: INTO_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("INTO_LOG_FORMAT", "text"),
		"Log format: json, text (env: INTO_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("INTO_DEBUG", false),
		"Enable debug mode (env: INTO_DEBUG)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate the graph and exit")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if _, err := os.Stat(cfg.GraphPath); err != nil {
		return fmt.Errorf("graph file not found: %s", cfg.GraphPath)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Dataflow Pipeline Runner

Executes a dataflow graph defined in a YAML file. Operations are created
through the built-in factory registry, connected socket to socket, and
run until every source is exhausted or a signal arrives.

Usage:
  %s [flags]

Flags:
  -graph, -g        Path to graph definition file (default graphs/example.yaml)
  -log-level        Log level: debug, info, warn, error (default info)
  -log-format       Log format: json, text (default text)
  -debug            Enable debug mode
  -validate         Validate the graph and exit
  -version, -v      Show version information
  -help, -h         Show this help

Environment:
  INTO_GRAPH        Graph file path
  INTO_LOG_LEVEL    Log level
  INTO_LOG_FORMAT   Log format
  INTO_DEBUG        Debug mode

Example graph file:

  name: example
  operations:
    - name: source
      type: generator
      config:
        count: 10
    - name: doubler
      type: scale
      config:
        factor: 2
    - name: printer
      type: debug
  connections:
    - from: source.output
      to: [doubler.input]
    - from: doubler.output
      to: [printer.input]
`, appName, appName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
